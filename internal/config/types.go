// Package config defines the channel configuration data model — the
// EndpointConfig/ChannelConfig tagged variants shared by the JSON/YAML file
// parser, the SQLite store, and the reconciliation loop's diff.
package config

// EndpointType identifies which of the five supported drivers an
// EndpointConfig describes.
type EndpointType string

const (
	TCPServer EndpointType = "tcp_server"
	TCPClient EndpointType = "tcp_client"
	UDPServer EndpointType = "udp_server"
	UDPClient EndpointType = "udp_client"
	Serial    EndpointType = "serial"
)

// EndpointConfig is a tagged variant: Type determines which of the
// remaining fields are meaningful. Equality is structural — two configs of
// different types, or the same type with different fields, compare unequal
// even though irrelevant fields are left at their zero value.
type EndpointConfig struct {
	Type EndpointType `json:"type"              yaml:"type"`

	// IP: tcp_client, udp_client. Port: all four network types.
	IP   string `json:"ip,omitempty"   yaml:"ip,omitempty"`
	Port uint16 `json:"port,omitempty" yaml:"port,omitempty"`

	// serial
	SerialPort string `json:"serial_port,omitempty" yaml:"serial_port,omitempty"`
	BaudRate   uint32 `json:"baud_rate,omitempty"   yaml:"baud_rate,omitempty"`
}

// ChannelConfig is the stable unit of configuration: a unique Name plus the
// two endpoints it bridges. Equality is structural over all three fields,
// so "same name, different endpoints" compares unequal and must be
// replaced rather than left running.
type ChannelConfig struct {
	Name      string         `json:"name" yaml:"name"`
	EndpointA EndpointConfig `json:"input"  yaml:"input"`
	EndpointB EndpointConfig `json:"output" yaml:"output"`
}

// Equal reports structural equality, matching the C++ original's explicit
// operator== on ChannelConfig (original_source/test1_v4/shared_structs.h).
// Go's comparable structs already give us this via ==, but Equal documents
// the invariant at call sites that diff configs.
func (c ChannelConfig) Equal(other ChannelConfig) bool {
	return c == other
}

// File is the root document shape for both JSON and YAML channel config
// files: `{"channels": [...]}`.
type File struct {
	Channels []ChannelConfig `json:"channels" yaml:"channels"`
}
