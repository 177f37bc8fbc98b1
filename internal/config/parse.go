package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
)

// StandardBaudRates is the enumerated set of baud rates the serial driver
// accepts. Open fails with ErrEndpointPermanent for any other value.
var StandardBaudRates = map[uint32]bool{
	50: true, 75: true, 110: true, 134: true, 150: true, 200: true,
	300: true, 600: true, 1200: true, 1800: true, 2400: true, 4800: true,
	9600: true, 19200: true, 38400: true, 57600: true, 115200: true,
	230400: true, 460800: true, 500000: true, 576000: true, 921600: true,
	1000000: true, 1152000: true, 1500000: true, 2000000: true,
	2500000: true, 3000000: true, 3500000: true, 4000000: true,
}

// Format identifies which syntax a channel config file uses.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
)

// DetectFormat chooses a parser based on the file extension, mirroring
// ConfigParserFactory::detectFormat in the original implementation.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// ParseFile detects the format from the file's extension and parses it.
func ParseFile(filename string, data []byte) ([]ChannelConfig, error) {
	switch DetectFormat(filename) {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: unrecognized config file extension %q", bridgeerr.ErrConfigInvalid, filepath.Ext(filename))
	}
}

// rawFile mirrors File but with a legacy-compatible raw endpoint shape, so
// we can accept the previous (ip, port) field names before validating and
// normalizing into EndpointConfig.
type rawFile struct {
	Channels []rawChannel `json:"channels" yaml:"channels"`
}

type rawChannel struct {
	Name   string      `json:"name"   yaml:"name"`
	Input  rawEndpoint `json:"input"  yaml:"input"`
	Output rawEndpoint `json:"output" yaml:"output"`
}

type rawEndpoint struct {
	Type EndpointType `json:"type" yaml:"type"`
	IP   string       `json:"ip"   yaml:"ip"`
	Port uint16       `json:"port" yaml:"port"`

	// previous field names, still accepted for tcp_client.
	ServerIP   string `json:"server_ip"   yaml:"server_ip"`
	ServerPort uint16 `json:"server_port" yaml:"server_port"`

	SerialPort    string `json:"serial_port" yaml:"serial_port"`
	SerialPortAlt string `json:"port_path"   yaml:"port_path"` // rarely used alias, kept for completeness
	BaudRate      uint32 `json:"baud_rate"   yaml:"baud_rate"`
}

// ParseJSON parses the JSON channel-config document shape from §6.
func ParseJSON(data []byte) ([]ChannelConfig, error) {
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", bridgeerr.ErrConfigInvalid, err)
	}
	return normalize(raw)
}

// ParseYAML parses the YAML channel-config document — same schema as JSON.
func ParseYAML(data []byte) ([]ChannelConfig, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", bridgeerr.ErrConfigInvalid, err)
	}
	return normalize(raw)
}

func normalize(raw rawFile) ([]ChannelConfig, error) {
	out := make([]ChannelConfig, 0, len(raw.Channels))
	seen := make(map[string]bool, len(raw.Channels))
	for _, rc := range raw.Channels {
		if rc.Name == "" {
			return nil, fmt.Errorf("%w: channel with empty name", bridgeerr.ErrConfigInvalid)
		}
		if seen[rc.Name] {
			return nil, fmt.Errorf("%w: duplicate channel name %q", bridgeerr.ErrConfigInvalid, rc.Name)
		}
		seen[rc.Name] = true

		a, err := normalizeEndpoint(rc.Input)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %q input: %w", bridgeerr.ErrConfigInvalid, rc.Name, err)
		}
		b, err := normalizeEndpoint(rc.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %q output: %w", bridgeerr.ErrConfigInvalid, rc.Name, err)
		}

		out = append(out, ChannelConfig{Name: rc.Name, EndpointA: a, EndpointB: b})
	}
	return out, nil
}

func normalizeEndpoint(re rawEndpoint) (EndpointConfig, error) {
	switch re.Type {
	case TCPServer:
		if re.Port == 0 {
			return EndpointConfig{}, fmt.Errorf("tcp_server requires port")
		}
		return EndpointConfig{Type: TCPServer, Port: re.Port}, nil

	case TCPClient:
		ip := re.IP
		if ip == "" {
			ip = re.ServerIP
		}
		port := re.Port
		if port == 0 {
			port = re.ServerPort
		}
		if ip == "" || port == 0 {
			return EndpointConfig{}, fmt.Errorf("tcp_client requires ip and port")
		}
		return EndpointConfig{Type: TCPClient, IP: ip, Port: port}, nil

	case UDPServer:
		if re.Port == 0 {
			return EndpointConfig{}, fmt.Errorf("udp_server requires port")
		}
		return EndpointConfig{Type: UDPServer, Port: re.Port}, nil

	case UDPClient:
		if re.IP == "" || re.Port == 0 {
			return EndpointConfig{}, fmt.Errorf("udp_client requires ip and port")
		}
		return EndpointConfig{Type: UDPClient, IP: re.IP, Port: re.Port}, nil

	case Serial:
		path := re.SerialPort
		if path == "" {
			path = re.SerialPortAlt
		}
		if path == "" || re.BaudRate == 0 {
			return EndpointConfig{}, fmt.Errorf("serial requires serial_port and baud_rate")
		}
		if !StandardBaudRates[re.BaudRate] {
			return EndpointConfig{}, fmt.Errorf("%w: unsupported baud rate %d", bridgeerr.ErrEndpointPermanent, re.BaudRate)
		}
		return EndpointConfig{Type: Serial, SerialPort: path, BaudRate: re.BaudRate}, nil

	default:
		return EndpointConfig{}, fmt.Errorf("unrecognized endpoint type %q", re.Type)
	}
}

// Marshal serializes channel configs back to the given format — used for
// round-trip tests and for writing the file the --update flag consumes in
// tests that exercise the full parse(serialize(C)) == C property.
func Marshal(channels []ChannelConfig, format Format) ([]byte, error) {
	f := File{Channels: channels}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatYAML:
		return yaml.Marshal(f)
	default:
		return nil, fmt.Errorf("%w: unknown format", bridgeerr.ErrConfigInvalid)
	}
}
