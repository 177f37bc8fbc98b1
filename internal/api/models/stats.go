package models

// HealthResponse is the body of GET /healthz: liveness plus a cheap
// snapshot of process resource usage, so a monitoring probe gets both in
// one round trip.
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
}

// EndpointResponse is the JSON-safe view of one endpoint's configuration.
// Fields that don't apply to Type are omitted rather than zero-valued, so
// the response shape documents which fields are meaningful.
type EndpointResponse struct {
	Type       string `json:"type"`
	IP         string `json:"ip,omitempty"`
	Port       uint16 `json:"port,omitempty"`
	SerialPort string `json:"serial_port,omitempty"`
	BaudRate   uint32 `json:"baud_rate,omitempty"`
}

// ChannelResponse describes one running channel: its endpoints, connection
// states, and forwarding counters. State/bytes/drops fields are flat per
// the admin API's documented field names; endpoint detail rides alongside
// as enrichment.
type ChannelResponse struct {
	Name      string           `json:"name"`
	EndpointA EndpointResponse `json:"endpoint_a"`
	EndpointB EndpointResponse `json:"endpoint_b"`
	StateA    string           `json:"state_a"`
	StateB    string           `json:"state_b"`
	BytesAB   int64            `json:"bytes_ab"`
	BytesBA   int64            `json:"bytes_ba"`
	DropsAB   int64            `json:"drops_ab"`
	DropsBA   int64            `json:"drops_ba"`
}

// ChannelListResponse wraps the channel-list endpoint's body.
type ChannelListResponse struct {
	Channels []ChannelResponse `json:"channels"`
}
