package endpoint

import (
	"fmt"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
	"github.com/corvidsystems/bridge/internal/config"
)

// New builds the concrete driver named by cfg.Type. It performs no I/O;
// the returned Endpoint is unopened.
func New(cfg config.EndpointConfig) (Endpoint, error) {
	switch cfg.Type {
	case config.TCPServer:
		return NewTCPServer(cfg.Port), nil
	case config.TCPClient:
		return NewTCPClient(cfg.IP, cfg.Port), nil
	case config.UDPServer:
		return NewUDPServer(cfg.Port), nil
	case config.UDPClient:
		return NewUDPClient(cfg.IP, cfg.Port), nil
	case config.Serial:
		return NewSerial(cfg.SerialPort, cfg.BaudRate), nil
	default:
		return nil, fmt.Errorf("%w: unknown endpoint type %q", bridgeerr.ErrConfigInvalid, cfg.Type)
	}
}
