package store

import (
	"database/sql"
	"fmt"

	"github.com/corvidsystems/bridge/internal/config"
)

const selectChannelsSQL = `
SELECT c.name,
       i.type, i.port, i.ip, i.serial_port, i.baud_rate,
       o.type, o.port, o.ip, o.serial_port, o.baud_rate
FROM channels c
JOIN endpoints i ON i.channel_id = c.id AND i.role = 'input'
JOIN endpoints o ON o.channel_id = c.id AND o.role = 'output'
ORDER BY c.name
`

// LoadChannels returns every persisted channel configuration, ordered by
// name so repeated loads of an unchanged table are comparable byte-for-byte
// by the reconciliation loop's diff.
func (s *Store) LoadChannels() ([]config.ChannelConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(selectChannelsSQL)
	if err != nil {
		return nil, fmt.Errorf("store: load channels: %w", err)
	}
	defer rows.Close()

	var out []config.ChannelConfig
	for rows.Next() {
		var name string
		var a, b config.EndpointConfig
		var aPort, bPort sql.NullInt64
		var aIP, bIP, aSerial, bSerial sql.NullString
		var aBaud, bBaud sql.NullInt64

		if err := rows.Scan(
			&name,
			&a.Type, &aPort, &aIP, &aSerial, &aBaud,
			&b.Type, &bPort, &bIP, &bSerial, &bBaud,
		); err != nil {
			return nil, fmt.Errorf("store: scan channel row: %w", err)
		}

		applyNullable(&a, aPort, aIP, aSerial, aBaud)
		applyNullable(&b, bPort, bIP, bSerial, bBaud)

		out = append(out, config.ChannelConfig{Name: name, EndpointA: a, EndpointB: b})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load channels: %w", err)
	}
	return out, nil
}

func applyNullable(e *config.EndpointConfig, port sql.NullInt64, ip, serialPort sql.NullString, baud sql.NullInt64) {
	if port.Valid {
		e.Port = uint16(port.Int64)
	}
	if ip.Valid {
		e.IP = ip.String
	}
	if serialPort.Valid {
		e.SerialPort = serialPort.String
	}
	if baud.Valid {
		e.BaudRate = uint32(baud.Int64)
	}
}

// ReplaceChannels atomically replaces the entire channel table: DELETE-all
// then INSERT, within a single transaction, matching the C++ original's
// replace_channels semantics.
func (s *Store) ReplaceChannels(channels []config.ChannelConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: replace channels: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	if _, err := tx.Exec("DELETE FROM endpoints"); err != nil {
		return fmt.Errorf("store: replace channels: clear endpoints: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM channels"); err != nil {
		return fmt.Errorf("store: replace channels: clear channels: %w", err)
	}

	for _, c := range channels {
		res, err := tx.Exec("INSERT INTO channels (name) VALUES (?)", c.Name)
		if err != nil {
			return fmt.Errorf("store: replace channels: insert channel %q: %w", c.Name, err)
		}
		channelID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: replace channels: channel id %q: %w", c.Name, err)
		}

		if err := insertEndpoint(tx, channelID, "input", c.EndpointA); err != nil {
			return fmt.Errorf("store: replace channels: channel %q input: %w", c.Name, err)
		}
		if err := insertEndpoint(tx, channelID, "output", c.EndpointB); err != nil {
			return fmt.Errorf("store: replace channels: channel %q output: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: replace channels: commit: %w", err)
	}
	return nil
}

func insertEndpoint(tx *sql.Tx, channelID int64, role string, e config.EndpointConfig) error {
	_, err := tx.Exec(
		`INSERT INTO endpoints (channel_id, role, type, port, ip, serial_port, baud_rate)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		channelID, role, string(e.Type),
		nullableUint16(e.Port), nullableString(e.IP), nullableString(e.SerialPort), nullableUint32(e.BaudRate),
	)
	return err
}

func nullableUint16(v uint16) any {
	if v == 0 {
		return nil
	}
	return int64(v)
}

func nullableUint32(v uint32) any {
	if v == 0 {
		return nil
	}
	return int64(v)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
