package logging

import (
	"encoding/hex"
	"log/slog"
	"unicode/utf8"
)

// ForChannel returns a logger pre-tagged with the given channel name,
// satisfying the external "log sink" boundary's per-channel scoping
// (spec.md §1: log(level, channel, message)).
func ForChannel(logger *slog.Logger, channel string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With("channel", channel)
}

// LogBinary renders a byte slice at DEBUG level, either as hex or — when
// asText is set and the bytes are valid UTF-8 — as raw text. This is the
// concrete implementation of the external log_binary(channel, prefix, bytes)
// boundary from spec.md §1.
func LogBinary(logger *slog.Logger, prefix string, data []byte, asText bool) {
	if logger == nil {
		return
	}
	if asText && utf8.Valid(data) {
		logger.Debug(prefix, "bytes", len(data), "text", string(data))
		return
	}
	logger.Debug(prefix, "bytes", len(data), "hex", hex.EncodeToString(data))
}
