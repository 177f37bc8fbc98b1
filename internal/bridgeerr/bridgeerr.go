// Package bridgeerr defines the sentinel error taxonomy shared across the
// bridge's components, matching the error kinds enumerated in the failure
// semantics table: config parsing, endpoint lifecycle, and buffer overflow.
// Components wrap these with fmt.Errorf("...: %w", ...) and callers compare
// with errors.Is.
package bridgeerr

import "errors"

var (
	// ErrConfigInvalid means a channel config is missing or malformed
	// fields. Fatal for --update; causes the reconciliation loop to skip
	// the current tick and retain the previous state.
	ErrConfigInvalid = errors.New("bridge: invalid channel configuration")

	// ErrEndpointOpenFailed means Open failed on its first attempt.
	// Client-style endpoints retry; server-style endpoints do not.
	ErrEndpointOpenFailed = errors.New("bridge: endpoint open failed")

	// ErrEndpointTransient means an I/O error occurred after a successful
	// open. Client-style endpoints reconnect; server-style endpoints drop
	// the affected peer and keep listening.
	ErrEndpointTransient = errors.New("bridge: transient endpoint error")

	// ErrEndpointPermanent means the endpoint cannot ever succeed with its
	// current configuration (unsupported baud rate, bind failure). The
	// channel remains stopped; the manager logs and continues.
	ErrEndpointPermanent = errors.New("bridge: permanent endpoint error")

	// ErrBufferOverflow means a push exceeded the ring buffer's free
	// space; the chunk was dropped in its entirety.
	ErrBufferOverflow = errors.New("bridge: ring buffer overflow")
)
