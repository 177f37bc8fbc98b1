package channel

import "sync/atomic"

// Stats holds the per-channel byte/drop counters exposed over the admin
// API, one pair of counters per forwarding direction.
type Stats struct {
	bytesAtoB atomic.Int64
	bytesBtoA atomic.Int64
	dropsAtoB atomic.Int64
	dropsBtoA atomic.Int64
}

// Snapshot is the point-in-time, JSON-friendly view of Stats.
type Snapshot struct {
	BytesAtoB int64 `json:"bytes_a_to_b"`
	BytesBtoA int64 `json:"bytes_b_to_a"`
	DropsAtoB int64 `json:"drops_a_to_b"`
	DropsBtoA int64 `json:"drops_b_to_a"`
}

func (s *Stats) recordForwarded(dir direction, n int) {
	if dir == aToB {
		s.bytesAtoB.Add(int64(n))
	} else {
		s.bytesBtoA.Add(int64(n))
	}
}

func (s *Stats) recordDropped(dir direction) {
	if dir == aToB {
		s.dropsAtoB.Add(1)
	} else {
		s.dropsBtoA.Add(1)
	}
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		BytesAtoB: s.bytesAtoB.Load(),
		BytesBtoA: s.bytesBtoA.Load(),
		DropsAtoB: s.dropsAtoB.Load(),
		DropsBtoA: s.dropsBtoA.Load(),
	}
}
