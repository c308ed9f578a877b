package types

import (
	"encoding/binary"
	"time"
)

// Timestamps on disk count 100-nanosecond intervals since 1601-01-01 UTC.
const (
	filetimeTicksPerSecond = 10_000_000
	filetimeUnixEpochDelta = 11_644_473_600
)

// FiletimeToTime converts a 1601-epoch tick count to calendar time in UTC.
// Zero stays the zero time.
func FiletimeToTime(ticks uint64) time.Time {
	if ticks == 0 {
		return time.Time{}
	}
	sec := int64(ticks/filetimeTicksPerSecond) - filetimeUnixEpochDelta
	nsec := int64(ticks%filetimeTicksPerSecond) * 100
	return time.Unix(sec, nsec).UTC()
}

// TimeToFiletime converts calendar time back to a 1601-epoch tick count.
func TimeToFiletime(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	sec := uint64(t.Unix() + filetimeUnixEpochDelta)
	return sec*filetimeTicksPerSecond + uint64(t.Nanosecond()/100)
}

// Timestamps is the set of four times carried by file records and some log values.
type Timestamps struct {
	Created  time.Time `json:"created" yaml:"created"`
	Accessed time.Time `json:"accessed" yaml:"accessed"`
	Modified time.Time `json:"modified" yaml:"modified"`
	Changed  time.Time `json:"changed" yaml:"changed"`
}

// TimestampsSize is the encoded size of four tick counts.
const TimestampsSize = 32

// ParseTimestamps decodes four consecutive little-endian tick counts: created, accessed, modified, changed.
// data must hold at least TimestampsSize bytes.
func ParseTimestamps(data []byte) Timestamps {
	tick := func(i int) time.Time {
		return FiletimeToTime(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	}
	return Timestamps{
		Created:  tick(0),
		Accessed: tick(1),
		Modified: tick(2),
		Changed:  tick(3),
	}
}

// EncodeTimestamps is the inverse of ParseTimestamps
func EncodeTimestamps(ts Timestamps) []byte {
	out := make([]byte, TimestampsSize)
	for i, t := range []time.Time{ts.Created, ts.Accessed, ts.Modified, ts.Changed} {
		binary.LittleEndian.PutUint64(out[i*8:], TimeToFiletime(t))
	}
	return out
}
