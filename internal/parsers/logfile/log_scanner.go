package logfile

import (
	"errors"
	"fmt"
	"iter"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// Log is an assembled log byte range: control page, duplicate control page, then the data area
type Log struct {
	data        []byte
	control     *Control
	controlDup  *Control
	overwritten bool
	start       int
	log         logrus.FieldLogger
}

// Open decodes the control pages of a log byte range and positions the scan. When the page right after the
// control area carries no MLog signature, one more page is skipped before data entries begin.
func Open(data []byte, log logrus.FieldLogger) (*Log, error) {
	log = diagnostics.OrDiscard(log).WithField("component", "logfile")

	controlEnd := types.LogControlPages * types.LogPageSize
	if len(data) < controlEnd {
		return nil, fmt.Errorf("log of %d bytes has no room for its control area: %w", len(data), types.ErrCorruptLogEntry)
	}

	control, dup, err := decodeControlPair(data[:types.LogPageSize], data[types.LogPageSize:controlEnd], log)
	if err != nil {
		return nil, err
	}

	l := &Log{data: data, control: control, controlDup: dup, start: controlEnd, log: log}

	l.overwritten = len(data) >= controlEnd+4 && string(data[controlEnd:controlEnd+4]) == types.SignatureLogEntry
	if !l.overwritten {
		log.Warn("no log entry after the control area, skipping one page")
		l.start += types.LogPageSize
	}

	return l, nil
}

// Overwritten reports whether a data entry immediately follows the control area
func (l *Log) Overwritten() bool {
	return l.overwritten
}

// Control returns the primary control entry
func (l *Log) Control() *Control {
	return l.control
}

// ControlDup returns the duplicate control entry, nil when it could not be decoded
func (l *Log) ControlDup() *Control {
	return l.controlDup
}

// Entries yields the data entries of the log. The scan ends at the first page without the MLog signature;
// in overwritten mode such a page is reported as ErrCorruptLogEntry. Each call scans from the beginning.
func (l *Log) Entries() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for pos := l.start; pos+types.LogPayloadOffset <= len(l.data); pos += types.LogPageSize {
			page := l.data[pos:min(pos+types.LogPageSize, len(l.data))]

			entry, err := DecodeEntry(page)
			if errors.Is(err, types.ErrBadSignature) {
				if !l.overwritten {
					l.log.WithField("offset", fmt.Sprintf("%#x", pos)).Debug("end of log entries")
					return
				}
				err = fmt.Errorf("page at %#x: %w", pos, types.ErrCorruptLogEntry)
			}
			if err != nil {
				yield(nil, fmt.Errorf("page at %#x: %w", pos, err))
				return
			}

			entry.Offset = int64(pos)
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Contexts yields every transaction context of every entry in log order
func (l *Log) Contexts() iter.Seq2[*Context, error] {
	return func(yield func(*Context, error) bool) {
		for entry, err := range l.Entries() {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, record := range entry.Records {
				for _, c := range record.Contexts {
					if !yield(c, nil) {
						return
					}
				}
			}
		}
	}
}
