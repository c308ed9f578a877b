package transactions

import (
	"iter"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// Group is a run of transaction contexts that together form one logical operation
type Group struct {
	Contexts []*logfile.Context

	// Incomplete marks a group emitted without its end marker
	Incomplete bool
}

// Opcodes returns the opcode of every member in order
func (g *Group) Opcodes() []types.RedoOpcode {
	ops := make([]types.RedoOpcode, len(g.Contexts))
	for i, c := range g.Contexts {
		ops[i] = c.Opcode()
	}
	return ops
}

// LSN returns the LSN of the first member
func (g *Group) LSN() uint64 {
	if len(g.Contexts) == 0 {
		return 0
	}
	return g.Contexts[0].LSN
}

// Grouper accumulates contexts by rec_mark. It is idle when nothing is pending.
type Grouper struct {
	pending []*logfile.Context
	log     logrus.FieldLogger
}

// NewGrouper returns an idle grouper
func NewGrouper(log logrus.FieldLogger) *Grouper {
	return &Grouper{log: diagnostics.OrDiscard(log).WithField("component", "grouper")}
}

// Feed consumes one context and returns the groups it completes. A zero rec_mark is a group on its own; if
// contexts are pending at that point they are emitted first as an incomplete group. Any other mark appends
// the context once, and the end bit then emits the accumulated group.
func (g *Grouper) Feed(c *logfile.Context) []*Group {
	mark := c.RecMark()

	if mark == 0 {
		var out []*Group
		if pending := g.Flush(); pending != nil {
			out = append(out, pending)
		}
		return append(out, &Group{Contexts: []*logfile.Context{c}})
	}

	if mark&(types.RecMarkStart|types.RecMarkEnd|types.RecMarkContinue) == 0 {
		g.log.WithField("rec_mark", mark).Debug("unknown rec_mark bits, treated as continuation")
	}
	if mark&types.RecMarkStart != 0 && len(g.pending) > 0 {
		g.log.WithField("pending", len(g.pending)).Debug("start marker while accumulating")
	}

	g.pending = append(g.pending, c)
	if mark&types.RecMarkEnd == 0 {
		return nil
	}

	group := &Group{Contexts: g.pending}
	g.pending = nil
	return []*Group{group}
}

// Flush returns the pending contexts as an incomplete group, or nil when idle
func (g *Grouper) Flush() *Group {
	if len(g.pending) == 0 {
		return nil
	}
	group := &Group{Contexts: g.pending, Incomplete: true}
	g.pending = nil
	g.log.WithField("members", len(group.Contexts)).Debug("flushing incomplete group")
	return group
}

// Groups groups a context sequence. Contexts still pending at the end of the input are emitted as an
// incomplete group.
func Groups(contexts iter.Seq2[*logfile.Context, error], log logrus.FieldLogger) iter.Seq2[*Group, error] {
	return func(yield func(*Group, error) bool) {
		grouper := NewGrouper(log)
		for c, err := range contexts {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, group := range grouper.Feed(c) {
				if !yield(group, nil) {
					return
				}
			}
		}
		if group := grouper.Flush(); group != nil {
			yield(group, nil)
		}
	}
}
