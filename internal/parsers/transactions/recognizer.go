package transactions

import (
	"fmt"
	"iter"
	"strings"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// Result is what the recognizer made of one group. Operation is set for matched signatures, Fields for
// decoded single contexts, Reason for everything else.
type Result struct {
	Group     *Group
	Outcome   Outcome
	Signature string
	Operation *Operation
	Fields    *Fields
	Reason    string
}

// Recognizer turns groups into operations
type Recognizer struct {
	log logrus.FieldLogger
}

// NewRecognizer returns a recognizer reporting unrecognized groups to log
func NewRecognizer(log logrus.FieldLogger) *Recognizer {
	return &Recognizer{log: diagnostics.OrDiscard(log).WithField("component", "recognizer")}
}

// Recognize decodes a single-context group by opcode and matches a larger group against the signature
// catalog
func (r *Recognizer) Recognize(g *Group) *Result {
	result := &Result{Group: g}
	if len(g.Contexts) == 0 {
		result.Outcome = OutcomeUnrecognized
		result.Reason = "empty group"
		return result
	}

	if len(g.Contexts) == 1 {
		c := g.Contexts[0]
		fields, outcome, err := DecodeContext(c)
		result.Outcome = outcome
		result.Fields = fields
		if err != nil {
			result.Reason = err.Error()
			r.report(g, outcome, result.Reason)
		}
		return result
	}

	ops := g.Opcodes()
	signature, ok := Match(ops)
	if !ok {
		result.Outcome = OutcomeUnrecognized
		result.Reason = fmt.Sprintf("no signature matches %s", FormatOpcodes(ops))
		r.report(g, result.Outcome, result.Reason)
		return result
	}

	op := &Operation{
		Kind:      signature.Kind,
		Signature: signature.Name,
		LSN:       g.LSN(),
		Members:   len(g.Contexts),
	}
	signature.extract(op, g.Contexts)

	result.Outcome = OutcomeDecoded
	result.Signature = signature.Name
	result.Operation = op
	return result
}

func (r *Recognizer) report(g *Group, outcome Outcome, reason string) {
	r.log.WithFields(logrus.Fields{
		"outcome": outcome.String(),
		"lsn":     fmt.Sprintf("%#x", g.LSN()),
		"opcodes": FormatOpcodes(g.Opcodes()),
	}).Debug(reason)
}

// FormatOpcodes renders an opcode sequence as [0x2, 0x5, 0x1]
func FormatOpcodes(ops []types.RedoOpcode) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = fmt.Sprintf("%#x", uint32(op))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Analyze groups a context sequence and recognizes every group
func Analyze(contexts iter.Seq2[*logfile.Context, error], log logrus.FieldLogger) iter.Seq2[*Result, error] {
	return func(yield func(*Result, error) bool) {
		recognizer := NewRecognizer(log)
		for group, err := range Groups(contexts, log) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(recognizer.Recognize(group), nil) {
				return
			}
		}
	}
}

// Operations yields only the recognized operations of a result sequence
func Operations(results iter.Seq2[*Result, error]) iter.Seq2[*Operation, error] {
	return func(yield func(*Operation, error) bool) {
		for result, err := range results {
			if err != nil {
				yield(nil, err)
				return
			}
			if result.Operation == nil {
				continue
			}
			if !yield(result.Operation, nil) {
				return
			}
		}
	}
}
