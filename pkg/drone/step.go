// SPDX-License-Identifier: MPL-2.0

package drone

import "strings"

// ExpressionMarker is the leading character that marks a build step as an
// expression evaluated in-process rather than a host shell command.
const ExpressionMarker = '('

const (
	// StepShell is a command line handed to the host shell.
	StepShell StepKind = iota
	// StepExpression is evaluated by the embedded interpreter.
	StepExpression
)

type (
	// StepKind tags the variant of a Step.
	StepKind int

	// Step is one entry of a drone's build-step list.
	Step struct {
		Kind StepKind
		Text string
	}
)

// ParseStep classifies a raw build-step string. This is the only place
// the leading marker is inspected; callers dispatch on Kind.
func ParseStep(raw string) Step {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, string(ExpressionMarker)) {
		return Step{Kind: StepExpression, Text: trimmed}
	}
	return Step{Kind: StepShell, Text: trimmed}
}

// String returns the step kind name.
func (k StepKind) String() string {
	switch k {
	case StepShell:
		return "shell"
	case StepExpression:
		return "expression"
	default:
		return "unknown"
	}
}
