// Package intent maps free-form operator text to one of a closed set of
// intent labels.
//
// Classification is best-effort: a Classifier never returns an error.
// Implementations that depend on remote calls degrade to a
// deterministic heuristic when the call fails.
package intent

import (
	"context"
	"strings"
)

// Label is one of the fixed intent labels.
type Label string

const (
	LabelBootstrap        Label = "bootstrap"
	LabelAccountConfigure Label = "account.configure"
	LabelIDGen            Label = "idgen"
	LabelWorkflow         Label = "workflow"
	LabelBoundary         Label = "boundary"
	LabelNotification     Label = "notification"
	LabelRegistry         Label = "registry"
	LabelUser             Label = "user"
	LabelRole             Label = "role"
	LabelRoleAssign       Label = "role.assign"
	LabelUnknown          Label = "unknown"
)

// validLabels is the closed label set.
var validLabels = map[Label]bool{
	LabelBootstrap:        true,
	LabelAccountConfigure: true,
	LabelIDGen:            true,
	LabelWorkflow:         true,
	LabelBoundary:         true,
	LabelNotification:     true,
	LabelRegistry:         true,
	LabelUser:             true,
	LabelRole:             true,
	LabelRoleAssign:       true,
	LabelUnknown:          true,
}

// ParseLabel normalizes raw classifier output into a Label. Surrounding
// whitespace, quotes, backticks and a trailing period are ignored.
func ParseLabel(raw string) (Label, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'` ")
	s = strings.TrimSuffix(s, ".")
	l := Label(s)
	return l, validLabels[l]
}

// IsConfigureClass reports whether l names one of the five independent
// post-account configuration domains.
func IsConfigureClass(l Label) bool {
	switch l {
	case LabelIDGen, LabelWorkflow, LabelBoundary, LabelNotification, LabelRegistry:
		return true
	}
	return false
}

// Classifier maps free text to an intent label.
type Classifier interface {
	// Classify never fails; on internal errors it returns a fallback
	// label, LabelUnknown at worst.
	Classify(ctx context.Context, text string) Label
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) Label

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string) Label {
	return f(ctx, text)
}
