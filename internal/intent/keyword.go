package intent

import (
	"context"
	"strings"
)

// KeywordClassifier is the deterministic fallback classifier. Rules are
// checked top to bottom and the first match wins.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify returns the label of the first matching rule.
func (k *KeywordClassifier) Classify(_ context.Context, text string) Label {
	msg := strings.ToLower(text)

	// Account details come before the generic "setup" rule, otherwise
	// "setup account details" would read as bootstrap.
	if hasAny(msg, "account") && hasAny(msg, "configure", "detail", "auth", "login", "credential") {
		return LabelAccountConfigure
	}

	if hasAny(msg, "start", "setup", "set up", "begin") {
		return LabelBootstrap
	}

	if hasAny(msg, "assign", "grant") {
		return LabelRoleAssign
	}

	if hasAny(msg, "unique") && hasAny(msg, "id", "code", "number") {
		return LabelIDGen
	}
	if hasAny(msg, "idgen", "id generat", "sequence number") {
		return LabelIDGen
	}

	if hasAny(msg, "workflow", "approval flow", "business process") {
		return LabelWorkflow
	}
	if hasAny(msg, "boundary", "boundaries", "geograph", "hierarch") {
		return LabelBoundary
	}
	if hasAny(msg, "notification", "sms", "email") {
		return LabelNotification
	}
	if hasAny(msg, "registry", "schema", "data model") {
		return LabelRegistry
	}
	if hasAny(msg, "user") {
		return LabelUser
	}
	if hasAny(msg, "role") {
		return LabelRole
	}

	return LabelUnknown
}

func hasAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
