package orchestrator

import "strings"

// ReplyKind classifies a message against the confirmation tokens.
type ReplyKind int

const (
	// ReplyOther is any message that is not a confirmation token.
	ReplyOther ReplyKind = iota
	ReplyAffirmative
	ReplyNegative
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyAffirmative:
		return "affirmative"
	case ReplyNegative:
		return "negative"
	}
	return "other"
}

// ParseReply matches text, trimmed and case-folded, against the
// affirmative (yes, y) and negative (no, n) tokens. Anything else,
// including "yes please", is ReplyOther.
func ParseReply(text string) ReplyKind {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y":
		return ReplyAffirmative
	case "no", "n":
		return ReplyNegative
	}
	return ReplyOther
}
