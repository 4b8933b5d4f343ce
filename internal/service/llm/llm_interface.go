package llm

import (
	"context"
	"errors"
)

// Role is the author of a turn sent to a completion provider
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the ordered conversation sent to a provider
type Turn struct {
	Role    Role
	Content string
}

// Kind tags the shape of a provider answer
type Kind int

const (
	KindUnrecognized Kind = iota
	KindText
	KindParts
)

// PartText is the part type carrying plain text
const PartText = "text"

// Part is one element of a multi-part answer
type Part struct {
	Type string
	Text string
}

// Completion is a provider answer. Text is set for KindText, Parts for KindParts.
type Completion struct {
	Kind  Kind
	Text  string
	Parts []Part
}

// ErrDisabled is returned by the Disabled completer
var ErrDisabled = errors.New("completion provider not configured")

// Completer defines the interface for completion providers (OpenAI-compatible, Gemini)
type Completer interface {
	// Complete sends the ordered turns and returns the provider's answer
	Complete(ctx context.Context, turns []Turn) (Completion, error)
}

// Disabled is a Completer that always fails. It stands in when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, []Turn) (Completion, error) {
	return Completion{}, ErrDisabled
}
