package advisor

import (
	"context"
	"fmt"
)

// Speaker identifies who wrote a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// WireRole returns the role name the generation endpoint expects.
func (s Speaker) WireRole() string {
	if s == SpeakerAssistant {
		return "model"
	}
	return "user"
}

// Turn is one message in the conversation.
type Turn struct {
	Speaker Speaker `json:"role"`
	Text    string  `json:"text"`
}

// Transcript is an ordered list of turns.
type Transcript []Turn

// Last returns the final turn, or the zero Turn when empty.
func (t Transcript) Last() Turn {
	if len(t) == 0 {
		return Turn{}
	}
	return t[len(t)-1]
}

// Tail returns at most the last n turns. n <= 0 means no limit.
func (t Transcript) Tail(n int) Transcript {
	if n <= 0 || len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}

// Request is what a Generator receives for one user turn.
type Request struct {
	Model             string
	SystemInstruction string
	Temperature       float64
	APIKey            string
	Turns             Transcript
}

// Generator produces the assistant's reply to a conversation.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate implements Generator
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func (t Turn) String() string {
	return fmt.Sprintf("%s: %s", t.Speaker, t.Text)
}
