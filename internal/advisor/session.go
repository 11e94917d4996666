package advisor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/logging"
)

const (
	// DefaultModel is the hosted model the assistant runs on
	DefaultModel = "gemini-3-flash-preview"

	// DefaultTemperature is the sampling temperature sent with every request
	DefaultTemperature = 0.7

	// DefaultMaxContextTurns caps the transcript forwarded per request
	DefaultMaxContextTurns = 40
)

var (
	// ErrEmptyInput is returned by Ask for blank text.
	ErrEmptyInput = errors.New("empty message")

	// ErrAwaitingReply is returned by Ask while another request is pending.
	ErrAwaitingReply = errors.New("a reply is already pending")

	// ErrMissingCredential is the failure recorded when no API key is set.
	ErrMissingCredential = errors.New("no API key configured")

	// ErrEmptyReply is the failure recorded when the endpoint returns no text.
	ErrEmptyReply = errors.New("empty reply from model")

	// ErrReplyDiscarded is returned by Ask when Reset or Close ran while the
	// request was pending. The transcript does not receive the reply.
	ErrReplyDiscarded = errors.New("reply discarded")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// Options configures a Session. Zero values select the defaults.
type Options struct {
	// ID names the session in logs (default: a random UUID)
	ID string

	// Credential returns the API key; it is read once per request
	Credential func() string

	Model string

	// Temperature is sent with every request; nil selects DefaultTemperature
	Temperature *float64

	MaxContextTurns int

	// Timeout bounds each request (default: none beyond the caller's ctx)
	Timeout time.Duration

	// Lang selects the greeting, fallback and suggestions
	Lang locale.Lang
}

// Update is delivered to subscribers whenever the transcript or the
// awaiting flag changes.
type Update struct {
	Transcript Transcript `json:"transcript"`
	Awaiting   bool       `json:"awaiting"`
}

// Session is a single advisor conversation.
// All methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	id         string
	gen        Generator
	opts       Options
	msgs       *locale.Messages
	transcript Transcript
	awaiting   bool
	lastErr    error
	epoch      uint64
	cancel     context.CancelFunc
	closed     bool
	listeners  []func(Update)
}

// NewSession creates a session seeded with the greeting.
func NewSession(gen Generator, opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Credential == nil {
		opts.Credential = func() string { return "" }
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature == nil {
		temperature := DefaultTemperature
		opts.Temperature = &temperature
	}
	if opts.MaxContextTurns == 0 {
		opts.MaxContextTurns = DefaultMaxContextTurns
	}

	s := &Session{
		id:   opts.ID,
		gen:  gen,
		opts: opts,
		msgs: locale.For(opts.Lang),
	}
	s.transcript = s.seed()
	return s
}

func (s *Session) seed() Transcript {
	return Transcript{{Speaker: SpeakerAssistant, Text: s.msgs.Greeting}}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers fn for transcript updates.
func (s *Session) Subscribe(fn func(Update)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Transcript returns a copy of the conversation.
func (s *Session) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Awaiting reports whether a request is pending.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// LastError returns why the latest reply is the fallback message, or nil
// when the latest exchange succeeded.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Suggestions returns the canned starter questions.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.msgs.Suggestions))
	copy(out, s.msgs.Suggestions)
	return out
}

// SetLanguage switches the fallback and suggestion language. The
// transcript is not rewritten.
func (s *Session) SetLanguage(lang locale.Lang) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = locale.For(lang)
}

// Ask appends text as a user turn and waits for the assistant. It returns
// the assistant turn that was appended, which is the fallback message when
// the request failed for any reason.
func (s *Session) Ask(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return Turn{}, ErrClosed
	case text == "":
		s.mu.Unlock()
		return Turn{}, ErrEmptyInput
	case s.awaiting:
		s.mu.Unlock()
		return Turn{}, ErrAwaitingReply
	}

	s.transcript = append(s.transcript, Turn{Speaker: SpeakerUser, Text: text})
	s.awaiting = true
	epoch := s.epoch

	if s.opts.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	req := Request{
		Model:             s.opts.Model,
		SystemInstruction: s.msgs.SystemInstruction,
		Temperature:       *s.opts.Temperature,
		Turns:             append(Transcript(nil), s.transcript.Tail(s.opts.MaxContextTurns)...),
	}
	fallback := s.msgs.Fallback
	u, listeners := s.updateLocked()
	s.mu.Unlock()
	publish(listeners, u)

	started := time.Now()
	reply, err := s.generate(ctx, req)
	logging.LogAdvisorExchange(s.id, len(req.Turns), time.Since(started), err)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return Turn{}, ErrReplyDiscarded
	}
	turn := Turn{Speaker: SpeakerAssistant, Text: reply}
	if err != nil {
		turn.Text = fallback
	}
	s.transcript = append(s.transcript, turn)
	s.lastErr = err
	s.awaiting = false
	s.cancel = nil
	u, listeners = s.updateLocked()
	s.mu.Unlock()
	publish(listeners, u)

	return turn, nil
}

func (s *Session) generate(ctx context.Context, req Request) (string, error) {
	req.APIKey = strings.TrimSpace(s.opts.Credential())
	if req.APIKey == "" {
		return "", ErrMissingCredential
	}
	if s.gen == nil {
		return "", errors.New("no generator configured")
	}
	reply, err := s.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// Reset restores the greeting-only transcript. A pending reply is
// cancelled and will not be appended.
func (s *Session) Reset() {
	s.mu.Lock()
	s.abandonLocked()
	s.transcript = s.seed()
	s.lastErr = nil
	u, listeners := s.updateLocked()
	s.mu.Unlock()
	publish(listeners, u)
}

// Close cancels any pending request. Further calls to Ask return ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLocked()
	s.closed = true
	s.listeners = nil
}

func (s *Session) abandonLocked() {
	s.epoch++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.awaiting = false
}

func (s *Session) copyLocked() Transcript {
	out := make(Transcript, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) updateLocked() (Update, []func(Update)) {
	return Update{Transcript: s.copyLocked(), Awaiting: s.awaiting}, s.listeners
}

// publish runs outside the session lock; each listener gets its own copy.
func publish(listeners []func(Update), u Update) {
	for _, fn := range listeners {
		c := u
		c.Transcript = append(Transcript(nil), u.Transcript...)
		fn(c)
	}
}
