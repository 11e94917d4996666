package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/muurk/bootmaster/internal/locale"
)

type recordingGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []Request
}

func (g *recordingGenerator) Generate(_ context.Context, req Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.reply, g.err
}

func (g *recordingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// blockingGenerator holds each request until release is closed or the
// context ends.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	reply   string
}

func newBlockingGenerator(reply string) *blockingGenerator {
	return &blockingGenerator{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		reply:   reply,
	}
}

func (g *blockingGenerator) Generate(ctx context.Context, _ Request) (string, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return g.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func withKey(key string) func() string {
	return func() string { return key }
}

func TestNewSession_Greeting(t *testing.T) {
	s := NewSession(nil, Options{})

	tr := s.Transcript()
	if len(tr) != 1 {
		t.Fatalf("len(Transcript()) = %d, want 1", len(tr))
	}
	want := locale.For(locale.French).Greeting
	if tr[0].Speaker != SpeakerAssistant || tr[0].Text != want {
		t.Errorf("greeting = %+v, want assistant %q", tr[0], want)
	}
	if s.ID() == "" {
		t.Error("session id should be generated")
	}
}

func TestAsk_EmptyInput(t *testing.T) {
	gen := &recordingGenerator{reply: "hi"}
	s := NewSession(gen, Options{Credential: withKey("k")})

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := s.Ask(context.Background(), text); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Ask(%q) error = %v, want ErrEmptyInput", text, err)
		}
	}
	if n := len(s.Transcript()); n != 1 {
		t.Errorf("transcript length = %d, want 1", n)
	}
	if gen.calls() != 0 {
		t.Errorf("generator called %d times", gen.calls())
	}
}

func TestAsk_Success(t *testing.T) {
	gen := &recordingGenerator{reply: "  Utilisez GPT pour UEFI.  "}
	s := NewSession(gen, Options{Credential: withKey("secret")})
	before := len(s.Transcript())

	turn, err := s.Ask(context.Background(), "Pourquoi GPT plutôt que MBR ?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	tr := s.Transcript()
	if len(tr) != before+2 {
		t.Fatalf("transcript length = %d, want %d", len(tr), before+2)
	}
	if tr[before].Speaker != SpeakerUser || tr[before].Text != "Pourquoi GPT plutôt que MBR ?" {
		t.Errorf("user turn = %+v", tr[before])
	}
	if turn.Text != "Utilisez GPT pour UEFI." || tr.Last() != turn {
		t.Errorf("assistant turn = %+v, last = %+v", turn, tr.Last())
	}
	if s.Awaiting() {
		t.Error("awaiting should be cleared")
	}

	req := gen.requests[0]
	if req.APIKey != "secret" {
		t.Errorf("APIKey = %q", req.APIKey)
	}
	if req.Model != DefaultModel || req.Temperature != DefaultTemperature {
		t.Errorf("model/temperature = %q/%v", req.Model, req.Temperature)
	}
	if req.SystemInstruction == "" {
		t.Error("system instruction missing")
	}
	if len(req.Turns) != before+1 || req.Turns.Last().Speaker != SpeakerUser {
		t.Errorf("request turns = %v", req.Turns)
	}
}

var errUnavailable = errors.New("503 Service Unavailable")

func TestAsk_Failures(t *testing.T) {
	fallback := locale.For(locale.French).Fallback

	tests := []struct {
		name      string
		key       string
		reply     string
		err       error
		wantCalls int
		wantErr   error
	}{
		{"missing credential", "", "ignored", nil, 0, ErrMissingCredential},
		{"blank credential", "   ", "ignored", nil, 0, ErrMissingCredential},
		{"endpoint error", "k", "", errUnavailable, 1, errUnavailable},
		{"empty reply", "k", "", nil, 1, ErrEmptyReply},
		{"whitespace reply", "k", " \n ", nil, 1, ErrEmptyReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &recordingGenerator{reply: tt.reply, err: tt.err}
			s := NewSession(gen, Options{Credential: withKey(tt.key)})
			before := len(s.Transcript())

			turn, err := s.Ask(context.Background(), "Comment activer le TPM 2.0 ?")
			if err != nil {
				t.Fatalf("Ask() error = %v, failures must become the fallback turn", err)
			}
			if turn.Text != fallback {
				t.Errorf("turn = %q, want fallback", turn.Text)
			}
			tr := s.Transcript()
			if len(tr) != before+2 || tr.Last().Text != fallback {
				t.Errorf("transcript = %v", tr)
			}
			if gen.calls() != tt.wantCalls {
				t.Errorf("generator calls = %d, want %d", gen.calls(), tt.wantCalls)
			}
			if s.Awaiting() {
				t.Error("awaiting should be cleared after a failure")
			}
			if err := s.LastError(); !errors.Is(err, tt.wantErr) {
				t.Errorf("LastError() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLastError_ClearedBySuccessAndReset(t *testing.T) {
	gen := &recordingGenerator{err: errUnavailable}
	s := NewSession(gen, Options{Credential: withKey("k")})

	if err := s.LastError(); err != nil {
		t.Fatalf("LastError() = %v, want nil before any request", err)
	}

	_, _ = s.Ask(context.Background(), "Rufus ou l'outil Microsoft ?")
	if err := s.LastError(); !errors.Is(err, errUnavailable) {
		t.Fatalf("LastError() = %v, want %v", err, errUnavailable)
	}

	s.Reset()
	if err := s.LastError(); err != nil {
		t.Errorf("LastError() after Reset = %v, want nil", err)
	}

	_, _ = s.Ask(context.Background(), "Rufus ou l'outil Microsoft ?")
	gen.mu.Lock()
	gen.err, gen.reply = nil, "Les deux conviennent."
	gen.mu.Unlock()
	_, _ = s.Ask(context.Background(), "Et pour un vieux PC ?")
	if err := s.LastError(); err != nil {
		t.Errorf("LastError() after a reply = %v, want nil", err)
	}
}

func TestNewSession_Temperature(t *testing.T) {
	zero, low := 0.0, 0.2

	tests := []struct {
		name        string
		temperature *float64
		want        float64
	}{
		{"unset", nil, DefaultTemperature},
		{"zero", &zero, 0},
		{"configured", &low, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &recordingGenerator{reply: "ok"}
			s := NewSession(gen, Options{Credential: withKey("k"), Temperature: tt.temperature})

			if _, err := s.Ask(context.Background(), "GPT ou MBR ?"); err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if got := gen.requests[0].Temperature; got != tt.want {
				t.Errorf("Temperature = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAsk_SecondRequestWhileAwaiting(t *testing.T) {
	gen := newBlockingGenerator("ok")
	s := NewSession(gen, Options{Credential: withKey("k")})

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "first")
		done <- err
	}()
	<-gen.started

	snapshot := s.Transcript()
	if !s.Awaiting() {
		t.Fatal("session should be awaiting")
	}
	if _, err := s.Ask(context.Background(), "second"); !errors.Is(err, ErrAwaitingReply) {
		t.Errorf("second Ask() error = %v, want ErrAwaitingReply", err)
	}
	if got := s.Transcript(); len(got) != len(snapshot) {
		t.Errorf("second Ask changed the transcript: %v", got)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first Ask() error = %v", err)
	}
	tr := s.Transcript()
	if len(tr) != 3 || tr.Last().Text != "ok" {
		t.Errorf("transcript = %v", tr)
	}
}

func TestReset_DiscardsPendingReply(t *testing.T) {
	gen := newBlockingGenerator("late")
	s := NewSession(gen, Options{Credential: withKey("k")})

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "question")
		done <- err
	}()
	<-gen.started

	s.Reset()

	select {
	case err := <-done:
		if !errors.Is(err, ErrReplyDiscarded) {
			t.Errorf("Ask() error = %v, want ErrReplyDiscarded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Ask did not return after Reset")
	}

	tr := s.Transcript()
	if len(tr) != 1 || tr[0].Speaker != SpeakerAssistant {
		t.Errorf("transcript after Reset = %v, want greeting only", tr)
	}
	if s.Awaiting() {
		t.Error("Reset should clear awaiting")
	}

	// the session is usable again
	gen2 := &recordingGenerator{reply: "fresh"}
	s.gen = gen2
	if _, err := s.Ask(context.Background(), "again"); err != nil {
		t.Fatalf("Ask() after Reset error = %v", err)
	}
	if s.Transcript().Last().Text != "fresh" {
		t.Errorf("transcript = %v", s.Transcript())
	}
}

func TestClose(t *testing.T) {
	gen := newBlockingGenerator("late")
	s := NewSession(gen, Options{Credential: withKey("k")})

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "question")
		done <- err
	}()
	<-gen.started
	before := s.Transcript()

	s.Close()
	if err := <-done; !errors.Is(err, ErrReplyDiscarded) {
		t.Errorf("pending Ask() error = %v, want ErrReplyDiscarded", err)
	}
	if got := s.Transcript(); len(got) != len(before) {
		t.Errorf("late reply was appended: %v", got)
	}
	if _, err := s.Ask(context.Background(), "more"); !errors.Is(err, ErrClosed) {
		t.Errorf("Ask() after Close error = %v, want ErrClosed", err)
	}
}

func TestAsk_ContextCapped(t *testing.T) {
	gen := &recordingGenerator{reply: "r"}
	s := NewSession(gen, Options{Credential: withKey("k"), MaxContextTurns: 4})

	for i := 0; i < 5; i++ {
		if _, err := s.Ask(context.Background(), fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
	}

	if n := len(s.Transcript()); n != 11 {
		t.Errorf("stored transcript length = %d, want 11 (never trimmed)", n)
	}
	last := gen.requests[len(gen.requests)-1]
	if len(last.Turns) != 4 {
		t.Fatalf("request carried %d turns, want 4", len(last.Turns))
	}
	if last.Turns.Last().Text != "q4" {
		t.Errorf("last request turn = %+v, want q4", last.Turns.Last())
	}
}

func TestAsk_Timeout(t *testing.T) {
	gen := newBlockingGenerator("never")
	s := NewSession(gen, Options{Credential: withKey("k"), Timeout: 10 * time.Millisecond})

	turn, err := s.Ask(context.Background(), "slow?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if turn.Text != locale.For(locale.French).Fallback {
		t.Errorf("turn = %q, want fallback after timeout", turn.Text)
	}
}

func TestSubscribe(t *testing.T) {
	gen := &recordingGenerator{reply: "r"}
	s := NewSession(gen, Options{Credential: withKey("k")})

	var updates []Update
	s.Subscribe(func(u Update) { updates = append(updates, u) })

	if _, err := s.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if !updates[0].Awaiting || len(updates[0].Transcript) != 2 {
		t.Errorf("first update = %+v", updates[0])
	}
	if updates[1].Awaiting || len(updates[1].Transcript) != 3 {
		t.Errorf("second update = %+v", updates[1])
	}
}

func TestSuggestionsAndLanguage(t *testing.T) {
	s := NewSession(nil, Options{Lang: locale.English})

	got := s.Suggestions()
	if len(got) != 4 {
		t.Fatalf("len(Suggestions()) = %d, want 4", len(got))
	}
	got[0] = "mutated"
	if s.Suggestions()[0] == "mutated" {
		t.Error("Suggestions() must return a copy")
	}
	if s.Transcript()[0].Text != locale.For(locale.English).Greeting {
		t.Error("greeting should be English")
	}

	s.SetLanguage(locale.French)
	if s.Suggestions()[0] != locale.For(locale.French).Suggestions[0] {
		t.Errorf("suggestions not switched: %v", s.Suggestions())
	}
}

func TestTranscript_Tail(t *testing.T) {
	tr := Transcript{{Text: "a"}, {Text: "b"}, {Text: "c"}}

	tests := []struct {
		n    int
		want int
	}{
		{0, 3},
		{-1, 3},
		{2, 2},
		{3, 3},
		{10, 3},
	}
	for _, tt := range tests {
		if got := len(tr.Tail(tt.n)); got != tt.want {
			t.Errorf("Tail(%d) length = %d, want %d", tt.n, got, tt.want)
		}
	}
	if tr.Tail(1)[0].Text != "c" {
		t.Error("Tail(1) should keep the newest turn")
	}
}

func TestSpeaker_WireRole(t *testing.T) {
	if SpeakerUser.WireRole() != "user" || SpeakerAssistant.WireRole() != "model" {
		t.Errorf("wire roles = %q/%q", SpeakerUser.WireRole(), SpeakerAssistant.WireRole())
	}
}
