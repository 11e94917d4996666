// Package advisor holds the chat session between the user and the hosted
// Windows-installation assistant.
//
// A Session owns an ordered transcript seeded with a greeting. Each Ask
// appends the user's turn, forwards the whole (capped) transcript to a
// Generator together with a fixed system instruction, and appends either
// the reply or a fixed fallback message. Only one request may be pending at
// a time; failures never surface as errors to the caller, they become the
// fallback turn.
//
// The Generator is injected, so the session itself never talks to the
// network. The gemini package provides the production implementation.
package advisor
