// Package ui provides terminal output components for the bootmaster CLI.
//
// This package uses Bubble Tea, Bubbles and Lipgloss to render styled
// output for one-shot commands. Unlike the interactive TUI in
// internal/wizard/tui, these components follow a "run once and exit"
// pattern: they render, they do not wait for keys.
//
// # Architecture
//
// The package provides these component types:
//
//   - Header: Command banner showing operation name and ordered parameters
//   - Progress: Progress bar with step list showing real-time status
//   - Result: Success/failure/warning boxes with styled details
//   - Panel: Titled box for guide cards, transcripts and lists
//   - Confirmer: Warning box with a yes/no prompt on any reader/writer
//
// Runner orchestrates the header → progress → result flow for commands
// that take time, such as "bootmaster create".
//
// # Usage Pattern
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Création de la clé",
//	    Command:   "bootmaster create",
//	    Params:    []ui.Param{{Key: "Device", Value: "usb-1"}},
//	    StepNames: []string{"Préparation", "Formatage", "Copie", "Finalisation"},
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback, onPercent func(int)) ([]ui.Param, error) {
//	    onStep(1, "", ui.StepRunning, "")
//	    onPercent(10)
//	    // ... wait for the simulator ...
//	    onStep(1, "", ui.StepComplete, "")
//	    return nil, nil
//	})
//
// # Logging Integration
//
// Logging is controlled via the BOOTMASTER_LOG_LEVEL environment variable.
// When unset or empty, zap logging is silent, allowing the curated UI
// output to be displayed cleanly.
package ui
