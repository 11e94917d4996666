package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig holds configuration for a long-running command
type RunnerConfig struct {
	Title           string    // Command title (e.g., "Création de la clé")
	Command         string    // Full command (e.g., "bootmaster create")
	Params          []Param   // Parameters to display in header
	StepNames       []string  // Names for each step
	SuccessTitle    string    // Title of the success box (default: Title + " complete")
	SuccessMessage  string    // Paragraph in the success box
	Troubleshooting []string  // Tips shown on failure
	Output          io.Writer // Output writer (default: os.Stdout)
}

// Runner orchestrates the UI for a command with steps.
// It manages the header → progress → result flow and provides
// callbacks for reporting progress.
type Runner struct {
	config    RunnerConfig
	header    *Header
	progress  *Progress
	output    io.Writer
	startTime time.Time
	width     int
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.SuccessTitle == "" {
		config.SuccessTitle = config.Title + " complete"
	}

	width := GetTerminalWidth()

	header := NewHeader(config.Title, config.Command, config.Params...)
	header.SetWidth(width)

	progress := NewProgress("", config.StepNames...)
	progress.SetWidth(width)

	return &Runner{
		config:   config,
		header:   header,
		progress: progress,
		output:   config.Output,
		width:    width,
	}
}

// Operation is the work a Runner displays. It reports steps through onStep
// and overall completion (0-100) through onPercent, and returns extra
// details for the success box.
type Operation func(ctx context.Context, onStep StepCallback, onPercent func(int)) ([]Param, error)

// Run executes the operation with UI updates.
// It displays the header, tracks progress, and shows the result.
func (r *Runner) Run(ctx context.Context, operation Operation) error {
	r.startTime = time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := operation(ctx, r.stepCallback(), r.progress.SetPercent)
	duration := time.Since(r.startTime)

	_, _ = fmt.Fprintln(r.output)
	_, _ = fmt.Fprintln(r.output, r.progress.RenderBar())
	_, _ = fmt.Fprintln(r.output)

	if err != nil {
		result := NewFailureResult(r.config.Title, err, r.config.Troubleshooting)
		result.SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, result.Render())
		return err
	}

	details = append(details, Param{Key: "Duration", Value: duration.Round(time.Millisecond).String()})
	result := NewSuccessResult(r.config.SuccessTitle, details...)
	result.SetWidth(r.width)
	result.SetMessage(r.config.SuccessMessage)
	_, _ = fmt.Fprintln(r.output, result.Render())
	return nil
}

// stepCallback prints each step as it changes. Running steps are redrawn in
// place with a carriage return until they finish.
func (r *Runner) stepCallback() StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if stepNumber < 1 || stepNumber > len(r.progress.Steps) {
			return
		}
		if name != "" {
			r.progress.Steps[stepNumber-1].Name = name
		}
		r.progress.UpdateStep(stepNumber, status, message)

		line := r.progress.RenderStepLine(r.progress.Steps[stepNumber-1])
		switch status {
		case StepComplete, StepFailed, StepSkipped:
			_, _ = fmt.Fprintln(r.output, "\r"+line)
		case StepRunning:
			_, _ = fmt.Fprint(r.output, "\r"+line)
		}
	}
}

// --- Simple helper functions for commands that don't need a full Runner ---

// PrintCommandHeader prints a styled command header
func PrintCommandHeader(w io.Writer, title, command string, params ...Param) {
	header := NewHeader(title, command, params...)
	_, _ = fmt.Fprintln(w, header.Render())
	_, _ = fmt.Fprintln(w)
}

// PrintFailure prints a styled failure result
func PrintFailure(w io.Writer, title string, err error, troubleshooting []string) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, NewFailureResult(title, err, troubleshooting).Render())
}

// PrintWarning prints a styled warning result
func PrintWarning(w io.Writer, title string, details ...Param) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, NewWarningResult(title, details...).Render())
}
