package core

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

// StepStatus is the outcome of a single preflight step.
type StepStatus int

const (
	StepPassed StepStatus = iota
	StepFailed
	StepWarning
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// PreflightStep is one named check with its outcome.
type PreflightStep struct {
	Name    string
	Status  StepStatus
	Message string
	Err     error
}

// PreflightResult summarizes a full preflight run. Warnings do not fail the
// run: a missing provider key only degrades the features that need it, and
// keys can be added later through the settings API.
type PreflightResult struct {
	Success  bool
	Steps    []PreflightStep
	Passed   int
	Failed   int
	Warnings int
	Duration time.Duration
}

// Preflight runs the startup checks against a loaded configuration and
// prints colored progress to the terminal.
type Preflight struct {
	cfg          *Config
	output       io.Writer
	showProgress bool
}

// NewPreflight creates a preflight runner for the given configuration.
func NewPreflight(cfg *Config) *Preflight {
	return &Preflight{
		cfg:          cfg,
		output:       os.Stdout,
		showProgress: true,
	}
}

// WithOutput redirects progress printing (used by tests).
func (p *Preflight) WithOutput(w io.Writer) *Preflight {
	p.output = w
	return p
}

// WithShowProgress toggles terminal output.
func (p *Preflight) WithShowProgress(show bool) *Preflight {
	p.showProgress = show
	return p
}

// Run executes every check. No network calls: provider reachability is only
// knowable per-request, and a transient outage must not block startup.
func (p *Preflight) Run() PreflightResult {
	start := time.Now()
	if p.showProgress {
		p.printHeader("Page Generator Startup Checks")
	}

	steps := []PreflightStep{
		p.runStep("Data Directory", p.checkDataDirectory),
		p.runStep("Provider Endpoints", p.checkEndpoints),
		p.runStep("Provider Credentials", p.checkCredentials),
		p.runStep("Platform Presets", p.checkPresets),
	}

	result := PreflightResult{Steps: steps, Duration: time.Since(start)}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.Passed++
		case StepFailed:
			result.Failed++
		case StepWarning:
			result.Warnings++
		}
	}
	result.Success = result.Failed == 0

	if p.showProgress {
		p.printSummary(result)
	}
	return result
}

// checkDataDirectory verifies the data directory exists (or can be created)
// and is writable. The history database lives there.
func (p *Preflight) checkDataDirectory() (StepStatus, string, error) {
	dir := p.cfg.DataDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StepFailed, "could not create data directory", err
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return StepFailed, "data directory is not writable", err
	}
	_ = os.Remove(probe)
	return StepPassed, dir, nil
}

// checkEndpoints validates that every configured endpoint parses as an
// absolute http(s) URL.
func (p *Preflight) checkEndpoints() (StepStatus, string, error) {
	endpoints := map[string]string{
		"image":   p.cfg.ImageAPIURL,
		"text":    p.cfg.TextAPIURL,
		"search":  p.cfg.SearchAPIURL,
		"hosting": p.cfg.HostingAPIURL,
	}
	for name, raw := range endpoints {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			return StepFailed, fmt.Sprintf("%s endpoint %q is not a valid http(s) URL", name, raw), err
		}
	}
	return StepPassed, fmt.Sprintf("%d endpoints configured", len(endpoints)), nil
}

// checkCredentials reports which provider keys are missing. Missing keys are
// a warning, not a failure: each provider call re-checks at request time and
// keys can be supplied through the settings API.
func (p *Preflight) checkCredentials() (StepStatus, string, error) {
	missing := make([]string, 0, 4)
	for provider, key := range map[string]string{
		"image":   p.cfg.ImageAPIKey,
		"text":    p.cfg.TextAPIKey,
		"search":  p.cfg.SearchAPIKey,
		"hosting": p.cfg.HostingAPIKey,
	} {
		if key == "" {
			missing = append(missing, provider)
		}
	}
	if len(missing) == 0 {
		return StepPassed, "all provider keys present", nil
	}
	return StepWarning, fmt.Sprintf("missing keys for %v; set them in settings before generating", missing), nil
}

// checkPresets loads the platform presets, including any override file.
func (p *Preflight) checkPresets() (StepStatus, string, error) {
	presets, err := LoadPresets(p.cfg.PresetFile)
	if err != nil {
		return StepFailed, "preset override file is invalid", err
	}
	return StepPassed, fmt.Sprintf("%d platforms available", len(presets.Platforms())), nil
}

func (p *Preflight) runStep(name string, fn func() (StepStatus, string, error)) PreflightStep {
	status, message, err := fn()
	step := PreflightStep{Name: name, Status: status, Message: message, Err: err}
	if p.showProgress {
		p.printStep(step)
	}
	return step
}

func (p *Preflight) printHeader(title string) {
	fmt.Fprintln(p.output)
	color.New(color.FgCyan, color.Bold).Fprintf(p.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(p.output)
}

func (p *Preflight) printStep(step PreflightStep) {
	var icon string
	var clr *color.Color
	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	default:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	}

	clr.Fprintf(p.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(p.output, " - %s", step.Message)
	}
	fmt.Fprintln(p.output)
	if step.Status == StepFailed && step.Err != nil {
		color.New(color.FgRed).Fprintf(p.output, "    └─ %s\n", step.Err.Error())
	}
}

func (p *Preflight) printSummary(result PreflightResult) {
	fmt.Fprintln(p.output)
	if result.Success {
		color.New(color.FgGreen, color.Bold).Fprintf(p.output, "━━━ Startup Checks Passed ")
		color.New(color.FgHiBlack).Fprintf(p.output, "(%d passed, %d warnings in %v)",
			result.Passed, result.Warnings, result.Duration.Round(time.Millisecond))
		color.New(color.FgGreen, color.Bold).Fprintln(p.output, " ━━━")
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(p.output, "━━━ Startup Checks Failed ")
		color.New(color.FgHiBlack).Fprintf(p.output, "(%d passed, %d failed)", result.Passed, result.Failed)
		color.New(color.FgRed, color.Bold).Fprintln(p.output, " ━━━")
	}
	fmt.Fprintln(p.output)
}

// FirstError returns the first failed step's error for exit reporting.
func (r PreflightResult) FirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed {
			if step.Err != nil {
				return fmt.Errorf("%s: %w", step.Name, step.Err)
			}
			return fmt.Errorf("%s: %s", step.Name, step.Message)
		}
	}
	return nil
}
