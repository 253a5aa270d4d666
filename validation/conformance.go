package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrConformanceUnavailable reports that the external conformance checker
// could not produce a verdict. Callers map it to StatusUnknown rather
// than treating the graph as invalid.
var ErrConformanceUnavailable = errors.New("conformance checker unavailable")

// ConformanceStatus is the delegated ontology-conformance verdict.
type ConformanceStatus string

const (
	StatusValid   ConformanceStatus = "valid"
	StatusInvalid ConformanceStatus = "invalid"
	// StatusUnknown means the checker was absent or failed to run; it is
	// explicitly not a validation failure.
	StatusUnknown ConformanceStatus = "unknown"
)

// ConformanceResult is the checker's verdict plus any violations it
// reported.
type ConformanceResult struct {
	Status     ConformanceStatus `json:"status"`
	Violations []string          `json:"violations,omitempty"`
}

// ConformanceChecker validates a serialized graph against an ontology
// ruleset. Implementations may be slow; they get the caller's context and
// are invoked without retry.
type ConformanceChecker interface {
	Check(ctx context.Context, serialized, ruleset string) (ConformanceResult, error)
}

// CheckerFunc adapts a function to the ConformanceChecker interface.
type CheckerFunc func(ctx context.Context, serialized, ruleset string) (ConformanceResult, error)

func (f CheckerFunc) Check(ctx context.Context, serialized, ruleset string) (ConformanceResult, error) {
	return f(ctx, serialized, ruleset)
}

// checkerOutput is the JSON contract with the external command.
type checkerOutput struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// CommandChecker shells out to an external conformance tool. The graph is
// written to a temp file whose path is appended to the configured
// arguments; the tool prints a JSON verdict on stdout.
type CommandChecker struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandChecker builds a checker around an external command. A zero
// timeout defaults to 60s.
func NewCommandChecker(command string, args []string, timeout time.Duration, logger *slog.Logger) *CommandChecker {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandChecker{
		command: command,
		args:    args,
		timeout: timeout,
		logger:  logger.With("component", "conformance-checker"),
	}
}

// Check runs the external tool once. Any failure to run or parse is
// wrapped in ErrConformanceUnavailable; only a clean verdict can mark a
// graph invalid.
func (c *CommandChecker) Check(ctx context.Context, serialized, ruleset string) (ConformanceResult, error) {
	unknown := ConformanceResult{Status: StatusUnknown}
	if c.command == "" {
		return unknown, fmt.Errorf("%w: no command configured", ErrConformanceUnavailable)
	}

	dir, err := os.MkdirTemp("", "hhw-conformance-*")
	if err != nil {
		return unknown, fmt.Errorf("%w: %v", ErrConformanceUnavailable, err)
	}
	defer os.RemoveAll(dir)

	graphPath := filepath.Join(dir, "graph.ttl")
	if err := os.WriteFile(graphPath, []byte(serialized), 0o644); err != nil {
		return unknown, fmt.Errorf("%w: %v", ErrConformanceUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, c.args...), graphPath)
	if ruleset != "" {
		args = append(args, ruleset)
	}

	start := time.Now()
	out, err := exec.CommandContext(ctx, c.command, args...).Output()
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("conformance command failed",
			"command", c.command, "elapsed", elapsed, "error", err)
		return unknown, fmt.Errorf("%w: %s: %v", ErrConformanceUnavailable, c.command, err)
	}

	var verdict checkerOutput
	if err := json.Unmarshal(out, &verdict); err != nil {
		c.logger.Warn("conformance output unparseable", "command", c.command, "error", err)
		return unknown, fmt.Errorf("%w: bad checker output: %v", ErrConformanceUnavailable, err)
	}

	c.logger.Debug("conformance check complete",
		"valid", verdict.Valid, "violations", len(verdict.Violations), "elapsed", elapsed)

	if verdict.Valid {
		return ConformanceResult{Status: StatusValid}, nil
	}
	return ConformanceResult{Status: StatusInvalid, Violations: verdict.Violations}, nil
}
