package adapter

import (
	"context"
	"fmt"
	"os/exec"
)

// CommandRunner defines an interface for invoking external commands to
// enable mocking. The keyring resolver uses it to query the wallet CLI.
//
//go:generate mockgen -source=exec.go -destination=../mocks/exec.go -package=mocks -mock_names=CommandRunner=MockCommandRunner
type CommandRunner interface {
	// Run executes the named command and returns its combined output
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealCommandRunner implements CommandRunner using the standard os/exec package
type RealCommandRunner struct{}

// NewCommandRunner creates a new real command runner
func NewCommandRunner() CommandRunner {
	return &RealCommandRunner{}
}

func (r *RealCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec,G204
	if err != nil {
		return nil, fmt.Errorf("command %s failed: %w: %s", name, err, string(output))
	}
	return output, nil
}
