// Package keyring resolves wallet key names to bech32 addresses. The
// reducer core never talks to a credential backend directly; it only sees
// the AddressResolver interface.
package keyring

import (
	"context"
	"fmt"
	"strings"

	"github.com/nftzone/registry-indexer/internal/adapter"
)

// AddressResolver maps a key name in the node's keyring to its address.
//
//go:generate mockgen -source=keyring.go -destination=../mocks/keyring.go -package=mocks -mock_names=AddressResolver=MockAddressResolver
type AddressResolver interface {
	Resolve(ctx context.Context, keyName string) (string, error)
}

// CLIResolver shells out to the node's wallet CLI to look up addresses.
type CLIResolver struct {
	binary  string
	backend string
	home    string
	runner  adapter.CommandRunner
}

// NewCLIResolver creates a resolver for the given CLI binary. backend and
// home may be empty to use the CLI's defaults.
func NewCLIResolver(binary, backend, home string, runner adapter.CommandRunner) *CLIResolver {
	return &CLIResolver{
		binary:  binary,
		backend: backend,
		home:    home,
		runner:  runner,
	}
}

// Resolve runs `<binary> keys show <name> -a` and returns the trimmed
// address.
func (r *CLIResolver) Resolve(ctx context.Context, keyName string) (string, error) {
	args := []string{"keys", "show", keyName, "-a"}
	if r.backend != "" {
		args = append(args, "--keyring-backend", r.backend)
	}
	if r.home != "" {
		args = append(args, "--home", r.home)
	}

	output, err := r.runner.Run(ctx, r.binary, args...)
	if err != nil {
		return "", fmt.Errorf("failed to resolve key %s: %w", keyName, err)
	}

	address := strings.TrimSpace(string(output))
	if address == "" {
		return "", fmt.Errorf("key %s resolved to an empty address", keyName)
	}

	return address, nil
}

// StaticResolver returns pre-configured addresses; used when operators
// supply addresses directly instead of key names.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, keyName string) (string, error) {
	address, ok := r[keyName]
	if !ok {
		return "", fmt.Errorf("no address configured for key %s", keyName)
	}
	return address, nil
}
