package keyring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	output []byte
	err    error

	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.gotName = name
	f.gotArgs = args
	return f.output, f.err
}

func TestCLIResolver(t *testing.T) {
	runner := &fakeRunner{output: []byte("celestia1qy352eufqy352eufqy352eufqy35qqq\n")}
	resolver := NewCLIResolver("celestia-appd", "test", "/home/celestia", runner)

	address, err := resolver.Resolve(context.Background(), "validator")
	require.NoError(t, err)
	assert.Equal(t, "celestia1qy352eufqy352eufqy352eufqy35qqq", address)
	assert.Equal(t, "celestia-appd", runner.gotName)
	assert.Equal(t, []string{"keys", "show", "validator", "-a", "--keyring-backend", "test", "--home", "/home/celestia"}, runner.gotArgs)
}

func TestCLIResolverDefaults(t *testing.T) {
	runner := &fakeRunner{output: []byte("celestia1abc\n")}
	resolver := NewCLIResolver("celestia-appd", "", "", runner)

	_, err := resolver.Resolve(context.Background(), "validator")
	require.NoError(t, err)
	assert.Equal(t, []string{"keys", "show", "validator", "-a"}, runner.gotArgs)
}

func TestCLIResolverErrors(t *testing.T) {
	t.Run("command failure", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("key not found")}
		resolver := NewCLIResolver("celestia-appd", "", "", runner)

		_, err := resolver.Resolve(context.Background(), "missing")
		require.Error(t, err)
	})

	t.Run("empty output", func(t *testing.T) {
		runner := &fakeRunner{output: []byte("  \n")}
		resolver := NewCLIResolver("celestia-appd", "", "", runner)

		_, err := resolver.Resolve(context.Background(), "blank")
		require.Error(t, err)
	})
}

func TestStaticResolver(t *testing.T) {
	resolver := StaticResolver{"issuer": "celestia1issuer"}

	address, err := resolver.Resolve(context.Background(), "issuer")
	require.NoError(t, err)
	assert.Equal(t, "celestia1issuer", address)

	_, err = resolver.Resolve(context.Background(), "missing")
	require.Error(t, err)
}
