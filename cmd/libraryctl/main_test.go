package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"migrate", "seed", "create-admin", "promote"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPromoteRequiresEmail(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"promote"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))

	assert.Error(t, root.Execute())
}

func TestCreateAdminRequiresFlags(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"create-admin"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))

	assert.Error(t, root.Execute())
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
