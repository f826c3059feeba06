package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestOrderCan(t *testing.T) {
	tests := []struct {
		from, to string
		want     string
	}{
		{"pending", "confirmed", "pending -> confirmed: allowed\n"},
		{"Shipping", "cancel", "shipping -> cancel: not allowed\n"},
		{"completed", "completed", "completed -> completed: not allowed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_"+tt.to, func(t *testing.T) {
			out, err := run(t, "order", "can", tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := run(t, "order", "can", "pending", "lost")
	assert.Error(t, err)
}

func TestOrderNext(t *testing.T) {
	out, err := run(t, "order", "next", "pending")
	require.NoError(t, err)
	assert.Equal(t, "pending -> confirmed, shipping, cancel\n", out)

	out, err = run(t, "order", "next", "cancel")
	require.NoError(t, err)
	assert.Equal(t, "cancel is final\n", out)
}

func TestOrderParity(t *testing.T) {
	dir := t.TempDir()

	same := filepath.Join(dir, "same.yaml")
	require.NoError(t, os.WriteFile(same, []byte(`
pending: [confirmed, shipping, cancel]
confirmed: [shipping, cancel]
shipping: [completed]
completed: []
cancel: []
`), 0o644))
	out, err := run(t, "order", "parity", same)
	require.NoError(t, err)
	assert.Equal(t, "transition tables match\n", out)

	drift := filepath.Join(dir, "drift.yaml")
	require.NoError(t, os.WriteFile(drift, []byte(`
pending: [confirmed, cancel]
confirmed: [shipping, cancel]
shipping: [completed, cancel]
`), 0o644))
	out, err = run(t, "order", "parity", drift)
	require.Error(t, err)
	assert.Contains(t, out, "pending -> shipping: client=true backend=false")
	assert.Contains(t, out, "shipping -> cancel: client=false backend=true")
}

func TestConfigShowOmitsSecrets(t *testing.T) {
	t.Setenv("STOREFRONT_TOKEN", "super-secret")
	t.Setenv("STOREFRONT_CHAT_EVENT", "chat:message")

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "chat:message")
	assert.Contains(t, out, "preview_limit: 50")
	assert.NotContains(t, out, "super-secret")
}

func TestNotificationsReadNeedsOneTarget(t *testing.T) {
	_, err := run(t, "notifications", "read")
	assert.Error(t, err)

	_, err = run(t, "notifications", "read", "n1", "--all")
	assert.Error(t, err)
}
