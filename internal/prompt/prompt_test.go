package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		defaultValue bool
		want         bool
	}{
		{"yes", "y\n", false, true},
		{"full yes", "YES\n", false, true},
		{"no", "n\n", true, false},
		{"empty takes default true", "\n", true, true},
		{"empty takes default false", "\n", false, false},
		{"end of input takes default", "", true, true},
		{"answer without newline", "y", false, true},
		{"repeats until answered", "maybe\nperhaps\nno\n", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := New(strings.NewReader(tt.input), &out, false)

			got, err := p.Confirm("Continue?", tt.defaultValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirmOutput(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("maybe\ny\n"), &out, false)

	_, err := p.Confirm("Warnings found! Continue?", false)
	require.NoError(t, err)
	assert.Equal(t, "Warnings found! Continue? [y/N] This is a yes and no question!\nWarnings found! Continue? [y/N] ", out.String())
}

func TestConfirmAssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out, true)

	got, err := p.Confirm("Configure now?", false)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Contains(t, out.String(), "Configure now? [y/N] y")
}

func TestAsk(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("Bad Name\nnexus\n"), &out, false)

	validate := func(s string) error {
		if strings.ToLower(s) != s {
			return errors.New("lowercase only")
		}
		return nil
	}

	got, err := p.Ask("Definition name", "", validate)
	require.NoError(t, err)
	assert.Equal(t, "nexus", got)
	assert.Contains(t, out.String(), "lowercase only")

	_, err = p.Ask("Definition name", "", validate)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAskDefault(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("\nhammerhead\n"), &out, false)

	got, err := p.Ask("Device codename", "mako", nil)
	require.NoError(t, err)
	assert.Equal(t, "mako", got)
	assert.Contains(t, out.String(), "Device codename [mako]: ")

	got, err = p.Ask("Device codename", "mako", nil)
	require.NoError(t, err)
	assert.Equal(t, "hammerhead", got)

	// end of input falls back to the default
	got, err = p.Ask("Release type", "snapshot", nil)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", got)
}

func TestAskAssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("typed\n"), &out, true)

	got, err := p.Ask("Release type", "nightly", nil)
	require.NoError(t, err)
	assert.Equal(t, "nightly", got)

	// no default: the answer is still read
	got, err = p.Ask("Codename", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "typed", got)
}

func TestPause(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("\n"), &out, false)

	require.NoError(t, p.Pause("Follow the instructions"))
	assert.Contains(t, out.String(), "Follow the instructions")

	require.NoError(t, p.Pause("again"))
}
