package app

import (
	"context"
	"testing"

	"deckhand/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestFlagValue(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		flag     string
		expected string
	}{
		{"separate value", []string{"status", "--server", "http://box:3000"}, "server", "http://box:3000"},
		{"equals form", []string{"--server=http://box:3000", "status"}, "server", "http://box:3000"},
		{"missing value", []string{"status", "--server"}, "server", ""},
		{"absent", []string{"status"}, "server", ""},
		{"config short form", []string{"-c", "/etc/deckhand.toml", "serve"}, "config", "/etc/deckhand.toml"},
		{"config long form", []string{"serve", "--config=/etc/deckhand.toml"}, "config", "/etc/deckhand.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, flagValue(tt.args, tt.flag))
		})
	}
}

func TestIsHelp(t *testing.T) {
	assert.True(t, isHelp([]string{"--help"}))
	assert.True(t, isHelp([]string{"containers", "-h"}))
	assert.False(t, isHelp([]string{"status"}))
}

func TestHelpNeedsNoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	assert.NoError(t, New().Run([]string{"--help"}))
}

func TestLocalModeRejectsMissingExplicitConfig(t *testing.T) {
	t.Setenv("DECKHAND_SERVER", "")

	err := New().RunWithContext(context.Background(), []string{"status", "--config", "/nonexistent/deckhand.toml"})

	assert.True(t, errors.HasCode(err, errors.ErrConfigParse))
}
