package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "http://api:4000", "-s", "/tmp/s.json", "-t", "3"}, expectPanic: false,
			expected: &Config{ServerURL: "http://api:4000", SessionFile: "/tmp/s.json", RequestTimeout: 3 * time.Second}},
		{name: "Test2 incorrect timeout", args: []string{"cmd", "-a", "http://api:4000", "-t", "abc"}, expectPanic: true, expected: &Config{}},
		{name: "Test3 unrelated flags ignored", args: []string{"cmd", "-c", "cfg.json", "-t", "5"}, expectPanic: false,
			expected: &Config{RequestTimeout: 5 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
			os.Args = tt.args
			config := &Config{}
			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
