package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/teetime-scheduler/internal/config"
)

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"server", "run", "status", "player", "booking", "user", "keys", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "teesched dev"))
}

func TestKeysCmd(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"keys"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "export COOKIE_HASH_KEY=")
	assert.Contains(t, out.String(), "export COOKIE_BLOCK_KEY=")
}

func TestVersionCmdJSON(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())

	var info buildInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "dev", info.Version)
	assert.True(t, strings.HasPrefix(info.Go, "go"))
}

func TestKeysCmdWritesFilesConfigCanRead(t *testing.T) {
	dir := t.TempDir()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"keys", "--dir", dir})
	require.NoError(t, root.Execute())

	hashPath := filepath.Join(dir, "cookie_hash_key")
	blockPath := filepath.Join(dir, "cookie_block_key")
	assert.Contains(t, out.String(), "export COOKIE_HASH_KEY="+hashPath)
	assert.Contains(t, out.String(), "export COOKIE_BLOCK_KEY="+blockPath)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("COOKIE_HASH_KEY", hashPath)
	t.Setenv("COOKIE_BLOCK_KEY", blockPath)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Len(t, cfg.CookieHashKey, 32)
	assert.NoError(t, cfg.RequireCookieKeys())
}

func TestPlayerCommandsWithMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TIMEZONE", "America/Vancouver")
	t.Setenv("LOG_LEVEL", "error")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"player", "add", "--name", "Ann Lee", "--email", "ann@example.com"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "created player Ann Lee")

	root = NewRootCmd()
	root.SetArgs([]string{"player", "add", "--name", "Bad", "--email", "nope"})
	assert.Error(t, root.Execute())
}

func TestBookingListRejectsUnknownScope(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"booking", "list", "--scope", "soon"})
	assert.Error(t, root.Execute())
}
