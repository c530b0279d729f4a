package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"s3gtoolkit/protocol"
)

func TestParseCommands(t *testing.T) {
	cmds, err := ParseCommands(`
[[command]]
id = 145
name = "SET_BUILD_PERCENT"
length = 2

[[command]]
id = 146
name = "QUEUE_SONG"
embedded = true

[[command]]
id = 140
unknown = true
`)
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	assert.Equal(t, protocol.CommandInfo{ID: 145, Name: "SET_BUILD_PERCENT", Rule: protocol.Fixed(2)}, cmds[0])
	assert.Equal(t, protocol.CommandInfo{ID: 146, Name: "QUEUE_SONG", Rule: protocol.Embedded()}, cmds[1])
	assert.Equal(t, protocol.CommandInfo{ID: 140}, cmds[2])
}

func TestParseCommandsEmpty(t *testing.T) {
	cmds, err := ParseCommands("")
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestParseCommandsRejects(t *testing.T) {
	testCases := map[string]string{
		"missing id":       "[[command]]\nname = \"X\"\nlength = 1\n",
		"id range":         "[[command]]\nid = 256\nname = \"X\"\nlength = 1\n",
		"missing name":     "[[command]]\nid = 145\nlength = 1\n",
		"no rule":          "[[command]]\nid = 145\nname = \"X\"\n",
		"both rules":       "[[command]]\nid = 145\nname = \"X\"\nlength = 1\nembedded = true\n",
		"unknown with len": "[[command]]\nid = 145\nunknown = true\nlength = 1\n",
		"duplicate":        "[[command]]\nid = 145\nname = \"X\"\nlength = 1\n[[command]]\nid = 145\nname = \"Y\"\nlength = 2\n",
		"stray key":        "[[command]]\nid = 145\nname = \"X\"\nlenght = 1\n",
		"bad toml":         "[[command]\nid = 1\n",
	}

	for name, data := range testCases {
		_, err := ParseCommands(data)
		assert.Error(t, err, name)
	}
}

func TestApplyCommandFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[command]]
id = 145
name = "SET_BUILD_PERCENT"
length = 2
`), 0o644))

	base := protocol.DefaultTable()
	table, err := ApplyCommandFile(base, path)
	require.NoError(t, err)

	assert.Equal(t, "SET_BUILD_PERCENT", table.Lookup(145).Name)
	assert.False(t, base.Lookup(145).Known())
}

func TestApplyCommandFileBadLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[command]]\nid = 145\nname = \"HUGE\"\nlength = 40\n"), 0o644))

	_, err := ApplyCommandFile(protocol.DefaultTable(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrTableInconsistency)
}

func TestLoadCommandFileMissing(t *testing.T) {
	_, err := LoadCommandFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
