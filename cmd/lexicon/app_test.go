package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testPartition = `{"name":"noun","words":[
	{"word":"chat","phonetic":"ʃa","gender":"m","pos":[{"abbr":"n. m.","full":"nom masculin"}],"definitions":[{"text":"petit félin domestique"}]},
	{"word":"chaton","gender":"m","pos":[{"abbr":"n. m."}],"definitions":[{"text":"jeune chat"}]},
	{"word":"chien","gender":"m","pos":[{"abbr":"n. m."}],"definitions":[{"text":"animal domestique"}]}
]}`

func runApp(t *testing.T, args ...string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noun.json"), []byte(testPartition), 0600))
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DICT_SOURCE_DIR", dir)
	t.Setenv("DICT_PARTITIONS", "noun")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	app := newLexiconApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	require.NoError(t, app.Run(append([]string{"lexicon"}, args...)))
	return out.String()
}

func TestLookupCommand(t *testing.T) {
	out := runApp(t, "lookup", "chat")

	assert.Contains(t, out, "chat [ʃa] (m)")
	assert.Contains(t, out, "nom masculin")
	assert.Contains(t, out, "1. petit félin domestique")
	assert.Contains(t, out, "chaton")
}

func TestLookupCommand_Miss(t *testing.T) {
	out := runApp(t, "lookup", "chiem")

	assert.Contains(t, out, `No entry for "chiem".`)
	assert.Contains(t, out, "Did you mean: chien?")
}

func TestStatsCommand(t *testing.T) {
	out := runApp(t, "stats")

	assert.Contains(t, out, "State:       ready")
	assert.Contains(t, out, "Headwords:   3")
	assert.Contains(t, out, "noun")
	assert.Contains(t, out, "Learned:     0")
}
