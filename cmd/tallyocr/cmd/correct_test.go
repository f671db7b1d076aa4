package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.txt")
	require.NoError(t, os.WriteFile(path, []byte("Contact: JJ 385-394-9046\nVisit httos://wwvv.example.corn today\n"), 0o600))

	out, _, err := executeCommand(t, "correct", path)
	require.NoError(t, err)
	assert.Equal(t, "Contact: 385-394-9046\nVisit https://www.example.com today\n", out)
}

func TestCorrectCommand_LinesAreCorrectedSeparately(t *testing.T) {
	out, _, err := executeCommandWithInput(t, "  Ciplomacy   skills \n\nvillereek, UT 84106\n", "correct")
	require.NoError(t, err)
	assert.Equal(t, "Diplomacy skills\n\nmillcreek, UT 84106\n", out)
}

func TestCorrectCommand_Stdin(t *testing.T) {
	out, _, err := executeCommandWithInput(t, "villereek, UT 84106\n", "correct", "-")
	require.NoError(t, err)
	assert.Equal(t, "millcreek, UT 84106\n", out)

	out, _, err = executeCommandWithInput(t, "Ciplomacy", "correct")
	require.NoError(t, err)
	assert.Equal(t, "Diplomacy\n", out)
}

func TestCorrectCommand_Evidence(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.txt")
	evidence := filepath.Join(dir, "region.txt")
	require.NoError(t, os.WriteFile(page, []byte("Milcreek, UT 84106"), 0o600))
	require.NoError(t, os.WriteFile(evidence, []byte("Millcreek, UT 84106"), 0o600))

	out, _, err := executeCommand(t, "correct", page, "--evidence", evidence)
	require.NoError(t, err)
	assert.Equal(t, "Millcreek, UT 84106\n", out)
}

func TestCorrectCommand_DictionaryOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.txt")
	require.NoError(t, os.WriteFile(path, []byte("Ciplomacy  httos"), 0o600))

	out, _, err := executeCommand(t, "correct", path, "--dictionary-only")
	require.NoError(t, err)
	assert.Equal(t, "Diplomacy  https\n", out)
}

func TestCorrectCommand_CustomTables(t *testing.T) {
	dir := t.TempDir()
	tables := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(tables, []byte("known_errors:\n  teh: the\n"), 0o600))
	page := filepath.Join(dir, "page.txt")
	require.NoError(t, os.WriteFile(page, []byte("teh Ciplomacy"), 0o600))

	out, _, err := executeCommand(t, "correct", page, "--tables", tables)
	require.NoError(t, err)
	assert.Equal(t, "the Ciplomacy\n", out)
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i, text := range []string{"Ciplomacy skills", "ciplomacy skills", "diplomacy skills"} {
		path := filepath.Join(dir, "pass"+string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
		files = append(files, path)
	}

	out, _, err := executeCommand(t, append([]string{"merge"}, files...)...)
	require.NoError(t, err)
	assert.Equal(t, "Diplomacy skills\n", out)

	out, _, err = executeCommand(t, append([]string{"merge", "--no-correct", "--no-canonical"}, files...)...)
	require.NoError(t, err)
	assert.Equal(t, "Ciplomacy skills\n", out)
}
