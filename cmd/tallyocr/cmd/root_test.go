package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of the command tree to its default so that
// tests sharing the global commands do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandWithInput(t, "", args...)
}

func executeCommandWithInput(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandIn(t, t.TempDir(), stdin, args...)
}

// executeCommandIn runs the root command with dir as working directory.
func executeCommandIn(t *testing.T, dir, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)
	resetFlags(rootCmd)
	cfgFile = ""
	globalConfig = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "tallyocr", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	out, _, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "majority vote")
	assert.Contains(t, out, "Available Commands:")
}

func TestRootCommandVersionFlag(t *testing.T) {
	out, _, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tallyocr "))
}

func TestVersionCommand(t *testing.T) {
	out, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit")
}

func TestRootCommandSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"run", "batch", "correct", "merge", "rules", "config", "version"} {
		assert.Contains(t, names, expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, _, err := executeCommand(t, "--no-such-flag")
	assert.Error(t, err)
}

func TestInvalidConfigFromEnvironment(t *testing.T) {
	t.Setenv("TALLYOCR_LOG_LEVEL", "loud")
	_, _, err := executeCommand(t, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestDotEnvFile(t *testing.T) {
	// Registers a cleanup that unsets the variable again.
	t.Setenv("TALLYOCR_ENGINE_LANGUAGE", "")
	require.NoError(t, os.Unsetenv("TALLYOCR_ENGINE_LANGUAGE"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TALLYOCR_ENGINE_LANGUAGE=deu\n"), 0o600))

	out, _, err := executeCommandIn(t, dir, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "language: deu")
}

func TestResetFlagsClearsSlices(t *testing.T) {
	require.NoError(t, batchCmd.Flags().Set("include", "*.pdf"))
	resetFlags(rootCmd)

	include, err := batchCmd.Flags().GetStringSlice("include")
	require.NoError(t, err)
	assert.Empty(t, include)
	assert.False(t, batchCmd.Flags().Changed("include"))
}
