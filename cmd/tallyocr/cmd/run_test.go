package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
	"github.com/MeKo-Tech/tallyocr/internal/testutil"
)

// useFakeEngine routes the run command to fake for the duration of the test.
func useFakeEngine(t *testing.T, fake *testutil.FakeEngine) {
	t.Helper()
	old := newEngine
	t.Cleanup(func() { newEngine = old })
	newEngine = func(recognizer.EngineConfig) (recognizer.Engine, func() error, error) {
		return fake, func() error { return nil }, nil
	}
}

func savePage(t *testing.T) string {
	t.Helper()
	return testutil.SavePage(t, testutil.CreatePage("Ciplomacy skills"), t.TempDir(), "page.png")
}

func TestRunCommand_Text(t *testing.T) {
	fake := testutil.NewFakeEngine(nil)
	fake.Default = "Ciplomacy skills"
	useFakeEngine(t, fake)
	page := savePage(t)

	out, _, err := executeCommand(t, "run", page, "--workers", "2")
	require.NoError(t, err)
	assert.Equal(t, "Diplomacy skills\n", out)
	assert.Len(t, fake.Calls(), 12)
}

func TestRunCommand_JSONWithPasses(t *testing.T) {
	fake := testutil.NewFakeEngine(map[string]string{
		recognizer.ProfileAuto:    "Contact: JJ 385-394-9046",
		recognizer.ProfileColumns: "Contact: 385-394-9046",
	})
	fake.Default = "Contact: JJ 385-394-9046"
	useFakeEngine(t, fake)
	page := savePage(t)
	outFile := filepath.Join(t.TempDir(), "result.json")

	_, _, err := executeCommand(t, "run", page, "--format", "json", "--include-passes", "--output", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var doc struct {
		RunID string `json:"run_id"`
		Text  string `json:"text"`
		Pages []struct {
			Passes []json.RawMessage `json:"passes"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, "Contact: 385-394-9046", doc.Text)
	require.Len(t, doc.Pages, 1)
	assert.Len(t, doc.Pages[0].Passes, 12)
}

func TestRunCommand_Errors(t *testing.T) {
	useFakeEngine(t, testutil.NewFakeEngine(nil))

	_, _, err := executeCommand(t, "run")
	require.Error(t, err)

	_, _, err = executeCommand(t, "run", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rasterize")

	_, _, err = executeCommand(t, "run", savePage(t), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestConfigToRunConfig_FlagsOverride(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })
	require.NoError(t, runCmd.Flags().Set("dpi", "300"))
	require.NoError(t, runCmd.Flags().Set("max-pages", "1"))
	require.NoError(t, runCmd.Flags().Set("timeout", "10s"))
	require.NoError(t, runCmd.Flags().Set("no-canonical", "true"))

	central := GetConfig()
	central.Output.Format = "json"
	cfg, err := configToRunConfig(central, runCmd)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.central.Raster.DPI)
	assert.Equal(t, 1, cfg.central.Parallel.MaxPages)
	assert.Equal(t, "10s", cfg.central.Engine.Timeout.String())
	assert.False(t, cfg.central.Correction.CanonicalWords)
	assert.Equal(t, "json", cfg.format, "unset flags keep config values")
}
