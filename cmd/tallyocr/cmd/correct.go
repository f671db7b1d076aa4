package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tallyocr/internal/config"
	"github.com/MeKo-Tech/tallyocr/internal/correction"
)

// correctCmd represents the correct command.
var correctCmd = &cobra.Command{
	Use:   "correct [file|-]",
	Short: "Apply dictionary and structural corrections to text",
	Long: `Run the correction engine over already recognized text. Reads the named
file, or stdin when the argument is "-" or omitted. Every line is corrected
on its own, so line breaks survive.

Examples:
  tallyocr correct page.txt
  echo "Contact: JJ 385-394-9046" | tallyocr correct`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCorrect,
}

func init() {
	rootCmd.AddCommand(correctCmd)

	correctCmd.Flags().String("tables", "", "correction tables YAML file (default: built-in tables)")
	correctCmd.Flags().String("evidence", "", "file with region text trusted for City, ST ZIP lines")
	correctCmd.Flags().Bool("dictionary-only", false, "apply only the known-error dictionary")
	correctCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	tables, err := loadTables(GetConfig(), cmd)
	if err != nil {
		return err
	}
	engine, err := correction.NewEngine(tables, correction.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	name := "-"
	if len(args) == 1 {
		name = args[0]
	}
	text, err := readInput(cmd.InOrStdin(), name)
	if err != nil {
		return err
	}

	var evidence []string
	if path, _ := cmd.Flags().GetString("evidence"); path != "" {
		ev, err := readInput(nil, path)
		if err != nil {
			return err
		}
		evidence = []string{ev}
	}

	dictOnly, _ := cmd.Flags().GetBool("dictionary-only")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if dictOnly {
			lines[i] = engine.ApplyDictionary(line)
		} else {
			lines[i] = engine.CorrectWithEvidence(line, evidence)
		}
	}
	out := strings.Join(lines, "\n")

	file, _ := cmd.Flags().GetString("output")
	return writeOutput(cmd.OutOrStdout(), file, out+"\n")
}

// loadTables loads the configured correction tables, honoring a --tables
// flag when the command has one.
func loadTables(centralCfg *config.Config, cmd *cobra.Command) (*correction.Tables, error) {
	cfg := *centralCfg
	if f := cmd.Flags().Lookup("tables"); f != nil && f.Changed {
		cfg.Correction.TablesFile = f.Value.String()
	}
	return cfg.LoadTables()
}

// readInput reads a file, or stdin for "-".
func readInput(stdin io.Reader, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name) //nolint:gosec // G304: Reading user-provided input is expected
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
