package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tallyocr/internal/consensus"
	"github.com/MeKo-Tech/tallyocr/internal/correction"
)

// mergeCmd represents the merge command.
var mergeCmd = &cobra.Command{
	Use:   "merge [pass-file...]",
	Short: "Merge raw pass texts by majority vote",
	Long: `Merge the raw texts of several recognition passes, one file per pass, by
per-position majority vote and correct the result.

Examples:
  tallyocr merge pass1.txt pass2.txt pass3.txt
  tallyocr merge pass*.txt --no-correct`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().String("tables", "", "correction tables YAML file (default: built-in tables)")
	mergeCmd.Flags().Bool("no-correct", false, "print the raw consensus without correction")
	mergeCmd.Flags().Bool("no-canonical", false, "disable canonical casing of known problem words")
	mergeCmd.Flags().Bool("stats", false, "log per-word agreement")
	mergeCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	centralCfg := GetConfig()
	tables, err := loadTables(centralCfg, cmd)
	if err != nil {
		return err
	}

	texts := make([]string, len(args))
	for i, name := range args {
		if texts[i], err = readInput(cmd.InOrStdin(), name); err != nil {
			return err
		}
	}

	var opts []consensus.Option
	if noCanonical, _ := cmd.Flags().GetBool("no-canonical"); !noCanonical && centralCfg.Correction.CanonicalWords {
		opts = append(opts, consensus.WithCanonical(tables.Canonical))
	}
	merger := consensus.NewMerger(opts...)
	words := merger.MergeWords(texts)
	merged := merger.Merge(texts)

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		slog.Info("merged passes",
			"passes", len(texts),
			"words", len(words),
			"agreement", fmt.Sprintf("%.2f", consensus.Agreement(words)),
		)
	}

	out := merged
	if noCorrect, _ := cmd.Flags().GetBool("no-correct"); !noCorrect {
		engine, err := correction.NewEngine(tables, correction.WithLogger(slog.Default()))
		if err != nil {
			return err
		}
		out = engine.Correct(merged)
	}

	file, _ := cmd.Flags().GetString("output")
	return writeOutput(cmd.OutOrStdout(), file, out+"\n")
}
