package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tallyocr/internal/correction"
)

// rulesCmd groups the correction table tools.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect correction tables and rules",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report conflicts in the correction tables",
	Long: `Report entries of the correction tables that contradict each other or a
lexicon of legitimate words. Conflicts are reported, never resolved. Exits
non-zero when any conflict is found.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRulesCheck,
}

var rulesDumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Print the effective correction tables as YAML",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRulesDump,
}

var rulesListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List the structural rules in application order",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRulesList,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd, rulesDumpCmd, rulesListCmd)

	rulesCmd.PersistentFlags().String("tables", "", "correction tables YAML file (default: built-in tables)")
	rulesCheckCmd.Flags().String("lexicon", "", "word list of legitimate words, one per line")
}

func runRulesCheck(cmd *cobra.Command, _ []string) error {
	centralCfg := *GetConfig()
	centralCfg.Correction.StrictTables = false
	if path, _ := cmd.Flags().GetString("lexicon"); path != "" {
		centralCfg.Correction.LexiconFile = path
	}

	tables, err := loadTables(&centralCfg, cmd)
	if err != nil {
		return err
	}
	lexicon, err := centralCfg.LoadLexicon()
	if err != nil {
		return err
	}

	conflicts := tables.Conflicts(lexicon)
	out := cmd.OutOrStdout()
	for _, c := range conflicts {
		_, _ = fmt.Fprintln(out, c.String())
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%d conflicts found", len(conflicts))
	}
	_, _ = fmt.Fprintln(out, "no conflicts found")
	return nil
}

func runRulesDump(cmd *cobra.Command, _ []string) error {
	tables, err := loadTables(GetConfig(), cmd)
	if err != nil {
		return err
	}
	data, err := tables.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	tables, err := loadTables(GetConfig(), cmd)
	if err != nil {
		return err
	}
	engine, err := correction.NewEngine(tables, correction.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tRULE\tCATEGORY")
	for i, r := range engine.Rules() {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, r.Name(), r.Category())
	}
	_, _ = fmt.Fprintf(w, "\t%d known words\t\n", engine.Dictionary().Len())
	return w.Flush()
}
