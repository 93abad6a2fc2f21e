// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/pkg/types"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Inspect and save output formats",
	Long: `A format names the output columns, extra search terms, and extraction
prompts for a run. Saved formats live in --format-dir as <name>.txt; the
built-in default is called "base".`,
}

// --- list subcommand ---

var formatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved formats",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := format.List(viper.GetString("format_dir"))
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", format.BaseName, format.DefaultName)
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

// --- show subcommand ---

var formatShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a format as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := format.BaseName
		if len(args) == 1 {
			ref = args[0]
		}
		f, err := format.Resolve(ref, viper.GetString("format_dir"))
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("marshaling format: %w", err)
		}
		return enc.Close()
	},
}

// --- prompts subcommand ---

var formatPromptsCmd = &cobra.Command{
	Use:   "prompts <columns>",
	Short: "Print the extraction prompts generated for a column list",
	Long: `Prompts prints the prompts built for a comma-separated column list,
one per line. Reserved columns (name, institution, email, relevant links,
other key notes) are resolved without the language model and are not asked
for.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range format.BuildPrompts(strings.Split(args[0], ",")) {
			fmt.Println(p)
		}
	},
}

// --- save subcommand ---

var formatSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a format built from a column list",
	Long: `Save writes <format-dir>/<name>.txt with the given columns and search
terms. Prompts are generated from the columns unless --links-only is set, in
which case extraction is disabled and only links (and emails) are recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: runFormatSave,
}

func runFormatSave(cmd *cobra.Command, args []string) error {
	columns, _ := cmd.Flags().GetStringSlice("columns")
	sites, _ := cmd.Flags().GetStringSlice("sites")
	linksOnly, _ := cmd.Flags().GetBool("links-only")

	f := types.Format{Name: args[0], Columns: columns, Sites: sites}.Normalize()
	if len(f.Columns) == 0 {
		return format.ErrNoColumns
	}
	if linksOnly {
		f.Prompts = []string{types.NoData}
	} else {
		f.Prompts = format.BuildPrompts(f.Columns)
	}

	path, err := format.Write(viper.GetString("format_dir"), f)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s (%d columns, %d prompts)\n", path, len(f.Columns), len(f.Prompts))
	return nil
}

func init() {
	formatSaveCmd.Flags().StringSlice("columns", nil, "output columns, comma-separated (required)")
	formatSaveCmd.Flags().StringSlice("sites", nil, "extra search terms, comma-separated")
	formatSaveCmd.Flags().Bool("links-only", false, "disable extraction; record links only")
	_ = formatSaveCmd.MarkFlagRequired("columns")

	formatCmd.AddCommand(formatListCmd)
	formatCmd.AddCommand(formatShowCmd)
	formatCmd.AddCommand(formatPromptsCmd)
	formatCmd.AddCommand(formatSaveCmd)

	rootCmd.AddCommand(formatCmd)
}
