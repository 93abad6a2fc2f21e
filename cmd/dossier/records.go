// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dossier/internal/output"
	"github.com/pdiddy/dossier/pkg/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Query saved runs and subject records",
	Long: `Records reads the local record store that every run writes to. Use
subcommands to list runs, list subjects, or export them as YAML or JSON.`,
}

// --- runs subcommand ---

var recordsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := output.OpenStore(storePath())
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(context.Background())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-30s  %s\n", "Run", "Started", "Format", "Subjects")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, r := range runs {
			fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-30s  %d\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), truncate(r.Format, 30), r.Subjects)
		}
		return nil
	},
}

// --- list subcommand ---

var recordsListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List stored subjects",
	Long: `List prints stored subjects in run and input order. An optional name
argument filters by case-insensitive substring; --run and --status narrow
further.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := output.OpenStore(storePath())
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.Records(context.Background(), queryFromFlags(cmd, args))
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-8s  %-4s  %-30s  %-30s  %-10s  %s\n", "Run", "Row", "Name", "Institution", "Status", "Links")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, r := range records {
			fmt.Fprintf(os.Stdout, "%-8s  %-4d  %-30s  %-30s  %-10s  %d\n",
				truncate(r.RunID, 8), r.Position+1, truncate(r.Name, 30), truncate(r.Institution, 30), r.Status, len(r.Links))
		}
		fmt.Fprintf(os.Stdout, "\n%d records\n", len(records))
		return nil
	},
}

// --- export subcommand ---

var recordsExportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Export stored subjects to YAML or JSON",
	Long: `Export writes stored subjects, with their links and merged output, to
stdout or --output. It accepts the same filters as list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecordsExport,
}

func runRecordsExport(cmd *cobra.Command, args []string) error {
	exportFormat, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")

	store, err := output.OpenStore(storePath())
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer file.Close()
		w = file
	}

	q := queryFromFlags(cmd, args)
	switch exportFormat {
	case "yaml", "":
		err = store.ExportYAML(context.Background(), q, w)
	case "json":
		err = store.ExportJSON(context.Background(), q, w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", exportFormat)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", outPath)
	}
	return nil
}

// --- shared helpers ---

func queryFromFlags(cmd *cobra.Command, args []string) output.Query {
	runID, _ := cmd.Flags().GetString("run")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	q := output.Query{RunID: runID, Status: types.SubjectStatus(status), Limit: limit}
	if len(args) == 1 {
		q.Name = args[0]
	}
	return q
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	for _, c := range []*cobra.Command{recordsListCmd, recordsExportCmd} {
		c.Flags().String("run", "", "filter by run ID")
		c.Flags().String("status", "", "filter by status: extracted, links_only, no_links")
		c.Flags().Int("limit", 0, "maximum records (0 = all)")
	}
	recordsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	recordsExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	recordsCmd.AddCommand(recordsRunsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsExportCmd)

	rootCmd.AddCommand(recordsCmd)
}
