package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HeshMedia/insurezeal-sub005/config"
	"github.com/HeshMedia/insurezeal-sub005/models"
	"github.com/HeshMedia/insurezeal-sub005/recon"
	"github.com/HeshMedia/insurezeal-sub005/workflow"
)

// Runs one reconciliation batch against a local insurer file. Meant for
// operators replaying an upload or testing a new header mapping without
// going through the API.
func main() {
	insurer := flag.String("insurer", "", "Insurer name the file belongs to (must have header mappings configured)")
	filePath := flag.String("file", "", "Path to the insurer bulk file (.xlsx or .csv)")
	exportPath := flag.String("export", "", "Optional: write the report workbook to this path")
	flag.Parse()

	if strings.TrimSpace(*insurer) == "" || strings.TrimSpace(*filePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: reconcile-file -insurer <name> -file <path> [-export <path>]")
		os.Exit(1)
	}

	ctx := context.Background()
	// Explicit DB connect (config no longer connects DB in init()).
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	f, err := os.Open(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *filePath, err)
		os.Exit(1)
	}
	rawRows, err := recon.ReadRows(filepath.Base(*filePath), f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *filePath, err)
		os.Exit(1)
	}

	logger := config.GetLogger()
	run, report, err := workflow.ProcessReconciliationWorkflow(
		ctx, db, logger, strings.TrimSpace(*insurer), filepath.Base(*filePath), rawRows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s for %s (%d rows)\n", run.ID, run.InsurerName, len(rawRows))
	fmt.Printf("  processed=%d updated=%d added=%d skipped=%d errors=%d\n",
		run.TotalRecordsProcessed, run.TotalRecordsUpdated, run.TotalRecordsAdded,
		run.TotalRecordsSkipped, run.TotalErrors)

	if len(report.Stats.FieldChanges) > 0 {
		fields := make([]string, 0, len(report.Stats.FieldChanges))
		for field := range report.Stats.FieldChanges {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		fmt.Println("  changed fields:")
		for _, field := range fields {
			fmt.Printf("    %s: %d\n", field, report.Stats.FieldChanges[field])
		}
	}
	for _, detail := range report.ErrorDetails {
		fmt.Printf("  row %d error: %s\n", detail.RowIndex, detail.Message)
	}

	if strings.TrimSpace(*exportPath) != "" {
		out, err := os.Create(*exportPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", *exportPath, err)
			os.Exit(1)
		}
		defer out.Close()
		if err := recon.ExportExcel(report, out); err != nil {
			fmt.Fprintf(os.Stderr, "failed to export report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", *exportPath)
	}
}
