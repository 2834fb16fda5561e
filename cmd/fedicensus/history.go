package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fedicensus/fedicensus/internal/config"
	"github.com/fedicensus/fedicensus/internal/database"
	"github.com/fedicensus/fedicensus/internal/model"
	"github.com/fedicensus/fedicensus/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved crawl runs",
		Long: `History lists and inspects crawl runs saved in the local database.

Without flags it lists all stored runs, newest first. A single run can be
reprinted in any report format, and two runs can be compared to see how
the network changed between them.

Examples:
  # List all stored runs
  fedicensus history

  # Reprint one run's report
  fedicensus history --run 6e1f0a2c-...

  # Reprint as JSON
  fedicensus history --run 6e1f0a2c-... --json

  # Compare two runs (older first)
  fedicensus history --diff 6e1f0a2c-...,9b3d417e-...`,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("run", "", "Print the stored report of one run by ID")
	cmd.Flags().StringSlice("diff", nil, "Compare two runs by ID (older,newer)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON instead of text")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	diffIDs, err := cmd.Flags().GetStringSlice("diff")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if runID != "" && len(diffIDs) > 0 {
		return fmt.Errorf("--run and --diff are mutually exclusive")
	}

	// The history database must already exist; history never creates it.
	db, err := database.Open(config.XDGDataDir(), database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open history database (run a crawl first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case runID != "":
		return printRun(cmd, db, runID, asJSON)
	case len(diffIDs) > 0:
		if len(diffIDs) != 2 {
			return fmt.Errorf("--diff requires exactly two run IDs, got %d", len(diffIDs))
		}
		return printDiff(cmd, db, diffIDs[0], diffIDs[1])
	default:
		runs, err := db.ListRuns(ctx)
		if err != nil {
			return err
		}
		return printRunList(cmd, runs)
	}
}

// printRunList writes one line per stored run, newest first.
func printRunList(cmd *cobra.Command, runs []database.RunMetadata) error {
	out := cmd.OutOrStdout()

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl runs saved yet.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-19s  %10s  %8s  %12s\n",
		"RUN ID", "STARTED", "INSTANCES", "FAILED", "TOTAL USERS")
	for _, run := range runs {
		status := ""
		if run.Interrupted {
			status = "  (interrupted)"
		}
		fmt.Fprintf(out, "%-36s  %-19s  %10d  %8d  %12d%s\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.CrawledInstances,
			run.FailedInstances,
			run.TotalUsers,
			status)
	}
	return nil
}

// printRun reprints one stored report.
func printRun(cmd *cobra.Command, db *database.CrawlDB, runID string, asJSON bool) error {
	stored, err := db.GetRunReport(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("no run found with ID %s", runID)
	}

	var writer report.Writer
	if asJSON {
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		writer = report.NewTextWriter(cmd.OutOrStdout())
	}
	_, err = writer.Write(stored)
	return err
}

// runDiff summarizes how the network changed between two runs.
type runDiff struct {
	// UsersDelta is the change in network-wide total users.
	UsersDelta int64

	// InstancesDelta is the change in successfully crawled instances.
	InstancesDelta int

	// New lists domains present in the newer run but not the older.
	New []model.CanonicalAddress

	// Vanished lists domains present in the older run but not the newer.
	Vanished []model.CanonicalAddress

	// Changed maps domains present in both runs to their user delta,
	// zero deltas omitted.
	Changed map[model.CanonicalAddress]int64
}

// diffReports computes the run-to-run changes from older to newer.
func diffReports(older, newer *model.Report) *runDiff {
	d := &runDiff{
		UsersDelta:     newer.TotalUsers - older.TotalUsers,
		InstancesDelta: newer.CrawledInstances - older.CrawledInstances,
		Changed:        make(map[model.CanonicalAddress]int64),
	}

	olderUsers := make(map[model.CanonicalAddress]int64, len(older.InstanceDetails))
	for _, inst := range older.InstanceDetails {
		olderUsers[inst.Domain] = inst.TotalUsers
	}

	seen := make(map[model.CanonicalAddress]struct{}, len(newer.InstanceDetails))
	for _, inst := range newer.InstanceDetails {
		seen[inst.Domain] = struct{}{}
		was, ok := olderUsers[inst.Domain]
		if !ok {
			d.New = append(d.New, inst.Domain)
			continue
		}
		if delta := inst.TotalUsers - was; delta != 0 {
			d.Changed[inst.Domain] = delta
		}
	}
	for _, inst := range older.InstanceDetails {
		if _, ok := seen[inst.Domain]; !ok {
			d.Vanished = append(d.Vanished, inst.Domain)
		}
	}

	sort.Slice(d.New, func(i, j int) bool { return d.New[i] < d.New[j] })
	sort.Slice(d.Vanished, func(i, j int) bool { return d.Vanished[i] < d.Vanished[j] })

	return d
}

// printDiff loads two runs and writes their comparison.
func printDiff(cmd *cobra.Command, db *database.CrawlDB, olderID, newerID string) error {
	older, err := db.GetRunReport(cmd.Context(), olderID)
	if err != nil {
		return err
	}
	if older == nil {
		return fmt.Errorf("no run found with ID %s", olderID)
	}
	newer, err := db.GetRunReport(cmd.Context(), newerID)
	if err != nil {
		return err
	}
	if newer == nil {
		return fmt.Errorf("no run found with ID %s", newerID)
	}

	d := diffReports(older, newer)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Comparing runs\n")
	fmt.Fprintf(out, "  older: %s (%s)\n", olderID, older.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  newer: %s (%s)\n\n", newerID, newer.StartTime.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(out, "Instances: %+d (%d -> %d)\n",
		d.InstancesDelta, older.CrawledInstances, newer.CrawledInstances)
	fmt.Fprintf(out, "Users:     %+d (%d -> %d)\n\n",
		d.UsersDelta, older.TotalUsers, newer.TotalUsers)

	if len(d.New) > 0 {
		fmt.Fprintf(out, "New instances (%d):\n  %s\n\n",
			len(d.New), joinAddresses(d.New))
	}
	if len(d.Vanished) > 0 {
		fmt.Fprintf(out, "Vanished instances (%d):\n  %s\n\n",
			len(d.Vanished), joinAddresses(d.Vanished))
	}

	if len(d.Changed) > 0 {
		fmt.Fprintf(out, "User count changes:\n")
		domains := make([]model.CanonicalAddress, 0, len(d.Changed))
		for domain := range d.Changed {
			domains = append(domains, domain)
		}
		sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
		for _, domain := range domains {
			fmt.Fprintf(out, "  %s: %+d\n", domain, d.Changed[domain])
		}
	}
	return nil
}

// joinAddresses renders a domain list as a comma-separated line.
func joinAddresses(addrs []model.CanonicalAddress) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
