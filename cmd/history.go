package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/monitoring"
	"github.com/sells-group/invest-sim/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded simulations",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded simulations, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("page-size")

		result, err := st.ListSimulations(ctx, store.SimulationFilter{Page: page, PageSize: size})
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(result.Records) == 0 {
			fmt.Fprintln(os.Stderr, "No simulations found.")
			return nil
		}

		formatSimulations(os.Stdout, result.Records)
		fmt.Fprintf(os.Stdout, "\nPage %d (size %d) of %d simulations\n", result.Page, result.PageSize, result.Total)
		return nil
	},
}

// -- history client --

var historyClientCmd = &cobra.Command{
	Use:   "client <client-id>",
	Short: "List simulations recorded for one client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListSimulationsByClient(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "history client")
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No simulations found.")
			return nil
		}
		formatSimulations(os.Stdout, records)
		return nil
	},
}

// -- history products --

var historyProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Summarize simulations per product and UTC day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rows, err := st.ProductDailySummary(ctx)
		if err != nil {
			return eris.Wrap(err, "history products")
		}
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No simulations found.")
			return nil
		}
		formatDailySummary(os.Stdout, rows)
		return nil
	},
}

// -- history stats --

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate simulation and endpoint statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		days, _ := cmd.Flags().GetInt("days")
		snap, err := monitoring.NewCollector(st, nil).Collect(ctx, days)
		if err != nil {
			return eris.Wrap(err, "history stats")
		}
		formatStats(os.Stdout, snap)
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("page", 1, "page number (1-based)")
	historyListCmd.Flags().Int("page-size", store.DefaultPageSize, "records per page")
	historyStatsCmd.Flags().Int("days", 7, "telemetry lookback in UTC days, today included")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClientCmd)
	historyCmd.AddCommand(historyProductsCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

// formatSimulations writes a tabular list of simulation records to out.
func formatSimulations(out io.Writer, records []model.SimulationRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCLIENT\tPRODUCT\tAMOUNT\tTERM\tPROJECTED\tPROFILE\tRATING\tCREATED")
	for _, r := range records {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		product := r.ProductName
		if product == "" {
			product = fmt.Sprintf("#%d", r.ProductID)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dm\t%s\t%s\t%d\t%s\n",
			id, r.ClientID, product,
			r.Amount.StringFixed(2), r.TermMonths, r.ProjectedValue.StringFixed(2),
			r.Profile, r.Rating, r.CreatedAt.UTC().Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatDailySummary writes per-product, per-day aggregates to out.
func formatDailySummary(out io.Writer, rows []model.ProductDaySummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DAY\tPRODUCT\tCOUNT\tAVG_PROJECTED")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Day, r.ProductName, r.Count, r.AvgProjectedValue.StringFixed(2))
	}
	_ = w.Flush()
}

// formatStats writes a collector snapshot to out.
func formatStats(out io.Writer, s *monitoring.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Simulations:\t%d\n", s.SimulationsTotal)
	_, _ = fmt.Fprintf(w, "Avg rating:\t%.1f\n", s.AvgRating)

	profiles := make([]string, 0, len(s.ByProfile))
	for p := range s.ByProfile {
		profiles = append(profiles, string(p))
	}
	sort.Strings(profiles)
	for _, p := range profiles {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", p, s.ByProfile[model.RiskProfile(p)])
	}

	_, _ = fmt.Fprintf(w, "Requests (%dd):\t%d\n", s.LookbackDays, s.TotalRequests)
	_, _ = fmt.Fprintf(w, "Error rate:\t%.1f%%\n", s.ErrorRate*100)
	_ = w.Flush()

	if len(s.Endpoints) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ENDPOINT\tREQUESTS\tERRORS\tAVG_MS")
	for _, e := range s.Endpoints {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\n", e.Endpoint, e.Requests, e.Errors, e.AvgDuration())
	}
	_ = w.Flush()
}
