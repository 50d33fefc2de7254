package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/simulation"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate an investment and print the recommended product",
	Long:  "Classifies the investor, scores every catalog product and projects the best one. Nothing is recorded unless --save is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("simulate"); err != nil {
			return err
		}
		req, err := simulateRequest(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rdb := initRedis()
		if rdb != nil {
			defer rdb.Close() //nolint:errcheck
		}
		svc, err := initService(initProvider(st, rdb), st, nil)
		if err != nil {
			return err
		}

		save, _ := cmd.Flags().GetBool("save")
		asJSON, _ := cmd.Flags().GetBool("json")

		var result *model.SimulationResult
		if save {
			result, err = svc.Run(ctx, req)
		} else {
			var out *simulation.Outcome
			out, err = svc.Preview(ctx, req)
			if err == nil {
				result = &out.Result
			}
		}
		if err != nil {
			return eris.Wrap(err, "simulate")
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		formatSimulation(os.Stdout, result, save)
		return nil
	},
}

func simulateRequest(cmd *cobra.Command) (model.InvestmentRequest, error) {
	client, _ := cmd.Flags().GetString("client")
	amountStr, _ := cmd.Flags().GetString("amount")
	term, _ := cmd.Flags().GetInt("term")
	hint, _ := cmd.Flags().GetString("type")

	client = strings.TrimSpace(client)
	if client == "" {
		return model.InvestmentRequest{}, eris.New("--client is required")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return model.InvestmentRequest{}, eris.Wrapf(err, "invalid --amount %q", amountStr)
	}
	req := model.InvestmentRequest{
		ClientID:    client,
		Amount:      amount,
		TermMonths:  term,
		ProductType: hint,
	}
	return req, req.Validate()
}

// formatSimulation writes a human-readable simulation result to out.
func formatSimulation(out io.Writer, r *model.SimulationResult, saved bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Profile:\t%s (%s)\n", r.Profile, r.Profile.Description())
	_, _ = fmt.Fprintf(w, "Product:\t#%d %s [%s]\n", r.Product.ID, r.Product.Name, r.Product.Type)
	_, _ = fmt.Fprintf(w, "Risk:\t%s\n", r.Product.Risk)
	_, _ = fmt.Fprintf(w, "Gross rate:\t%.2f%%\n", r.EffectiveRate*100)
	_, _ = fmt.Fprintf(w, "Net rate:\t%.2f%%\n", r.Product.NetRate*100)
	_, _ = fmt.Fprintf(w, "Term:\t%d months\n", r.TermMonths)
	_, _ = fmt.Fprintf(w, "Projected value:\t%s\n", r.ProjectedValue.StringFixed(2))
	_, _ = fmt.Fprintf(w, "Score:\t%.4f\n", r.Score)
	if saved {
		_, _ = fmt.Fprintf(w, "Recorded:\t%s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}

func addSimulateFlags(cmd *cobra.Command) {
	cmd.Flags().String("client", "", "client identifier")
	cmd.Flags().String("amount", "", "amount to invest (e.g. 10000.00)")
	cmd.Flags().Int("term", 12, "holding term in months")
	cmd.Flags().String("type", "", "preferred product type (optional, matched loosely)")
	cmd.Flags().Bool("save", false, "record the simulation in the store")
	cmd.Flags().Bool("json", false, "print the result as JSON")
}

func init() {
	addSimulateFlags(simulateCmd)
	rootCmd.AddCommand(simulateCmd)
}
