package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/invest-sim/internal/model"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog",
}

// -- catalog import --

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import products from a YAML, JSON, CSV or XLSX file or URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			file = cfg.Catalog.SeedFile
		}
		if file == "" {
			return eris.New("--file is required (or set catalog.seed_file)")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		products, n, err := importProducts(ctx, st, file)
		if err != nil {
			return err
		}

		// Drop the shared snapshot so running servers reload on next access.
		rdb := initRedis()
		if rdb != nil {
			defer rdb.Close() //nolint:errcheck
			initProvider(st, rdb).Invalidate(ctx)
		}

		zap.L().Info("catalog imported", zap.String("file", file), zap.Int("products", n))
		fmt.Fprintf(os.Stdout, "Imported %d products from %s\n", len(products), file)
		return nil
	},
}

// -- catalog list --

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var products []model.Product
		profile, _ := cmd.Flags().GetString("profile")
		if profile != "" {
			p, perr := model.ParseRiskProfile(profile)
			if perr != nil {
				return perr
			}
			products, err = st.ListProductsByProfile(ctx, p)
		} else {
			products, err = st.ListProducts(ctx)
		}
		if err != nil {
			return eris.Wrap(err, "catalog list")
		}

		if len(products) == 0 {
			fmt.Fprintln(os.Stderr, "No products found.")
			return nil
		}
		formatProducts(os.Stdout, products)
		return nil
	},
}

// -- catalog types --

var catalogTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List distinct product types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		types, err := st.DistinctProductTypes(ctx)
		if err != nil {
			return eris.Wrap(err, "catalog types")
		}
		for _, t := range types {
			fmt.Fprintln(os.Stdout, t)
		}
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().String("file", "", "path or URL of the catalog (yaml, json, csv or xlsx)")
	catalogListCmd.Flags().String("profile", "", "only products curated for this risk profile")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogTypesCmd)
	rootCmd.AddCommand(catalogCmd)
}

// formatProducts writes a tabular list of products to out.
func formatProducts(out io.Writer, products []model.Product) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tRATE\tLIQUIDITY\tRISK\tPROFILE")
	for _, p := range products {
		profile := string(p.Profile)
		if profile == "" {
			profile = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s%%\t%dd\t%s\t%s\n",
			p.ID, p.Name, p.Type,
			p.AnnualRate.Shift(2).StringFixed(2),
			p.LiquidityDays, p.RiskRating, profile,
		)
	}
	_ = w.Flush()
}
