package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <client-id>",
	Short: "Show the latest risk profile recorded for a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cp, err := st.LatestClientProfile(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "profile")
		}
		if cp == nil {
			return eris.Errorf("no simulations recorded for client %s", args[0])
		}

		fmt.Fprintf(os.Stdout, "%s: %s (rating %d, updated %s)\n%s\n",
			cp.ClientID, cp.Profile, cp.Rating,
			cp.UpdatedAt.UTC().Format("2006-01-02 15:04"),
			cp.Profile.Description(),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
