package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/samirrijal/clinicmap/internal/core/labeling"
	"github.com/samirrijal/clinicmap/internal/pkg/geospatial"
)

func newBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budget LAT_DELTA...",
		Short: "Print the label budget for latitude spans",
		Long: `Prints each latitude span followed by the number of labels it allows.

$ labelctl budget 0.01 0.04 0.2
0.01	12
0.04	10
0.2	6
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				delta, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid latitude span %q", a)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", a, labeling.Budget(delta))
			}
			return nil
		},
	}
}

func newGeohashCmd() *cobra.Command {
	var precision int

	cmd := &cobra.Command{
		Use:   "geohash LAT LNG",
		Short: "Encode a coordinate as the geohash stored for clinics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil || lat < -90 || lat > 90 {
				return fmt.Errorf("invalid latitude %q", args[0])
			}
			lng, err := strconv.ParseFloat(args[1], 64)
			if err != nil || lng < -180 || lng > 180 {
				return fmt.Errorf("invalid longitude %q", args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), geospatial.EncodeGeohash(lat, lng, precision))
			return nil
		},
	}
	cmd.Flags().IntVarP(&precision, "precision", "p", 7, "geohash length")
	return cmd
}
