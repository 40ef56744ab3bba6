package main

import (
	"fmt"
	"strings"

	"github.com/FrenchMajesty/veracious/pkg/similar"
	"github.com/spf13/cobra"
)

var similarCmd = &cobra.Command{
	Use:   "similar <text>",
	Short: "Find previously classified posts similar to a text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSimilar,
}

var similarTopK int

func init() {
	similarCmd.Flags().IntVarP(&similarTopK, "top-k", "k", similar.DefaultTopK, "number of matches")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	index, err := newSimilarIndex(cfg, logger)
	if err != nil {
		return err
	}

	matches, err := index.Similar(cmd.Context(), strings.Join(args, " "), similarTopK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "no similar posts")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%.3f  %-13s mani: %3d%%  %s\n", m.Score, m.PoliticalLean, m.ManipulationScore, m.Text)
	}
	return nil
}
