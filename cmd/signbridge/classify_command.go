package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/signbridge/internal/gesture"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var framePath string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one landmark frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			hand, err := readFrame(framePath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			samples, err := ctx.loadSamples()
			if err != nil {
				return err
			}

			params := ctx.config.Params()
			rules := gesture.NewRuleClassifier()
			arbiter := gesture.NewArbiter(rules, gesture.NewNearestNeighbor(samples, params), params)

			result := arbiter.Classify(hand)
			out := cmd.OutOrStdout()
			if !result.HasLetter() {
				fmt.Fprintln(out, "No letter recognized")
				return nil
			}

			rows := [][]string{
				{"Letter", result.Letter},
				{"Confidence", fmt.Sprintf("%.2f", result.Confidence)},
				{"Source", string(result.Source)},
			}
			if result.Source == gesture.SourceRules {
				rows = append(rows, []string{"Rule", rules.Explain(hand)})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&framePath, "frame", "f", "", "JSON landmark file, or - for stdin")
	_ = cmd.MarkFlagRequired("frame")
	return cmd
}
