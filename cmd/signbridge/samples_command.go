package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ayusman/signbridge/internal/gesture"
)

func newSamplesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Show recorded training samples per letter",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			samples, err := ctx.loadSamples()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(samples.Status()))
			return nil
		},
	}

	cmd.AddCommand(newSamplesClearCommand(ctx))
	cmd.AddCommand(newSamplesAddCommand(ctx))
	return cmd
}

func newSamplesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every training sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			if err := ctx.lockDataDir(); err != nil {
				return err
			}
			samples, err := ctx.loadSamples()
			if err != nil {
				return err
			}
			removed := samples.Len()
			if err := samples.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d samples\n", removed)
			return nil
		},
	}
}

func newSamplesAddCommand(ctx *commandContext) *cobra.Command {
	var letter, framePath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one training sample from a landmark file",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			hand, err := readFrame(framePath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := ctx.lockDataDir(); err != nil {
				return err
			}
			samples, err := ctx.loadSamples()
			if err != nil {
				return err
			}

			norm, err := gesture.NormalizeLetter(letter)
			if err != nil {
				return err
			}
			if err := samples.Add(norm, hand); err != nil {
				if !errors.Is(err, gesture.ErrStorePersistence) {
					return err
				}
				return fmt.Errorf("sample for %s was not saved: %w", norm, err)
			}

			status := samples.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d samples, trained: %s)\n",
				norm, samples.Counts()[norm], yesNo(status.Trained))
			return nil
		},
	}

	cmd.Flags().StringVarP(&letter, "letter", "l", "", "Letter the frame shows (A-Z)")
	cmd.Flags().StringVarP(&framePath, "frame", "f", "", "JSON landmark file, or - for stdin")
	_ = cmd.MarkFlagRequired("letter")
	_ = cmd.MarkFlagRequired("frame")
	return cmd
}

func renderStatus(status gesture.TrainingStatus) string {
	rows := make([][]string, 0, len(status.Letters))
	for _, lc := range status.Letters {
		rows = append(rows, []string{lc.Letter, strconv.Itoa(lc.Count)})
	}
	footer := []string{"Total", strconv.Itoa(status.Total)}
	table := renderTable([]string{"Letter", "Samples"}, rows, []columnAlignment{alignLeft, alignRight}, footer)
	return fmt.Sprintf("%s\nTrained: %s", table, yesNo(status.Trained))
}
