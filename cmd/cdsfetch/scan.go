package main

import (
	"github.com/spf13/cobra"

	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/request"
)

func newScanCmd() *cobra.Command {
	var infile string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Replay a queued request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			sel, err := request.LoadRequest(infile)
			if err != nil {
				return err
			}
			if err := validateChoices(sel); err != nil {
				return err
			}
			return runSelection(cfg, sel)
		},
	}

	cmd.Flags().StringVarP(&infile, "file", "f", "", "queued request file written by download --queue")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
