package main

import (
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/models"
	"github.com/clexlab/cdsfetch/internal/pattern"
	"github.com/clexlab/cdsfetch/internal/request"
)

func newDownloadCmd() *cobra.Command {
	var (
		index       string
		tstep       string
		format      string
		products    []string
		experiments []string
		modelNames  []string
		variables   []string
		queue       bool
		urgent      bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Build and submit download requests for a selection",
		Long: `Build one remote request per (product, experiment, model) combination
and download the results concurrently, skipping combinations the catalog
already satisfies. With --queue the selection is written to a request
file for later replay by scan instead of being submitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// products are given as short codes and expanded here; an
			// unknown code aborts before any work is done
			expanded := make([]string, 0, len(products))
			for _, p := range products {
				long, err := pattern.ExpandProduct(p)
				if err != nil {
					return err
				}
				expanded = append(expanded, long)
			}
			sel, err := models.NewSelectionRequest(index, tstep, format,
				expanded, experiments, modelNames, variables)
			if err != nil {
				return err
			}
			if err := validateChoices(sel); err != nil {
				return err
			}
			if queue {
				path, err := request.Dump(cfg, sel, urgent)
				if err != nil {
					return err
				}
				log.Printf("Queued request %s", path)
				return nil
			}
			return runSelection(cfg, sel)
		},
	}

	cmd.Flags().StringVarP(&index, "index", "i", "etccdi", "index type: etccdi or hsi")
	cmd.Flags().StringVarP(&tstep, "tstep", "t", "yr", "timestep: yr or mon for etccdi, day for hsi")
	cmd.Flags().StringSliceVarP(&products, "product", "P", nil,
		"product code, repeatable: "+strings.Join(pattern.ProductCodes(), ", "))
	cmd.Flags().StringSliceVarP(&experiments, "experiment", "e", nil,
		"experiment, repeatable; all configured experiments if omitted")
	cmd.Flags().StringSliceVarP(&modelNames, "model", "m", nil,
		"model, repeatable; all configured models if omitted")
	cmd.Flags().StringSliceVarP(&variables, "param", "p", nil,
		"variable, repeatable; all configured variables if omitted")
	cmd.Flags().StringVar(&format, "format", "tgz", "output format: tgz or zip")
	cmd.Flags().BoolVarP(&queue, "queue", "q", false, "queue the request to a file instead of running it")
	cmd.Flags().BoolVarP(&urgent, "urgent", "u", false, "queue into the Urgent folder (only with --queue)")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}
