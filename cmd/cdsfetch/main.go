package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cdsfetch",
		Short: "Retrieve CMIP6 climate index files from the Copernicus Climate Data Store",
		Long: `cdsfetch requests and downloads CMIP6 climate index files (ETCCDI
extreme-climate indices and heat stress indices) from the Copernicus
Climate Data Store, keeping a local catalog of the files already on disk
so nothing is fetched twice.`,
		SilenceUsage: true,
	}
	root.AddCommand(newDownloadCmd(), newScanCmd(), newDBCmd())
	return root
}
