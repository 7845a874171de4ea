package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clexlab/cdsfetch/internal/catalog"
	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/dataset"
	"github.com/clexlab/cdsfetch/internal/pattern"
	"github.com/clexlab/cdsfetch/internal/request"
)

// expectedExperiments is the hardcoded experiment count behind the
// "files per model" estimate printed by `db -a list`. It is a reporting
// estimate, not a correctness check.
const expectedExperiments = 5

func newDBCmd() *cobra.Command {
	var (
		index       string
		tstep       string
		products    []string
		experiments []string
		modelNames  []string
		action      string
		verbose     bool
		full        bool
		out         string
	)

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the file catalog",
		Long: `Work on the catalog database: update it from the filesystem, delete
records, list per-model coverage, or export an intake catalogue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openCatalog(cfg)
			if err != nil {
				return err
			}
			expanded, err := expandProducts(index, tstep, products)
			if err != nil {
				return err
			}
			switch action {
			case "update":
				return runUpdate(cfg, store, index, tstep, expanded, experiments, modelNames, full)
			case "delete":
				if len(expanded) != 1 {
					return fmt.Errorf("delete needs exactly one product, got %d", len(expanded))
				}
				return runDelete(store, index, tstep, expanded[0], experiments, modelNames)
			case "list":
				return runList(store, index, tstep, expanded, modelNames, verbose)
			case "intake":
				return runIntake(cfg, store, out)
			default:
				return fmt.Errorf("unknown db action %q", action)
			}
		},
	}

	cmd.Flags().StringVarP(&index, "index", "i", "etccdi", "index type: etccdi or hsi")
	cmd.Flags().StringVarP(&tstep, "tstep", "t", "yr", "timestep: yr or mon for etccdi, day for hsi")
	cmd.Flags().StringSliceVarP(&products, "product", "P", nil,
		"product code, repeatable; all products for the index if omitted")
	cmd.Flags().StringSliceVarP(&experiments, "experiment", "e", nil, "experiment, repeatable")
	cmd.Flags().StringSliceVarP(&modelNames, "model", "m", nil, "model, repeatable")
	cmd.Flags().StringVarP(&action, "action", "a", "update", "update, delete, list or intake")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "with list: print available and missing files")
	cmd.Flags().BoolVar(&full, "full", false, "with update: sweep the whole tree, ignoring the selection")
	cmd.Flags().StringVar(&out, "out", "cmip6_etccdi.csv", "with intake: output csv path")
	return cmd
}

// expandProducts turns short product codes into long names, defaulting to
// every product of the index family.
func expandProducts(index, tstep string, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return productsFor(index, tstep)
	}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		long, err := pattern.ExpandProduct(c)
		if err != nil {
			return nil, err
		}
		out = append(out, long)
	}
	return out, nil
}

// productsFor lists the long-form products an index family carries.
func productsFor(index, tstep string) ([]string, error) {
	args, err := dataset.LoadArgs(index, tstep, "")
	if err != nil {
		return nil, err
	}
	products := args.ProductType
	if index == "etccdi" {
		nobase, err := dataset.LoadArgs(index, tstep, "base_independent")
		if err != nil {
			return nil, err
		}
		products = append(products, nobase.ProductType...)
	}
	return products, nil
}

func runUpdate(cfg config.Config, store *catalog.Store, index, tstep string, products, experiments, modelNames []string, full bool) error {
	if full {
		report, err := catalog.Reconcile(store, cfg.DataDir, nil)
		printUpdate("full sweep", report)
		return err
	}
	tr, err := newTranslator(index)
	if err != nil {
		return err
	}
	modelMap, err := dataset.LoadModelMap()
	if err != nil {
		return err
	}
	if len(experiments) == 0 {
		experiments = []string{"%"}
	}
	if len(modelNames) == 0 {
		modelNames = []string{"%"}
	}
	for _, product := range products {
		var locations []string
		for _, exp := range experiments {
			for _, model := range modelNames {
				dirModel := model
				if model != "%" {
					var ok bool
					if dirModel, ok = modelMap[model]; !ok {
						return fmt.Errorf("model %q has no on-disk name mapping", model)
					}
				}
				_, location, err := tr.Query(index, product, tstep, exp, dirModel)
				if err != nil {
					return err
				}
				locations = append(locations, location)
			}
		}
		report, err := catalog.Reconcile(store, cfg.DataDir, locations)
		printUpdate(product, report)
		if err != nil {
			return err
		}
	}
	return nil
}

func printUpdate(scope string, report catalog.UpdateReport) {
	log.Printf("%s: %d files on disk, %d records already in db, %d rows inserted",
		scope, report.Found, report.Existing, report.Inserted)
}

func runDelete(store *catalog.Store, index, tstep, product string, experiments, modelNames []string) error {
	if len(experiments) == 0 || len(modelNames) == 0 {
		return fmt.Errorf("delete needs at least one experiment and one model")
	}
	tr, err := newTranslator(index)
	if err != nil {
		return err
	}
	modelMap, err := dataset.LoadModelMap()
	if err != nil {
		return err
	}
	for _, exp := range experiments {
		for _, model := range modelNames {
			dirModel, ok := modelMap[model]
			if !ok {
				return fmt.Errorf("model %q has no on-disk name mapping", model)
			}
			_, location, err := tr.Query(index, product, tstep, exp, dirModel)
			if err != nil {
				return err
			}
			report, err := catalog.DeleteRecords(store, location, confirmDeletion)
			if err != nil {
				return err
			}
			log.Printf("%s: %d records selected, %d deleted",
				location, len(report.Candidates), report.Deleted)
		}
	}
	return nil
}

// confirmDeletion asks on the terminal before any row is removed.
func confirmDeletion(candidates []string) bool {
	fmt.Println("Selected records:")
	for _, c := range candidates {
		fmt.Println(" ", c)
	}
	fmt.Print("Confirm deletion from database: Y/N  ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "Y"
}

func runList(store *catalog.Store, index, tstep string, products, modelNames []string, verbose bool) error {
	tr, err := newTranslator(index)
	if err != nil {
		return err
	}
	checker := request.NewChecker(store, tr)
	for _, product := range products {
		args, err := dataset.LoadArgs(index, tstep, product)
		if err != nil {
			return err
		}
		listModels := modelNames
		if len(listModels) == 0 {
			listModels = args.Models
		}
		fmt.Printf("\nIndexes for %s product\n", product)
		fmt.Printf("There should be %d files for each model ensemble\n\n",
			len(args.Variables)*expectedExperiments)
		for _, model := range listModels {
			_, location, err := tr.Query(index, product, tstep, "%", pattern.NormalizeModel(model))
			if err != nil {
				return err
			}
			names, err := store.Filenames(location)
			if err != nil {
				return err
			}
			missing, err := checker.Missing(index, product, tstep, model, args.Variables)
			if err != nil {
				return err
			}
			fmt.Printf("  Model %s:\n", model)
			fmt.Printf("  Indexes already in db: %d\n", len(names))
			fmt.Printf("  Indexes missing: %d\n", len(missing))
			if verbose {
				fmt.Println("  Files available:")
				for _, n := range names {
					fmt.Println("   ", n)
				}
				if len(missing) > 0 {
					fmt.Println("  Files missing:")
					for _, m := range missing {
						fmt.Printf("    %s (%s)\n", m.Pattern, m.Variable)
					}
				}
			}
		}
	}
	return nil
}

func runIntake(cfg config.Config, store *catalog.Store, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating intake export: %w", err)
	}
	defer f.Close()
	if err := catalog.Intake(store, f, cfg.DataDir); err != nil {
		return err
	}
	log.Printf("Wrote intake catalogue %s", out)
	return nil
}
