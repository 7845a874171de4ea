package main

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/clexlab/cdsfetch/internal/catalog"
	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/dataset"
	"github.com/clexlab/cdsfetch/internal/fetch"
	"github.com/clexlab/cdsfetch/internal/models"
	"github.com/clexlab/cdsfetch/internal/pattern"
	"github.com/clexlab/cdsfetch/internal/request"
)

// openCatalog connects to the catalog and makes sure the schema exists.
func openCatalog(cfg config.Config) (*catalog.Store, error) {
	store, err := catalog.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

// newTranslator builds a pattern translator carrying the variable
// vocabulary of the selected index family.
func newTranslator(index string) (*pattern.Translator, error) {
	vars, err := dataset.LoadVars(index)
	if err != nil {
		return nil, err
	}
	return pattern.NewTranslator(map[string]map[string]string{index: vars}), nil
}

// validateChoices rejects experiments, models and variables outside the
// configured value lists before any pattern or request work starts.
func validateChoices(sel *models.SelectionRequest) error {
	values, err := dataset.LoadValues()
	if err != nil {
		return err
	}
	for _, e := range sel.Experiments {
		if !slices.Contains(values.Experiments, e) {
			return fmt.Errorf("unknown experiment %q", e)
		}
	}
	for _, m := range sel.Models {
		if !slices.Contains(values.Models, m) {
			return fmt.Errorf("unknown model %q", m)
		}
	}
	for _, v := range sel.Variables {
		if !slices.Contains(values.Variables, v) {
			return fmt.Errorf("unknown variable %q", v)
		}
	}
	return nil
}

// runSelection is the shared download path behind `download` and `scan`:
// assemble the work set, fan it out, report per-task outcomes.
func runSelection(cfg config.Config, sel *models.SelectionRequest) error {
	store, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	tr, err := newTranslator(sel.Index)
	if err != nil {
		return err
	}
	modelMap, err := dataset.LoadModelMap()
	if err != nil {
		return err
	}

	builder := request.NewBuilder(cfg, tr, modelMap)
	batch, err := builder.Assemble(store, sel)
	if err != nil {
		return err
	}
	log.Printf("%d combinations already satisfied, %d requests to submit",
		len(batch.Skipped), len(batch.Tasks))
	if len(batch.Tasks) == 0 {
		log.Println("No files to download!")
		return nil
	}

	orch := fetch.NewOrchestrator(fetch.NewCDSFetcher(cfg), fetch.NewExecArchiver(cfg), cfg)
	results := orch.Run(context.Background(), batch.Tasks)

	failed := 0
	for _, r := range results {
		switch {
		case r.State == fetch.StateFailed:
			failed++
			log.Printf("FAILED %s: %v", r.Task.StagingPath, r.Err)
		case r.Err != nil:
			log.Printf("Transferred %s but post-processing failed: %v", r.Task.StagingPath, r.Err)
		default:
			log.Printf("Completed %s", r.Task.StagingPath)
		}
	}
	log.Printf("%d of %d requests completed, %d failed", len(results)-failed, len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d transfers failed", failed, len(results))
	}
	return nil
}
