// Package request turns validated selections into remote transfer tasks:
// building request payloads and staging/destination targets, skipping
// work the catalog already satisfies, and queueing selections to a file
// for later replay.
package request

import (
	"fmt"
	"path/filepath"

	"github.com/clexlab/cdsfetch/internal/catalog"
	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/dataset"
	"github.com/clexlab/cdsfetch/internal/models"
	"github.com/clexlab/cdsfetch/internal/pattern"
)

// Combo is one concrete (product, experiment, model) combination of a
// selection; each combo yields exactly one remote request covering all
// of its variables.
type Combo struct {
	Index      string
	Product    string
	Timestep   string
	Experiment string
	Model      string
	Format     string
	Variables  []string
}

// Target is where a combo's download goes and what it must contain.
type Target struct {
	StagingDir  string
	DestDir     string
	ArchiveName string
	Expected    []string // per-variable filename regexes, index-aligned with Combo.Variables
}

// Builder assembles transfer tasks from selections.
type Builder struct {
	cfg      config.Config
	tr       *pattern.Translator
	modelMap map[string]string
}

func NewBuilder(cfg config.Config, tr *pattern.Translator, modelMap map[string]string) *Builder {
	return &Builder{cfg: cfg, tr: tr, modelMap: modelMap}
}

// Payload builds the remote request body for a combo. The provider's
// period value comes from the dataset metadata keyed by the first three
// letters of the experiment; the fixed fields are copied verbatim.
func (b *Builder) Payload(args *dataset.Args, product, experiment, model string, variables []string, format string) (models.RequestPayload, error) {
	period, err := args.Period(experiment)
	if err != nil {
		return models.RequestPayload{}, err
	}
	return models.RequestPayload{
		Format:              format,
		Variables:           variables,
		ProductType:         product,
		Model:               model,
		Experiment:          experiment,
		Period:              period,
		EnsembleMember:      args.EnsembleMember,
		TemporalAggregation: args.TemporalAggregation,
		Version:             args.Version,
	}, nil
}

// Target computes the staging and destination directories, the archive
// name, and the filename regexes the unpacked archive is expected to
// satisfy.
func (b *Builder) Target(c Combo) (Target, error) {
	dirModel, ok := b.modelMap[c.Model]
	if !ok {
		return Target{}, fmt.Errorf("model %q has no on-disk name mapping", c.Model)
	}
	fname, _, err := b.tr.Query(c.Index, c.Product, c.Timestep, c.Experiment, "%")
	if err != nil {
		return Target{}, err
	}
	expected, err := b.tr.Matches(fname, c.Index, c.Model, c.Variables)
	if err != nil {
		return Target{}, err
	}
	rel := filepath.Join(c.Index, c.Product, c.Timestep, c.Experiment, dirModel)
	return Target{
		StagingDir: filepath.Join(b.cfg.StagingDir, rel),
		DestDir:    filepath.Join(b.cfg.DataDir, rel),
		ArchiveName: fmt.Sprintf("%s_%s_%s_%s_%s.%s",
			c.Index, c.Product, c.Timestep, c.Experiment, c.Model, c.Format),
		Expected: expected,
	}, nil
}

// SkipList reports which of the expected filename regexes the catalog
// already satisfies for a combo's location. A non-empty skip list means
// the combo's download is (at least partially) redundant.
func (b *Builder) SkipList(store *catalog.Store, c Combo, expected []string) ([]string, error) {
	dirModel, ok := b.modelMap[c.Model]
	if !ok {
		return nil, fmt.Errorf("model %q has no on-disk name mapping", c.Model)
	}
	_, location, err := b.tr.Query(c.Index, c.Product, c.Timestep, c.Experiment, dirModel)
	if err != nil {
		return nil, err
	}
	names, err := store.Filenames(location)
	if err != nil {
		return nil, err
	}
	var skip []string
	for _, pat := range expected {
		found, err := matchAny(names, pat)
		if err != nil {
			return nil, err
		}
		if found {
			skip = append(skip, pat)
		}
	}
	return skip, nil
}
