// Package dataset ships the static per-dataset metadata the tool needs:
// request arguments for each index/timestep, the variable vocabulary
// mapping provider variable names to the short codes used in filenames,
// and the model name map. The files are embedded so a deployed binary
// never depends on a data directory being present.
package dataset

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed data/*.json
var dataFS embed.FS

// Args holds the dataset arguments for one index family and timestep:
// the remote dataset identifier, the value lists a selection may draw
// from, and the fixed request fields copied verbatim into every payload.
type Args struct {
	DatasetID           string   `json:"dsid"`
	ProductType         []string `json:"product_type"`
	Experiments         []string `json:"experiment"`
	Models              []string `json:"model"`
	Variables           []string `json:"variable"`
	EnsembleMember      string   `json:"ensemble_member"`
	TemporalAggregation string   `json:"temporal_aggregation"`
	Version             string   `json:"version"`

	periods map[string]string
}

// Period resolves the provider's period value for an experiment. The
// provider keys periods by the first three letters of the experiment
// name ("historical" -> period_his, every ssp* scenario -> period_ssp),
// an abbreviation convention reproduced here deliberately.
func (a *Args) Period(experiment string) (string, error) {
	if len(experiment) < 3 {
		return "", fmt.Errorf("experiment name %q too short for a period lookup", experiment)
	}
	key := "period_" + experiment[:3]
	p, ok := a.periods[key]
	if !ok {
		return "", fmt.Errorf("dataset metadata has no %s entry for experiment %q", key, experiment)
	}
	return p, nil
}

// LoadArgs reads the argument file for an index/timestep. For etccdi the
// variable and model lists differ between base-period products and
// base-independent ones, so the product picks the file variant.
func LoadArgs(index, tstep, product string) (*Args, error) {
	name := index + "_" + tstep
	if index == "etccdi" {
		if product == "base_independent" {
			name += "_nobase"
		} else {
			name += "_base"
		}
	}
	raw, err := dataFS.ReadFile("data/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("no dataset metadata for index %q timestep %q: %w", index, tstep, err)
	}
	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("parsing %s.json: %w", name, err)
	}
	// period_* keys are dynamic, collect them separately
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parsing %s.json: %w", name, err)
	}
	args.periods = make(map[string]string)
	for k, v := range fields {
		if s, ok := v.(string); ok && strings.HasPrefix(k, "period_") {
			args.periods[k] = s
		}
	}
	return &args, nil
}

// LoadVars reads the variable vocabulary for an index family: provider
// variable name to the short code used as the filename prefix.
func LoadVars(index string) (map[string]string, error) {
	raw, err := dataFS.ReadFile("data/" + index + "_vars.json")
	if err != nil {
		return nil, fmt.Errorf("no variable vocabulary for index %q: %w", index, err)
	}
	vars := make(map[string]string)
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, fmt.Errorf("parsing %s_vars.json: %w", index, err)
	}
	return vars, nil
}

// LoadModelMap reads the map from selection model names to the
// directory/filename form used on disk.
func LoadModelMap() (map[string]string, error) {
	raw, err := dataFS.ReadFile("data/model_map.json")
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing model_map.json: %w", err)
	}
	return m, nil
}

// Values is the union of accepted CLI choices across all index families.
type Values struct {
	ProductType []string `json:"product_type"`
	Experiments []string `json:"experiment"`
	Models      []string `json:"model"`
	Variables   []string `json:"variable"`
}

// LoadValues reads the union choice lists used to validate CLI arguments.
func LoadValues() (*Values, error) {
	raw, err := dataFS.ReadFile("data/all_values.json")
	if err != nil {
		return nil, err
	}
	var v Values
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parsing all_values.json: %w", err)
	}
	return &v, nil
}
