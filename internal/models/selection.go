package models

import (
	"fmt"
	"slices"
)

// timesteps and formats each index family supports. An invalid combination
// is rejected before any request is built or any file is touched.
var (
	validTimesteps = map[string][]string{
		"etccdi": {"yr", "mon"},
		"hsi":    {"day"},
	}
	validFormats = map[string][]string{
		"etccdi": {"tgz", "zip"},
		"hsi":    {"tgz", "zip"},
	}
)

// SelectionRequest is a validated dataset selection. Products hold the
// long-form product names; Experiments, Models and Variables may be empty,
// in which case the dataset defaults apply at request-build time.
//
// The JSON shape is the queued-request file format consumed by `scan`.
type SelectionRequest struct {
	Index       string   `json:"index"`
	Timestep    string   `json:"tstep"`
	Format      string   `json:"format"`
	Products    []string `json:"prod"`
	Experiments []string `json:"experiment"`
	Models      []string `json:"model"`
	Variables   []string `json:"params"`
}

// NewSelectionRequest validates the index/timestep/format combination and
// returns a typed selection. Unknown combinations fail here, not deep
// inside pattern construction.
func NewSelectionRequest(index, tstep, format string, products, experiments, models, variables []string) (*SelectionRequest, error) {
	tsteps, ok := validTimesteps[index]
	if !ok {
		return nil, fmt.Errorf("unknown index type %q", index)
	}
	if !slices.Contains(tsteps, tstep) {
		return nil, fmt.Errorf("timestep %q not available for %s index", tstep, index)
	}
	if !slices.Contains(validFormats[index], format) {
		return nil, fmt.Errorf("download format %q not available for %s index", format, index)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("at least one product is required")
	}
	return &SelectionRequest{
		Index:       index,
		Timestep:    tstep,
		Format:      format,
		Products:    products,
		Experiments: experiments,
		Models:      models,
		Variables:   variables,
	}, nil
}
