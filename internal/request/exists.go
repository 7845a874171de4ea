package request

import (
	"fmt"
	"regexp"

	"github.com/clexlab/cdsfetch/internal/catalog"
	"github.com/clexlab/cdsfetch/internal/pattern"
)

// MissingFile names an expected variable the catalog has no file for,
// with the regex that failed to match.
type MissingFile struct {
	Variable string
	Pattern  string
}

// Checker answers "which of these variables are not on disk yet" from
// the catalog. Matching is by regex, not exact string, because catalog
// filenames carry a date range and version suffix unknown before the
// request runs.
type Checker struct {
	store *catalog.Store
	tr    *pattern.Translator
}

func NewChecker(store *catalog.Store, tr *pattern.Translator) *Checker {
	return &Checker{store: store, tr: tr}
}

// Missing reports the expected variables with no matching catalog
// filename under the selection's location, across all experiments of the
// given model.
func (c *Checker) Missing(index, product, tstep, model string, variables []string) ([]MissingFile, error) {
	fname, location, err := c.tr.Query(index, product, tstep, "%", pattern.NormalizeModel(model))
	if err != nil {
		return nil, err
	}
	expected, err := c.tr.Matches(fname, index, model, variables)
	if err != nil {
		return nil, err
	}
	names, err := c.store.Filenames(location)
	if err != nil {
		return nil, err
	}
	var missing []MissingFile
	for i, pat := range expected {
		found, err := matchAny(names, pat)
		if err != nil {
			return nil, err
		}
		if !found {
			missing = append(missing, MissingFile{Variable: variables[i], Pattern: pat})
		}
	}
	return missing, nil
}

// matchAny reports whether any filename matches the regex, anchored at
// the start like the patterns assume.
func matchAny(filenames []string, pat string) (bool, error) {
	re, err := regexp.Compile("^" + pat)
	if err != nil {
		return false, fmt.Errorf("expected-filename pattern %q does not compile: %w", pat, err)
	}
	for _, fn := range filenames {
		if re.MatchString(fn) {
			return true, nil
		}
	}
	return false, nil
}
