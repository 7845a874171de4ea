package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clexlab/cdsfetch/internal/models"
)

// ErrMalformedLocation marks a file whose directory does not split into
// the five expected path segments (index/product/timestep/experiment/model).
var ErrMalformedLocation = errors.New("malformed location")

const modifiedAtFormat = "2006-01-02T15:04:05"

// Crawl derives catalog records for every candidate path whose basename
// is not already known. Records that cannot be derived are reported in
// the joined error while the remaining candidates are still returned;
// output order is unspecified.
func Crawl(candidates []string, known map[string]struct{}, baseDir string) ([]models.CatalogRecord, error) {
	var records []models.CatalogRecord
	var errs []error
	for _, p := range candidates {
		if _, ok := known[filepath.Base(p)]; ok {
			continue
		}
		rec, err := recordFor(p, baseDir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}

// recordFor reads file attributes and decodes the categorical fields from
// the path and filename.
func recordFor(path, baseDir string) (models.CatalogRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.CatalogRecord{}, fmt.Errorf("stat %s: %w", path, err)
	}
	location := strings.TrimPrefix(filepath.Dir(path), strings.TrimSuffix(baseDir, "/")+"/")
	segments := strings.Split(location, "/")
	if len(segments) != 5 {
		return models.CatalogRecord{}, fmt.Errorf("%w: %q splits into %d segments, want 5",
			ErrMalformedLocation, location, len(segments))
	}
	filename := filepath.Base(path)
	tokens := strings.Split(filename, "_")
	if len(tokens) < 5 {
		return models.CatalogRecord{}, fmt.Errorf("filename %q has no ensemble token", filename)
	}

	index := segments[0]
	variable := tokens[0]
	if index == "etccdi" || index == "hsi" {
		// annual-index filenames fuse the variable code to the marker,
		// e.g. tn90pETCCDI_mon_...
		v, _, found := strings.Cut(filename, strings.ToUpper(index))
		if !found {
			return models.CatalogRecord{}, fmt.Errorf("filename %q carries no %s marker",
				filename, strings.ToUpper(index))
		}
		variable = v
	}

	return models.CatalogRecord{
		Filename:   filename,
		Location:   location,
		ModifiedAt: info.ModTime().Format(modifiedAtFormat),
		Size:       info.Size(),
		IndexType:  segments[0],
		Product:    segments[1],
		Timestep:   segments[2],
		Experiment: segments[3],
		Model:      segments[4],
		Ensemble:   tokens[4],
		Variable:   variable,
	}, nil
}

// ListFiles globs the dataset tree for netcdf files under a location
// pattern; SQL wildcards in the pattern become filesystem globs.
func ListFiles(baseDir, locationPattern string) ([]string, error) {
	g := filepath.Join(baseDir, strings.ReplaceAll(locationPattern, "%", "*"), "*.nc")
	paths, err := filepath.Glob(g)
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", g, err)
	}
	return paths, nil
}
