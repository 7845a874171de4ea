package catalog

import (
	"errors"
	"log"
)

// fullSweep matches every five-segment location in the tree.
const fullSweep = "%/%/%/%/%"

// UpdateReport is what a reconciliation run observed: files on disk,
// rows already catalogued for the searched locations, and rows inserted.
type UpdateReport struct {
	Found    int
	Existing int
	Inserted int64
}

// Reconcile brings the catalog up to date with the filesystem for the
// given location patterns (nil means a full-catalog sweep). Only the
// set-difference between disk and catalog is crawled and inserted, so a
// second run with no filesystem changes inserts zero rows.
//
// Records that fail to crawl are reported in the returned error but do
// not stop the rest of the batch.
func Reconcile(store *Store, baseDir string, locationPatterns []string) (UpdateReport, error) {
	if len(locationPatterns) == 0 {
		locationPatterns = []string{fullSweep}
	}
	var report UpdateReport
	var crawlErrs []error
	for _, loc := range locationPatterns {
		paths, err := ListFiles(baseDir, loc)
		if err != nil {
			return report, err
		}
		log.Printf("Searching %s under %s: found %d files", loc, baseDir, len(paths))

		names, err := store.Filenames(loc)
		if err != nil {
			return report, err
		}
		known := make(map[string]struct{}, len(names))
		for _, n := range names {
			known[n] = struct{}{}
		}

		records, err := Crawl(paths, known, baseDir)
		if err != nil {
			crawlErrs = append(crawlErrs, err)
		}
		inserted, err := store.InsertIgnore(records)
		if err != nil {
			return report, err
		}
		report.Found += len(paths)
		report.Existing += len(names)
		report.Inserted += inserted
	}
	return report, errors.Join(crawlErrs...)
}
