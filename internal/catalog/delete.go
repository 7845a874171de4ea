package catalog

// DeleteReport lists what a delete run selected and how many rows it
// actually removed.
type DeleteReport struct {
	Candidates []string
	Deleted    int64
}

// DeleteRecords removes the catalog rows at an exact location, but only
// after confirm approves the candidate list. Without confirmation the
// operation is a no-op that still reports what would have been deleted.
func DeleteRecords(store *Store, location string, confirm func(candidates []string) bool) (DeleteReport, error) {
	names, err := store.Filenames(location)
	if err != nil {
		return DeleteReport{}, err
	}
	report := DeleteReport{Candidates: names}
	if len(names) == 0 || confirm == nil || !confirm(names) {
		return report, nil
	}
	for _, filename := range names {
		n, err := store.DeleteWhere(filename, location)
		if err != nil {
			return report, err
		}
		report.Deleted += n
	}
	return report, nil
}
