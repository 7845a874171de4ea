package models

// CatalogRecord is one row of the `file` table: a single netCDF file known
// to exist on disk. Records are append-only; a file that changes after it
// was catalogued is only picked up by rebuilding the catalog.
type CatalogRecord struct {
	Filename   string `gorm:"primaryKey"`
	Location   string `gorm:"index;not null"` // relative dir: index/product/tstep/experiment/model
	ModifiedAt string `gorm:"not null"`       // ISO-8601, from file mtime
	Size       int64  `gorm:"not null"`
	IndexType  string
	Product    string
	Timestep   string
	Experiment string
	Model      string
	Ensemble   string
	Variable   string
}

// TableName keeps the historical table name used by earlier catalogs.
func (CatalogRecord) TableName() string {
	return "file"
}
