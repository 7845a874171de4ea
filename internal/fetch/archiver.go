package fetch

import (
	"path/filepath"

	"github.com/clexlab/cdsfetch/internal/config"
)

// Archiver post-processes a successfully staged archive into the
// destination directory.
type Archiver interface {
	Process(staged, destDir string) error
}

// ExecArchiver dispatches to the configured external handler keyed by
// the staged file's extension: netcdf files are recompressed, tarballs
// and zips are extracted, anything else is left alone.
type ExecArchiver struct {
	cfg config.Config
}

func NewExecArchiver(cfg config.Config) *ExecArchiver {
	return &ExecArchiver{cfg: cfg}
}

func (a *ExecArchiver) Process(staged, destDir string) error {
	switch filepath.Ext(staged) {
	case ".nc":
		return runCommand(a.cfg.CompressCmd, staged, filepath.Join(destDir, filepath.Base(staged)))
	case ".tgz":
		return runCommand(a.cfg.UntarCmd, staged, "-C", destDir)
	case ".zip":
		return runCommand(a.cfg.UnzipCmd, staged, "-d", destDir)
	default:
		return nil
	}
}
