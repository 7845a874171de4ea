package request

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/clexlab/cdsfetch/internal/catalog"
	"github.com/clexlab/cdsfetch/internal/dataset"
	"github.com/clexlab/cdsfetch/internal/models"
)

// Batch is the work set for one orchestration run: the tasks to dispatch
// and the archives skipped because the catalog already satisfies them.
type Batch struct {
	Tasks   []models.TransferTask
	Skipped []string
}

// Assemble walks the product x experiment x model cross-product of a
// selection and builds one transfer task per combination not already
// satisfied by the catalog. Endpoints and credential identities rotate
// round-robin across tasks in construction order. Staging and
// destination directories are created idempotently here, before any
// worker runs.
func (b *Builder) Assemble(store *catalog.Store, sel *models.SelectionRequest) (Batch, error) {
	var batch Batch
	i := 0
	for _, product := range sel.Products {
		args, err := dataset.LoadArgs(sel.Index, sel.Timestep, product)
		if err != nil {
			return batch, err
		}
		experiments := orDefault(sel.Experiments, args.Experiments)
		modelNames := orDefault(sel.Models, args.Models)
		variables := orDefault(sel.Variables, args.Variables)

		for _, exp := range experiments {
			for _, model := range modelNames {
				c := Combo{
					Index:      sel.Index,
					Product:    product,
					Timestep:   sel.Timestep,
					Experiment: exp,
					Model:      model,
					Format:     sel.Format,
					Variables:  variables,
				}
				target, err := b.Target(c)
				if err != nil {
					return batch, err
				}
				skip, err := b.SkipList(store, c, target.Expected)
				if err != nil {
					return batch, err
				}
				if len(skip) > 0 {
					log.Printf("Skipping %s: %d of %d files already exist",
						target.ArchiveName, len(skip), len(target.Expected))
					batch.Skipped = append(batch.Skipped, target.ArchiveName)
					continue
				}
				if err := os.MkdirAll(target.StagingDir, 0o755); err != nil {
					return batch, fmt.Errorf("creating staging dir: %w", err)
				}
				if err := os.MkdirAll(target.DestDir, 0o755); err != nil {
					return batch, fmt.Errorf("creating destination dir: %w", err)
				}
				payload, err := b.Payload(args, product, exp, model, variables, sel.Format)
				if err != nil {
					return batch, err
				}
				batch.Tasks = append(batch.Tasks, models.TransferTask{
					DatasetID:    args.DatasetID,
					Payload:      payload,
					StagingPath:  filepath.Join(target.StagingDir, target.ArchiveName),
					DestDir:      target.DestDir,
					Endpoint:     rotate(b.cfg.AltEndpoints, i),
					CredentialID: rotate(b.cfg.CredentialIDs, i),
				})
				log.Printf("Added request for %s", target.ArchiveName)
				i++
			}
		}
	}
	return batch, nil
}

func orDefault(values, fallback []string) []string {
	if len(values) > 0 {
		return values
	}
	return fallback
}

func rotate(list []string, i int) string {
	if len(list) == 0 {
		return ""
	}
	return list[i%len(list)]
}
