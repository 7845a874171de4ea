package request

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/dataset"
	"github.com/clexlab/cdsfetch/internal/models"
	"github.com/clexlab/cdsfetch/internal/pattern"
)

func testBuilder(t *testing.T, cfg config.Config) *Builder {
	t.Helper()
	modelMap, err := dataset.LoadModelMap()
	require.NoError(t, err)
	return NewBuilder(cfg, pattern.NewTranslator(etccdiVocab), modelMap)
}

func TestPayloadCarriesPeriodAndFixedFields(t *testing.T) {
	args, err := dataset.LoadArgs("etccdi", "mon", "base_period_1981_2010")
	require.NoError(t, err)

	b := testBuilder(t, config.Config{})
	payload, err := b.Payload(args, "base_period_1981_2010", "ssp5_8_5", "bcc_csm2_mr",
		[]string{"warm_nights"}, "tgz")
	require.NoError(t, err)

	assert.Equal(t, "201501-210012", payload.Period)
	assert.Equal(t, "tgz", payload.Format)
	assert.Equal(t, "r1i1p1f1", payload.EnsembleMember)
	assert.Equal(t, "monthly", payload.TemporalAggregation)
	assert.Equal(t, "1_0", payload.Version)
	assert.Equal(t, []string{"warm_nights"}, payload.Variables)
}

func TestPayloadUnknownExperiment(t *testing.T) {
	args, err := dataset.LoadArgs("etccdi", "mon", "base_period_1981_2010")
	require.NoError(t, err)

	b := testBuilder(t, config.Config{})
	_, err = b.Payload(args, "base_period_1981_2010", "rcp8_5", "bcc_csm2_mr", nil, "tgz")
	assert.Error(t, err)
}

func TestTargetPathsAndExpectedRegexes(t *testing.T) {
	b := testBuilder(t, config.Config{StagingDir: "/stage", DataDir: "/data"})
	target, err := b.Target(Combo{
		Index:      "etccdi",
		Product:    "base_period_1981_2010",
		Timestep:   "mon",
		Experiment: "historical",
		Model:      "bcc_csm2_mr",
		Format:     "tgz",
		Variables:  []string{"warm_nights", "warm_days"},
	})
	require.NoError(t, err)

	rel := "etccdi/base_period_1981_2010/mon/historical/BCC-CSM2-MR"
	assert.Equal(t, filepath.Join("/stage", rel), target.StagingDir)
	assert.Equal(t, filepath.Join("/data", rel), target.DestDir)
	assert.Equal(t, "etccdi_base_period_1981_2010_mon_historical_bcc_csm2_mr.tgz", target.ArchiveName)

	require.Len(t, target.Expected, 2)
	assert.Equal(t, `tn90pETCCDI_mon_BCC-CSM2-MR_historical_(.*)_b1981-2010_(.*)_v1-0\.nc`, target.Expected[0])
	assert.Equal(t, `tx90pETCCDI_mon_BCC-CSM2-MR_historical_(.*)_b1981-2010_(.*)_v1-0\.nc`, target.Expected[1])
}

func TestTargetRejectsUnmappedModel(t *testing.T) {
	b := testBuilder(t, config.Config{})
	_, err := b.Target(Combo{Index: "etccdi", Product: "base_period_1981_2010",
		Timestep: "mon", Experiment: "historical", Model: "fgoals_g3"})
	assert.Error(t, err)
}

func TestSkipListMatchesCatalog(t *testing.T) {
	store := testStore(t)
	loc := "etccdi/base_period_1981_2010/mon/historical/BCC-CSM2-MR"
	_, err := store.InsertIgnore([]models.CatalogRecord{{
		Filename: "tn90pETCCDI_mon_BCC-CSM2-MR_historical_r1i1p1f1_b1981-2010_v20191108_185001-201412_v1-0.nc",
		Location: loc,
	}})
	require.NoError(t, err)

	b := testBuilder(t, config.Config{})
	c := Combo{Index: "etccdi", Product: "base_period_1981_2010", Timestep: "mon",
		Experiment: "historical", Model: "bcc_csm2_mr",
		Variables: []string{"warm_nights", "warm_days"}}
	target, err := b.Target(c)
	require.NoError(t, err)

	skip, err := b.SkipList(store, c, target.Expected)
	require.NoError(t, err)
	// only warm_nights is on disk
	assert.Equal(t, []string{target.Expected[0]}, skip)
}

func TestAssembleBuildsAndSkips(t *testing.T) {
	store := testStore(t)
	cfg := config.Config{
		DataDir:       filepath.Join(t.TempDir(), "data"),
		StagingDir:    filepath.Join(t.TempDir(), "staging"),
		AltEndpoints:  []string{"110.0.0.1", "110.0.0.2"},
		CredentialIDs: []string{"1"},
	}
	b := testBuilder(t, cfg)

	sel, err := models.NewSelectionRequest("etccdi", "mon", "tgz",
		[]string{"base_period_1981_2010"},
		[]string{"historical", "ssp5_8_5"},
		[]string{"bcc_csm2_mr"},
		[]string{"warm_nights"})
	require.NoError(t, err)

	batch, err := b.Assemble(store, sel)
	require.NoError(t, err)
	require.Len(t, batch.Tasks, 2)
	assert.Empty(t, batch.Skipped)

	first := batch.Tasks[0]
	assert.Equal(t, "sis-extreme-indices-cmip6", first.DatasetID)
	assert.Equal(t, "historical", first.Payload.Experiment)
	assert.Equal(t, filepath.Join(cfg.StagingDir,
		"etccdi/base_period_1981_2010/mon/historical/BCC-CSM2-MR",
		"etccdi_base_period_1981_2010_mon_historical_bcc_csm2_mr.tgz"), first.StagingPath)
	assert.DirExists(t, first.DestDir)

	// endpoints rotate, the single credential repeats
	assert.Equal(t, "110.0.0.1", first.Endpoint)
	assert.Equal(t, "110.0.0.2", batch.Tasks[1].Endpoint)
	assert.Equal(t, "1", first.CredentialID)
	assert.Equal(t, "1", batch.Tasks[1].CredentialID)

	// once the historical file is catalogued, only the ssp task remains
	_, err = store.InsertIgnore([]models.CatalogRecord{{
		Filename: "tn90pETCCDI_mon_BCC-CSM2-MR_historical_r1i1p1f1_b1981-2010_v20191108_185001-201412_v1-0.nc",
		Location: "etccdi/base_period_1981_2010/mon/historical/BCC-CSM2-MR",
	}})
	require.NoError(t, err)

	batch, err = b.Assemble(store, sel)
	require.NoError(t, err)
	require.Len(t, batch.Tasks, 1)
	assert.Equal(t, "ssp5_8_5", batch.Tasks[0].Payload.Experiment)
	assert.Equal(t, []string{"etccdi_base_period_1981_2010_mon_historical_bcc_csm2_mr.tgz"},
		batch.Skipped)
}
