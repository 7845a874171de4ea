package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadArgsBasePeriod(t *testing.T) {
	args, err := LoadArgs("etccdi", "mon", "base_period_1981_2010")
	require.NoError(t, err)
	assert.Equal(t, "sis-extreme-indices-cmip6", args.DatasetID)
	assert.Contains(t, args.Variables, "warm_nights")
	assert.Equal(t, "r1i1p1f1", args.EnsembleMember)
	assert.Equal(t, "monthly", args.TemporalAggregation)
}

func TestLoadArgsBaseIndependent(t *testing.T) {
	args, err := LoadArgs("etccdi", "yr", "base_independent")
	require.NoError(t, err)
	assert.Contains(t, args.Variables, "frost_days")
	assert.NotContains(t, args.Variables, "warm_nights")
}

func TestLoadArgsHSI(t *testing.T) {
	args, err := LoadArgs("hsi", "day", "bias_adjusted")
	require.NoError(t, err)
	assert.Contains(t, args.Variables, "wet_bulb_globe_temperature")
	assert.Equal(t, "daily", args.TemporalAggregation)
}

func TestLoadArgsUnknownIndex(t *testing.T) {
	_, err := LoadArgs("era5", "mon", "")
	assert.Error(t, err)
}

func TestPeriodAbbreviation(t *testing.T) {
	args, err := LoadArgs("etccdi", "mon", "base_period_1981_2010")
	require.NoError(t, err)

	// historical -> period_his, every ssp scenario -> period_ssp
	p, err := args.Period("historical")
	require.NoError(t, err)
	assert.Equal(t, "185001-201412", p)

	for _, exp := range []string{"ssp1_2_6", "ssp5_8_5"} {
		p, err := args.Period(exp)
		require.NoError(t, err)
		assert.Equal(t, "201501-210012", p)
	}
}

func TestPeriodUnknownExperiment(t *testing.T) {
	args, err := LoadArgs("etccdi", "mon", "base_period_1981_2010")
	require.NoError(t, err)
	_, err = args.Period("rcp8_5")
	assert.Error(t, err)
	_, err = args.Period("x")
	assert.Error(t, err)
}

func TestLoadVars(t *testing.T) {
	vars, err := LoadVars("etccdi")
	require.NoError(t, err)
	assert.Equal(t, "tn90p", vars["warm_nights"])

	hsi, err := LoadVars("hsi")
	require.NoError(t, err)
	assert.Equal(t, "wbgt", hsi["wet_bulb_globe_temperature"])

	_, err = LoadVars("era5")
	assert.Error(t, err)
}

func TestLoadModelMap(t *testing.T) {
	m, err := LoadModelMap()
	require.NoError(t, err)
	assert.Equal(t, "BCC-CSM2-MR", m["bcc_csm2_mr"])
}

func TestLoadValues(t *testing.T) {
	v, err := LoadValues()
	require.NoError(t, err)
	assert.Contains(t, v.Experiments, "ssp5_8_5")
	assert.Contains(t, v.Models, "bcc_csm2_mr")
	assert.Contains(t, v.Variables, "heat_index")
}
