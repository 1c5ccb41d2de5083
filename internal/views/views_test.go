package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/geo"
	"github.com/nfhs-dash/internal/reconcile"
)

const anaemia = "All women age 15-49 years who are anaemic (%)"
const stunted = "Children under 5 years who are stunted (height-for-age) (%)"

func num(v float64) dataset.Cell { return dataset.NumberCell(v) }
func txt(s string) dataset.Cell  { return dataset.TextCell(s) }

func fixture(t *testing.T) *Builder {
	t.Helper()

	registry := geo.NewRegistry([]geo.Feature{
		geo.NewFeature("k1", "Kollam, Kerala"),
		geo.NewFeature("k2", "Idukki, Kerala"),
		geo.NewFeature("k3", "Wayanad, Kerala"),
		geo.NewFeature("g1", "North Goa, Goa"),
		geo.NewFeature("g2", "South Goa, Goa"),
	})

	long := dataset.New("districts", "State", "District name", "Round", "year", "variable", "value")
	rows := []dataset.Row{
		{txt("Kerala"), txt("Kollam"), txt("NFHS-4"), txt("2015"), txt(anaemia), num(10)},
		{txt("Kerala"), txt("Idukki"), txt("NFHS-4"), txt("2015"), txt(anaemia), num(20)},
		{txt("Kerala"), txt("Kollam"), txt("NFHS-5"), txt("2020"), txt(anaemia), num(30)},
		{txt("Kerala"), txt("Wayanad"), txt("NFHS-5"), txt("2020"), txt(anaemia), dataset.NullCell()},
		{txt("Kerala"), txt("Atlantis"), txt("NFHS-5"), txt("2020"), txt(anaemia), num(50)},
		{txt("Goa"), txt("North Goa"), txt("NFHS-5"), txt("2020"), txt(anaemia), dataset.NullCell()},

		{txt("Kerala"), txt("Kollam"), txt("NFHS-4"), txt("2015"), txt(stunted), num(1)},
		{txt("Kerala"), txt("Idukki"), txt("NFHS-4"), txt("2015"), txt(stunted), num(3)},
		{txt("Kerala"), txt("Kollam"), txt("NFHS-5"), txt("2020"), txt(stunted), dataset.NullCell()},
		{txt("Kerala"), txt("Idukki"), txt("NFHS-5"), txt("2020"), txt(stunted), dataset.NullCell()},
	}
	for _, r := range rows {
		require.NoError(t, long.Append(r))
	}

	pairs, err := reconcile.PairsFrom(long, "State", "District name")
	require.NoError(t, err)
	rec := reconcile.New(nil, nil, nil).Reconcile(registry, pairs)

	obs, err := Observations(long, rec, DistrictColumns())
	require.NoError(t, err)

	trend := dataset.New("trend", ColIndicator, ColState, ColNFHS, ColTrendYear, ColIndicatorType, "Urban", "Rural", "Total")
	for _, r := range []dataset.Row{
		{txt("Sex ratio"), txt("Kerala"), txt("NFHS 5"), txt("2019-21"), txt("Population"), num(1), num(2), num(3)},
		{txt("Sex ratio"), txt("Goa"), txt("NFHS 4"), txt("2015-16"), txt("Population"), num(4), dataset.NullCell(), num(6)},
		{txt("Anaemia"), txt("Kerala"), txt("NFHS 4"), txt("2015-16"), txt("Nutrition"), num(7), num(8), num(9)},
	} {
		require.NoError(t, trend.Append(r))
	}

	equity := dataset.New("equity", ColState, ColEquityYear, ColIndicator, "Total", "Rural", "Urban", "Poorest")
	for _, r := range []dataset.Row{
		{txt("Kerala"), txt("NFHS-4 (2015-16)"), txt("Anaemia"), num(40), num(42), num(38), dataset.NullCell()},
		{txt("Kerala"), txt("NFHS-5 (2019-21)"), txt("Anaemia"), num(36), num(37), num(35), num(50)},
		{txt("Goa"), txt("NFHS-5 (2019-21)"), txt("Anaemia"), num(30), num(31), num(29), num(33)},
	} {
		require.NoError(t, equity.Append(r))
	}

	return NewBuilder(DefaultConfig(), registry, rec, obs, trend, equity)
}

func TestAlignRange(t *testing.T) {
	r := AlignRange([]float64{10, 20}, []float64{5, 30}, 0.1)
	assert.True(t, r.Valid)
	assert.InDelta(t, 4.9, r.Min, 1e-9)
	assert.InDelta(t, 30, r.Max, 1e-9)

	r = AlignRange(nil, []float64{7}, 0.1)
	assert.InDelta(t, 6.9, r.Min, 1e-9)
	assert.InDelta(t, 7, r.Max, 1e-9)

	assert.False(t, AlignRange(nil, nil, 0.1).Valid)
}

func TestObservations(t *testing.T) {
	b := fixture(t)
	obs := b.Observations()
	require.Len(t, obs, 10)

	assert.Equal(t, "Kollam, Kerala", obs[0].Key)
	assert.True(t, obs[0].Mapped)
	assert.Equal(t, "2015", obs[0].Year)
	assert.True(t, obs[3].Missing)
	assert.False(t, obs[4].Mapped, "Atlantis has no polygon")
}

func TestMapRangeExcludesSentinel(t *testing.T) {
	b := fixture(t)
	view := b.Map("Kerala", anaemia)

	require.Len(t, view.Rounds, 2)
	assert.False(t, view.Empty)
	assert.True(t, view.Inverse)
	assert.True(t, view.Range.Valid)
	// reported Kerala values are 10, 20, 30 and 50 (unmapped Atlantis still counts)
	assert.InDelta(t, 9.9, view.Range.Min, 1e-9)
	assert.InDelta(t, 50, view.Range.Max, 1e-9)

	r4 := view.Rounds[0]
	assert.Equal(t, "NFHS-4 (2015-16)", r4.Label)
	assert.Equal(t, 2, r4.Reported)
	require.Len(t, r4.Features, 3)
	wayanad := r4.Features[2]
	assert.Equal(t, "Wayanad, Kerala", wayanad.Key)
	assert.Equal(t, "k3", wayanad.FeatureID)
	assert.True(t, wayanad.NotReported)
	assert.Equal(t, -1.0, wayanad.Value)
	assert.Equal(t, 1, r4.Imputed)

	r5 := view.Rounds[1]
	require.Len(t, r5.Unmapped, 1)
	assert.Equal(t, "Atlantis", r5.Unmapped[0].SubRegion)
	byKey := map[string]FeatureValue{}
	for _, f := range r5.Features {
		byKey[f.Key] = f
	}
	require.Len(t, byKey, 3)
	assert.Equal(t, 30.0, byKey["Kollam, Kerala"].Value)
	assert.True(t, byKey["Wayanad, Kerala"].NotReported, "null values are drawn as not reported")
	assert.True(t, byKey["Idukki, Kerala"].NotReported, "features without a row are imputed")
	for _, f := range r5.Features {
		if !f.NotReported {
			assert.GreaterOrEqual(t, f.Value, 0.0)
		}
	}
}

func TestMapZeroReportedRegion(t *testing.T) {
	b := fixture(t)
	view := b.Map("Goa", anaemia)

	assert.True(t, view.Empty)
	assert.False(t, view.Range.Valid)
	for _, rm := range view.Rounds {
		assert.True(t, rm.Empty)
		require.Len(t, rm.Features, 2)
		for _, f := range rm.Features {
			assert.True(t, f.NotReported)
			assert.Equal(t, -1.0, f.Value)
		}
	}
}

func TestMapAllScope(t *testing.T) {
	b := fixture(t)
	view := b.Map("All India", anaemia)

	r5 := view.Rounds[1]
	assert.Len(t, r5.Features, 5)
	assert.Equal(t, 2, r5.Reported)

	empty := b.Map("All India", "no such indicator")
	assert.True(t, empty.Empty)
	assert.Len(t, empty.Rounds[0].Features, 5)
}

func TestScatter(t *testing.T) {
	b := fixture(t)
	view := b.Scatter([]string{"kerala"}, anaemia, stunted)
	require.Len(t, view.Rounds, 2)
	assert.False(t, view.Empty)

	r4 := view.Rounds[0]
	assert.False(t, r4.Suppressed)
	require.Len(t, r4.Points, 2)
	require.NotNil(t, r4.XMean)
	assert.InDelta(t, 15, *r4.XMean, 1e-9)
	assert.InDelta(t, 2, *r4.YMean, 1e-9)
	require.NotNil(t, r4.Fit)
	assert.InDelta(t, 0.2, r4.Fit.Slope, 1e-9)
	assert.InDelta(t, -1, r4.Fit.Intercept, 1e-9)
	assert.InDelta(t, 1, r4.Fit.RSquared, 1e-9)

	// every stunting value of NFHS-5 is null
	r5 := view.Rounds[1]
	assert.True(t, r5.YAbsent)
	assert.False(t, r5.XAbsent)
	assert.True(t, r5.Suppressed)
	assert.Nil(t, r5.Fit)

	// x values across rounds: 10, 20, 30, 50
	assert.InDelta(t, 9, view.XRange.Min, 1e-9)
	assert.InDelta(t, 55, view.XRange.Max, 1e-9)
	assert.InDelta(t, 0.9, view.YRange.Min, 1e-9)
	assert.InDelta(t, 3.3, view.YRange.Max, 1e-9)

	assert.True(t, b.Scatter(nil, anaemia, stunted).Empty)
	assert.True(t, b.Scatter([]string{"Bihar"}, anaemia, stunted).Empty)
}

func TestTrend(t *testing.T) {
	b := fixture(t)
	view := b.Trend([]string{"Kerala", "Goa"}, []string{"Sex ratio", "Anaemia"})

	assert.False(t, view.Empty)
	require.Len(t, view.Points, 8)
	assert.Equal(t, "2015-16", view.Points[0].Year)
	assert.Equal(t, "Goa", view.Points[0].State)
	assert.Equal(t, "Kerala", view.Points[2].State)
	assert.Equal(t, "2019-21", view.Points[len(view.Points)-1].Year)
	for _, p := range view.Points {
		assert.NotEqual(t, "Goa/Rural", p.State+"/"+p.Residence, "null values are dropped")
	}

	assert.True(t, b.Trend(nil, []string{"Anaemia"}).Empty)
	assert.True(t, b.Trend([]string{"Bihar"}, []string{"Anaemia"}).Empty)
}

func TestEquity(t *testing.T) {
	b := fixture(t)

	view, err := b.Equity("Kerala", "Residence")
	require.NoError(t, err)
	assert.Equal(t, []string{"Total", "Rural", "Urban"}, view.Categories)
	require.Len(t, view.Rounds, 2)
	assert.Len(t, view.Rounds[0].Bars, 3)
	assert.Equal(t, Bar{Indicator: "Anaemia", Category: "Total", Value: 40}, view.Rounds[0].Bars[0])

	wealth, err := b.Equity("Kerala", "Wealth")
	require.NoError(t, err)
	assert.True(t, wealth.Rounds[0].Empty)
	assert.Len(t, wealth.Rounds[1].Bars, 1)
	assert.False(t, wealth.Empty)

	_, err = b.Equity("Kerala", "Height")
	assert.Error(t, err)

	none, err := b.Equity("Bihar", "Caste")
	require.NoError(t, err)
	assert.True(t, none.Empty)
}

func TestOptions(t *testing.T) {
	b := fixture(t)

	assert.Equal(t, []string{"All India", "Goa", "Kerala"}, b.Scopes())
	assert.Equal(t, []string{"Goa", "Kerala"}, b.Regions())
	assert.Equal(t, []string{anaemia, stunted}, b.Indicators())
	assert.Equal(t, []string{"Nutrition", "Population"}, b.IndicatorTypes())
	assert.Equal(t, []string{"Sex ratio"}, b.IndicatorsByType([]string{"Population"}))
	assert.Equal(t, []string{"Anaemia", "Sex ratio"}, b.IndicatorsByType([]string{"Population", "Nutrition"}))
	assert.Nil(t, b.IndicatorsByType(nil))
	assert.Equal(t, []string{"Goa", "Kerala"}, b.TrendStates())
	assert.Equal(t, []string{"Kerala", "Goa"}, b.EquityStates())
	assert.Len(t, EquityGroupNames(), 5)
	assert.True(t, b.InverseScale(stunted))
	assert.False(t, b.InverseScale("Sex ratio"))
}

func TestBuilderWithoutAuxiliaryTables(t *testing.T) {
	b := fixture(t)
	bare := NewBuilder(b.Config(), b.registry, b.rec, b.obs, nil, nil)

	assert.True(t, bare.Trend([]string{"Kerala"}, []string{"Anaemia"}).Empty)
	eq, err := bare.Equity("Kerala", "Residence")
	require.NoError(t, err)
	assert.True(t, eq.Empty)
	assert.Nil(t, bare.TrendStates())
	assert.Nil(t, bare.EquityStates())
}

func TestMapThreePartNames(t *testing.T) {
	registry := geo.NewRegistry([]geo.Feature{
		geo.NewFeature("k1", "Kollam,Kerala,IN"),
		geo.NewFeature("k2", "Idukki,Kerala,IN"),
	})

	long := dataset.New("districts", "State", "District name", "Round", "year", "variable", "value")
	require.NoError(t, long.Append(dataset.Row{txt("Kerala"), txt("Kollam"), txt("NFHS-5"), txt("2020"), txt(anaemia), num(10)}))

	pairs, err := reconcile.PairsFrom(long, "State", "District name")
	require.NoError(t, err)
	rec := reconcile.New(nil, nil, nil).Reconcile(registry, pairs)
	obs, err := Observations(long, rec, DistrictColumns())
	require.NoError(t, err)

	b := NewBuilder(DefaultConfig(), registry, rec, obs, nil, nil)
	view := b.Map("Kerala", anaemia)
	require.Len(t, view.Rounds, 2)

	r5 := view.Rounds[1]
	require.Len(t, r5.Features, 2)
	assert.Equal(t, FeatureValue{Key: "Kollam,Kerala,IN", FeatureID: "k1", Region: "Kerala", SubRegion: "Kollam", Value: 10}, r5.Features[0])
	assert.Equal(t, "Idukki,Kerala,IN", r5.Features[1].Key)
	assert.True(t, r5.Features[1].NotReported)
	assert.Equal(t, 1, r5.Imputed)
	assert.Empty(t, r5.Unmapped)
}

func TestObservationsReturnsCopy(t *testing.T) {
	b := fixture(t)
	obs := b.Observations()
	obs[0].Value = 999

	assert.Equal(t, 10.0, b.Observations()[0].Value)
}
