package etl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/views"
)

func factsheet() *dataset.Table {
	return dataset.FromStrings("India",
		[]string{"Sl.No", "Indicator", "NFHS-5 (2019-21)", "Unnamed: 4", "Unnamed: 5", "NFHS-4 (2015-16)", "Unnamed: 7", "Unnamed: 8", "Unnamed: 9", "Unnamed: 10"},
		[][]string{
			{"", "", "Urban", "Rural", "Total", "Total", "", "", "", ""},
			{"1", "Sex ratio", "985", "1037", "1020", "991", "Population", "", "NFHS 5", "2019-21"},
			{"2", "Anaemia", "50", "55", "53", "53", "Nutrition", "Female", "NFHS 5", "2019-21"},
		})
}

func TestPrepareTrendFactsheet(t *testing.T) {
	trend, err := PrepareTrend(nil, factsheet())
	require.NoError(t, err)

	// one NFHS-4 row and one NFHS-5 row survive the gender filter
	require.Equal(t, 2, trend.Len())
	byRound := map[string]int{}
	for i := range trend.Rows {
		assert.Equal(t, "India", trend.Text(i, views.ColState))
		assert.Equal(t, "Sex ratio", trend.Text(i, views.ColIndicator))
		byRound[trend.Text(i, views.ColNFHS)] = i
	}
	require.Contains(t, byRound, "NFHS 4")
	require.Contains(t, byRound, "NFHS 5")

	r4 := byRound["NFHS 4"]
	assert.Equal(t, "991", trend.Text(r4, "Total"))
	assert.Equal(t, "2016", trend.Text(r4, views.ColTrendYear))
	assert.True(t, trend.Cell(r4, "Urban").IsNull())

	r5 := byRound["NFHS 5"]
	assert.Equal(t, "985", trend.Text(r5, "Urban"))
	assert.Equal(t, "1020", trend.Text(r5, "Total"))
	assert.False(t, trend.HasColumn("NFHS-4 (2015-16)"))
}

func TestPrepareTrendInputs(t *testing.T) {
	trend, err := PrepareTrend(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, trend)

	_, err = PrepareTrend(nil, dataset.FromStrings("India", []string{"Indicator"}, nil))
	var malformed *dataset.MalformedError
	assert.True(t, errors.As(err, &malformed))

	states := dataset.FromStrings("nfhs345", []string{"Indicator", "State", "Total"}, nil)
	_, err = PrepareTrend(states, nil)
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, []string{views.ColGender}, malformed.Missing)
}

func TestPrepareEquity(t *testing.T) {
	a := dataset.FromStrings("Anaemia", []string{"Unnamed: 0", "Year", "Unnamed: 1", "Poorest"}, [][]string{
		{"Kerala", "2019-21", "36", "40"},
		{"Kerala", "", "", ""},
		{"", "2019-21", "1", "2"},
	})
	b := dataset.FromStrings("Stunting", []string{"Unnamed: 0", "Year", "Unnamed: 1", "SC"}, [][]string{
		{"Goa", "2015-16", "20", "25"},
	})

	eq, err := PrepareEquity([]*dataset.Table{a, b})
	require.NoError(t, err)
	require.Equal(t, 2, eq.Len())
	assert.Equal(t, []string{"Anaemia", "Stunting"}, eq.Distinct(views.ColIndicator))
	assert.Equal(t, "36", eq.Text(0, "Total"))
	assert.True(t, eq.Cell(0, "SC").IsNull())
	assert.Equal(t, "25", eq.Text(1, "SC"))

	none, err := PrepareEquity(nil)
	assert.NoError(t, err)
	assert.Nil(t, none)
}
