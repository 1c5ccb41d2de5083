package views

import (
	"fmt"
	"sort"
)

// TrendPoint is one residence series value of a state indicator
type TrendPoint struct {
	State     string  `json:"state"`
	Indicator string  `json:"indicator"`
	NFHS      string  `json:"nfhs"`
	Year      string  `json:"year"`
	Residence string  `json:"residence"` // Urban, Rural or Total
	Value     float64 `json:"value"`
}

// TrendView lists indicator values over survey years
type TrendView struct {
	States     []string     `json:"states"`
	Indicators []string     `json:"indicators"`
	Points     []TrendPoint `json:"points"`
	Empty      bool         `json:"empty"`
}

// Trend melts the residence columns of the selected states and indicators,
// drops unreported values and orders the points by year, state and indicator
func (b *Builder) Trend(states, indicators []string) TrendView {
	view := TrendView{States: states, Indicators: indicators, Empty: true}
	if b.trend == nil || len(states) == 0 || len(indicators) == 0 {
		return view
	}

	wantState := toSet(states)
	wantInd := toSet(indicators)

	for i := range b.trend.Rows {
		state, ind := b.trend.Text(i, ColState), b.trend.Text(i, ColIndicator)
		if !wantState[state] || !wantInd[ind] {
			continue
		}
		for _, col := range TrendValueColumns {
			v, ok := b.trend.Cell(i, col).Float()
			if !ok {
				continue
			}
			view.Points = append(view.Points, TrendPoint{
				State:     state,
				Indicator: ind,
				NFHS:      b.trend.Text(i, ColNFHS),
				Year:      b.trend.Text(i, ColTrendYear),
				Residence: col,
				Value:     v,
			})
		}
	}

	sort.SliceStable(view.Points, func(i, j int) bool {
		a, c := view.Points[i], view.Points[j]
		if a.Year != c.Year {
			return a.Year < c.Year
		}
		if a.State != c.State {
			return a.State < c.State
		}
		return a.Indicator < c.Indicator
	})
	view.Empty = len(view.Points) == 0
	return view
}

// Bar is one category value of an equity indicator
type Bar struct {
	Indicator string  `json:"indicator"`
	Category  string  `json:"category"`
	Value     float64 `json:"value"`
}

// EquityRound holds the bars of one survey round
type EquityRound struct {
	Label string `json:"label"`
	Bars  []Bar  `json:"bars"`
	Empty bool   `json:"empty"`
}

// EquityView disaggregates a state's indicators by one group
type EquityView struct {
	State      string        `json:"state"`
	Group      string        `json:"group"`
	Categories []string      `json:"categories"`
	Rounds     []EquityRound `json:"rounds"`
	Empty      bool          `json:"empty"`
}

// Equity returns the bars of a state for a disaggregation group. Unknown
// groups are an error.
func (b *Builder) Equity(state, group string) (EquityView, error) {
	var categories []string
	for _, g := range EquityGroups {
		if g.Name == group {
			categories = g.Categories
		}
	}
	if categories == nil {
		return EquityView{}, fmt.Errorf("unknown disaggregation group %q", group)
	}

	view := EquityView{State: state, Group: group, Categories: categories, Empty: true}
	for _, round := range b.cfg.Rounds {
		er := EquityRound{Label: round.Label}
		if b.equity != nil {
			for i := range b.equity.Rows {
				if b.equity.Text(i, ColState) != state || b.equity.Text(i, ColEquityYear) != round.Label {
					continue
				}
				for _, cat := range categories {
					if v, ok := b.equity.Cell(i, cat).Float(); ok {
						er.Bars = append(er.Bars, Bar{Indicator: b.equity.Text(i, ColIndicator), Category: cat, Value: v})
					}
				}
			}
		}
		er.Empty = len(er.Bars) == 0
		if !er.Empty {
			view.Empty = false
		}
		view.Rounds = append(view.Rounds, er)
	}
	return view, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
