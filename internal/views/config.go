package views

// Round is one survey round shown side by side in comparison views
type Round struct {
	ID    string `yaml:"id" json:"id"`       // value of the round column, e.g. "NFHS-4"
	Label string `yaml:"label" json:"label"` // display label and equity/trend year, e.g. "NFHS-4 (2015-16)"
}

// Config holds the view-building parameters
type Config struct {
	Rounds       []Round  `yaml:"rounds"`
	AllScope     string   `yaml:"all_scope"`
	Sentinel     float64  `yaml:"sentinel"`
	RangePadding float64  `yaml:"range_padding"`
	AxisLow      float64  `yaml:"axis_low"`
	AxisHigh     float64  `yaml:"axis_high"`
	InverseScale []string `yaml:"inverse_scale"`
}

// DefaultConfig returns the settings of the district dashboard
func DefaultConfig() Config {
	return Config{
		Rounds: []Round{
			{ID: "NFHS-4", Label: "NFHS-4 (2015-16)"},
			{ID: "NFHS-5", Label: "NFHS-5 (2019-21)"},
		},
		AllScope:     "All India",
		Sentinel:     -1,
		RangePadding: 0.1,
		AxisLow:      0.9,
		AxisHigh:     1.1,
		InverseScale: []string{
			"Women age 20-24 years married before age 18 years (%)",
			"Total unmet need (%)",
			"Unmet need for spacing(%)",
			"Births delivered by caesarean section (%)",
			"Births in a private health facility that were delivered by caesarean section %)",
			"Births in a public health facility that were delivered by caesarean section (%)",
			"Children under 5 years who are stunted (height-for-age) (%)",
			"Children under 5 years who are wasted (weight-for-height) (%)",
			"Children under 5 years who are underweight (weight-for-age) (%)",
			"Children under 5 years who are overweight (weight-for-height) (%)",
			"Children age 6-59 months who are anaemic (<11.0 g/dl) (%)",
			"All women age 15-49 years who are anaemic (%)",
			"All women age 15-19 years who are anaemic (%) ",
		},
	}
}

// Columns names the columns of the source tables
type Columns struct {
	Region    string `yaml:"region"`
	SubRegion string `yaml:"sub_region"`
	Round     string `yaml:"round"`
	Year      string `yaml:"year"`
	Indicator string `yaml:"indicator"`
	Value     string `yaml:"value"`
}

// DistrictColumns are the columns of the long district table
func DistrictColumns() Columns {
	return Columns{
		Region:    "State",
		SubRegion: "District name",
		Round:     "Round",
		Year:      "year",
		Indicator: "variable",
		Value:     "value",
	}
}

// Trend and equity table columns
const (
	ColState         = "State"
	ColIndicator     = "Indicator"
	ColIndicatorType = "Indicator Type"
	ColGender        = "Gender"
	ColNFHS          = "NFHS"
	ColTrendYear     = "Year (give as a period)"
	ColEquityYear    = "Year"
)

// TrendValueColumns are melted into the residence series of the trend view
var TrendValueColumns = []string{"Urban", "Rural", "Total"}

// EquityGroups maps each disaggregation to its category columns
var EquityGroups = []struct {
	Name       string
	Categories []string
}{
	{"Residence", []string{"Total", "Rural", "Urban"}},
	{"Wealth", []string{"Poorest", "Poor", "Middle", "Rich", "Richest"}},
	{"Women's Education", []string{"No education", "Primary education", "Secondary education", "Higher education"}},
	{"Caste", []string{"SC", "ST", "OBC", "Others"}},
	{"Religion", []string{"Hindu", "Muslim", "Other"}},
}

// EquityValueColumns returns every category column of every group
func EquityValueColumns() []string {
	var cols []string
	seen := make(map[string]bool)
	for _, g := range EquityGroups {
		for _, c := range g.Categories {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}
