package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegistry() *Registry {
	return NewRegistry([]Feature{
		NewFeature("1", "Thiruvananthapuram, Kerala"),
		NewFeature("2", "Kollam, Kerala"),
		NewFeature("3", "Daman, Daman and Diu"),
		NewFeature("4", "Diu, Daman and Diu"),
		NewFeature("5", "Dadra & Nagar Haveli, Dadra and Nagar Haveli"),
		NewFeature("6", "East, Delhi"),
		NewFeature("7", "East, Sikkim"),
		NewFeature("8", "Disputed"),
	})
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name, sub, region string
	}{
		{"Kollam, Kerala", "Kollam", " Kerala"},
		{"Kollam,Kerala", "Kollam", "Kerala"},
		{"Leh,Ladakh,Extra", "Leh", "Ladakh"},
		{"Disputed", "Disputed", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, region := ParseName(tt.name)
			assert.Equal(t, tt.sub, sub)
			assert.Equal(t, tt.region, region)
		})
	}
}

func TestJoinKeyRoundTrip(t *testing.T) {
	for _, f := range sampleRegistry().Features() {
		if f.Region == "" {
			continue
		}
		assert.Equal(t, f.Name, JoinKey(f.SubRegion, f.Region))
	}
	assert.Equal(t, "N/A,N/A", JoinKey("", ""))
	assert.Equal(t, "Kollam,N/A", JoinKey("Kollam", ""))
	assert.Equal(t, "N/A, Kerala", JoinKey("", " Kerala"))
}

func TestRegistry(t *testing.T) {
	r := sampleRegistry()
	require.Equal(t, 8, r.Len())

	assert.Equal(t, []string{" Kerala", " Daman and Diu", " Dadra and Nagar Haveli", " Delhi", " Sikkim"}, r.Regions())
	assert.Equal(t, []string{"Daman", "Diu"}, r.SubRegions("daman and diu"))
	assert.Equal(t, []string{"East"}, r.SubRegions("Sikkim"))
	assert.Empty(t, r.SubRegions("Goa"))

	in := r.FeaturesIn(" KERALA ")
	require.Len(t, in, 2)
	assert.Equal(t, "1", in[0].ID)
	assert.Len(t, r.FeaturesIn("Disputed"), 0)

	f, ok := r.Lookup("East, Sikkim")
	require.True(t, ok)
	assert.Equal(t, "7", f.ID)
	_, ok = r.Lookup("East,Sikkim")
	assert.False(t, ok)

	canon, ok := r.CanonicalRegion("daman and diu")
	require.True(t, ok)
	assert.Equal(t, " Daman and Diu", canon)
	canon, ok = r.CanonicalSubRegion("Dadra and Nagar Haveli", "dadra & nagar haveli")
	require.True(t, ok)
	assert.Equal(t, "Dadra & Nagar Haveli", canon)
	_, ok = r.CanonicalSubRegion("Kerala", "Daman")
	assert.False(t, ok)
}

func TestRegistryIsolatedFromCallers(t *testing.T) {
	features := []Feature{NewFeature("1", "Kollam, Kerala")}
	r := NewRegistry(features)
	features[0].Name = "changed"

	regions := r.Regions()
	regions[0] = "changed"

	f, ok := r.Lookup("Kollam, Kerala")
	require.True(t, ok)
	assert.Equal(t, "Kollam, Kerala", f.Name)
	assert.Equal(t, " Kerala", r.Regions()[0])
}

func TestRegistryByKey(t *testing.T) {
	r := NewRegistry([]Feature{
		NewFeature("k1", "Kollam,Kerala,IN"),
		NewFeature("k2", "Idukki, Kerala"),
		NewFeature("x", "Disputed"),
	})

	f, ok := r.ByKey(JoinKey("Kollam", "Kerala"))
	require.True(t, ok)
	assert.Equal(t, "k1", f.ID)
	assert.Equal(t, "Kollam,Kerala,IN", f.Name)

	_, ok = r.Lookup("Kollam,Kerala")
	assert.False(t, ok, "Lookup matches full names only")

	f, ok = r.ByKey("Idukki, Kerala")
	require.True(t, ok)
	assert.Equal(t, "k2", f.ID)

	_, ok = r.ByKey(JoinKey("Disputed", ""))
	assert.False(t, ok)
}
