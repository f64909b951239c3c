package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/sparkreach/internal/models"
)

func TestFilter_SearchMatchesLocationOrArea(t *testing.T) {
	chargers := MockChargers()

	for _, q := range []string{"dwarka", "DWARKA", "  Saket ", "hub", "nagar", "zzz"} {
		got := Filter(chargers, Query{Search: q})
		needle := strings.ToLower(strings.TrimSpace(q))
		for _, c := range got {
			assert.True(t,
				strings.Contains(strings.ToLower(c.Location), needle) ||
					strings.Contains(strings.ToLower(c.Area), needle),
				"query %q returned %s", q, c.Location)
		}
		// 所有满足条件的都必须返回
		want := 0
		for _, c := range chargers {
			if strings.Contains(strings.ToLower(c.Location), needle) || strings.Contains(strings.ToLower(c.Area), needle) {
				want++
			}
		}
		assert.Len(t, got, want, q)
	}

	assert.Len(t, Filter(chargers, Query{Search: "zzz"}), 0)
	assert.Len(t, Filter(chargers, Query{}), len(chargers))
}

func TestFilter_Type(t *testing.T) {
	chargers := MockChargers()

	ccs := Filter(chargers, Query{Type: models.ChargerTypeCCS})
	require.NotEmpty(t, ccs)
	for _, c := range ccs {
		assert.Equal(t, models.ChargerTypeCCS, c.Type)
	}

	assert.Len(t, Filter(chargers, Query{Type: TypeAll}), len(chargers))
}

func TestFilter_Compatible(t *testing.T) {
	chargers := MockChargers()

	got := Filter(chargers, Query{Type: TypeCompatible, Compatible: []string{models.ChargerTypeCHAdeMO}})
	require.Len(t, got, 1)
	assert.Equal(t, "5", got[0].ID)

	// 没有兼容列表时不过滤
	assert.Len(t, Filter(chargers, Query{Type: TypeCompatible}), len(chargers))
}

func TestNearby(t *testing.T) {
	chargers := MockChargers()

	// 康诺特广场附近
	got := Nearby(chargers, 28.6315, 77.2167, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "1", got[0].Charger.ID)
	assert.InDelta(t, 0, got[0].DistanceKm, 0.01)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
		assert.LessOrEqual(t, got[i].DistanceKm, 5.0)
	}

	assert.Len(t, Nearby(chargers, 28.6315, 77.2167, 0), len(chargers))
}

func TestParse(t *testing.T) {
	data := []byte(`
chargers:
  - id: "a"
    location: "Test Point"
    area: "Janakpuri"
    type: "Type 2"
    power: "7.4 kW"
    price: 100
    lat: 28.62
    lng: 77.08
`)
	chargers, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, chargers, 1)
	assert.Equal(t, "Janakpuri", chargers[0].Area)
	assert.Len(t, chargers[0].Slots, 8)

	_, err = Parse([]byte("chargers:\n  - id: a\n    location: x\n    area: y\n    type: Tesla\n    price: 1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("chargers:\n  - {id: a, location: x, area: y, type: CCS, price: 1}\n  - {id: a, location: x, area: y, type: CCS, price: 1}\n"))
	assert.ErrorContains(t, err, "duplicate")
}

func TestMockData(t *testing.T) {
	for _, c := range MockChargers() {
		assert.NoError(t, Validate(c), c.ID)
	}

	data := MockAdminData(time.Now())
	assert.NotEmpty(t, data.PendingHosts)
	for _, b := range data.Bookings {
		assert.Equal(t, b.TotalPrice+b.PlatformFee, b.FinalTotal)
	}
}
