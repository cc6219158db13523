package fills

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fuellog/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleFills() []models.Fill {
	return []models.Fill{
		{VehicleID: "3", Date: day("2023-01-15"), Amount: ptr(100), PricePerLiter: ptr(1.9), Notes: "a"},
		{VehicleID: "4", Date: day("2023-02-10"), Amount: ptr(50), PricePerLiter: ptr(1.7), Notes: "b"},
		{VehicleID: "3", Date: day("2024-02-03"), Amount: ptr(75), Notes: "c"},
		{VehicleID: "3", Date: day("2023-02-20"), PricePerLiter: ptr(1.8), Notes: "d"},
		{VehicleID: "5", Notes: "e"},
	}
}

func notes(fills []models.Fill) []string {
	out := make([]string, len(fills))
	for i, f := range fills {
		out[i] = f.Notes
	}
	return out
}

func TestSelect_Empty(t *testing.T) {
	got := Select(nil, Criteria{VehicleID: "3", Year: intPtr(2023)})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelect_AllSentinels(t *testing.T) {
	in := sampleFills()
	got := Select(in, Criteria{VehicleID: All})

	assert.Len(t, got, len(in))
	assert.ElementsMatch(t, notes(in), notes(got))
	assert.Equal(t, []string{"c", "d", "b", "a", "e"}, notes(got), "default order is date descending")
}

func TestSelect_ByVehicle(t *testing.T) {
	got := Select(sampleFills(), Criteria{VehicleID: "3"})
	assert.Equal(t, []string{"c", "d", "a"}, notes(got))

	got = Select(sampleFills(), Criteria{VehicleID: "03"})
	assert.Equal(t, []string{"c", "d", "a"}, notes(got), "numeric forms compare equal")

	got = Select([]models.Fill{{VehicleID: "64b7f0c2e1"}}, Criteria{VehicleID: "64b7f0c2e1"})
	assert.Len(t, got, 1)
}

func TestSelect_ByYearAndMonth(t *testing.T) {
	got := Select(sampleFills(), Criteria{Year: intPtr(2023), Month: intPtr(1)})
	assert.Equal(t, []string{"d", "b"}, notes(got))

	got = Select(sampleFills(), Criteria{VehicleID: "3", Year: intPtr(2023), Month: intPtr(1)})
	assert.Equal(t, []string{"d"}, notes(got))

	got = Select(sampleFills(), Criteria{Month: intPtr(1)})
	assert.Equal(t, []string{"c", "d", "b"}, notes(got))
}

func TestSelect_SortKeys(t *testing.T) {
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"date asc puts missing dates first", Criteria{SortBy: SortByDate, Order: OrderAsc}, []string{"e", "a", "b", "d", "c"}},
		{"date desc puts missing dates last", Criteria{SortBy: SortByDate, Order: OrderDesc}, []string{"c", "d", "b", "a", "e"}},
		{"amount desc", Criteria{SortBy: SortByAmount, Order: OrderDesc}, []string{"a", "c", "b", "d", "e"}},
		{"amount asc keeps input order for ties", Criteria{SortBy: SortByAmount, Order: OrderAsc}, []string{"d", "e", "b", "c", "a"}},
		{"price asc", Criteria{SortBy: SortByPrice, Order: OrderAsc}, []string{"c", "e", "b", "d", "a"}},
		{"unknown field falls back to date", Criteria{SortBy: "liters"}, []string{"c", "d", "b", "a", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notes(Select(sampleFills(), tt.c)))
		})
	}
}

func TestSelect_MissingDateBeforeOldDates(t *testing.T) {
	history := []models.Fill{
		{Notes: "missing"},
		{Date: day("1965-06-01"), Notes: "old"},
	}

	asc := Select(history, Criteria{SortBy: SortByDate, Order: OrderAsc})
	assert.Equal(t, []string{"missing", "old"}, notes(asc))

	desc := Select(history, Criteria{SortBy: SortByDate, Order: OrderDesc})
	assert.Equal(t, []string{"old", "missing"}, notes(desc))
}

func TestSelect_Idempotent(t *testing.T) {
	for _, c := range []Criteria{
		DefaultCriteria(),
		{SortBy: SortByAmount, Order: OrderAsc},
		{SortBy: SortByPrice, Order: OrderDesc, VehicleID: "3"},
	} {
		once := Select(sampleFills(), c)
		twice := Select(once, c)
		assert.Equal(t, notes(once), notes(twice))
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	in := sampleFills()
	before := notes(in)
	Select(in, Criteria{SortBy: SortByAmount, Order: OrderDesc})
	assert.Equal(t, before, notes(in))
}

func TestParseCriteria(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := ParseCriteria(url.Values{})
		require.NoError(t, err)
		assert.Equal(t, DefaultCriteria(), c)
	})

	t.Run("all sentinels", func(t *testing.T) {
		c, err := ParseCriteria(url.Values{"vehicle_id": {"all"}, "year": {"all"}, "month": {"all"}})
		require.NoError(t, err)
		assert.Empty(t, c.VehicleID)
		assert.Nil(t, c.Year)
		assert.Nil(t, c.Month)
	})

	t.Run("full", func(t *testing.T) {
		c, err := ParseCriteria(url.Values{
			"vehicle_id": {"3"}, "year": {"2023"}, "month": {"0"},
			"sort_by": {"amount"}, "order": {"asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, "3", c.VehicleID)
		assert.Equal(t, 2023, *c.Year)
		assert.Equal(t, 0, *c.Month)
		assert.Equal(t, SortByAmount, c.SortBy)
		assert.Equal(t, OrderAsc, c.Order)
	})

	for name, q := range map[string]url.Values{
		"bad year":    {"year": {"twenty"}},
		"bad month":   {"month": {"12"}},
		"neg month":   {"month": {"-1"}},
		"bad sort_by": {"sort_by": {"liters"}},
		"bad order":   {"order": {"up"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCriteria(q)
			assert.ErrorIs(t, err, ErrInvalidCriteria)
		})
	}
}
