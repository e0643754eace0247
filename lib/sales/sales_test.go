package sales

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func seatmapOf(rows [][]bool) *SeatMap {
	seatmap := &SeatMap{Rows: []Row{}}
	for _, r := range rows {
		row := Row{}
		for _, sold := range r {
			row.Seats = append(row.Seats, Seat{Sold: sold})
		}
		seatmap.Rows = append(seatmap.Rows, row)
	}
	return seatmap
}

func TestDeriveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sold + available == total", prop.ForAll(
		func(rows [][]bool, price float64) bool {
			m := Derive(seatmapOf(rows), price)
			return m.Sold+m.Available == m.Total && m.Balanced()
		},
		gen.SliceOf(gen.SliceOf(gen.Bool())),
		gen.Float64Range(0, 100),
	))

	properties.Property("occupancy is derived from the counts", prop.ForAll(
		func(rows [][]bool) bool {
			m := Derive(seatmapOf(rows), 10)
			if m.Total == 0 {
				return m.Occupancy == 0
			}
			expected := math.Round(float64(m.Sold)/float64(m.Total)*100*100) / 100
			return m.Occupancy == expected
		},
		gen.SliceOf(gen.SliceOf(gen.Bool())),
	))

	properties.Property("gross never exceeds max gross", prop.ForAll(
		func(rows [][]bool, price float64) bool {
			m := Derive(seatmapOf(rows), price)
			return m.Gross <= m.MaxGross
		},
		gen.SliceOf(gen.SliceOf(gen.Bool())),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

func TestDerive(t *testing.T) {
	m := Derive(seatmapOf([][]bool{
		{true, false, false},
		{true, true},
		{},
	}), 22)
	require.Equal(t, Metrics{
		Total:     5,
		Sold:      3,
		Available: 2,
		Occupancy: 60,
		Price:     22,
		Gross:     66,
		MaxGross:  110,
	}, m)
}

func TestDeriveMissingRows(t *testing.T) {
	require.Equal(t, Metrics{Price: 27}, Derive(nil, 27))
	require.Equal(t, Metrics{Price: 27}, Derive(&SeatMap{}, 27))

	m := Derive(&SeatMap{Rows: []Row{}}, 27)
	require.Equal(t, 0, m.Total)
	require.Equal(t, 0.0, m.Occupancy)
}

func TestFromCounts(t *testing.T) {
	pricing := NewPricing(15.49, 1.2, 1.5)
	require.Equal(t, Pricing{Net: 12.79, Tax: 1.2, Fee: 1.5, Grand: 15.49}, pricing)

	m := FromCounts(Counts{Sold: 3, Available: 6, Blocked: 1}, pricing)
	require.Equal(t, 10, m.Total)
	require.True(t, m.Balanced())
	require.Equal(t, 30.0, m.Occupancy)
	require.Equal(t, 38.37, m.Gross)
	require.Equal(t, 46.47, m.GrossWithTax)
	require.Equal(t, 127.9, m.MaxGross)
	require.Equal(t, 46.47, m.BestGross())
	require.Equal(t, pricing, *m.PerTicket)

	empty := NewPricing(0, 1.2, 1.5)
	require.Equal(t, 0.0, empty.Net)
	require.Equal(t, 2.7, empty.Grand)
}

func TestResolveAdultPrice(t *testing.T) {
	cases := []struct {
		name     string
		types    []TicketType
		expected float64
	}{
		{
			name: "substring match",
			types: []TicketType{
				{Name: "Child", PriceInCents: 1500},
				{Name: "Adult Standard", PriceInCents: 2200},
			},
			expected: 22,
		},
		{
			name: "fallback label",
			types: []TicketType{
				{Name: "Stnd Adult", PriceInCents: 1800},
			},
			expected: 18,
		},
		{
			name:     "empty list",
			types:    nil,
			expected: 27,
		},
		{
			name: "first match in source order",
			types: []TicketType{
				{Name: "ADULT 3D", PriceInCents: 2600},
				{Name: "Adult", PriceInCents: 2100},
			},
			expected: 26,
		},
		{
			name: "free adult tickets are skipped",
			types: []TicketType{
				{Name: "Adult Comp", PriceInCents: 0},
				{Name: "Adult", PriceInCents: 1950},
			},
			expected: 19.5,
		},
		{
			name: "no positive prices",
			types: []TicketType{
				{Name: "Adult", PriceInCents: 0},
				{Name: "Senior", PriceInCents: 1200},
			},
			expected: 27,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, ResolveAdultPrice(test.types, PriceRule{}))
		})
	}
}

func TestResolveAdultPriceCustomRule(t *testing.T) {
	rule := PriceRule{Keyword: "aikuinen", FallbackLabel: "normaali", Default: 12.5}
	types := []TicketType{
		{Name: "Lapsi", PriceInCents: 900},
		{Name: " Normaali ", PriceInCents: 1350},
	}
	require.Equal(t, 13.5, ResolveAdultPrice(types, rule))
	require.Equal(t, 12.5, ResolveAdultPrice(nil, rule))
}
