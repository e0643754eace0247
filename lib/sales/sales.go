package sales

import (
	"math"
)

// Metrics are the per-show sales figures. Occupancy and the gross
// figures are always derived from the counts, never set on their own.
type Metrics struct {
	Total        int      `json:"total"`
	Sold         int      `json:"sold"`
	Available    int      `json:"available"`
	Blocked      int      `json:"blocked,omitempty"`
	Occupancy    float64  `json:"occupancy"`
	Price        float64  `json:"price"`
	Gross        float64  `json:"gross"`
	GrossWithTax float64  `json:"grossWithTax,omitempty"`
	MaxGross     float64  `json:"maxGross"`
	PerTicket    *Pricing `json:"perTicket,omitempty"`
}

// Balanced reports whether sold + available + blocked == total.
func (m Metrics) Balanced() bool {
	return m.Sold+m.Available+m.Blocked == m.Total
}

// BestGross is the tax inclusive gross when the source exposes one.
func (m Metrics) BestGross() float64 {
	if m.GrossWithTax > 0 {
		return m.GrossWithTax
	}
	return m.Gross
}

type Seat struct {
	Sold bool `json:"sold"`
}

type Row struct {
	Seats []Seat `json:"seats"`
}

// SeatMap is the structural shape of a seat payload: rows of seats,
// each carrying a sold flag.
type SeatMap struct {
	Rows []Row `json:"rows"`
}

// Derive counts every seat in the map and derives the revenue and
// occupancy figures from the counts. A nil map or a map without a rows
// collection yields zeroed metrics instead of an error so that a single
// malformed payload never poisons aggregation.
func Derive(seatmap *SeatMap, price float64) Metrics {
	if seatmap == nil || seatmap.Rows == nil {
		return Metrics{Price: price}
	}

	total := 0
	sold := 0
	for _, row := range seatmap.Rows {
		for _, seat := range row.Seats {
			total++
			if seat.Sold {
				sold++
			}
		}
	}

	return Metrics{
		Total:     total,
		Sold:      sold,
		Available: total - sold,
		Occupancy: Occupancy(sold, total),
		Price:     price,
		Gross:     float64(sold) * price,
		MaxGross:  float64(total) * price,
	}
}

// Counts are seat class tallies for sources that expose a rendered
// seat map instead of structured rows.
type Counts struct {
	Sold      int
	Available int
	Blocked   int
}

// FromCounts derives metrics for sources where blocked seats are
// visible, gross uses the net ticket price and grossWithTax the grand
// total per ticket.
func FromCounts(counts Counts, pricing Pricing) Metrics {
	total := counts.Sold + counts.Available + counts.Blocked
	perTicket := pricing

	return Metrics{
		Total:        total,
		Sold:         counts.Sold,
		Available:    counts.Available,
		Blocked:      counts.Blocked,
		Occupancy:    Occupancy(counts.Sold, total),
		Price:        pricing.Net,
		Gross:        Round2(float64(counts.Sold) * pricing.Net),
		GrossWithTax: Round2(float64(counts.Sold) * pricing.Grand),
		MaxGross:     Round2(float64(total) * pricing.Net),
		PerTicket:    &perTicket,
	}
}

// Occupancy is sold/total as a percentage rounded to 2 decimals, 0 when
// there is no capacity.
func Occupancy(sold, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(sold) / float64(total) * 100)
}

func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
