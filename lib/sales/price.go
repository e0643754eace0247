package sales

import (
	"strings"
)

type TicketType struct {
	Name         string `json:"name"`
	PriceInCents int    `json:"priceInCents"`
}

// PriceRule configures adult price resolution, the zero value uses
// the box office defaults.
type PriceRule struct {
	Keyword       string
	FallbackLabel string
	Default       float64
}

var DefaultPriceRule = PriceRule{
	Keyword:       "adult",
	FallbackLabel: "stnd adult",
	Default:       27.0,
}

func (r PriceRule) withDefaults() PriceRule {
	if r.Keyword == "" {
		r.Keyword = DefaultPriceRule.Keyword
	}
	if r.FallbackLabel == "" {
		r.FallbackLabel = DefaultPriceRule.FallbackLabel
	}
	if r.Default == 0 {
		r.Default = DefaultPriceRule.Default
	}
	return r
}

// ResolveAdultPrice picks the adult ticket price, in order:
//  1. the first ticket whose name contains the keyword (case-insensitive) with a positive price
//  2. the first ticket whose trimmed, lowercased name equals the fallback label with a positive price
//  3. the rule's default price
//
// Ties are broken by source order, nothing is sorted.
func ResolveAdultPrice(types []TicketType, rule PriceRule) float64 {
	rule = rule.withDefaults()
	keyword := strings.ToLower(rule.Keyword)
	label := strings.ToLower(rule.FallbackLabel)

	for _, t := range types {
		if strings.Contains(strings.ToLower(t.Name), keyword) && t.PriceInCents > 0 {
			return float64(t.PriceInCents) / 100
		}
	}
	for _, t := range types {
		if strings.ToLower(strings.TrimSpace(t.Name)) == label && t.PriceInCents > 0 {
			return float64(t.PriceInCents) / 100
		}
	}
	return rule.Default
}

// Pricing is the per-ticket breakdown shown on checkout pages.
type Pricing struct {
	Net   float64 `json:"net"`
	Tax   float64 `json:"tax"`
	Fee   float64 `json:"fee"`
	Grand float64 `json:"grand"`
}

// NewPricing splits a grand total into its parts, a missing grand total
// means the net price is unknown and is left at 0.
func NewPricing(grandTotal, tax, fee float64) Pricing {
	net := 0.0
	if grandTotal != 0 {
		net = grandTotal - tax - fee
	}
	net = Round2(net)
	tax = Round2(tax)
	fee = Round2(fee)
	return Pricing{
		Net:   net,
		Tax:   tax,
		Fee:   fee,
		Grand: Round2(net + tax + fee),
	}
}
