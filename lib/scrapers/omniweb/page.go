package omniweb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"boxoffice-tracker/lib/htmlutil"
	"boxoffice-tracker/lib/sales"

	"github.com/PuerkitoBio/goquery"
)

// flexString decodes a json string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if json.Unmarshal(data, &s) == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(data, &n)
	if err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type Performance struct {
	PerfIx       flexString `json:"perfIx"`
	SchDateStr   string     `json:"schDateStr"`
	StartTimeStr string     `json:"startTimeStr"`
}

type Auditorium struct {
	SchPerfsReserved map[string]Performance `json:"schPerfsReserved"`
}

type Movie struct {
	Title   string                `json:"title"`
	SchAuds map[string]Auditorium `json:"schAuds"`
}

// parseMovieData reads the schedule embedded in a venue page as
// `var gMovieData = {...}`.
func parseMovieData(page string) (map[string]Movie, error) {
	raw, err := htmlutil.ScriptObject(page, "gMovieData")
	if err != nil {
		return nil, err
	}
	var out map[string]Movie
	err = json.Unmarshal([]byte(raw), &out)
	if err != nil {
		return nil, fmt.Errorf("gMovieData: %w", err)
	}
	return out, nil
}

func securityToken(doc *goquery.Document) (string, error) {
	token, ok := htmlutil.InputValue(doc, "securityToken")
	if !ok || token == "" {
		return "", fmt.Errorf("securityToken not found")
	}
	return token, nil
}

// countSeats tallies the seat classes of a rendered seat map. Every
// seat carries ow-cb plus one of ow-sp (sold), ow-hs (held back) or
// ow-cb-av (available). A seat with several state classes counts once,
// sold wins over held back which wins over available.
func countSeats(doc *goquery.Document) sales.Counts {
	var counts sales.Counts
	doc.Find(`[class^="ow-cb"]`).Each(func(_ int, seat *goquery.Selection) {
		switch {
		case seat.HasClass("ow-sp"):
			counts.Sold++
		case seat.HasClass("ow-hs"):
			counts.Blocked++
		case seat.HasClass("ow-cb-av"):
			counts.Available++
		}
	})
	return counts
}

var taxRegex = regexp.MustCompile(`(?is)Taxes.*?>\s*([0-9]+\.[0-9]{2})\s*</span>`)

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parsePricing reads the per ticket totals the checkout page keeps in
// hidden inputs, absent values count as 0.
func parsePricing(doc *goquery.Document, page []byte) sales.Pricing {
	fee, _ := htmlutil.InputValue(doc, "ctl00_serviceTotalPureStr")
	grand, _ := htmlutil.InputValue(doc, "ctl00_grandTotalPureStr")

	tax := 0.0
	groups := taxRegex.FindSubmatch(page)
	if len(groups) == 2 {
		tax = parseAmount(string(groups[1]))
	}
	return sales.NewPricing(parseAmount(grand), tax, parseAmount(fee))
}

// parseSeatMap derives the metrics of one performance from its seat
// map page.
func parseSeatMap(page []byte) (sales.Metrics, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return sales.Metrics{}, err
	}
	return sales.FromCounts(countSeats(doc), parsePricing(doc, page)), nil
}
