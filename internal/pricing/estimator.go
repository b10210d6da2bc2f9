package pricing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Confidence is a coarse label for how an estimate was produced and how well
// the product lookup matched.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// EstimateRequest holds the inputs for a price estimate.
type EstimateRequest struct {
	ProductType  string
	Quantity     int
	Country      string
	PipeDiameter string // free-form, e.g. "100-360mm"; the range's upper bound wins
}

// Estimate is the common output shape of the rule-based estimator and the AI
// estimation path. The two must stay interchangeable: downstream consumers
// only see the Confidence and Notes fields differ.
type Estimate struct {
	PriceMin        int        `json:"priceMin"`
	PriceMax        int        `json:"priceMax"`
	Currency        string     `json:"currency"`
	Recommendations []string   `json:"recommendations"`
	Confidence      Confidence `json:"confidence"`
	Notes           string     `json:"notes"`
}

// AverageValue returns the midpoint of the estimated range.
func (e *Estimate) AverageValue() float64 {
	return float64(e.PriceMin+e.PriceMax) / 2
}

// intPattern matches every integer in a free-form diameter string such as
// "100-360mm" or "360".
var intPattern = regexp.MustCompile(`(\d+)`)

// ParseDiameter returns the largest integer found in a diameter string, or 0
// when none is present. A range like "100-360mm" names the machine by the
// biggest pipe it must cut, so the upper bound selects the band.
func ParseDiameter(s string) int {
	max := 0
	for _, match := range intPattern.FindAllString(s, -1) {
		d, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if d > max {
			max = d
		}
	}
	return max
}

// Estimate produces a deterministic rule-based price estimate. It performs no
// I/O and is usable as the sole estimator when the AI path is disabled.
//
// Unknown product types yield a zero band with no recommendations. That is
// the documented "no confident estimate" signal, not an error.
func (r EstimateRequest) Estimate() Estimate {
	band, matched := bandFor(r.ProductType, r.PipeDiameter)
	if !matched {
		return Estimate{
			Currency:        "USD",
			Recommendations: []string{},
			Confidence:      ConfidenceLow,
			Notes:           fmt.Sprintf("No pricing data for product type %q.", r.ProductType),
		}
	}

	recommendations := make([]string, len(band.recommendations))
	copy(recommendations, band.recommendations)

	discount := DiscountFor(r.Quantity)
	qty := float64(r.Quantity)
	totalMin := float64(band.unitMin) * qty * (1 - discount)
	totalMax := float64(band.unitMax) * qty * (1 - discount)

	if discount > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Bulk discount applied: %.0f%%", discount*100))
	}
	if IsMiddleEast(r.Country) {
		recommendations = append(recommendations, regionalSurchargeNote)
	}

	discountNote := "no discount"
	if discount > 0 {
		discountNote = fmt.Sprintf("%.0f%% bulk discount", discount*100)
	}

	return Estimate{
		PriceMin:        int(math.Round(totalMin)),
		PriceMax:        int(math.Round(totalMax)),
		Currency:        "USD",
		Recommendations: recommendations,
		Confidence:      ConfidenceMedium,
		Notes:           fmt.Sprintf("Rule-based estimate. %d units with %s.", r.Quantity, discountNote),
	}
}

// bandFor selects the unit price band by product-type prefix match. Pipe
// cutting further branches on the parsed diameter.
func bandFor(productType, pipeDiameter string) (diameterBand, bool) {
	switch {
	case strings.Contains(productType, ProductPipeCutting):
		diameter := ParseDiameter(pipeDiameter)
		for _, band := range pipeCutBands {
			if band.maxDiameter == 0 || diameter <= band.maxDiameter {
				return band, true
			}
		}
		// Unreachable: the last band is unbounded.
		return pipeCutBands[len(pipeCutBands)-1], true
	case strings.Contains(productType, ProductConsumables):
		return consumablesBand, true
	case strings.Contains(productType, ProductThreeM):
		return threeMBand, true
	default:
		return diameterBand{}, false
	}
}
