// Package pricing contains the static pricing knowledge base, the rule-based
// quote estimator, and the lead scoring model. Everything in this package is
// pure computation over process-wide constant data; the same knowledge feeds
// both the AI estimation prompt and the deterministic fallback so the two
// paths stay consistent.
package pricing

import "strings"

// Product type prefixes recognized by the estimator.
const (
	ProductPipeCutting = "exact-pipecut"
	ProductConsumables = "exact-consumables"
	ProductThreeM      = "3m"
)

// diameterBand maps a maximum pipe diameter (mm) to a unit price band and the
// recommended cutter models for that range.
type diameterBand struct {
	maxDiameter     int // 0 means unbounded (largest band)
	unitMin         int
	unitMax         int
	recommendations []string
}

// pipeCutBands is ordered smallest diameter first; the first band whose
// maxDiameter is >= the parsed diameter wins.
var pipeCutBands = []diameterBand{
	{
		maxDiameter:     170,
		unitMin:         3500,
		unitMax:         4500,
		recommendations: []string{"EXACT PipeCut 170E - Lightweight, ideal for field work"},
	},
	{
		maxDiameter:     280,
		unitMin:         8000,
		unitMax:         11000,
		recommendations: []string{"EXACT PipeCut 280 Pro - Powerful, stainless steel capable"},
	},
	{
		maxDiameter: 360,
		unitMin:     12000,
		unitMax:     16000,
		recommendations: []string{
			"EXACT PipeCut 360 Pro - Bestseller, all-purpose",
			"Consider INOX series for stainless steel (+$2,000)",
		},
	},
	{
		maxDiameter:     460,
		unitMin:         18000,
		unitMax:         24000,
		recommendations: []string{"EXACT PipeCut 460 Pro - Heavy-duty, large pipes"},
	},
	{
		maxDiameter:     0,
		unitMin:         35000,
		unitMax:         50000,
		recommendations: []string{"EXACT Infinity - Unlimited diameter cutting"},
	},
}

var consumablesBand = diameterBand{
	unitMin: 80,
	unitMax: 400,
	recommendations: []string{
		"Cutting blades: $80-200 per blade",
		"Roller systems: $150-400 per set",
	},
}

var threeMBand = diameterBand{
	unitMin: 20,
	unitMax: 300,
	recommendations: []string{
		"Bulk orders available with volume discounts",
		"Contact for specific SKU pricing",
	},
}

// discountTier maps a minimum order quantity to a discount fraction.
type discountTier struct {
	minQuantity int
	fraction    float64
}

// discountTiers is ordered largest quantity first; the first tier whose
// minQuantity is satisfied wins.
var discountTiers = []discountTier{
	{minQuantity: 50, fraction: 0.25},
	{minQuantity: 21, fraction: 0.20},
	{minQuantity: 11, fraction: 0.15},
	{minQuantity: 5, fraction: 0.10},
}

// DiscountFor returns the bulk discount fraction for an order quantity.
func DiscountFor(quantity int) float64 {
	for _, tier := range discountTiers {
		if quantity >= tier.minQuantity {
			return tier.fraction
		}
	}
	return 0
}

// middleEastMarkers are matched as case-insensitive substrings of the
// free-text country field. The list is closed so it can be swapped for a
// country-code lookup at the request boundary without touching callers.
var middleEastMarkers = []string{"uae", "saudi", "qatar"}

// IsMiddleEast reports whether a country name refers to a high-priority
// Middle East market.
func IsMiddleEast(country string) bool {
	lower := strings.ToLower(country)
	for _, marker := range middleEastMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// regionalSurchargeNote is informational only; it never changes the numeric
// estimate.
const regionalSurchargeNote = "Middle East: +5-10% shipping/logistics fee may apply"

// KnowledgeText is the full pricing knowledge base embedded into AI
// estimation prompts. The numbers here mirror the bands and tiers above.
const KnowledgeText = `
**3M Industrial Products (Approximate FOB Korea Prices):**
- VHB Structural Tape: $50-200 per roll (depending on size/grade)
- Double-sided Tape: $20-80 per roll
- Electrical Insulation Tape: $15-40 per roll
- Cubitron II Abrasives: $80-300 per box (25-50 pieces)
- Sanding Discs: $30-120 per box
- Respirator Masks (N95/P100): $15-60 per unit
- Safety Glasses: $10-40 per unit

**EXACT Pipe Cutting Equipment (Approximate Prices):**
- PipeCut 170E: $3,500-4,500
- PipeCut 220E: $4,500-6,000
- PipeCut 280 Pro: $8,000-11,000
- PipeCut 360 Pro: $12,000-16,000 (bestseller)
- PipeCut 460 Pro: $18,000-24,000
- Infinity Unlimited: $35,000-50,000
- Battery Models: +$1,500-3,000 premium
- INOX Stainless Series: +$2,000-4,000 premium

**EXACT Consumables:**
- Cutting Blades: $80-200 per blade (material dependent)
- Roller Systems: $150-400 per set
- Battery Packs: $400-800 per unit

**Bulk Order Discounts:**
- 5-10 units: 5-10% discount
- 11-20 units: 10-15% discount
- 21-50 units: 15-20% discount
- 50+ units: 20-25% discount (negotiable)

**B2B Partnership Terms:**
- Exclusive distributors: Additional 5-10% discount
- Project-based (>$50k): Custom pricing
- Payment terms: 30-60 days net for verified partners

**Regional Pricing Adjustments:**
- Middle East: +5-10% (shipping/logistics)
- Southeast Asia: Standard pricing
- Europe: -5% (EXACT partnership)
- Other regions: Quote on request
`
