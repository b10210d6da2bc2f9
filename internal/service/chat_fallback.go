package service

import "strings"

// Canned assistant replies used when the model is unavailable. Keyword groups
// are checked in order; the first match wins.

const fallbackExactReply = `Thank you for your interest in EXACT pipe cutting equipment!

We offer a complete range:
• PipeCut 170E: 15-170mm, lightweight, battery model ($3,500-4,500)
• PipeCut 360 Pro: 100-360mm, bestseller ($12,000-16,000)
• PipeCut 460 Pro: 200-460mm, heavy-duty ($18,000-24,000)
• Infinity: Unlimited diameter ($35,000-50,000)

For an accurate quote, please visit our AI Quote page or provide:
- Pipe material (steel/stainless/plastic)
- Diameter range
- Quantity needed

How can I help you further?`

const fallbackThreeMReply = `We are an official 3M distributor offering:

• VHB Structural Tape: Permanent bonding ($50-200/roll)
• Industrial Tapes: Double-sided, electrical insulation ($20-80/roll)
• Abrasives: Cubitron II, sanding discs ($30-300/box)
• Safety Equipment: Respirators, safety glasses ($10-60/unit)

Bulk discounts available for orders of 5+ units.

Would you like a quote for a specific product?`

const fallbackQuoteReply = `I'd be happy to help you with a quote!

For the most accurate pricing, please visit our AI Quote page where you can:
1. Select your product type
2. Enter quantity and specifications
3. Get instant price estimates (3 seconds!)

Alternatively, you can tell me:
- Product type (EXACT equipment or 3M products)
- Quantity needed
- Your country/region

What would you prefer?`

const fallbackPartnershipReply = `Excellent! We're always looking for reliable B2B partners worldwide.

Our partnership models:
• Official Distribution: Exclusive regional rights
• OEM/ODM: Products under your brand
• Project-Based: Large-scale plant/construction projects

To proceed, I'll need some information:
- Your company name
- Country/region
- Type of partnership you're interested in
- Email address for follow-up

Could you share these details?`

const fallbackDefaultReply = `Hello! I'm the Daedong AI Assistant. I'm currently running in offline mode, but I can still help you with:

• Product information (EXACT pipe cutting, 3M industrial products)
• General pricing guidance
• Partnership inquiries
• Connecting you with our sales team

How can I assist you today?

Note: For full AI capabilities, please check back later or contact us directly at info@daedong-rise.com.`

// fallbackGroups pairs keyword sets with their canned reply, in match order.
var fallbackGroups = []struct {
	keywords []string
	reply    string
}{
	{[]string{"exact", "pipecut", "pipe"}, fallbackExactReply},
	{[]string{"3m", "tape", "adhesive"}, fallbackThreeMReply},
	{[]string{"quote", "price", "cost"}, fallbackQuoteReply},
	{[]string{"partnership", "partner", "b2b"}, fallbackPartnershipReply},
}

// cannedReply returns the deterministic assistant reply for a user message.
func cannedReply(message string) string {
	lower := strings.ToLower(message)
	for _, group := range fallbackGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.reply
			}
		}
	}
	return fallbackDefaultReply
}
