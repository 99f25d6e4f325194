package content

import "seoforge/internal/core"

// Section is one block of a fixed outline with its approximate word budget.
type Section struct {
	Title string
	Words int
	Notes string
}

// Outline is the fixed structure used when the brief has no competitor data.
type Outline struct {
	Name     string
	Sections []Section
}

var outlines = map[string]Outline{
	string(core.GuideHowTo): {
		Name: "How-to guide",
		Sections: []Section{
			{"Introduction", 150, "State the outcome the reader will reach and who this is for"},
			{"What you need before you start", 200, "Prerequisites, tools, accounts, time required"},
			{"Step-by-step instructions", 900, "Numbered H3 steps, one action per step, with expected result"},
			{"Common mistakes and how to fix them", 300, "Concrete failure modes"},
			{"Tips for better results", 200, "Advanced or time-saving advice"},
			{"FAQ", 200, "3-5 short questions and answers"},
			{"Conclusion", 100, "Recap and next step"},
		},
	},
	string(core.GuideExplainer): {
		Name: "Explainer guide",
		Sections: []Section{
			{"Introduction", 150, "Hook and a one-sentence definition"},
			{"What it is", 300, "Plain-language definition with an example"},
			{"How it works", 400, "Mechanics, broken into H3 subsections"},
			{"Why it matters", 300, "Benefits and impact with numbers where possible"},
			{"Use cases", 300, "Three or more concrete scenarios"},
			{"Limitations and misconceptions", 200, ""},
			{"FAQ", 200, "3-5 short questions and answers"},
			{"Conclusion", 100, "Key takeaway"},
		},
	},
	string(core.GuideComparison): {
		Name: "Comparison guide",
		Sections: []Section{
			{"Introduction", 150, "What is being compared and for whom"},
			{"Quick verdict", 150, "Who should pick which option"},
			{"Comparison table", 150, "Markdown table of the key criteria"},
			{"Feature-by-feature breakdown", 600, "One H3 per criterion"},
			{"Pricing", 250, ""},
			{"Pros and cons", 300, "Bullets for each option"},
			{"Which one should you choose", 200, "Decision guidance by reader profile"},
			{"FAQ", 200, ""},
		},
	},
	string(core.GuideReference): {
		Name: "Reference guide",
		Sections: []Section{
			{"Overview", 150, "Scope of this reference"},
			{"Key terms", 300, "Definitions list"},
			{"Core concepts", 600, "One H3 per concept"},
			{"Quick reference table", 200, "Markdown table"},
			{"Best practices", 300, ""},
			{"Further reading", 100, "Where to go deeper"},
		},
	},
	string(core.ListicleRoundUp): {
		Name: "Round-up listicle",
		Sections: []Section{
			{"Introduction", 150, "Why this list and how items were chosen"},
			{"Quick picks", 150, "Short summary list of the winners"},
			{"The list", 1100, "One H3 per item: what it is, best for, key features, pricing, drawback"},
			{"How to choose", 250, "Selection criteria"},
			{"FAQ", 200, ""},
			{"Conclusion", 100, ""},
		},
	},
	string(core.ListicleResources): {
		Name: "Resources listicle",
		Sections: []Section{
			{"Introduction", 150, "Who these resources help"},
			{"Free resources", 500, "One H3 per resource with what you will learn"},
			{"Paid resources", 500, "One H3 per resource with price and value"},
			{"Communities and further learning", 250, ""},
			{"How to get the most out of these resources", 200, ""},
			{"Conclusion", 100, ""},
		},
	},
	string(core.ListicleExamples): {
		Name: "Examples listicle",
		Sections: []Section{
			{"Introduction", 150, "What makes a good example"},
			{"The examples", 1200, "One H3 per example: what it is, why it works, what to copy"},
			{"Patterns across the examples", 250, ""},
			{"How to create your own", 250, "Actionable steps"},
			{"Conclusion", 100, ""},
		},
	},
}

// OutlineFor returns the fixed outline for a request. A missing subtype
// defaults to explainer for guides and round-up for listicles.
func OutlineFor(req core.ArticleRequest) Outline {
	key := req.Subtype()
	if key == "" {
		if req.ContentType == core.ContentTypeListicle {
			key = string(core.ListicleRoundUp)
		} else {
			key = string(core.GuideExplainer)
		}
	}
	if o, ok := outlines[key]; ok {
		return o
	}
	return outlines[string(core.GuideExplainer)]
}

// LengthBand maps a length bucket to its word band. Unknown and empty
// buckets map to medium.
func LengthBand(l core.TargetLength) core.WordBand {
	switch l {
	case core.LengthShort:
		return core.WordBand{Min: 1200, Max: 1600}
	case core.LengthLong:
		return core.WordBand{Min: 2400, Max: 3200}
	case core.LengthComprehensive:
		return core.WordBand{Min: 3200, Max: 4200}
	default:
		return core.WordBand{Min: 1600, Max: 2400}
	}
}
