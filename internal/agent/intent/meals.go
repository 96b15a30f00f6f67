// internal/agent/intent/meals.go
package intent

import (
	"regexp"
	"strings"

	"household-agent/internal/agent/core"
	"household-agent/internal/agent/datetime"
)

type mealPattern struct {
	re             *regexp.Regexp
	baseConfidence float64
	extract        func(p *MealParser, raw string, m []string, rc core.RunContext, base float64) Intent
}

// MealParser recognizes meal planning and shopping list commands.
type MealParser struct {
	resolver *datetime.Resolver
	clock    core.Clock
	patterns []mealPattern
}

var (
	mealKeywordsRe = regexp.MustCompile(`\b(meal|meals|dinner|lunch|breakfast|recipe|recipes|shopping|grocery|groceries|buy|cook|eat|ingredient|ingredients)\b`)
	itemSplitRe    = regexp.MustCompile(`\s*(?:,|\band\b)\s*`)
)

func NewMealParser(resolver *datetime.Resolver, clock core.Clock) *MealParser {
	p := &MealParser{resolver: resolver, clock: clock}
	p.patterns = []mealPattern{
		{
			re:             regexp.MustCompile(`^(?:remove|take)\s+(.+?)\s+(?:off|from)\s+(?:the\s+)?(?:shopping|grocery)\s+list$`),
			baseConfidence: 0.85,
			extract:        extractRemoveShopping,
		},
		{
			re:             regexp.MustCompile(`^(?:show|list|what(?:'s| is)\s+on)\s+(?:the\s+|my\s+|our\s+)?(?:shopping|grocery)\s+list\??$`),
			baseConfidence: 0.95,
			extract:        extractListShopping,
		},
		{
			re:             regexp.MustCompile(`^add\s+(.+?)\s+to\s+(?:the\s+)?(?:shopping|grocery)\s+list$`),
			baseConfidence: 0.90,
			extract:        extractAddShopping,
		},
		{
			re:             regexp.MustCompile(`^(?:buy|get|pick up|we need|need)\s+(.+)$`),
			baseConfidence: 0.80,
			extract:        extractAddShopping,
		},
		{
			re:             regexp.MustCompile(`^save\s+(?:the\s+|that\s+|this\s+)?(?:meal\s+)?plan$`),
			baseConfidence: 0.90,
			extract:        extractSavePlan,
		},
		{
			re:             regexp.MustCompile(`(?:plan|generate|make|create)\b.*\bmeals?\b|\bmeal\s+plan\b`),
			baseConfidence: 0.85,
			extract:        extractGeneratePlan,
		},
	}
	return p
}

func (p *MealParser) Domain() string { return "meals" }

func (p *MealParser) Matches(message string) bool {
	return mealKeywordsRe.MatchString(strings.ToLower(message))
}

func (p *MealParser) Parse(message string, rc core.RunContext) Intent {
	raw := strings.TrimSpace(message)
	lower := strings.ToLower(raw)

	for _, entry := range p.patterns {
		if m := entry.re.FindStringSubmatch(lower); m != nil {
			return entry.extract(p, raw, m, rc, entry.baseConfidence)
		}
	}

	return Intent{Domain: "meals", Kind: KindUnclear, Confidence: 0}
}

func extractAddShopping(p *MealParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	return Intent{
		Domain:     "meals",
		Kind:       KindAddShopping,
		Confidence: base,
		Items:      splitItems(m[1]),
	}
}

func extractRemoveShopping(p *MealParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	return Intent{
		Domain:     "meals",
		Kind:       KindRemoveShopping,
		Confidence: base,
		Items:      splitItems(m[1]),
	}
}

func extractListShopping(p *MealParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	return Intent{Domain: "meals", Kind: KindListShopping, Confidence: base}
}

func extractSavePlan(p *MealParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	return Intent{Domain: "meals", Kind: KindSavePlan, Confidence: base}
}

func extractGeneratePlan(p *MealParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	it := Intent{Domain: "meals", Kind: KindGeneratePlan, Confidence: base}

	lower := strings.ToLower(raw)
	rng, ok := p.resolver.ResolveRange(lower, p.clock.Now(), rc.Timezone)
	if !ok {
		// Default to the upcoming week when no range phrase is present.
		rng, _ = p.resolver.ResolveRange("next week", p.clock.Now(), rc.Timezone)
	}
	from, to := rng.From, rng.To
	it.RangeFrom = &from
	it.RangeTo = &to
	return it
}

func splitItems(list string) []string {
	parts := itemSplitRe.Split(list, -1)
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
