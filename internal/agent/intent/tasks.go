// internal/agent/intent/tasks.go
package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"household-agent/internal/agent/core"
	"household-agent/internal/agent/datetime"
)

type taskPattern struct {
	re             *regexp.Regexp
	baseConfidence float64
	extract        func(p *TaskParser, raw string, m []string, rc core.RunContext, base float64) Intent
}

// TaskParser recognizes task commands: create, complete, delete, list.
type TaskParser struct {
	resolver *datetime.Resolver
	clock    core.Clock
	patterns []taskPattern
}

var (
	taskKeywordsRe  = regexp.MustCompile(`\b(task|tasks|todo|todos|to-do|remind|chore|chores)\b`)
	priorityRe      = regexp.MustCompile(`(?i)\b(urgent|high priority|low priority)\b`)
	assigneeRe      = regexp.MustCompile(`(?:\bfor\b|\bassign(?:ed)? to\b|\bto\b)\s+([A-Z][a-z]+)\b`)
	titleSeparators = regexp.MustCompile(`\s{2,}`)
)

func NewTaskParser(resolver *datetime.Resolver, clock core.Clock) *TaskParser {
	p := &TaskParser{resolver: resolver, clock: clock}
	p.patterns = []taskPattern{
		{
			re:             regexp.MustCompile(`^create a task:?\s+(.+)$`),
			baseConfidence: 0.95,
			extract:        extractCreateTask,
		},
		{
			re:             regexp.MustCompile(`^(?:add|create|make)\s+(?:a\s+)?(?:new\s+)?task\s+(?:to\s+|for\s+)?(.+)$`),
			baseConfidence: 0.90,
			extract:        extractCreateTask,
		},
		{
			re:             regexp.MustCompile(`^remind me to\s+(.+)$`),
			baseConfidence: 0.90,
			extract:        extractCreateTask,
		},
		{
			re:             regexp.MustCompile(`^(?:complete|finish|mark(?:\s+off)?)\s*:?\s+(.+?)(?:\s+(?:as\s+)?done)?$`),
			baseConfidence: 0.85,
			extract:        extractCompleteTask,
		},
		{
			re:             regexp.MustCompile(`^(?:delete|remove|cancel)\s+(?:the\s+)?task:?\s+(.+)$`),
			baseConfidence: 0.85,
			extract:        extractDeleteTask,
		},
		{
			re:             regexp.MustCompile(`(?:show|list|what(?:'s| is| are)?)\b.*\b(?:tasks|todos|to-dos|chores)\b`),
			baseConfidence: 0.95,
			extract:        extractListTasks,
		},
	}
	return p
}

func (p *TaskParser) Domain() string { return "tasks" }

func (p *TaskParser) Matches(message string) bool {
	return taskKeywordsRe.MatchString(strings.ToLower(message))
}

func (p *TaskParser) Parse(message string, rc core.RunContext) Intent {
	raw := strings.TrimSpace(message)
	lower := strings.ToLower(raw)

	for _, entry := range p.patterns {
		if m := entry.re.FindStringSubmatch(lower); m != nil {
			return entry.extract(p, raw, m, rc, entry.baseConfidence)
		}
	}

	// Task-like free text falls back to an implicit create at reduced
	// confidence, which routes it through the confirmation gate.
	if p.Matches(lower) {
		return extractCreateTask(p, raw, []string{raw, raw}, rc, 0.60)
	}

	return Intent{Domain: "tasks", Kind: KindUnclear, Confidence: 0}
}

func extractCreateTask(p *TaskParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	// m[1] is lower-cased; recover the original-case slice so the title
	// and assignee keep their capitalization.
	remainder := raw[len(raw)-len(m[1]):]
	confidence := base

	it := Intent{Domain: "tasks", Kind: KindCreate, Confidence: base}

	res := p.resolver.Resolve(remainder, p.clock.Now(), rc.Timezone)
	title := remainder
	if res.Instant != nil {
		if res.Confident {
			it.DueDate = res.Instant
			title = stripPhrase(title, res.MatchedText)
		} else {
			// Keep the ambiguous phrase in the title and ask.
			it.DueDate = res.Instant
			it.NeedsClarification = ClarifyDate
			confidence *= discountUnconfidentDate
		}
	}

	if pm := priorityRe.FindString(title); pm != "" {
		switch strings.ToLower(pm) {
		case "urgent", "high priority":
			it.Priority = "high"
		case "low priority":
			it.Priority = "low"
		}
		title = stripPhrase(title, pm)
	}

	if am := assigneeRe.FindStringSubmatch(title); am != nil {
		it.Assignee = am[1]
		title = stripPhrase(title, am[0])
	}

	title = cleanTitle(title)
	it.Title = title

	if utf8.RuneCountInString(title) < 5 {
		confidence *= discountShortTitle
	}
	if strings.Contains(title, "?") {
		confidence *= discountQuestion
	}
	it.Confidence = confidence
	return it
}

func extractCompleteTask(p *TaskParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	return Intent{
		Domain:     "tasks",
		Kind:       KindComplete,
		Confidence: base,
		Title:      cleanTitle(m[1]),
	}
}

func extractDeleteTask(p *TaskParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	return Intent{
		Domain:     "tasks",
		Kind:       KindDelete,
		Confidence: base,
		Title:      cleanTitle(m[1]),
	}
}

func extractListTasks(p *TaskParser, raw string, m []string, rc core.RunContext, base float64) Intent {
	it := Intent{Domain: "tasks", Kind: KindList, Confidence: base}
	if am := assigneeRe.FindStringSubmatch(raw); am != nil {
		it.Assignee = am[1]
	}
	return it
}

// stripPhrase removes the first case-insensitive occurrence of phrase.
func stripPhrase(text, phrase string) string {
	if phrase == "" {
		return text
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(phrase))
	if idx < 0 {
		return text
	}
	return text[:idx] + text[idx+len(phrase):]
}

func cleanTitle(title string) string {
	title = titleSeparators.ReplaceAllString(title, " ")
	title = strings.Trim(title, " \t.,:;-")
	// Drop a dangling connective left behind by phrase stripping.
	for _, suffix := range []string{" at", " on", " by", " for", " to"} {
		title = strings.TrimSuffix(title, suffix)
	}
	return strings.TrimSpace(title)
}
