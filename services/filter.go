package services

import (
	"strings"

	"idealista-watcher/config"
	"idealista-watcher/models"
)

// Filter decides whether a listing is wanted and how it should be framed.
// Rules run in a fixed order and the first exclusion that matches wins:
// floor, then area (title or description), then term (description only).
type Filter struct {
	floors     []string
	areas      []string
	terms      []string
	highlights []string
}

// NewFilter builds a Filter from the configured term lists.
func NewFilter(f config.Filters) *Filter {
	return &Filter{
		floors:     lowerAll(f.ExcludedFloors),
		areas:      lowerAll(f.ExcludedAreas),
		terms:      lowerAll(f.ExcludedTerms),
		highlights: lowerAll(f.HighlightTerms),
	}
}

// Evaluate returns whether l passes every exclusion rule, and the rule that
// dropped it otherwise.
func (f *Filter) Evaluate(l *models.Listing) (bool, models.DropReason) {
	floor := strings.ToLower(l.Floor)
	title := strings.ToLower(l.Title)
	desc := strings.ToLower(l.Description)

	if containsAny(floor, f.floors) {
		return false, models.DropFloor
	}
	if containsAny(title, f.areas) || containsAny(desc, f.areas) {
		return false, models.DropArea
	}
	if containsAny(desc, f.terms) {
		return false, models.DropTerm
	}
	return true, models.DropNone
}

// ShouldNotify reports whether l survives all exclusion rules.
func (f *Filter) ShouldNotify(l *models.Listing) bool {
	ok, _ := f.Evaluate(l)
	return ok
}

// Classify marks l as highlighted when its title or description mentions a
// highlight term. It never affects whether l is sent.
func (f *Filter) Classify(l *models.Listing) models.Classification {
	if containsAny(strings.ToLower(l.Title), f.highlights) ||
		containsAny(strings.ToLower(l.Description), f.highlights) {
		return models.Highlighted
	}
	return models.Standard
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
