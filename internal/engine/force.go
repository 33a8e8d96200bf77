package engine

import (
	"strings"

	"github.com/steuerflow/steuerflow/internal/model"
)

// forceRule pins a vendor to a category regardless of what the classifier
// suggested. Force overrides are authoritative: they never trigger review.
type forceRule struct {
	Name     string
	Category string
	Domains  []string
	Keyword  string
}

// forceRules is checked in order; the first match wins. Deny rules (personal
// services that are never deductible) come before allow rules.
var forceRules = []forceRule{
	{Name: "Netflix", Category: model.CategoryNone, Domains: []string{"netflix.com"}},
	{Name: "Spotify", Category: model.CategoryNone, Domains: []string{"spotify.com"}},
	{Name: "Disney+", Category: model.CategoryNone, Domains: []string{"disneyplus.com"}},
	{Name: "Steam", Category: model.CategoryNone, Domains: []string{"steampowered.com"}},
	{Name: "Prime Video", Category: model.CategoryNone, Domains: []string{"primevideo.com"}, Keyword: "prime video"},

	{Name: "Hetzner", Category: model.CategoryFull, Domains: []string{"hetzner.com", "hetzner.de"}},
	{Name: "GitHub", Category: model.CategoryFull, Domains: []string{"github.com"}},
	{Name: "JetBrains", Category: model.CategoryFull, Domains: []string{"jetbrains.com"}},
}

// findForceOverride returns the forced category for a vendor, if any.
func findForceOverride(senderDomain, subject, snippet string) (forceRule, bool) {
	domain := strings.ToLower(strings.TrimSpace(senderDomain))
	text := strings.ToLower(subject + " " + snippet)

	for _, rule := range forceRules {
		for _, d := range rule.Domains {
			if domain == d || strings.HasSuffix(domain, "."+d) {
				return rule, true
			}
		}
		if rule.Keyword != "" && strings.Contains(text, rule.Keyword) {
			return rule, true
		}
	}
	return forceRule{}, false
}
