package query

import (
	"fmt"
	"strconv"
	"strings"
)

// maxCitationsPerTheme bounds how many citations a theme lists.
const maxCitationsPerTheme = 3

// Theme is a keyword-driven topic grouping over retrieved passages.
type Theme struct {
	// Name is the theme label.
	Name string `json:"name"`

	// Description is a one-line description of the theme.
	Description string `json:"description"`

	// Citations are "filename (page 1, 2)" references, at most three.
	Citations []string `json:"citations"`
}

// ThemeRule maps a theme name to the keywords that trigger it.
type ThemeRule struct {
	Name     string
	Keywords []string
}

// DefaultThemeRules returns the built-in theme table, tuned for
// regulatory and legal document sets.
func DefaultThemeRules() []ThemeRule {
	return []ThemeRule{
		{
			Name:     "Regulatory Non-Compliance",
			Keywords: []string{"non-compliance", "violation", "regulation", "SEBI", "LODR"},
		},
		{
			Name:     "Penalty Justification",
			Keywords: []string{"penalty", "fine", "sanction", "statutory"},
		},
		{
			Name:     "Legal Framework",
			Keywords: []string{"act", "law", "clause", "section"},
		},
	}
}

// identifyThemes matches the theme rules against the passages. A theme
// fires when any of its keywords appears in a passage; each matching
// passage contributes one citation, capped at maxCitationsPerTheme.
func identifyThemes(rules []ThemeRule, passages []Passage) []Theme {
	if len(passages) == 0 {
		return nil
	}

	var themes []Theme
	for _, rule := range rules {
		var citations []string
		for _, p := range passages {
			if matchesAny(p.Text, rule.Keywords) {
				citations = append(citations, citation(p))
			}
		}
		if len(citations) == 0 {
			continue
		}
		if len(citations) > maxCitationsPerTheme {
			citations = citations[:maxCitationsPerTheme]
		}
		themes = append(themes, Theme{
			Name:        rule.Name,
			Description: fmt.Sprintf("Documents discussing %s.", strings.ToLower(rule.Name)),
			Citations:   citations,
		})
	}
	return themes
}

func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// citation renders a passage reference as "filename (page 1, 2)".
func citation(p Passage) string {
	if len(p.Pages) == 0 {
		return p.Filename
	}
	parts := make([]string, len(p.Pages))
	for i, page := range p.Pages {
		parts[i] = strconv.Itoa(page)
	}
	return fmt.Sprintf("%s (page %s)", p.Filename, strings.Join(parts, ", "))
}
