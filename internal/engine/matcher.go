package engine

import (
	"regexp"
	"strings"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

var tokenStrip = regexp.MustCompile(`[^a-z0-9\s]`)

// Tokenize lowercases text, strips everything outside [a-z0-9\s],
// splits on whitespace and drops tokens shorter than three characters.
func Tokenize(text string) []string {
	norm := tokenStrip.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(norm)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// MatchCategory scores a free-text description against the catalog and
// returns the best-matching category, or nil when no candidate reaches
// the confidence threshold. Pure function of its inputs; empty text or
// an empty catalog yields nil.
//
// Scoring per input token: +2 when the category's token pool (name +
// description) contains it exactly, plus +0.5 for every pool token in
// a substring relation with it, in either direction. An exact hit is
// its own substring, so exact and partial bonuses stack; many weak
// partial hits can outscore a single exact one. That is the shipped
// heuristic and categorization outcomes depend on it.
func MatchCategory(description string, catalog []domain.Category) *domain.Category {
	tokens := Tokenize(description)
	if len(tokens) == 0 || len(catalog) == 0 {
		return nil
	}

	var best *domain.Category
	bestScore := 0.0

	for i := range catalog {
		cat := &catalog[i]
		pool := Tokenize(cat.Name + " " + cat.Description)
		if len(pool) == 0 {
			continue
		}
		exact := make(map[string]struct{}, len(pool))
		for _, p := range pool {
			exact[p] = struct{}{}
		}

		score := 0.0
		for _, tok := range tokens {
			if _, ok := exact[tok]; ok {
				score += 2
			}
			for _, p := range pool {
				if strings.Contains(p, tok) || strings.Contains(tok, p) {
					score += 0.5
				}
			}
		}

		// strict comparison: ties go to the earliest catalog entry
		if score > bestScore {
			bestScore = score
			best = cat
		}
	}

	if bestScore < 1 {
		return nil
	}
	return best
}
