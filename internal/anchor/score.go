package anchor

import "strings"

// ScoreWeights holds the additive scoring constants. They are empirically
// tuned defaults, not derived values; callers that need different behavior
// adjust the struct rather than the scoring code. The defaults must be kept
// as-is for compatibility with placements produced by earlier versions.
type ScoreWeights struct {
	FalsePositivePenalty float64 // text contains a party-label keyword
	PagePositionMax      float64 // linear bonus by (pageIndex+1)/totalPages
	LastPagesBonus       float64 // match on one of the last 2 pages
	HighPriorityBonus    float64 // matched keyword is high-priority
	SignatureLineBonus   float64 // underscore run among nearby items
	SectionHeaderBonus   float64 // nearby signature-section header
	ExactMatchBonus      float64 // trimmed text equals the keyword
	MidSentencePenalty   float64 // colon in the middle of the text
	HeaderTextBonus      float64 // text is itself a section header
}

// DefaultScoreWeights returns the tuned production constants.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		FalsePositivePenalty: -50,
		PagePositionMax:      35,
		LastPagesBonus:       20,
		HighPriorityBonus:    60,
		SignatureLineBonus:   45,
		SectionHeaderBonus:   50,
		ExactMatchBonus:      25,
		MidSentencePenalty:   -30,
		HeaderTextBonus:      40,
	}
}

// score computes the relevance of one (text item, keyword) match. All terms
// are summed into a single flat score with no normalization. text must
// already be trimmed and lowercased; nearby holds the lowercased text of up
// to 5 items before and 5 after the match on the same page.
func (w ScoreWeights) score(text, keyword string, pageIndex, totalPages int, nearby []string) float64 {
	score := 0.0

	for _, fp := range falsePositiveKeywords {
		if strings.Contains(text, fp) {
			score += w.FalsePositivePenalty
			break
		}
	}

	// Signatures cluster near the end of multi-page contracts.
	pageScore := float64(pageIndex+1) / float64(totalPages)
	score += pageScore * w.PagePositionMax

	if pageIndex >= totalPages-2 {
		score += w.LastPagesBonus
	}

	if highPriorityKeywords[strings.ToLower(keyword)] {
		score += w.HighPriorityBonus
	}

	for _, t := range nearby {
		if strings.Contains(t, "____") || strings.Contains(t, "___") {
			score += w.SignatureLineBonus
			break
		}
	}

	for _, t := range nearby {
		tl := strings.ToLower(t)
		if strings.Contains(tl, "assinaturas") || strings.Contains(tl, "signatures") ||
			tl == "assinaturas:" || tl == "signatures:" {
			score += w.SectionHeaderBonus
			break
		}
	}

	if text == strings.ToLower(keyword) && !isFalsePositiveExact(text) {
		score += w.ExactMatchBonus
	}

	// A colon mid-text means the keyword sits inside a sentence or a
	// labeled value ("nome do contratante: ..."), likely noise.
	if strings.Contains(text, ":") && !strings.HasSuffix(text, ":") && text != "assinaturas:" {
		score += w.MidSentencePenalty
	}

	if text == "assinaturas:" || text == "assinatura:" || text == "signatures:" {
		score += w.HeaderTextBonus
	}

	return score
}
