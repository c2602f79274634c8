// Package anchor locates likely signature-field positions in extracted PDF
// text. It scans a bounded number of pages for keyword matches and ranks
// every candidate with an additive heuristic score; the caller either takes
// the best match or shows the ranked list for review. Absence of a match is
// a normal outcome, not an error; most documents end up in manual
// placement.
package anchor

import (
	"sort"
	"strings"
)

// DefaultMaxPages bounds the scan. Signature fields past this window are
// never auto-detected; the cap is a deliberate cost ceiling for large
// documents, not an oversight.
const DefaultMaxPages = 8

// Fallback dimensions for text items whose extraction reported a zero width
// or height.
const (
	fallbackItemWidth  = 200.0
	fallbackItemHeight = 20.0
)

// Candidate position clamp margins, in page units. They keep the derived
// signature box away from the page edges.
const (
	clampMargin       = 50.0
	clampRightInset   = 250.0
	clampBottomInset  = 130.0
	minItemTextLength = 2
)

// TextItem is one positioned text run produced by extraction. X and Y are
// top-down viewport coordinates (origin top-left) in the page's point space.
type TextItem struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page holds the extracted text of one page together with its viewport
// dimensions at scale 1.0 (the page size in points).
type Page struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Items  []TextItem `json:"items"`
}

// Document is the detector's input: pages in document order. TotalPages is
// the document's real page count, which may exceed len(Pages) when the
// extraction was already bounded.
type Document struct {
	TotalPages int    `json:"total_pages"`
	Pages      []Page `json:"pages"`
}

// Match is a scored candidate anchor. X and Y are the clamped candidate
// position for the signature box, not the raw text position.
type Match struct {
	Text      string  `json:"text"`
	PageIndex int     `json:"page_index"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Score     float64 `json:"score"`
}

// Anchor is a match with its score stripped, the form handed to callers
// outside the detector.
type Anchor struct {
	Text      string  `json:"text"`
	PageIndex int     `json:"page_index"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// KeywordStore persists user-defined keywords. Get is consulted at the
// start of every detection run so edits take effect on the next call.
type KeywordStore interface {
	Get() []string
	Set(keywords []string) error
}

// Detector scans extracted text for signature anchors.
type Detector struct {
	weights  ScoreWeights
	store    KeywordStore
	maxPages int
}

// NewDetector creates a detector with the given keyword store. A nil store
// means defaults only.
func NewDetector(store KeywordStore, maxPages int) *Detector {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Detector{
		weights:  DefaultScoreWeights(),
		store:    store,
		maxPages: maxPages,
	}
}

// Keywords returns the active keyword set: defaults plus whatever the store
// currently holds.
func (d *Detector) Keywords() []string {
	keywords := make([]string, 0, len(DefaultKeywords))
	keywords = append(keywords, DefaultKeywords...)
	if d.store != nil {
		keywords = append(keywords, d.store.Get()...)
	}
	return keywords
}

// FindAll returns every candidate anchor in the document, sorted by score
// descending. Sorting is stable, so ties keep discovery order: page order,
// then in-page item order, then keyword order. A text item matching several
// keywords produces one entry per keyword; duplicates are intentionally not
// collapsed, since only the top entry matters to callers and each keyword
// scores independently.
//
// An empty result is the expected outcome for documents without matches or
// without extractable text.
func (d *Detector) FindAll(doc Document) []Match {
	var matches []Match

	keywords := d.Keywords()

	pagesToCheck := len(doc.Pages)
	if pagesToCheck > d.maxPages {
		pagesToCheck = d.maxPages
	}

	for i := 0; i < pagesToCheck; i++ {
		page := doc.Pages[i]

		allText := make([]string, len(page.Items))
		for j, item := range page.Items {
			allText[j] = strings.ToLower(item.Text)
		}

		for j, item := range page.Items {
			text := strings.ToLower(strings.TrimSpace(item.Text))
			if len([]rune(text)) < minItemTextLength {
				continue
			}

			// Context window: 5 items before, 5 after.
			lo := j - 5
			if lo < 0 {
				lo = 0
			}
			hi := j + 6
			if hi > len(allText) {
				hi = len(allText)
			}
			nearby := allText[lo:hi]

			for _, keyword := range keywords {
				keywordLower := strings.ToLower(keyword)
				if text != keywordLower && !strings.Contains(text, keywordLower) {
					continue
				}

				matches = append(matches, d.buildMatch(item, text, keyword, i, doc.TotalPages, page, nearby))
			}
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	return matches
}

// FindBest returns the highest-scored anchor with its score stripped, or
// nil when the document has no candidates.
func (d *Detector) FindBest(doc Document) *Anchor {
	matches := d.FindAll(doc)
	if len(matches) == 0 {
		return nil
	}

	best := matches[0]
	return &Anchor{
		Text:      best.Text,
		PageIndex: best.PageIndex,
		X:         best.X,
		Y:         best.Y,
		Width:     best.Width,
		Height:    best.Height,
	}
}

// buildMatch computes the clamped candidate position and score for one
// (item, keyword) pair.
func (d *Detector) buildMatch(item TextItem, text, keyword string, pageIndex, totalPages int,
	page Page, nearby []string,
) Match {
	height := item.Height
	if height == 0 {
		height = fallbackItemHeight
	}
	width := item.Width
	if width == 0 {
		width = fallbackItemWidth
	}

	x := item.X
	y := item.Y

	// Signature-line keywords anchor on the line itself; label keywords
	// shift the box below the label text.
	if !strings.Contains(keyword, "_") {
		y += height
	}

	x = clamp(x, clampMargin, page.Width-clampRightInset)
	y = clamp(y, clampMargin, page.Height-clampBottomInset)

	return Match{
		Text:      item.Text,
		PageIndex: pageIndex,
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		Score:     d.weights.score(text, keyword, pageIndex, totalPages, nearby),
	}
}

// clamp bounds v to [lo, hi]. When hi < lo (a page narrower than the
// insets) lo wins, matching max(lo, min(v, hi)).
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
