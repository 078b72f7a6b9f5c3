package retrieval

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/memweave/core"
)

// NoContextSentinel is returned by FormatContext when no facts are available.
// Callers must treat it as "no grounding available", not as an error.
const NoContextSentinel = "No relevant context found."

// contextHeader introduces the numbered fact blocks.
const contextHeader = "Relevant conversation context:"

// FormatContext renders the first maxItems results as a numbered context
// block for LLM consumption. Results are assumed ranked by the caller; order
// is preserved. Each fact renders as its own 1-based block, followed by an
// indented provenance line when CreatedAt is known, so facts containing
// newlines cannot break the numbering scheme.
//
// Pure and deterministic: no I/O, no mutation of inputs.
func FormatContext(results []core.SearchResult, maxItems int) string {
	if len(results) == 0 || maxItems <= 0 {
		return NoContextSentinel
	}

	if maxItems > len(results) {
		maxItems = len(results)
	}

	parts := []string{contextHeader}
	for i, result := range results[:maxItems] {
		parts = append(parts, fmt.Sprintf("\n%d. %s", i+1, result.Fact))
		if result.CreatedAt != nil {
			parts = append(parts, fmt.Sprintf("   (From: %s)", result.CreatedAt.Format(time.RFC3339)))
		}
	}

	return strings.Join(parts, "\n")
}
