// Package retrieval turns memory engine search results into bounded grounding
// text for prompt assembly. It contains two collaborating pieces:
//
//   - FormatContext, a pure function rendering ranked facts as a numbered
//     context block with optional provenance lines
//   - Retriever, a best-effort query layer that fans out to the engine,
//     discards blank facts, deduplicates on trimmed fact text and caps the
//     result count
//
// Retrieval is deliberately forgiving: engine failures are logged and
// swallowed so memory features never break the primary conversational
// function. Ranking stays with the engine; this package preserves the
// engine's relative order.
package retrieval
