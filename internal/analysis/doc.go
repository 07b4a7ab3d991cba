// Package analysis implements the first pipeline stage: it sends a biblical
// thought to the configured LLM, validates the structured answer and creates
// the podcast folder holding input.txt, context_analysis.json and
// description.md.
package analysis
