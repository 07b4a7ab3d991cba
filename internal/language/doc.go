// Package language detects whether a biblical thought is written in Russian
// or English and maps the result to BCP 47 tags used for narration voices,
// YouTube metadata and title casing.
package language
