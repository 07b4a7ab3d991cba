// Package textutil provides text helpers shared by the pipeline stages:
// token fingerprints with cosine similarity for spotting near-duplicate
// thoughts, rune-safe truncation, hashtag building and filename sanitizing.
//
// Tokenization is Unicode aware so Russian and English text compare the same
// way; tokens shorter than three runes are ignored.
package textutil
