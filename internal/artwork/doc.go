// Package artwork renders the typographic cover card: the podcast title over
// a dark background with the wrapped summary below it.
package artwork
