// Package classify sorts domains into productive, distracting and neutral
// categories for reporting. Time accounting never depends on it.
package classify

import "context"

// Category is the classification of a domain.
type Category string

const (
	Productive  Category = "productive"
	Distracting Category = "distracting"
	Neutral     Category = "neutral"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Productive, Distracting, Neutral:
		return true
	}
	return false
}

// Classifier assigns a category to a domain.
type Classifier interface {
	Classify(ctx context.Context, domain string) Category
}

// Func adapts an ordinary function to the Classifier interface.
type Func func(ctx context.Context, domain string) Category

// Classify calls f(ctx, domain).
func (f Func) Classify(ctx context.Context, domain string) Category {
	return f(ctx, domain)
}
