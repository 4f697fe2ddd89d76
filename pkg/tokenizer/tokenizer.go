package tokenizer

import "unicode/utf8"

// Counter estimates or computes the token count of a text. The default
// implementation is an approximation; an exact sub-word tokenizer can be
// plugged in wherever a Counter is accepted.
type Counter interface {
	Count(text string) int
}

// Approximate counts tokens as ceil(characters / 4), which tracks English
// prose closely enough for chunk budgeting.
type Approximate struct{}

func (Approximate) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// CountTokens is a convenience wrapper around the default approximate counter.
func CountTokens(text string) int {
	return Approximate{}.Count(text)
}
