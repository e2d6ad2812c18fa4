// Package tokens provides token counting for working-memory accounting.
//
// Counting is injected as a pure function so the engine never depends on a
// particular tokenizer. The default Estimate is a chars/4 heuristic which is
// good enough for budget accounting; callers with a real tokenizer can plug
// it in anywhere a Counter is accepted.
package tokens

// Counter counts the tokens in a piece of text. Implementations must be pure:
// the same text always yields the same count.
type Counter func(text string) int

// Estimate approximates a token count as ceil(len/4).
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
