package utils

// Truncate caps s at maxLen runes, appending an ellipsis when anything was
// cut. Rune-aware so multibyte titles don't get split mid-character.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
