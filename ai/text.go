package ai

// emptyInputPlaceholder stands in for empty documents. Hosted embedding APIs
// reject empty input, but an empty post is still a valid index entry.
const emptyInputPlaceholder = " "

// PrepareTexts returns a copy of texts that is safe to send to an embedding
// API. Empty strings are replaced with a single space. The input slice is
// never modified.
func PrepareTexts(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		if text == "" {
			text = emptyInputPlaceholder
		}
		out[i] = text
	}
	return out
}
