package embedding

import "strings"

// MaxContextTokens is the reference embedding model's context limit minus
// the two special tokens it adds around the input.
const MaxContextTokens = 512 - 2

// TruncateTokens head-truncates text to at most maxTokens whitespace
// tokens. The same input always yields the same output, so an oversize
// unit embeds identically on re-ingestion.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = MaxContextTokens
	}
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}
