package services

// Token estimation for context budgeting. A tokenizer round-trip per message
// would dominate turn latency, so we use the ~4 characters per token rule
// that OpenAI documents for English text. Estimates skew slightly high for
// Hinglish, which errs on the safe side of the context ceiling.

// messageTokenOverhead accounts for the role and separator tokens the API
// adds around every message.
const messageTokenOverhead = 4

// CountTokens estimates the token count of a text
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// CountMessageTokens estimates the cost of one chat message including the
// per-message framing overhead.
func CountMessageTokens(content string) int {
	return CountTokens(content) + messageTokenOverhead
}
