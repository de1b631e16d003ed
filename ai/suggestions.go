package ai

import "strings"

// MaxSuggestions bounds the follow-up questions attached to a reply
const MaxSuggestions = 2

// FollowUpQuestions returns the question sentences that close the reply, in order, at most max of them
func FollowUpQuestions(text string, max int) []string {
	sentences := splitSentences(text)

	var out []string
	for i := len(sentences) - 1; i >= 0 && len(out) < max; i-- {
		s := sentences[i]
		if !isQuestion(s) {
			break
		}
		out = append(out, s)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' && r != '\n' {
			continue
		}
		// keep runs like "?!" or "..." together
		if i+1 < len(runes) && strings.ContainsRune(".!?", runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isQuestion(s string) bool {
	return strings.HasSuffix(strings.TrimRight(s, "!"), "?")
}
