package profile

import (
	"strings"
)

const bareAnswerMaxWords = 5

var (
	levelQuestionCues = []string{"niveau d'études", "niveau d'etudes", "ton niveau", "votre niveau"}
	cityQuestionCues  = []string{"quelle ville", "ta ville", "votre ville", "où habites", "ou habites", "où vis-tu", "d'où viens"}
)

// LastAssistantTurn returns the most recent non-error bot message.
func LastAssistantTurn(history []Turn) (Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == SenderBot && !history[i].IsError {
			return history[i], true
		}
	}
	return Turn{}, false
}

// AskedForLevel reports whether the last assistant turn asked for the study
// level.
func AskedForLevel(history []Turn) bool {
	return lastAsked(history, levelQuestionCues)
}

// AskedForCity reports whether the last assistant turn asked where the user
// lives.
func AskedForCity(history []Turn) bool {
	return lastAsked(history, cityQuestionCues)
}

func lastAsked(history []Turn, cues []string) bool {
	t, ok := LastAssistantTurn(history)
	if !ok || !strings.Contains(t.Text, "?") {
		return false
	}
	text := normalize(t.Text)
	for _, c := range cues {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

// IsBareLevelAnswer reports whether message is a short reply naming a level,
// like "bac+2" or "je suis en terminale".
func IsBareLevelAnswer(message string) bool {
	if len(strings.Fields(message)) > bareAnswerMaxWords {
		return false
	}
	return matchLevel(normalize(message)) != LevelUnknown
}

// RecentUserTurns returns the last n user messages, oldest first.
func RecentUserTurns(history []Turn, n int) []string {
	var out []string
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		if history[i].Sender == SenderUser && !history[i].IsError {
			out = append(out, history[i].Text)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Trim keeps the last max turns.
func Trim(history []Turn, max int) []Turn {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}
