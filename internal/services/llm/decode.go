package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"reelforge/internal/services/httpretry"
)

// maxDecodeCandidates bounds how many '{' or '[' positions DecodeJSON tries
// after a direct parse fails.
const maxDecodeCandidates = 8

// DecodeJSON decodes model output into target. Besides bare JSON it accepts
// a value wrapped in a markdown fence or surrounded by prose: the first
// complete object or array found is used.
func DecodeJSON(content string, target any) error {
	text := strings.TrimSpace(content)
	if text == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(text), target)
	if directErr == nil {
		return nil
	}
	tried := 0
	for i := 0; i < len(text) && tried < maxDecodeCandidates; i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		tried++
		var value json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&value); err != nil {
			continue
		}
		if err := json.Unmarshal(value, target); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w (payload: %s)", directErr, httpretry.Snippet(text))
}
