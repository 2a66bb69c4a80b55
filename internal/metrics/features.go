// Package metrics derives local size features from requests and conversations.
package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/travel-agent/memory"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures computes byte, rune, word, and line counts for s.
func CountFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}

// Conversation summarizes the shape of a turn log.
type Conversation struct {
	Turns        int `json:"turns"`
	Requests     int `json:"requests"`
	Results      int `json:"results"`
	ErrorResults int `json:"error_results"`
	// Bytes counts content, arguments and payloads.
	Bytes int `json:"bytes"`
	Runes int `json:"runes"`
}

// MeasureTurns computes Conversation features over turns.
func MeasureTurns(turns []memory.Turn) Conversation {
	var c Conversation
	add := func(s string) {
		c.Bytes += len(s)
		c.Runes += utf8.RuneCountInString(s)
	}
	for _, t := range turns {
		c.Turns++
		add(t.Content)
		for _, r := range t.Requests {
			c.Requests++
			add(string(r.Arguments))
		}
		if t.Result != nil {
			c.Results++
			if t.Result.IsError {
				c.ErrorResults++
			}
			add(t.Result.Payload)
		}
	}
	return c
}

// Fields flattens c for telemetry events.
func (c Conversation) Fields() map[string]any {
	return map[string]any{
		"turns":         c.Turns,
		"requests":      c.Requests,
		"results":       c.Results,
		"error_results": c.ErrorResults,
		"bytes":         c.Bytes,
		"runes":         c.Runes,
	}
}
