// Package threads creates Discord discussion threads for promotion posts and fills
// them with content. It owns the platform limits: thread names are capped at
// MaxTitleLength characters and messages at MaxMessageLength.
package threads

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTitleLength is Discord's thread name limit.
	MaxTitleLength = 100
	// MaxMessageLength is Discord's message content limit.
	MaxMessageLength = 2000
)

// ErrEmptyTitle is returned when a title is blank after trimming.
var ErrEmptyTitle = errors.New("title is empty")

// NormalizeTitle trims raw and hard-cuts it to MaxTitleLength characters.
// The cut ignores word boundaries and adds no ellipsis.
func NormalizeTitle(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return "", ErrEmptyTitle
	}
	return truncate(t, MaxTitleLength), nil
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
