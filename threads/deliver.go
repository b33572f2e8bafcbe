package threads

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Body joins a description and optional credits with a blank line.
func Body(description, credits string) string {
	if credits == "" {
		return description
	}
	return description + "\n\n" + credits
}

// Chunks splits body into consecutive pieces of at most size characters.
// An empty body yields no chunks.
func Chunks(body string, size int) []string {
	if body == "" || size <= 0 {
		return nil
	}
	var out []string
	runes := []rune(body)
	for len(runes) > 0 {
		n := size
		if len(runes) < n {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

// Deliver sends body to threadID in MaxMessageLength chunks, one after another.
// It stops at the first failed send and returns how many chunks went out.
func Deliver(ctx context.Context, api ThreadAPI, threadID, body string) (int, error) {
	sent := 0
	for _, chunk := range Chunks(body, MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if _, err := api.ChannelMessageSend(threadID, chunk, discordgo.WithContext(ctx)); err != nil {
			return sent, fmt.Errorf("send chunk %d: %w", sent+1, err)
		}
		sent++
	}
	return sent, nil
}
