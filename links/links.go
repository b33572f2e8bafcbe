// Package links decides whether a chat message is a promotion post worth a thread
// and, if so, which media provider its first link belongs to.
//
// Detection is shallow: provider markers are case-sensitive substring
// tests on the whole message text, and only the first http(s) URL is considered.
package links

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultChannelToken is the substring a channel name must contain to be watched.
const DefaultChannelToken = "promotion"

// Provider identifies the media platform a link belongs to.
type Provider int

const (
	None Provider = iota
	Bandcamp
	SoundCloud
	YouTube
	Spotify
	// LinkOnly covers Twitter/X, which is threaded without fetching anything.
	LinkOnly
)

// String returns the lowercase provider name used in logs and metric labels.
func (p Provider) String() string {
	switch p {
	case Bandcamp:
		return "bandcamp"
	case SoundCloud:
		return "soundcloud"
	case YouTube:
		return "youtube"
	case Spotify:
		return "spotify"
	case LinkOnly:
		return "twitter"
	default:
		return "none"
	}
}

// Providers lists every recognized provider in precedence order.
var Providers = []Provider{LinkOnly, Bandcamp, SoundCloud, YouTube, Spotify}

// Match is the outcome of a successful classification.
type Match struct {
	URL      string
	Provider Provider
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// markers are checked in Providers order; the first hit wins.
var markers = map[Provider][]string{
	LinkOnly:   {"twitter.com", "x.com"},
	Bandcamp:   {"bandcamp.com"},
	SoundCloud: {"soundcloud.com"},
	YouTube:    {"youtube.com", "youtu.be"},
	Spotify:    {"spotify.com"},
}

// Eligible reports whether a message from channelName should be considered at all,
// using DefaultChannelToken.
func Eligible(guildPresent bool, channelName string) bool {
	return EligibleFor(DefaultChannelToken, guildPresent, channelName)
}

// EligibleFor is Eligible with a custom channel token. An empty token falls back
// to DefaultChannelToken.
func EligibleFor(token string, guildPresent bool, channelName string) bool {
	if !guildPresent {
		return false
	}
	if token == "" {
		token = DefaultChannelToken
	}
	return strings.Contains(channelName, token)
}

// ExtractURL returns the first http(s) URL in text.
func ExtractURL(text string) (string, bool) {
	u := urlPattern.FindString(text)
	return u, u != ""
}

// DetectProvider tests text for each provider's domain markers in precedence order.
func DetectProvider(text string) Provider {
	for _, p := range Providers {
		for _, m := range markers[p] {
			if strings.Contains(text, m) {
				return p
			}
		}
	}
	return None
}

// Classify combines DetectProvider and ExtractURL. It fails when either finds
// nothing or when the extracted URL is not absolute.
func Classify(text string) (Match, bool) {
	p := DetectProvider(text)
	if p == None {
		return Match{}, false
	}
	raw, ok := ExtractURL(text)
	if !ok {
		return Match{}, false
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Match{}, false
	}
	return Match{URL: raw, Provider: p}, true
}
