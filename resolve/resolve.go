// Package resolve turns a classified link into thread metadata. There is one
// Resolver per provider; Bandcamp and SoundCloud scrape the linked page, YouTube
// and Spotify query their public APIs, and Twitter/X links get a static
// placeholder because the site cannot be scraped without authentication.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/qqqqqqq1/discord-thread-bot/links"
)

// NoDescription is used when a provider has no description for the content.
const NoDescription = "No description available."

var (
	// ErrUnsupportedProvider is returned by Registry.For for providers without a resolver.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrFetch wraps transport and HTTP status failures from providers.
	ErrFetch = errors.New("fetch failed")
	// ErrNotFound means the provider has no content for the requested id.
	ErrNotFound = errors.New("content not found")
	// ErrNoVideoID means no 11-character YouTube video id could be read from the URL.
	ErrNoVideoID = errors.New("no youtube video id in url")
	// ErrInvalidAlbumURL means a Spotify URL has no album/<id> segment.
	ErrInvalidAlbumURL = errors.New("invalid album url")
	// ErrNotConfigured means the resolver is missing credentials.
	ErrNotConfigured = errors.New("resolver not configured")
)

// Metadata is what a resolver knows about a link.
type Metadata struct {
	Title       string
	Description string
	Credits     string
}

// Resolver fetches metadata for a single provider.
type Resolver interface {
	Resolve(ctx context.Context, url string) (Metadata, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, url string) (Metadata, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, url string) (Metadata, error) { return f(ctx, url) }

// Registry maps each provider to its resolver.
type Registry map[links.Provider]Resolver

// For returns the resolver registered for p.
func (r Registry) For(p links.Provider) (Resolver, error) {
	res, ok := r[p]
	if !ok || res == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
	}
	return res, nil
}

// Options configures the default registry.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string

	YouTubeAPIKey   string
	YouTubeEndpoint string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyTokenURL     string
	SpotifyAPIBase      string
}

// NewRegistry builds resolvers for all five providers. Every resolver's output is
// passed through SanitizeDescription.
func NewRegistry(opts Options) Registry {
	pages := &PageFetcher{Client: opts.HTTPClient, UserAgent: opts.UserAgent}
	return Registry{
		links.LinkOnly:   Sanitized(TwitterResolver{}),
		links.Bandcamp:   Sanitized(&BandcampResolver{Pages: pages}),
		links.SoundCloud: Sanitized(&SoundCloudResolver{Pages: pages}),
		links.YouTube: Sanitized(&YouTubeResolver{
			APIKey:     opts.YouTubeAPIKey,
			Endpoint:   opts.YouTubeEndpoint,
			HTTPClient: opts.HTTPClient,
		}),
		links.Spotify: Sanitized(&SpotifyResolver{
			ClientID:     opts.SpotifyClientID,
			ClientSecret: opts.SpotifyClientSecret,
			TokenURL:     opts.SpotifyTokenURL,
			APIBase:      opts.SpotifyAPIBase,
			HTTPClient:   opts.HTTPClient,
		}),
	}
}

var inviteLinkPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?discord\.(?:gg|com/invite)/[^\s]+`)

// SanitizeDescription removes Discord invite links from s.
func SanitizeDescription(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(inviteLinkPattern.ReplaceAllString(s, ""))
}

// Sanitized wraps r so its description and credits never carry invite links. A
// description that was nothing but invites falls back to NoDescription.
func Sanitized(r Resolver) Resolver {
	return ResolverFunc(func(ctx context.Context, url string) (Metadata, error) {
		md, err := r.Resolve(ctx, url)
		if err != nil {
			return md, err
		}
		md.Description = orNoDescription(SanitizeDescription(md.Description))
		md.Credits = SanitizeDescription(md.Credits)
		return md, nil
	})
}

func orNoDescription(s string) string {
	if strings.TrimSpace(s) == "" {
		return NoDescription
	}
	return s
}
