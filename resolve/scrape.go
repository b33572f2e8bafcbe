package resolve

import (
	"context"
	"strings"
)

// TwitterResolver answers Twitter/X links without touching the network.
type TwitterResolver struct{}

// Resolve implements Resolver.
func (TwitterResolver) Resolve(context.Context, string) (Metadata, error) {
	return Metadata{
		Title:       "Twitter Link, see thread",
		Description: "Click the link above to view the post on Twitter/X.",
	}, nil
}

// BandcampResolver scrapes Bandcamp album and track pages.
type BandcampResolver struct {
	Pages *PageFetcher
}

// Resolve implements Resolver.
func (r *BandcampResolver) Resolve(ctx context.Context, url string) (Metadata, error) {
	page, err := fetchPage(ctx, r.Pages, url)
	if err != nil {
		return Metadata{}, err
	}
	md := Metadata{
		Title:       BandcampTitle(page.Title()),
		Description: orNoDescription(page.MetaDescription()),
	}
	if credits := strings.TrimSpace(page.ClassText("tralbum-credits")); credits != "" {
		md.Credits = "Album Credits:\n" + credits
	}
	return md, nil
}

// BandcampTitle turns "Album | Artist" into "Artist - Album". Titles that do not
// split into exactly two parts are returned unchanged.
func BandcampTitle(raw string) string {
	parts := strings.Split(raw, " | ")
	if len(parts) != 2 {
		return raw
	}
	return parts[1] + " - " + parts[0]
}

// SoundCloudResolver scrapes SoundCloud track and playlist pages.
type SoundCloudResolver struct {
	Pages *PageFetcher
}

// Resolve implements Resolver.
func (r *SoundCloudResolver) Resolve(ctx context.Context, url string) (Metadata, error) {
	page, err := fetchPage(ctx, r.Pages, url)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Title:       SoundCloudTitle(page.Title()),
		Description: orNoDescription(page.MetaDescription()),
	}, nil
}

// SoundCloudTitle strips SoundCloud's page title boilerplate.
func SoundCloudTitle(raw string) string {
	t := strings.TrimPrefix(raw, "Stream ")
	t = strings.Replace(t, "Listen to ", "", 1)
	t = strings.Replace(t, "playlist online for free on SoundCloud", "", 1)
	t = strings.Replace(t, "Listen online for free on SoundCloud", "", 1)
	return t
}
