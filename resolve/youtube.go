package resolve

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const videoIDLength = 11

// videoIDPattern covers youtu.be/ID, /v/ID, /u/<ch>/ID, /embed/ID, watch?v=ID and &v=ID.
var videoIDPattern = regexp.MustCompile(`(?:youtu\.be/|/v/|/u/\w+/|/embed/|watch\?v=|&v=)([^#&?/\s]*)`)

// VideoID extracts the 11-character video id from a YouTube URL.
func VideoID(rawURL string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 || len(m[1]) != videoIDLength {
		return "", fmt.Errorf("%w: %s", ErrNoVideoID, rawURL)
	}
	return m[1], nil
}

// YouTubeResolver looks videos up through the YouTube Data API v3 with an API key.
type YouTubeResolver struct {
	APIKey string
	// Endpoint overrides the API base URL (tests).
	Endpoint   string
	HTTPClient *http.Client
}

// Client builds a YouTube service for a single lookup. The API key travels as a
// per-call query parameter, not a client option.
func (r *YouTubeResolver) Client(ctx context.Context) (*yt.Service, error) {
	if r.APIKey == "" {
		return nil, fmt.Errorf("%w: youtube api key missing", ErrNotConfigured)
	}
	hc := r.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if r.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(r.Endpoint))
	}
	return yt.NewService(ctx, opts...)
}

// Resolve implements Resolver.
func (r *YouTubeResolver) Resolve(ctx context.Context, url string) (Metadata, error) {
	id, err := VideoID(url)
	if err != nil {
		return Metadata{}, err
	}
	svc, err := r.Client(ctx)
	if err != nil {
		return Metadata{}, err
	}
	return LookupVideo(ctx, svc, id, googleapi.QueryParameter("key", r.APIKey))
}

// LookupVideo fetches title and description for id using svc.
func LookupVideo(ctx context.Context, svc *yt.Service, id string, opts ...googleapi.CallOption) (Metadata, error) {
	if svc == nil {
		return Metadata{}, fmt.Errorf("nil youtube service")
	}
	res, err := svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do(opts...)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: youtube videos.list: %v", ErrFetch, err)
	}
	if len(res.Items) == 0 || res.Items[0].Snippet == nil {
		return Metadata{}, fmt.Errorf("%w: youtube video %s", ErrNotFound, id)
	}
	sn := res.Items[0].Snippet
	return Metadata{Title: sn.Title, Description: orNoDescription(sn.Description)}, nil
}
