package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/qqqqqqq1/discord-thread-bot/threads"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIBase  = "https://api.spotify.com/v1"
)

var albumIDPattern = regexp.MustCompile(`album/([^/?#\s]+)`)

// AlbumID returns the path segment following "album/" in a Spotify URL.
func AlbumID(rawURL string) (string, error) {
	m := albumIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 || m[1] == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidAlbumURL, rawURL)
	}
	return m[1], nil
}

// SpotifyResolver fetches album details from the Spotify Web API. A new app token
// is requested for every resolution; nothing is cached.
type SpotifyResolver struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBase      string
	HTTPClient   *http.Client
}

func (r *SpotifyResolver) http() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

// Token performs the client-credentials grant: Basic auth with base64(id:secret)
// and body grant_type=client_credentials.
func (r *SpotifyResolver) Token(ctx context.Context) (string, error) {
	if r.ClientID == "" || r.ClientSecret == "" {
		return "", fmt.Errorf("%w: missing spotify client id/secret", ErrNotConfigured)
	}
	tokenURL := r.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	cc := &clientcredentials.Config{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, r.http()))
	if err != nil {
		return "", fmt.Errorf("%w: spotify token: %v", ErrFetch, err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access_token in spotify response")
	}
	return tok.AccessToken, nil
}

// SpotifyAlbum is the subset of the album object the resolver reads.
type SpotifyAlbum struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Tracks struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	} `json:"tracks"`
}

// Album fetches album details by id with a bearer token.
func (r *SpotifyResolver) Album(ctx context.Context, token, id string) (*SpotifyAlbum, error) {
	base := r.APIBase
	if base == "" {
		base = spotifyAPIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/albums/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := r.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: spotify album %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: spotify album request failed: %s: %s", ErrFetch, resp.Status, string(b))
	}
	var album SpotifyAlbum
	if err := json.NewDecoder(resp.Body).Decode(&album); err != nil {
		return nil, fmt.Errorf("decode spotify album: %w", err)
	}
	return &album, nil
}

// Resolve implements Resolver.
func (r *SpotifyResolver) Resolve(ctx context.Context, url string) (Metadata, error) {
	id, err := AlbumID(url)
	if err != nil {
		return Metadata{}, err
	}
	token, err := r.Token(ctx)
	if err != nil {
		return Metadata{}, err
	}
	album, err := r.Album(ctx, token, id)
	if err != nil {
		return Metadata{}, err
	}

	artists := make([]string, 0, len(album.Artists))
	for _, a := range album.Artists {
		artists = append(artists, a.Name)
	}
	tracks := make([]string, 0, len(album.Tracks.Items))
	for _, t := range album.Tracks.Items {
		tracks = append(tracks, t.Name)
	}
	names := strings.Join(artists, ", ")

	title, err := threads.NormalizeTitle(names + " - " + album.Name)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Title:       title,
		Description: "Artist: " + names + "\n\nTracks:\n" + strings.Join(tracks, "\n"),
	}, nil
}
