// Package spotify wraps the Spotify Web API for query resolution. Spotify
// does not serve audio; resolved tracks are re-queried on YouTube by the
// resolver.
package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Track is the name/artist pair the resolver turns into a YouTube search.
type Track struct {
	Name   string
	Artist string
}

type Client struct {
	raw *spotify.Client
}

func NewClientCredentials(clientID, clientSecret string) (*Client, error) {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(context.Background())
	cl := spotify.New(httpClient, spotify.WithRetry(true))
	return &Client{raw: cl}, nil
}

// IsSpotify reports whether raw looks like a Spotify URL or URI.
func IsSpotify(raw string) bool {
	return strings.HasPrefix(raw, "spotify:") ||
		strings.Contains(raw, "open.spotify.com")
}

// ParseID extracts the resource type and ID from a Spotify URL or URI.
func ParseID(raw string) (typ string, id spotify.ID, err error) {
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) == 3 {
			return parts[1], spotify.ID(parts[2]), nil
		}
		return "", "", fmt.Errorf("invalid spotify URI")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com" {
		return "", "", fmt.Errorf("not a spotify URL")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid spotify URL path")
	}
	switch parts[0] {
	case "album", "playlist", "track", "artist":
		return parts[0], spotify.ID(parts[1]), nil
	}
	return "", "", fmt.Errorf("unsupported spotify type")
}

// Tracks fetches up to limit tracks for the given resource. limit <= 0
// means no limit. Artists yield their top tracks (US market).
func (c *Client) Tracks(ctx context.Context, typ string, id spotify.ID, limit int) ([]Track, error) {
	switch typ {
	case "track":
		t, err := c.raw.GetTrack(ctx, id)
		if err != nil {
			return nil, err
		}
		return []Track{simple(t.Name, t.Artists)}, nil

	case "album":
		page, err := c.raw.GetAlbumTracks(ctx, id)
		if err != nil {
			return nil, err
		}
		var out []Track
		for {
			for _, t := range page.Tracks {
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
				out = append(out, simple(t.Name, t.Artists))
			}
			if page.Next == "" {
				return out, nil
			}
			if err := c.raw.NextPage(ctx, page); err != nil {
				return out, nil
			}
		}

	case "playlist":
		page, err := c.raw.GetPlaylistItems(ctx, id)
		if err != nil {
			return nil, err
		}
		var out []Track
		for {
			for _, it := range page.Items {
				if it.Track.Track == nil {
					continue
				}
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
				out = append(out, simple(it.Track.Track.Name, it.Track.Track.Artists))
			}
			if page.Next == "" {
				return out, nil
			}
			if err := c.raw.NextPage(ctx, page); err != nil {
				return out, nil
			}
		}

	case "artist":
		full, err := c.raw.GetArtistsTopTracks(ctx, id, "US")
		if err != nil {
			return nil, err
		}
		var out []Track
		for _, t := range full {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, simple(t.Name, t.Artists))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported spotify type: %s", typ)
}

func simple(name string, artists []spotify.SimpleArtist) Track {
	artist := ""
	if len(artists) > 0 {
		artist = artists[0].Name
	}
	return Track{Name: name, Artist: artist}
}
