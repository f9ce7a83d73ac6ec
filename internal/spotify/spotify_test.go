package spotify_test

import (
	"testing"

	"github.com/sonroyaalmerol/torabot/internal/spotify"
)

func TestIsSpotify(t *testing.T) {
	t.Parallel()
	yes := []string{
		"spotify:track:4uLU6hMCjMI75M1A2tKUQC",
		"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
		"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc",
	}
	no := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"never gonna give you up",
		"",
	}
	for _, q := range yes {
		if !spotify.IsSpotify(q) {
			t.Errorf("IsSpotify(%q) = false, want true", q)
		}
	}
	for _, q := range no {
		if spotify.IsSpotify(q) {
			t.Errorf("IsSpotify(%q) = true, want false", q)
		}
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		typ     string
		id      string
		wantErr bool
	}{
		{"spotify:track:4uLU6hMCjMI75M1A2tKUQC", "track", "4uLU6hMCjMI75M1A2tKUQC", false},
		{"spotify:album:6QaVfG1pHYl1z15ZxkvVDW", "album", "6QaVfG1pHYl1z15ZxkvVDW", false},
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc", "playlist", "37i9dQZF1DXcBWIGoYBM5M", false},
		{"https://open.spotify.com/artist/0OdUWJ0sBjDrqHygGUXeCF", "artist", "0OdUWJ0sBjDrqHygGUXeCF", false},
		{"spotify:bogus", "", "", true},
		{"https://open.spotify.com/show/abc123", "", "", true},
		{"https://example.com/track/abc", "", "", true},
	}
	for _, c := range cases {
		typ, id, err := spotify.ParseID(c.raw)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseID(%q) err = nil, want error", c.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseID(%q) err = %v", c.raw, err)
			continue
		}
		if typ != c.typ || string(id) != c.id {
			t.Errorf("ParseID(%q) = (%q, %q), want (%q, %q)", c.raw, typ, id, c.typ, c.id)
		}
	}
}
