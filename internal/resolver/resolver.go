// Package resolver turns free-text queries and URLs into playable tracks
// using yt-dlp, with Spotify links mapped onto YouTube searches.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"

	"github.com/sonroyaalmerol/torabot/internal/config"
	"github.com/sonroyaalmerol/torabot/internal/session"
	"github.com/sonroyaalmerol/torabot/internal/spotify"
	"github.com/sonroyaalmerol/torabot/internal/utils"
)

// ResolutionError reports a failed source lookup. It never affects a running
// playback loop; it is returned to the command caller.
type ResolutionError struct {
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Query, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver turns a query or URL into one or more playable tracks.
// Resolution happens before enqueue, never inside the session.
type Resolver interface {
	Resolve(ctx context.Context, query string) ([]session.Track, error)
}

// mediaURLTTL is how long a resolved direct stream URL is trusted before
// re-resolving; googlevideo URLs expire after roughly six hours.
const mediaURLTTL = 5 * time.Hour

type cachedTrack struct {
	track      session.Track
	resolvedAt time.Time
}

// YTDLP is the yt-dlp-backed Resolver.
type YTDLP struct {
	cfg *config.Config

	installOnce sync.Once

	mu    sync.Mutex
	cache map[string]cachedTrack // page URL -> resolved track
}

func NewYTDLP(cfg *config.Config) *YTDLP {
	return &YTDLP{cfg: cfg, cache: make(map[string]cachedTrack)}
}

// Resolve implements [Resolver]. Plain text becomes a single-result YouTube
// search; YouTube playlist URLs and Spotify album/playlist/artist links
// expand into multiple tracks, capped by the configured playlist limit.
func (r *YTDLP) Resolve(ctx context.Context, query string) ([]session.Track, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &ResolutionError{Query: query, Err: fmt.Errorf("empty query")}
	}

	if spotify.IsSpotify(q) {
		return r.resolveSpotify(ctx, q)
	}

	target := q
	if !strings.HasPrefix(q, "http://") && !strings.HasPrefix(q, "https://") {
		target = "ytsearch1:" + q
	}

	tracks, err := r.fetch(ctx, target)
	if err != nil {
		return nil, &ResolutionError{Query: query, Err: err}
	}
	if len(tracks) == 0 {
		return nil, &ResolutionError{Query: query, Err: fmt.Errorf("no results")}
	}
	if limit := r.cfg.PlaylistLimit; limit > 0 && len(tracks) > limit {
		utils.ShuffleSlice(tracks)
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (r *YTDLP) resolveSpotify(ctx context.Context, q string) ([]session.Track, error) {
	if r.cfg.SpotifyClientID == "" || r.cfg.SpotifyClientSecret == "" {
		return nil, &ResolutionError{Query: q, Err: fmt.Errorf("spotify is not enabled")}
	}
	sp, err := spotify.NewClientCredentials(r.cfg.SpotifyClientID, r.cfg.SpotifyClientSecret)
	if err != nil {
		return nil, &ResolutionError{Query: q, Err: fmt.Errorf("spotify auth: %w", err)}
	}
	typ, id, err := spotify.ParseID(q)
	if err != nil {
		return nil, &ResolutionError{Query: q, Err: err}
	}
	limit := r.cfg.PlaylistLimit
	if typ == "track" {
		limit = 1
	}
	spTracks, err := sp.Tracks(ctx, typ, id, limit)
	if err != nil {
		return nil, &ResolutionError{Query: q, Err: err}
	}

	var out []session.Track
	for _, st := range spTracks {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		found, err := r.fetch(ctx, "ytsearch1:"+st.Name+" "+st.Artist)
		if err != nil || len(found) == 0 {
			slog.Debug("spotify track not found on youtube", "name", st.Name, "artist", st.Artist, "err", err)
			continue
		}
		out = append(out, found[0])
	}
	if len(out) == 0 {
		return nil, &ResolutionError{Query: q, Err: fmt.Errorf("no playable tracks")}
	}
	return out, nil
}

// fetch runs yt-dlp against target and maps the extracted info (single item
// or playlist container) to tracks.
func (r *YTDLP) fetch(ctx context.Context, target string) ([]session.Track, error) {
	r.installOnce.Do(func() {
		// surface availability issues on the first real run instead
		ytdlp.MustInstall(ctx, nil)
	})

	if cached, ok := r.cachedMedia(target); ok {
		return []session.Track{cached}, nil
	}

	cmd := ytdlp.New().
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoCheckCertificates().
		DumpJSON()

	res, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp run: %w", err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("no info returned")
	}

	ext := infos[0]
	if len(ext.Entries) > 0 {
		out := make([]session.Track, 0, len(ext.Entries))
		for _, e := range ext.Entries {
			if e == nil {
				continue
			}
			out = append(out, r.toTrack(e))
		}
		return out, nil
	}
	return []session.Track{r.toTrack(ext)}, nil
}

func (r *YTDLP) toTrack(e *ytdlp.ExtractedInfo) session.Track {
	t := session.Track{
		Title:    deref(e.Title),
		Artist:   deref(e.Uploader),
		URL:      deref(e.WebpageURL),
		MediaURL: mediaURL(e),
		Duration: time.Duration(derefF(e.Duration)) * time.Second,
		IsLive:   derefB(e.IsLive),
	}
	if t.URL == "" {
		t.URL = deref(e.URL)
	}
	for _, th := range e.Thumbnails {
		if th != nil && th.URL != "" {
			t.Thumbnail = th.URL
			break
		}
	}
	if t.MediaURL != "" && t.URL != "" {
		r.mu.Lock()
		r.cache[t.URL] = cachedTrack{track: t, resolvedAt: time.Now()}
		r.mu.Unlock()
	}
	return t
}

// cachedMedia serves repeat requests for the same page URL from the
// in-memory cache while the direct stream URL is still fresh.
func (r *YTDLP) cachedMedia(target string) (session.Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cache[target]
	if !ok || time.Since(c.resolvedAt) >= mediaURLTTL {
		return session.Track{}, false
	}
	return c.track, true
}

// mediaURL picks the best playable stream URL from the extracted info:
// requested formats first, then the top-level URL, then any format.
func mediaURL(e *ytdlp.ExtractedInfo) string {
	for _, f := range e.RequestedFormats {
		if f != nil && strings.HasPrefix(f.URL, "http") {
			return f.URL
		}
	}
	if u := deref(e.URL); strings.HasPrefix(u, "http") {
		return u
	}
	for _, f := range e.Formats {
		if f != nil && strings.HasPrefix(f.URL, "http") {
			return f.URL
		}
	}
	return ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefF(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefB(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
