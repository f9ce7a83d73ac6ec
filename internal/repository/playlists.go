package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrPlaylistExists   = errors.New("playlist already exists")
	ErrSongNotFound     = errors.New("song not found in playlist")
)

// PlaylistService stores named per-guild playlists of track queries.
type PlaylistService struct {
	repo *Repo
}

func NewPlaylistService(repo *Repo) *PlaylistService {
	return &PlaylistService{repo: repo}
}

func (p *PlaylistService) Create(ctx context.Context, guild, author, name string) (*Playlist, error) {
	name = strings.TrimSpace(name)
	now := time.Now()
	res, err := p.repo.db.ExecContext(ctx,
		`INSERT INTO playlists(guild_id, name, author_id, created_at) VALUES (?,?,?,?)`,
		guild, name, author, now.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrPlaylistExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Playlist{ID: id, GuildID: guild, Name: name, Author: author, CreatedAt: now}, nil
}

func (p *PlaylistService) Find(ctx context.Context, guild, name string) (*Playlist, error) {
	row := p.repo.db.QueryRowContext(ctx, `
		SELECT p.id, p.guild_id, p.name, p.author_id, p.created_at,
		       (SELECT COUNT(*) FROM playlist_songs s WHERE s.playlist_id = p.id)
		FROM playlists p WHERE p.guild_id=? AND p.name=?`,
		guild, strings.TrimSpace(name))
	return scanPlaylist(row)
}

func (p *PlaylistService) List(ctx context.Context, guild string) ([]Playlist, error) {
	rows, err := p.repo.db.QueryContext(ctx, `
		SELECT p.id, p.guild_id, p.name, p.author_id, p.created_at,
		       (SELECT COUNT(*) FROM playlist_songs s WHERE s.playlist_id = p.id)
		FROM playlists p WHERE p.guild_id=? ORDER BY p.name ASC`, guild)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Playlist
	for rows.Next() {
		pl, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pl)
	}
	return out, rows.Err()
}

func (p *PlaylistService) Delete(ctx context.Context, guild, name string) error {
	res, err := p.repo.db.ExecContext(ctx,
		`DELETE FROM playlists WHERE guild_id=? AND name=?`,
		guild, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

func (p *PlaylistService) AddSong(ctx context.Context, guild, name, query string) error {
	pl, err := p.Find(ctx, guild, name)
	if err != nil {
		return err
	}
	_, err = p.repo.db.ExecContext(ctx, `
		INSERT INTO playlist_songs(playlist_id, position, query)
		VALUES (?, (SELECT COALESCE(MAX(position),0)+1 FROM playlist_songs WHERE playlist_id=?), ?)`,
		pl.ID, pl.ID, strings.TrimSpace(query))
	return err
}

// RemoveSong removes the first song matching query from the playlist.
func (p *PlaylistService) RemoveSong(ctx context.Context, guild, name, query string) error {
	pl, err := p.Find(ctx, guild, name)
	if err != nil {
		return err
	}
	res, err := p.repo.db.ExecContext(ctx, `
		DELETE FROM playlist_songs WHERE id = (
			SELECT id FROM playlist_songs
			WHERE playlist_id=? AND query=?
			ORDER BY position ASC LIMIT 1
		)`, pl.ID, strings.TrimSpace(query))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSongNotFound
	}
	return nil
}

func (p *PlaylistService) Songs(ctx context.Context, playlistID int64) ([]Song, error) {
	rows, err := p.repo.db.QueryContext(ctx,
		`SELECT id, position, query FROM playlist_songs WHERE playlist_id=? ORDER BY position ASC`,
		playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Song
	for rows.Next() {
		var s Song
		if err := rows.Scan(&s.ID, &s.Position, &s.Query); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type playlistScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row playlistScanner) (*Playlist, error) {
	var pl Playlist
	var created int64
	if err := row.Scan(&pl.ID, &pl.GuildID, &pl.Name, &pl.Author, &created, &pl.SongCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, err
	}
	pl.CreatedAt = time.Unix(created, 0)
	return &pl, nil
}
