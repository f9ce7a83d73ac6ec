package repository

import (
	"context"
	"database/sql"
	"errors"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertSettings(ctx context.Context, guild string) (*Settings, error) {
	_, _ = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(guild_id) VALUES (?)`, guild,
	)
	return r.GetSettings(ctx, guild)
}

func (r *Repo) GetSettings(ctx context.Context, guild string) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT guild_id, playlist_limit, default_volume, default_queue_page_size,
	       auto_announce_next_song
	FROM settings WHERE guild_id = ?`, guild)

	var s Settings
	var announce int
	if err := row.Scan(
		&s.GuildID,
		&s.PlaylistLimit,
		&s.DefaultVolume,
		&s.DefaultQueuePageSize,
		&announce,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	s.AutoAnnounceNext = announce != 0
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, s *Settings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE settings SET
		  playlist_limit=?,
		  default_volume=?,
		  default_queue_page_size=?,
		  auto_announce_next_song=?
		WHERE guild_id=?`,
		s.PlaylistLimit, s.DefaultVolume, s.DefaultQueuePageSize,
		boolToInt(s.AutoAnnounceNext), s.GuildID,
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
