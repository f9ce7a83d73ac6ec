package repository

import (
	"database/sql"
	"time"
)

type Repo struct {
	db *sql.DB
}

type Settings struct {
	GuildID              string
	PlaylistLimit        int
	DefaultVolume        int
	DefaultQueuePageSize int
	AutoAnnounceNext     bool
}

type Playlist struct {
	ID        int64
	GuildID   string
	Name      string
	Author    string
	CreatedAt time.Time
	SongCount int
}

type Song struct {
	ID       int64
	Position int
	Query    string
}
