package config

import "time"

type Config struct {
	DiscordToken        string
	SpotifyClientID     string
	SpotifyClientSecret string
	DataDir             string
	BotStatus           string // online/dnd/idle
	BotActivity         string

	// IdleTimeout is how long a session waits for a track before
	// disconnecting and tearing itself down.
	IdleTimeout time.Duration

	// PlaylistLimit caps how many tracks a playlist or album expansion may
	// enqueue at once.
	PlaylistLimit int

	RegisterCommandsOnBot bool
}
