package config

import (
	"os"
	"strconv"
	"time"
)

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		DataDir:             getenv("DATA_DIR", "./data"),
		BotStatus:           getenv("BOT_STATUS", "online"),
		BotActivity:         getenv("BOT_ACTIVITY", "music"),
		IdleTimeout: func() time.Duration {
			sec, _ := strconv.Atoi(getenv("IDLE_TIMEOUT", "180"))
			if sec <= 0 {
				sec = 180
			}
			return time.Duration(sec) * time.Second
		}(),
		PlaylistLimit: func() int {
			i, _ := strconv.Atoi(getenv("PLAYLIST_LIMIT", "50"))
			return i
		}(),
		RegisterCommandsOnBot: getenv("REGISTER_COMMANDS_ON_BOT", "false") == "true",
	}

	if cfg.DiscordToken == "" {
		return nil, ErrConfig("DISCORD_TOKEN required")
	}
	_ = os.MkdirAll(cfg.DataDir, 0o755)
	return cfg, nil
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
