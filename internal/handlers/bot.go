package handlers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/torabot/internal/config"
	"github.com/sonroyaalmerol/torabot/internal/repository"
	"github.com/sonroyaalmerol/torabot/internal/resolver"
	"github.com/sonroyaalmerol/torabot/internal/session"
	"github.com/sonroyaalmerol/torabot/internal/sink"
	"github.com/sonroyaalmerol/torabot/internal/ui"
)

type Bot struct {
	cfg       *config.Config
	repo      *repository.Repo
	playlists *repository.PlaylistService
	res       resolver.Resolver
}

func NewBot(cfg *config.Config, repo *repository.Repo) *Bot {
	return &Bot{
		cfg:       cfg,
		repo:      repo,
		playlists: repository.NewPlaylistService(repo),
		res:       resolver.NewYTDLP(cfg),
	}
}

// Run connects to Discord and blocks until ctx is done. All sessions are
// torn down before it returns.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	ann := &announcer{dg: dg, repo: b.repo}
	reg := session.NewRegistry(session.RegistryConfig{
		NewDialer: func(roomID string) session.SinkDialer {
			return sink.NewDialer(dg, roomID)
		},
		Notifier:    ann,
		IdleTimeout: b.cfg.IdleTimeout,
	})
	ann.reg = reg

	cmd := NewCommandHandler(b.cfg, b.repo, b.playlists, reg, b.res)

	// On ready: register commands depending on configuration
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("connected", "user", s.State.User.Username)
		appID := s.State.User.ID

		if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
			Status: b.cfg.BotStatus,
			Activities: []*discordgo.Activity{
				{Name: b.cfg.BotActivity, Type: discordgo.ActivityTypeListening},
			},
		}); err != nil {
			slog.Warn("update status", "err", err)
		}

		if b.cfg.RegisterCommandsOnBot {
			if err := cmd.RegisterCommands(s, appID, ""); err != nil {
				slog.Error("register global commands", "err", err)
			} else {
				slog.Info("registered global application commands")
			}
		} else {
			var wg sync.WaitGroup
			for _, g := range s.State.Guilds {
				wg.Add(1)
				go func(guildID string) {
					defer wg.Done()
					if err := cmd.RegisterCommands(s, appID, guildID); err != nil {
						slog.Error("register guild commands", "guildID", guildID, "err", err)
					}
				}(g.ID)
			}
			wg.Wait()

			if _, err := s.ApplicationCommandBulkOverwrite(appID, "", []*discordgo.ApplicationCommand{}); err != nil {
				slog.Error("clear global commands", "err", err)
			}

			slog.Info("registered commands on all guilds")
		}
	})

	// If registering per-guild, register on new guilds too
	dg.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if b.cfg.RegisterCommandsOnBot {
			return
		}
		appID := s.State.User.ID
		if err := cmd.RegisterCommands(s, appID, g.ID); err != nil {
			slog.Error("register guild commands on join", "guildID", g.ID, "err", err)
		}
	})

	dg.AddHandler(cmd.HandleInteraction)

	if err := dg.Open(); err != nil {
		return err
	}
	defer dg.Close()

	<-ctx.Done()
	reg.ShutdownAll()
	return nil
}

// announcer delivers the sessions' advisory notifications to the text
// channel a track was requested from. Implements [session.Notifier].
type announcer struct {
	dg   *discordgo.Session
	repo *repository.Repo
	reg  *session.Registry
}

func (a *announcer) NowPlaying(roomID string, t *session.Track) {
	if t.ChannelID == "" {
		return
	}
	set, err := a.repo.GetSettings(context.Background(), roomID)
	if err == nil && set != nil && !set.AutoAnnounceNext {
		return
	}
	s := a.reg.Peek(roomID)
	if s == nil {
		return
	}
	if _, err := a.dg.ChannelMessageSendEmbed(t.ChannelID, ui.BuildPlayingEmbed(s)); err != nil {
		slog.Warn("now playing announce failed", "guildID", roomID, "err", err)
	}
}

func (a *announcer) PlaybackFault(roomID string, err error) {
	slog.Warn("playback fault", "guildID", roomID, "err", err)

	s := a.reg.Peek(roomID)
	if s == nil {
		return
	}
	cur := s.Current()
	if cur == nil || cur.ChannelID == "" {
		return
	}
	if _, serr := a.dg.ChannelMessageSend(cur.ChannelID, "playback error, skipping: "+err.Error()); serr != nil {
		slog.Warn("fault announce failed", "guildID", roomID, "err", serr)
	}
}
