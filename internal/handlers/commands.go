package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/torabot/internal/config"
	"github.com/sonroyaalmerol/torabot/internal/queue"
	"github.com/sonroyaalmerol/torabot/internal/repository"
	"github.com/sonroyaalmerol/torabot/internal/resolver"
	"github.com/sonroyaalmerol/torabot/internal/session"
	"github.com/sonroyaalmerol/torabot/internal/ui"
	"github.com/sonroyaalmerol/torabot/internal/utils"
)

type CommandHandler struct {
	cfg       *config.Config
	repo      *repository.Repo
	playlists *repository.PlaylistService
	reg       *session.Registry
	res       resolver.Resolver
}

func NewCommandHandler(cfg *config.Config, repo *repository.Repo, playlists *repository.PlaylistService, reg *session.Registry, res resolver.Resolver) *CommandHandler {
	return &CommandHandler{cfg: cfg, repo: repo, playlists: playlists, reg: reg, res: res}
}

func (h *CommandHandler) RegisterCommands(s *discordgo.Session, appID string, guildID string) error {
	start := time.Now()
	slog.Info("registering application commands", "appID", appID, "guildID", guildID)

	cmds := []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a song (URL, Spotify link, or search)",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "query", Description: "query or URL", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{Name: "join", Description: "Summon the bot to your voice channel"},
		{Name: "leave", Description: "Disconnect and forget the queue"},
		{
			Name:        "volume",
			Description: "Set playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "level", Description: "0-100", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
			},
		},
		{Name: "now-playing", Description: "Show currently playing"},
		{Name: "pause", Description: "Pause the current song"},
		{Name: "resume", Description: "Resume playback"},
		{Name: "stop", Description: "Stop playback and clear the queue"},
		{Name: "skip", Description: "Skip the current song"},
		{
			Name:        "queue",
			Description: "Show the current queue",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "page", Description: "page of queue to show [default: 1]", Type: discordgo.ApplicationCommandOptionInteger},
			},
		},
		{Name: "shuffle", Description: "Shuffle the queue"},
		{
			Name:        "dequeue",
			Description: "Remove a song from the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "position", Description: "position of the song to remove", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
			},
		},
		{Name: "loop", Description: "Toggle looping the current song"},
		{
			Name:        "playlist",
			Description: "Manage saved playlists",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "create a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "add a song to a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
						{Name: "query", Description: "query or URL", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "remove a song from a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
						{Name: "query", Description: "the stored query to remove", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "delete a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "list playlists",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "show a playlist's songs",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
			},
		},
		{
			Name:        "play-playlist",
			Description: "Queue every song of a saved playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{
			Name:        "config",
			Description: "Configure bot settings",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "get", Description: "show settings"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-playlist-limit", Description: "set max playlist add", Options: []*discordgo.ApplicationCommandOption{
					{Name: "limit", Description: "max tracks", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-default-volume", Description: "default volume", Options: []*discordgo.ApplicationCommandOption{
					{Name: "level", Description: "0-100", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-auto-announce-next-song", Description: "auto announce next", Options: []*discordgo.ApplicationCommandOption{
					{Name: "value", Description: "true/false", Type: discordgo.ApplicationCommandOptionBoolean, Required: true},
				}},
			},
		},
	}

	for _, c := range cmds {
		if _, err := s.ApplicationCommandCreate(appID, guildID, c); err != nil {
			slog.Error("failed to create application command", "guildID", guildID, "command", c.Name, "err", err)
			return err
		}
		slog.Debug("registered command", "guildID", guildID, "command", c.Name)
	}

	slog.Info("finished registering commands", "guildID", guildID, "count", len(cmds), "took", time.Since(start))
	return nil
}

func (h *CommandHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	slog.Debug("interaction: application command", "guildID", i.GuildID, "userID", userIDOf(i), "command", data.Name)
	switch data.Name {
	case "play":
		h.cmdPlay(s, i)
	case "join":
		h.cmdJoin(s, i)
	case "leave":
		h.cmdLeave(s, i)
	case "volume":
		h.cmdVolume(s, i)
	case "now-playing":
		h.cmdNowPlaying(s, i)
	case "pause":
		h.cmdPause(s, i)
	case "resume":
		h.cmdResume(s, i)
	case "stop":
		h.cmdStop(s, i)
	case "skip":
		h.cmdSkip(s, i)
	case "queue":
		h.cmdQueue(s, i)
	case "shuffle":
		h.cmdShuffle(s, i)
	case "dequeue":
		h.cmdDequeue(s, i)
	case "loop":
		h.cmdLoop(s, i)
	case "playlist":
		h.cmdPlaylist(s, i)
	case "play-playlist":
		h.cmdPlayPlaylist(s, i)
	case "config":
		h.cmdConfig(s, i)
	default:
		slog.Debug("unknown command", "name", data.Name, "guildID", i.GuildID, "userID", userIDOf(i))
	}
}

func (h *CommandHandler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	}); err != nil {
		slog.Warn("reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	}); err != nil {
		slog.Warn("embed reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Warn("defer reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) editReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		slog.Warn("edit reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func userInVoice(s *discordgo.Session, guildID, userID string) (channelID string, ok bool) {
	g, _ := s.State.Guild(guildID)
	if g == nil {
		g, _ = s.Guild(guildID)
	}
	if g == nil {
		return "", false
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

// connectedSession returns the room's session only if it holds a live voice
// connection.
func (h *CommandHandler) connectedSession(i *discordgo.InteractionCreate) *session.Session {
	sess := h.reg.Peek(i.GuildID)
	if sess == nil || sess.ChannelID() == "" {
		return nil
	}
	return sess
}

// joinFor gets or creates the room's session and connects it to the caller's
// voice channel.
func (h *CommandHandler) joinFor(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (*session.Session, error) {
	chID, ok := userInVoice(s, i.GuildID, userIDOf(i))
	if !ok {
		return nil, errors.New("gotta be in a voice channel")
	}

	sess := h.reg.Get(i.GuildID)
	fresh := sess.ChannelID() == ""
	if err := sess.Join(ctx, chID); err != nil {
		return nil, fmt.Errorf("couldn't connect to channel: %w", err)
	}

	if fresh {
		if set, err := h.repo.UpsertSettings(ctx, i.GuildID); err == nil {
			_ = sess.SetVolume(set.DefaultVolume)
		}
	}
	return sess, nil
}

func (h *CommandHandler) cmdJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.joinFor(context.Background(), s, i)
	if err != nil {
		h.reply(s, i, err.Error(), true)
		return
	}
	slog.Info("cmd join", "guildID", i.GuildID, "userID", userIDOf(i), "channelID", sess.ChannelID())
	h.reply(s, i, "u betcha, joined", false)
}

func (h *CommandHandler) cmdLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if h.connectedSession(i) == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	h.reg.Remove(i.GuildID)
	slog.Info("cmd leave", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "u betcha, disconnected", false)
}

func (h *CommandHandler) cmdPlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "query" {
			query = o.StringValue()
		}
	}
	slog.Info("cmd play", "guildID", i.GuildID, "userID", userIDOf(i), "query", query)

	ctx := context.Background()
	h.deferReply(s, i)

	sess, err := h.joinFor(ctx, s, i)
	if err != nil {
		h.editReply(s, i, err.Error())
		return
	}

	tracks, err := h.res.Resolve(ctx, query)
	if err != nil {
		slog.Debug("resolve query failed", "guildID", i.GuildID, "query", query, "err", err)
		h.editReply(s, i, "no songs found")
		return
	}

	h.enqueueAll(sess, i, tracks)

	if len(tracks) == 1 {
		h.editReply(s, i, fmt.Sprintf("%s added to the queue", utils.EscapeMd(tracks[0].Title)))
	} else {
		h.editReply(s, i, fmt.Sprintf("%s and %d more added to the queue", utils.EscapeMd(tracks[0].Title), len(tracks)-1))
	}
}

func (h *CommandHandler) enqueueAll(sess *session.Session, i *discordgo.InteractionCreate, tracks []session.Track) {
	for _, t := range tracks {
		t.RequestedBy = userIDOf(i)
		t.ChannelID = i.ChannelID
		sess.Enqueue(t)
		slog.Debug("enqueued song", "guildID", i.GuildID, "title", t.Title)
	}
}

func (h *CommandHandler) cmdVolume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var level int
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "level" {
			level = int(o.IntValue())
		}
	}
	sess := h.connectedSession(i)
	if sess == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	if err := sess.SetVolume(level); err != nil {
		h.reply(s, i, "volume must be between 0 and 100", true)
		return
	}
	slog.Info("cmd volume", "guildID", i.GuildID, "userID", userIDOf(i), "level", level)
	h.reply(s, i, fmt.Sprintf("volume set to %d%%", level), false)
}

func (h *CommandHandler) cmdNowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.reg.Peek(i.GuildID)
	if sess == nil || sess.Current() == nil {
		h.reply(s, i, "nothing is currently playing", true)
		return
	}
	slog.Debug("cmd now-playing", "guildID", i.GuildID, "userID", userIDOf(i))
	h.replyEmbed(s, i, ui.BuildPlayingEmbed(sess))
}

func (h *CommandHandler) cmdPause(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.connectedSession(i)
	if sess == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	if err := sess.Pause(); err != nil {
		h.reply(s, i, "not currently playing", true)
		return
	}
	slog.Info("cmd pause", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "the stop-and-go light is now red", false)
}

func (h *CommandHandler) cmdResume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.connectedSession(i)
	if sess == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	if err := sess.Resume(); err != nil {
		h.reply(s, i, "nothing to play", true)
		return
	}
	slog.Info("cmd resume", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "the stop-and-go light is now green", false)
}

func (h *CommandHandler) cmdStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.connectedSession(i)
	if sess == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	sess.Stop()
	slog.Info("cmd stop", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "u betcha, stopped", false)
}

func (h *CommandHandler) cmdSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.connectedSession(i)
	if sess == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	votes := sess.VoteSkip(userIDOf(i))
	if err := sess.Skip(); err != nil {
		h.reply(s, i, "no song to skip", true)
		return
	}
	slog.Info("cmd skip", "guildID", i.GuildID, "userID", userIDOf(i), "votes", votes)
	h.reply(s, i, "skipped to next", false)
}

func (h *CommandHandler) cmdQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	page := 1
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "page" {
			page = int(o.IntValue())
		}
	}

	pageSize := 10
	if set, err := h.repo.GetSettings(context.Background(), i.GuildID); err == nil && set.DefaultQueuePageSize > 0 {
		pageSize = set.DefaultQueuePageSize
	}

	sess := h.reg.Peek(i.GuildID)
	if sess == nil {
		h.reply(s, i, "queue is empty", true)
		return
	}
	embed, err := ui.BuildQueueEmbed(sess, page, pageSize)
	if err != nil {
		slog.Debug("build queue embed failed", "guildID", i.GuildID, "page", page, "err", err)
		h.reply(s, i, err.Error(), true)
		return
	}
	slog.Debug("cmd queue", "guildID", i.GuildID, "userID", userIDOf(i), "page", page)
	h.replyEmbed(s, i, embed)
}

func (h *CommandHandler) cmdShuffle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.connectedSession(i)
	if sess == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	sess.ShuffleQueue()
	slog.Info("cmd shuffle", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "shuffled like a deck of cards", false)
}

func (h *CommandHandler) cmdDequeue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var pos int
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "position" {
			pos = int(o.IntValue())
		}
	}
	sess := h.connectedSession(i)
	if sess == nil {
		h.reply(s, i, "not connected", true)
		return
	}
	if err := sess.RemoveAt(pos - 1); err != nil {
		if errors.Is(err, queue.ErrOutOfRange) {
			h.reply(s, i, "no song at that position", true)
			return
		}
		h.reply(s, i, err.Error(), true)
		return
	}
	slog.Info("cmd dequeue", "guildID", i.GuildID, "userID", userIDOf(i), "pos", pos)
	h.reply(s, i, ":wastebasket: removed", false)
}

func (h *CommandHandler) cmdLoop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.connectedSession(i)
	if sess == nil || sess.Current() == nil {
		h.reply(s, i, "no song to loop!", true)
		return
	}
	on := !sess.Loop()
	sess.SetLoop(on)
	slog.Info("cmd loop", "guildID", i.GuildID, "userID", userIDOf(i), "on", on)
	if on {
		h.reply(s, i, "looped :)", false)
	} else {
		h.reply(s, i, "stopped looping :(", false)
	}
}

func (h *CommandHandler) cmdPlaylist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	ctx := context.Background()

	var name, query string
	for _, o := range sub.Options {
		switch o.Name {
		case "name":
			name = o.StringValue()
		case "query":
			query = o.StringValue()
		}
	}

	switch sub.Name {
	case "create":
		if _, err := h.playlists.Create(ctx, i.GuildID, userIDOf(i), name); err != nil {
			if errors.Is(err, repository.ErrPlaylistExists) {
				h.reply(s, i, "a playlist with that name already exists", true)
				return
			}
			slog.Warn("playlist create failed", "guildID", i.GuildID, "name", name, "err", err)
			h.reply(s, i, "failed to create playlist", true)
			return
		}
		slog.Info("playlist created", "guildID", i.GuildID, "userID", userIDOf(i), "name", name)
		h.reply(s, i, "👍 playlist created", false)
	case "add":
		if err := h.playlists.AddSong(ctx, i.GuildID, name, query); err != nil {
			if errors.Is(err, repository.ErrPlaylistNotFound) {
				h.reply(s, i, "no playlist with that name exists", true)
				return
			}
			slog.Warn("playlist add failed", "guildID", i.GuildID, "name", name, "err", err)
			h.reply(s, i, "failed to add song", true)
			return
		}
		slog.Info("playlist song added", "guildID", i.GuildID, "name", name, "query", query)
		h.reply(s, i, "👍 added to playlist", false)
	case "remove":
		if err := h.playlists.RemoveSong(ctx, i.GuildID, name, query); err != nil {
			switch {
			case errors.Is(err, repository.ErrPlaylistNotFound):
				h.reply(s, i, "no playlist with that name exists", true)
			case errors.Is(err, repository.ErrSongNotFound):
				h.reply(s, i, "no song matching that in the playlist", true)
			default:
				slog.Warn("playlist remove failed", "guildID", i.GuildID, "name", name, "err", err)
				h.reply(s, i, "failed to remove song", true)
			}
			return
		}
		slog.Info("playlist song removed", "guildID", i.GuildID, "name", name, "query", query)
		h.reply(s, i, ":wastebasket: removed from playlist", false)
	case "delete":
		pl, err := h.playlists.Find(ctx, i.GuildID, name)
		if err != nil {
			h.reply(s, i, "no playlist with that name exists", true)
			return
		}
		if pl.Author != userIDOf(i) {
			h.reply(s, i, "you can only delete your own playlists", true)
			return
		}
		if err := h.playlists.Delete(ctx, i.GuildID, name); err != nil {
			slog.Warn("playlist delete failed", "guildID", i.GuildID, "name", name, "err", err)
			h.reply(s, i, "failed to delete playlist", true)
			return
		}
		slog.Info("playlist deleted", "guildID", i.GuildID, "userID", userIDOf(i), "name", name)
		h.reply(s, i, "👍 playlist deleted", false)
	case "list":
		items, err := h.playlists.List(ctx, i.GuildID)
		if err != nil {
			slog.Warn("playlist list failed", "guildID", i.GuildID, "err", err)
		}
		if len(items) == 0 {
			h.reply(s, i, "there aren't any playlists yet", false)
			return
		}
		var b strings.Builder
		for _, pl := range items {
			b.WriteString(fmt.Sprintf("• %s: %d songs (<@%s>)\n", utils.EscapeMd(pl.Name), pl.SongCount, pl.Author))
		}
		slog.Debug("playlist list", "guildID", i.GuildID, "count", len(items))
		h.reply(s, i, b.String(), true)
	case "show":
		pl, err := h.playlists.Find(ctx, i.GuildID, name)
		if err != nil {
			h.reply(s, i, "no playlist with that name exists", true)
			return
		}
		songs, err := h.playlists.Songs(ctx, pl.ID)
		if err != nil {
			slog.Warn("playlist songs failed", "guildID", i.GuildID, "name", name, "err", err)
			h.reply(s, i, "failed to fetch playlist", true)
			return
		}
		h.replyEmbed(s, i, ui.BuildPlaylistEmbed(pl, songs))
	}
}

func (h *CommandHandler) cmdPlayPlaylist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var name string
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "name" {
			name = o.StringValue()
		}
	}

	ctx := context.Background()
	pl, err := h.playlists.Find(ctx, i.GuildID, name)
	if err != nil {
		h.reply(s, i, "no playlist with that name exists", true)
		return
	}
	songs, err := h.playlists.Songs(ctx, pl.ID)
	if err != nil || len(songs) == 0 {
		h.reply(s, i, "that playlist is empty", true)
		return
	}

	h.deferReply(s, i)

	sess, err := h.joinFor(ctx, s, i)
	if err != nil {
		h.editReply(s, i, err.Error())
		return
	}

	limit := h.cfg.PlaylistLimit
	if set, err := h.repo.GetSettings(ctx, i.GuildID); err == nil && set.PlaylistLimit > 0 {
		limit = set.PlaylistLimit
	}

	added := 0
	for _, song := range songs {
		if limit > 0 && added >= limit {
			break
		}
		tracks, err := h.res.Resolve(ctx, song.Query)
		if err != nil || len(tracks) == 0 {
			slog.Debug("playlist song resolve failed", "guildID", i.GuildID, "query", song.Query, "err", err)
			continue
		}
		h.enqueueAll(sess, i, tracks[:1])
		added++
	}

	if added == 0 {
		h.editReply(s, i, "no songs found")
		return
	}
	slog.Info("cmd play-playlist", "guildID", i.GuildID, "userID", userIDOf(i), "name", name, "added", added)
	h.editReply(s, i, fmt.Sprintf("queued %d songs from %s", added, utils.EscapeMd(pl.Name)))
}

func (h *CommandHandler) cmdConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	if _, err := h.repo.UpsertSettings(ctx, i.GuildID); err != nil {
		slog.Warn("upsert settings failed", "guildID", i.GuildID, "err", err)
	}
	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "get":
		set, err := h.repo.GetSettings(ctx, i.GuildID)
		if err != nil {
			slog.Error("get settings failed", "guildID", i.GuildID, "err", err)
			h.reply(s, i, "failed to fetch config", true)
			return
		}
		msg := fmt.Sprintf(
			"Config\n- Playlist Limit: %d\n- Default volume: %d\n- Default queue page size: %d\n- Auto announce next song: %t",
			set.PlaylistLimit, set.DefaultVolume, set.DefaultQueuePageSize, set.AutoAnnounceNext,
		)
		slog.Debug("config get", "guildID", i.GuildID)
		h.reply(s, i, msg, false)
	case "set-playlist-limit":
		limit := int(sub.Options[0].IntValue())
		if limit < 1 {
			h.reply(s, i, "invalid limit", true)
			return
		}
		set, _ := h.repo.GetSettings(ctx, i.GuildID)
		set.PlaylistLimit = limit
		_ = h.repo.UpdateSettings(ctx, set)
		slog.Info("config updated", "guildID", i.GuildID, "key", "PlaylistLimit", "value", limit)
		h.reply(s, i, "👍 limit updated", false)
	case "set-default-volume":
		val := int(sub.Options[0].IntValue())
		if val < 0 || val > 100 {
			h.reply(s, i, "volume must be between 0 and 100", true)
			return
		}
		set, _ := h.repo.GetSettings(ctx, i.GuildID)
		set.DefaultVolume = val
		_ = h.repo.UpdateSettings(ctx, set)
		slog.Info("config updated", "guildID", i.GuildID, "key", "DefaultVolume", "value", val)
		h.reply(s, i, "👍 volume setting updated", false)
	case "set-auto-announce-next-song":
		val := sub.Options[0].BoolValue()
		set, _ := h.repo.GetSettings(ctx, i.GuildID)
		set.AutoAnnounceNext = val
		_ = h.repo.UpdateSettings(ctx, set)
		slog.Info("config updated", "guildID", i.GuildID, "key", "AutoAnnounceNext", "value", val)
		h.reply(s, i, "👍 auto announce setting updated", false)
	}
}

func userIDOf(i *discordgo.InteractionCreate) string {
	if i == nil || i.Member == nil || i.Member.User == nil {
		return ""
	}
	return i.Member.User.ID
}
