// Package ui builds the Discord embeds the command handlers reply with.
package ui

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/torabot/internal/repository"
	"github.com/sonroyaalmerol/torabot/internal/session"
	"github.com/sonroyaalmerol/torabot/internal/utils"
)

const (
	colorPlaying = 0x006400
	colorPaused  = 0x8B0000
	colorError   = 0x992222
)

func trackLink(t *session.Track) string {
	title := utils.EscapeMd(t.Title)
	if t.URL == "" {
		return fmt.Sprintf("**%s**", title)
	}
	return fmt.Sprintf("[%s](%s)", title, t.URL)
}

func trackLength(t *session.Track) string {
	if t.IsLive {
		return "live"
	}
	return utils.PrettyTime(int(t.Duration / time.Second))
}

func BuildPlayingEmbed(s *session.Session) *discordgo.MessageEmbed {
	cur := s.Current()
	if cur == nil {
		return &discordgo.MessageEmbed{
			Title:       "Nothing Playing",
			Description: "No playing song found",
			Color:       colorError,
		}
	}

	loop := ""
	if s.Loop() {
		loop = " 🔂"
	}

	desc := fmt.Sprintf("%s `[ %s ]`%s\nRequested by: <@%s>",
		trackLink(cur), trackLength(cur), loop, cur.RequestedBy)

	title := "Now Playing"
	color := colorPlaying
	if s.IsPaused() {
		title = "Paused"
		color = colorPaused
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Source: %s", cur.Artist),
		},
	}
	if cur.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.Thumbnail}
	}
	return embed
}

// BuildQueueEmbed renders one page of the queue, pageSize tracks per page.
// Page numbers are 1-based.
func BuildQueueEmbed(s *session.Session, page, pageSize int) (*discordgo.MessageEmbed, error) {
	cur := s.Current()
	if cur == nil {
		return nil, fmt.Errorf("queue is empty")
	}
	total := s.QueueLen()
	maxPage := (total + pageSize - 1) / pageSize
	if maxPage == 0 {
		maxPage = 1
	}
	if page < 1 || page > maxPage {
		return nil, fmt.Errorf("the queue isn't that big")
	}

	begin := (page - 1) * pageSize
	items := s.QueueSlice(begin, begin+pageSize)

	out := ""
	for idx := range items {
		t := &items[idx]
		out += fmt.Sprintf("`%d.` %s `[ %s ]`\n", begin+idx+1, trackLink(t), trackLength(t))
	}

	var totalLen time.Duration
	for _, t := range s.QueueSlice(0, total) {
		if !t.IsLive {
			totalLen += t.Duration
		}
	}

	loop := ""
	if s.Loop() {
		loop = " (loop on)"
	}

	desc := fmt.Sprintf("%s `[ %s ]`\nRequested by: <@%s>\n\n",
		trackLink(cur), trackLength(cur), cur.RequestedBy)
	if len(items) > 0 {
		desc += "**Up next:**\n" + out
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing" + loop,
		Description: desc,
		Color:       colorPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "In queue", Value: queueInfo(total), Inline: true},
			{Name: "Total length", Value: totalLenStr(totalLen), Inline: true},
			{Name: "Page", Value: fmt.Sprintf("%d out of %d", page, maxPage), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Source: %s", cur.Artist),
		},
	}
	if cur.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.Thumbnail}
	}
	return embed, nil
}

// BuildPlaylistEmbed lists a playlist's songs.
func BuildPlaylistEmbed(pl *repository.Playlist, songs []repository.Song) *discordgo.MessageEmbed {
	out := ""
	for i, s := range songs {
		out += fmt.Sprintf("`%d.` %s\n", i+1, utils.EscapeMd(s.Query))
	}
	if out == "" {
		out = "No songs yet."
	}
	return &discordgo.MessageEmbed{
		Title:       utils.EscapeMd(pl.Name),
		Description: out,
		Color:       colorPlaying,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Created by <@%s>", pl.Author),
		},
	}
}

func queueInfo(n int) string {
	if n == 0 {
		return "-"
	}
	if n == 1 {
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}

func totalLenStr(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return utils.PrettyTime(int(d / time.Second))
}
