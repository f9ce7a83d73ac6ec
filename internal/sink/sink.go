// Package sink renders tracks to a Discord voice connection. Audio is
// decoded by an ffmpeg subprocess into s16le 48kHz stereo PCM, encoded to
// Opus with gopus, and delivered to the voice connection in 20ms frames.
package sink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/torabot/internal/session"
)

// Dialer connects Discord sinks for one guild. Implements
// [session.SinkDialer].
type Dialer struct {
	s       *discordgo.Session
	guildID string
}

func NewDialer(s *discordgo.Session, guildID string) *Dialer {
	return &Dialer{s: s, guildID: guildID}
}

// Dial implements [session.SinkDialer].
func (d *Dialer) Dial(ctx context.Context, channelID string) (session.AudioSink, error) {
	vc, err := d.s.ChannelVoiceJoin(d.guildID, channelID, false, true)
	if err != nil {
		return nil, err
	}

	// prevents a panic in the connection's teardown when channels are nil
	if vc.OpusSend == nil {
		vc.OpusSend = make(chan []byte, 2)
	}
	if vc.OpusRecv == nil {
		vc.OpusRecv = make(chan *discordgo.Packet, 2)
	}

	return &Discord{
		s:         d.s,
		guildID:   d.guildID,
		vc:        vc,
		channelID: channelID,
		volume:    session.DefaultVolume,
	}, nil
}

// Discord implements [session.AudioSink] over a discordgo voice connection.
// Volume changes take effect on the next Play; the ffmpeg filter chain of an
// in-flight stream cannot be adjusted.
type Discord struct {
	s       *discordgo.Session
	guildID string

	mu        sync.Mutex
	vc        *discordgo.VoiceConnection
	channelID string
	volume    float64
	cur       *playback
}

// playback is the state of one Play call: the ffmpeg/encoder pipeline, the
// pause gate, and the exactly-once completion callback.
type playback struct {
	cancel context.CancelFunc

	finish     sync.Once
	onComplete func(error)

	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func (p *playback) complete(err error) {
	p.finish.Do(func() { p.onComplete(err) })
}

func (p *playback) pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resume = make(chan struct{})
	}
}

func (p *playback) unpause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resume)
	}
}

// gate blocks while paused. Returns false if ctx ended first.
func (p *playback) gate(ctx context.Context) bool {
	p.mu.Lock()
	paused := p.paused
	resume := p.resume
	p.mu.Unlock()
	if !paused {
		return true
	}
	select {
	case <-resume:
		return true
	case <-ctx.Done():
		return false
	}
}

// Play implements [session.AudioSink]. It starts the decode/encode/send
// pipeline and returns; onComplete fires exactly once when the track ends,
// is stopped, or fails.
func (d *Discord) Play(ctx context.Context, t *session.Track, onComplete func(error)) error {
	d.mu.Lock()
	vc := d.vc
	vol := d.volume
	if vc == nil {
		d.mu.Unlock()
		return errors.New("sink is disconnected")
	}
	if d.cur != nil {
		// the session plays one track at a time; a leftover here means the
		// previous pipeline has not observed its cancel yet
		d.cur.cancel()
		d.cur = nil
	}

	playCtx, cancel := context.WithCancel(ctx)
	pb := &playback{cancel: cancel, onComplete: onComplete}
	d.cur = pb
	d.mu.Unlock()

	pcm, err := startPCMStream(playCtx, t.MediaURL, vol)
	if err != nil {
		d.clear(pb)
		cancel()
		return err
	}
	enc, err := newOpusEncoder()
	if err != nil {
		pcm.Close()
		d.clear(pb)
		cancel()
		return err
	}

	go d.stream(playCtx, vc, pb, pcm, enc, t)
	return nil
}

// stream pumps PCM frames through the encoder to the voice connection,
// paced at one frame per 20ms.
func (d *Discord) stream(ctx context.Context, vc *discordgo.VoiceConnection, pb *playback, pcm *pcmStream, enc *opusEncoder, t *session.Track) {
	defer func() {
		pcm.Close()
		_ = vc.Speaking(false)
		d.clear(pb)
		if ctx.Err() != nil {
			// forced stop is a normal completion, not a fault
			pb.complete(nil)
		}
	}()

	if !waitReady(ctx, vc) {
		pb.complete(nil)
		return
	}
	_ = vc.Speaking(true)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !pb.gate(ctx) {
			return
		}

		pkt, err := enc.nextFrame(pcm)
		if err != nil {
			if errors.Is(err, errStreamEnd) {
				pb.complete(nil)
			} else if ctx.Err() == nil {
				slog.Warn("playback pipeline error", "guildID", d.guildID, "title", t.Title, "err", err)
				pb.complete(err)
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		select {
		case <-ctx.Done():
			return
		case vc.OpusSend <- pkt:
		case <-time.After(200 * time.Millisecond):
			slog.Debug("dropped opus frame", "guildID", d.guildID)
		}
	}
}

// clear drops pb from the current slot if it still owns it.
func (d *Discord) clear(pb *playback) {
	d.mu.Lock()
	if d.cur == pb {
		d.cur = nil
	}
	d.mu.Unlock()
}

// Stop implements [session.AudioSink]. Cancels the in-flight pipeline; its
// completion callback fires with nil.
func (d *Discord) Stop() {
	d.mu.Lock()
	pb := d.cur
	d.mu.Unlock()
	if pb != nil {
		pb.unpause()
		pb.cancel()
	}
}

// Pause implements [session.AudioSink].
func (d *Discord) Pause() error {
	d.mu.Lock()
	pb := d.cur
	vc := d.vc
	d.mu.Unlock()
	if pb == nil {
		return errors.New("nothing to pause")
	}
	pb.pause()
	if vc != nil {
		_ = vc.Speaking(false)
	}
	return nil
}

// Resume implements [session.AudioSink].
func (d *Discord) Resume() error {
	d.mu.Lock()
	pb := d.cur
	vc := d.vc
	d.mu.Unlock()
	if pb == nil {
		return errors.New("nothing to resume")
	}
	if vc != nil {
		_ = vc.Speaking(true)
	}
	pb.unpause()
	return nil
}

// IsPlaying implements [session.AudioSink].
func (d *Discord) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return false
	}
	d.cur.mu.Lock()
	paused := d.cur.paused
	d.cur.mu.Unlock()
	return !paused
}

// IsPaused implements [session.AudioSink].
func (d *Discord) IsPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return false
	}
	d.cur.mu.Lock()
	defer d.cur.mu.Unlock()
	return d.cur.paused
}

// SetVolume implements [session.AudioSink]. Applied on the next Play.
func (d *Discord) SetVolume(frac float64) {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	d.mu.Lock()
	d.volume = frac
	d.mu.Unlock()
}

// MoveTo implements [session.AudioSink]. discordgo moves the existing voice
// connection when joining another channel in the same guild.
func (d *Discord) MoveTo(ctx context.Context, channelID string) error {
	d.mu.Lock()
	same := d.channelID == channelID
	d.mu.Unlock()
	if same {
		return nil
	}
	vc, err := d.s.ChannelVoiceJoin(d.guildID, channelID, false, true)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.vc = vc
	d.channelID = channelID
	d.mu.Unlock()
	return nil
}

// Close implements [session.AudioSink]. Stops playback and disconnects.
// Safe to call more than once.
func (d *Discord) Close() error {
	d.Stop()

	d.mu.Lock()
	vc := d.vc
	d.vc = nil
	d.channelID = ""
	d.mu.Unlock()

	if vc == nil {
		return nil
	}
	return disconnect(vc, d.guildID)
}

// disconnect tears down a voice connection, recovering from the panics the
// discordgo teardown can raise when its channels were never initialized.
func disconnect(vc *discordgo.VoiceConnection, guildID string) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("voice disconnect panic recovered", "panic", r, "guildID", guildID)
		}
	}()

	if vc.OpusSend == nil {
		vc.OpusSend = make(chan []byte, 2)
	}
	if vc.OpusRecv == nil {
		vc.OpusRecv = make(chan *discordgo.Packet, 2)
	}

	_ = vc.Speaking(false)

	return vc.Disconnect()
}

func waitReady(ctx context.Context, vc *discordgo.VoiceConnection) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if vc.Ready && vc.OpusSend != nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(100 * time.Millisecond):
		}
	}
	return false
}
