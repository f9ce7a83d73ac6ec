package sink

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"layeh.com/gopus"
)

const (
	sampleRate = 48000
	channels   = 2
	frameSize  = 960 // samples per channel, 20ms at 48k
)

// errStreamEnd marks normal end of the PCM stream.
var errStreamEnd = errors.New("stream end")

// pcmStream is an ffmpeg subprocess decoding the input URL to interleaved
// s16le 48kHz stereo PCM on stdout.
type pcmStream struct {
	cmd    *exec.Cmd
	stdout *bufio.Reader
	pipe   io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
}

func startPCMStream(ctx context.Context, inputURL string, volume float64) (*pcmStream, error) {
	ctx2, cancel := context.WithCancel(ctx)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
		"-i", inputURL,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-af", fmt.Sprintf("volume=%.2f", volume),
		"-f", "s16le",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx2, "ffmpeg", args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg start: %w (stderr: %s)", err, stderr.String())
	}

	return &pcmStream{
		cmd:    cmd,
		stdout: bufio.NewReaderSize(pipe, 64*1024),
		pipe:   pipe,
		stderr: stderr,
		cancel: cancel,
	}, nil
}

func (s *pcmStream) Close() {
	s.cancel()
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
}

// opusEncoder turns 20ms PCM frames into Opus packets.
type opusEncoder struct {
	enc    *gopus.Encoder
	pcmBuf []byte
	shorts []int16
}

func newOpusEncoder() (*opusEncoder, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	enc.SetBitrate(160000)

	const bytesPerSample = 2
	return &opusEncoder{
		enc:    enc,
		pcmBuf: make([]byte, frameSize*channels*bytesPerSample),
		shorts: make([]int16, frameSize*channels),
	}, nil
}

// nextFrame reads one 20ms frame from the stream and encodes it. Returns
// errStreamEnd when the PCM source is exhausted.
func (e *opusEncoder) nextFrame(s *pcmStream) ([]byte, error) {
	if _, err := io.ReadFull(s.stdout, e.pcmBuf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if msg := bytes.TrimSpace(s.stderr.Bytes()); len(msg) > 0 {
				return nil, fmt.Errorf("ffmpeg: %s", msg)
			}
			return nil, errStreamEnd
		}
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	for i := 0; i < len(e.shorts); i++ {
		j := i * 2
		e.shorts[i] = int16(e.pcmBuf[j]) | int16(int8(e.pcmBuf[j+1]))<<8
	}
	pkt, err := e.enc.Encode(e.shorts, frameSize, 4000)
	if err != nil {
		return nil, fmt.Errorf("opus encode: %w", err)
	}
	return pkt, nil
}
