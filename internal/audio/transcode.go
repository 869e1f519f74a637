package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/hearsaylabs/hearsay/internal/config"
)

// Transcoder re-encodes raw synthesis PCM into a playable container.
type Transcoder interface {
	Transcode(ctx context.Context, pcm []byte) ([]byte, error)
	Extension() string
}

// NewTranscoder selects a container backend from config. WAV is pure Go;
// OGG and MP3 shell out to an ffmpeg-style command reading PCM on stdin and
// writing the container to stdout.
func NewTranscoder(cfg config.AudioConfig) (Transcoder, error) {
	switch cfg.Container {
	case "wav":
		return wavTranscoder{}, nil
	case "ogg", "mp3":
		return newExecTranscoder(cfg.FFmpegCommand, cfg.Container)
	default:
		return nil, fmt.Errorf("unsupported audio container %q", cfg.Container)
	}
}

type wavTranscoder struct{}

func (wavTranscoder) Transcode(_ context.Context, pcm []byte) ([]byte, error) {
	return EncodeWAV(pcm)
}

func (wavTranscoder) Extension() string { return "wav" }

type execTranscoder struct {
	cmd []string
	ext string
}

func newExecTranscoder(command, ext string) (Transcoder, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse transcode command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("transcode command empty")
	}
	return &execTranscoder{cmd: args, ext: ext}, nil
}

func (e *execTranscoder) Transcode(ctx context.Context, pcm []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(pcm)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("transcode: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

func (e *execTranscoder) Extension() string { return e.ext }
