package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		bytes int
		want  time.Duration
	}{
		{0, 0},
		{48000, time.Second}, // 24000 samples * 2 bytes
		{24000, 500 * time.Millisecond},
		{4800, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		pcm := make([]byte, tt.bytes)
		if got := Duration(pcm); got != tt.want {
			t.Fatalf("Duration(%d bytes) = %v, want %v", tt.bytes, got, tt.want)
		}
	}
}

func TestEncodeWAV(t *testing.T) {
	pcm := make([]byte, 4800)
	for i := 0; i < len(pcm); i += 2 {
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(i%2000-1000)))
	}

	out, err := EncodeWAV(pcm)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(out) < 44+len(pcm) {
		t.Fatalf("container too small: %d bytes", len(out))
	}
	if !bytes.HasPrefix(out, []byte("RIFF")) {
		t.Fatalf("missing RIFF magic: % x", out[:4])
	}
	if !bytes.Equal(out[8:12], []byte("WAVE")) {
		t.Fatalf("missing WAVE type: % x", out[8:12])
	}
	// Declared sample rate sits at offset 24 of the canonical fmt chunk.
	if rate := binary.LittleEndian.Uint32(out[24:28]); rate != SampleRate {
		t.Fatalf("declared sample rate = %d, want %d", rate, SampleRate)
	}
	if channels := binary.LittleEndian.Uint16(out[22:24]); channels != Channels {
		t.Fatalf("declared channels = %d, want %d", channels, Channels)
	}
}

func TestEncodeWAVRejectsUnaligned(t *testing.T) {
	if _, err := EncodeWAV(make([]byte, 4801)); err == nil {
		t.Fatal("expected error for odd-length PCM")
	}
}

func TestSeekBuffer(t *testing.T) {
	var buf seekBuffer
	if _, err := buf.Write([]byte("hello world")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := buf.Seek(0, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if _, err := buf.Write([]byte("HELLO")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := string(buf.data); got != "HELLO world" {
		t.Fatalf("buffer = %q, want %q", got, "HELLO world")
	}
}
