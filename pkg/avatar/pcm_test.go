package avatar

import (
	"math"
	"testing"
	"time"

	"github.com/zaf/g711"
)

func TestDecodeSamplesPCM16(t *testing.T) {
	format := DefaultPCMFormat()

	data := []byte{
		0x00, 0x00, // 0
		0xFF, 0x7F, // 32767
		0x00, 0x80, // -32768
	}
	samples, pcm, err := decodeSamples(data, format)
	if err != nil {
		t.Fatalf("decodeSamples: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("samples[0] = %v, want 0", samples[0])
	}
	if math.Abs(samples[1]-32767.0/32768.0) > 1e-9 {
		t.Errorf("samples[1] = %v, want ~1", samples[1])
	}
	if samples[2] != -1 {
		t.Errorf("samples[2] = %v, want -1", samples[2])
	}
	if len(pcm) != len(data) {
		t.Errorf("pcm passthrough length = %d, want %d", len(pcm), len(data))
	}
}

func TestDecodeSamplesMuLaw(t *testing.T) {
	format := DefaultPCMFormat()
	format.Encoding = EncodingMuLaw

	// Round-trip a known PCM16 signal through the encoder so the decode
	// path sees real µ-law bytes.
	src := []int16{0, 1000, -1000, 8000, -8000}
	raw := make([]byte, len(src)*2)
	for i, v := range src {
		raw[i*2] = byte(v)
		raw[i*2+1] = byte(v >> 8)
	}
	ulaw := g711.EncodeUlaw(raw)

	samples, pcm, err := decodeSamples(ulaw, format)
	if err != nil {
		t.Fatalf("decodeSamples: %v", err)
	}
	if len(samples) != len(src) {
		t.Fatalf("samples = %d, want %d", len(samples), len(src))
	}
	if len(pcm) != len(src)*2 {
		t.Fatalf("pcm bytes = %d, want %d", len(pcm), len(src)*2)
	}
	// µ-law is lossy: check sign and rough magnitude only.
	for i, want := range src {
		got := samples[i] * 32768.0
		if math.Abs(got-float64(want)) > 600 {
			t.Errorf("sample %d = %v, want near %d", i, got, want)
		}
	}
}

func TestDecodeSamplesErrors(t *testing.T) {
	format := DefaultPCMFormat()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty chunk", nil},
		{"odd byte count", []byte{0x01, 0x02, 0x03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeSamples(tt.data, format)
			if !IsDecodeError(err) {
				t.Fatalf("err = %v, want DecodeError", err)
			}
		})
	}
}

func TestChunkDuration(t *testing.T) {
	format := DefaultPCMFormat()
	if got := chunkDuration(DefaultSampleRate, format); got != time.Second {
		t.Errorf("one second of frames = %v, want 1s", got)
	}
	if got := chunkDuration(DefaultSampleRate/2, format); got != 500*time.Millisecond {
		t.Errorf("half second of frames = %v, want 500ms", got)
	}

	stereo := format
	stereo.Channels = 2
	if got := chunkDuration(DefaultSampleRate*2, stereo); got != time.Second {
		t.Errorf("stereo second = %v, want 1s", got)
	}
}

func TestSilence(t *testing.T) {
	format := DefaultPCMFormat()
	data := Silence(250*time.Millisecond, format)

	wantFrames := DefaultSampleRate / 4
	if len(data) != wantFrames*format.frameSize() {
		t.Fatalf("silence bytes = %d, want %d", len(data), wantFrames*format.frameSize())
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("non-zero byte at %d", i)
		}
	}
}
