package avatar

import (
	"encoding/binary"
	"time"

	"github.com/zaf/g711"
)

// ChunkEncoding identifies the byte encoding of an incoming audio chunk.
type ChunkEncoding int

const (
	// EncodingPCM16 is 16-bit signed little-endian linear PCM.
	EncodingPCM16 ChunkEncoding = iota
	// EncodingMuLaw is 8-bit G.711 µ-law, decoded to PCM16 on ingest.
	EncodingMuLaw
)

// PCMFormat describes the fixed audio format of a session.
type PCMFormat struct {
	SampleRate int
	Channels   int
	Encoding   ChunkEncoding
}

// DefaultPCMFormat returns the engine's default session format.
func DefaultPCMFormat() PCMFormat {
	return PCMFormat{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Encoding:   EncodingPCM16,
	}
}

// frameSize returns the byte size of one frame (all channels).
func (f PCMFormat) frameSize() int {
	return BytesPerSample * f.Channels
}

// decodeSamples converts raw chunk bytes into normalized [-1,1] samples
// and the canonical PCM16 byte representation. A malformed chunk yields
// a DecodeError scoped to that chunk.
func decodeSamples(data []byte, format PCMFormat) ([]float64, []byte, error) {
	if len(data) == 0 {
		return nil, nil, &DecodeError{Reason: "empty chunk"}
	}

	pcm := data
	if format.Encoding == EncodingMuLaw {
		pcm = g711.DecodeUlaw(data)
	}

	if len(pcm)%format.frameSize() != 0 {
		return nil, nil, &DecodeError{
			Reason: "chunk length not aligned to sample frames",
		}
	}

	samples := make([]float64, len(pcm)/BytesPerSample)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*BytesPerSample:]))
		samples[i] = float64(v) / 32768.0
	}
	return samples, pcm, nil
}

// chunkDuration returns the playback duration of decoded samples.
func chunkDuration(sampleCount int, format PCMFormat) time.Duration {
	frames := sampleCount / format.Channels
	return time.Duration(frames) * time.Second / time.Duration(format.SampleRate)
}

// Silence generates silent PCM16 bytes for the given duration.
func Silence(d time.Duration, format PCMFormat) []byte {
	frames := int(d.Seconds() * float64(format.SampleRate))
	return make([]byte, frames*format.frameSize())
}
