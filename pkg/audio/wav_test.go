package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	wav := EncodeWAV(pcm, 16000, 1)

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32])) // byte rate
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := make([]byte, 320)
	for i := range pcm {
		pcm[i] = byte(i)
	}

	decoded, rate, channels, err := DecodeWAV(EncodeWAV(pcm, 8000, 2))
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	assert.Equal(t, 2, channels)
	assert.Equal(t, pcm, decoded)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, _, err := DecodeWAV([]byte("definitely not a wav file, far too short to matter"))
	require.Error(t, err)
}

func TestEncodeFrameWAVMatchesFramePCM(t *testing.T) {
	frame, err := PCM16ToFrame([]byte{0, 0, 255, 127, 0, 128}, Rate16k, Mono, 0, 0)
	require.NoError(t, err)

	pcm, rate, channels, decErr := DecodeWAV(EncodeFrameWAV(frame))
	require.NoError(t, decErr)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, 1, channels)
	assert.Equal(t, FrameToPCM16(frame), pcm)
}
