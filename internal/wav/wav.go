// Package wav wraps raw 16-bit mono PCM samples in a canonical RIFF/WAVE container.
package wav

import "encoding/binary"

const (
	HeaderSize    = 44
	channels      = 1
	bitsPerSample = 16
	formatPCM     = 1
)

// Header returns the 44-byte header for dataLength bytes of PCM at sampleRate.
func Header(dataLength, sampleRate int) []byte {
	blockAlign := channels * bitsPerSample / 8
	h := make([]byte, HeaderSize)
	le := binary.LittleEndian

	copy(h[0:4], "RIFF")
	le.PutUint32(h[4:8], uint32(36+dataLength))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	le.PutUint32(h[16:20], 16)
	le.PutUint16(h[20:22], formatPCM)
	le.PutUint16(h[22:24], channels)
	le.PutUint32(h[24:28], uint32(sampleRate))
	le.PutUint32(h[28:32], uint32(sampleRate*blockAlign))
	le.PutUint16(h[32:34], uint16(blockAlign))
	le.PutUint16(h[34:36], bitsPerSample)
	copy(h[36:40], "data")
	le.PutUint32(h[40:44], uint32(dataLength))
	return h
}

// Encode prepends the header to pcm and returns a playable WAV file.
func Encode(pcm []byte, sampleRate int) []byte {
	out := make([]byte, 0, HeaderSize+len(pcm))
	out = append(out, Header(len(pcm), sampleRate)...)
	return append(out, pcm...)
}
