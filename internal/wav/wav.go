// Package wav reads and writes RIFF/WAVE files carrying uncompressed PCM.
//
// It covers exactly what the assembly pipeline needs: decoding clips that
// ffmpeg produced, concatenating their payloads, and writing the result
// back out. Compressed WAVE variants are rejected.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformed indicates data that is not a well-formed RIFF/WAVE file.
	ErrMalformed = errors.New("malformed wav data")

	// ErrUnsupported indicates a well-formed WAVE file whose codec is not PCM.
	ErrUnsupported = errors.New("unsupported wav encoding")
)

// WAVE format codes from the fmt chunk.
const (
	formatPCM        = 0x0001
	formatExtensible = 0xFFFE
)

const headerSize = 44 // RIFF header + 16-byte fmt chunk + data chunk header

// Format describes the PCM layout of an audio buffer. Two buffers can be
// concatenated only when their Formats are equal.
type Format struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
}

// String renders the format the way ffmpeg reports streams, e.g.
// "44100 Hz, 2 ch, 16-bit".
func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d-bit", f.SampleRate, f.Channels, f.BitsPerSample)
}

// valid reports whether the format can describe real PCM data.
func (f Format) valid() bool {
	return f.SampleRate > 0 && f.Channels > 0 && f.BitsPerSample > 0 && f.BitsPerSample%8 == 0
}

// bytesPerSecond returns the PCM data rate for the format.
func (f Format) bytesPerSecond() int {
	return int(f.SampleRate) * int(f.Channels) * int(f.BitsPerSample) / 8
}

// Duration converts a PCM payload length in bytes to wall-clock time.
func (f Format) Duration(dataLen int) time.Duration {
	bps := f.bytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(float64(dataLen) / float64(bps) * float64(time.Second))
}

// Audio is a decoded PCM buffer: interleaved little-endian samples plus
// the format needed to interpret them.
type Audio struct {
	Format Format
	Data   []byte
}

// Duration returns the playing time of the buffer.
func (a Audio) Duration() time.Duration {
	return a.Format.Duration(len(a.Data))
}

// Decode parses a RIFF/WAVE file and returns its PCM payload.
// Chunks other than fmt and data (LIST, fact, ...) are skipped.
func Decode(data []byte) (Audio, error) {
	if len(data) < 12 {
		return Audio{}, fmt.Errorf("%w: %d bytes is too short for a RIFF header", ErrMalformed, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Audio{}, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrMalformed)
	}

	var (
		format   Format
		haveFmt  bool
		payload  []byte
		haveData bool
	)

	// Walk the chunk list. Chunk payloads are word-aligned: a chunk with
	// an odd size is followed by a pad byte that is not counted in it.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]

		// Writers that cannot seek leave a placeholder size in the final
		// chunk; trust the actual payload length instead.
		if size > len(body) {
			size = len(body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Audio{}, fmt.Errorf("%w: fmt chunk is %d bytes", ErrMalformed, size)
			}
			code := binary.LittleEndian.Uint16(body[0:2])
			if code != formatPCM && code != formatExtensible {
				return Audio{}, fmt.Errorf("%w: format code 0x%04X is not PCM", ErrUnsupported, code)
			}
			format = Format{
				Channels:      binary.LittleEndian.Uint16(body[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(body[4:8]),
				BitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
			}
			haveFmt = true
		case "data":
			payload = body[:size]
			haveData = true
		}

		pos += 8 + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt {
		return Audio{}, fmt.Errorf("%w: no fmt chunk", ErrMalformed)
	}
	if !haveData {
		return Audio{}, fmt.Errorf("%w: no data chunk", ErrMalformed)
	}
	if !format.valid() {
		return Audio{}, fmt.Errorf("%w: fmt chunk describes %s", ErrMalformed, format)
	}

	return Audio{Format: format, Data: payload}, nil
}

// Encode serializes the buffer as a canonical 44-byte-header PCM WAVE file.
func Encode(a Audio) ([]byte, error) {
	if !a.Format.valid() {
		return nil, fmt.Errorf("%w: cannot encode %s", ErrMalformed, a.Format)
	}

	f := a.Format
	blockAlign := int(f.Channels) * int(f.BitsPerSample) / 8
	dataSize := len(a.Data)
	pad := dataSize % 2 // data chunk is word-aligned too
	riffSize := 4 + 8 + 16 + 8 + dataSize + pad

	out := make([]byte, 0, headerSize+dataSize+pad)
	buf := make([]byte, 4)

	put16 := func(v uint16) {
		binary.LittleEndian.PutUint16(buf[:2], v)
		out = append(out, buf[:2]...)
	}
	put32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf, v)
		out = append(out, buf...)
	}

	out = append(out, "RIFF"...)
	put32(uint32(riffSize))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	put32(16)
	put16(formatPCM)
	put16(f.Channels)
	put32(f.SampleRate)
	put32(uint32(f.bytesPerSecond()))
	put16(uint16(blockAlign))
	put16(f.BitsPerSample)

	out = append(out, "data"...)
	put32(uint32(dataSize))
	out = append(out, a.Data...)
	if pad == 1 {
		out = append(out, 0)
	}

	return out, nil
}
