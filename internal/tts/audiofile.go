package tts

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/hraban/opus"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
)

// opusClockRate is the fixed granule clock of Opus in Ogg, independent of the input rate.
const opusClockRate = 48000

// writeWAV stores PCM16LE mono as a canonical 44-byte-header WAV file.
func writeWAV(path string, pcm []byte, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	const channels, bits = 1, 16
	byteRate := sampleRate * channels * bits / 8
	header := struct {
		RIFF          [4]byte
		ChunkSize     uint32
		WAVE          [4]byte
		Fmt           [4]byte
		Subchunk1Size uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		Subchunk2Size uint32
	}{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    channels * bits / 8,
		BitsPerSample: bits,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}
	if err := binary.Write(f, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("wav header: %w", err)
	}
	if _, err := f.Write(pcm); err != nil {
		return fmt.Errorf("wav data: %w", err)
	}
	return f.Close()
}

// writeOgg encodes PCM16LE mono to 20ms Opus frames in an Ogg container.
// sampleRate must be one Opus accepts (8, 12, 16, 24 or 48 kHz).
func writeOgg(path string, pcm []byte, sampleRate int) error {
	enc, err := opus.NewEncoder(sampleRate, 1, opus.AppVoIP)
	if err != nil {
		return fmt.Errorf("opus encoder: %w", err)
	}
	w, err := oggwriter.New(path, uint32(sampleRate), 1)
	if err != nil {
		return fmt.Errorf("ogg writer: %w", err)
	}

	frameSamples := sampleRate / 50
	samples := pcmToInt16(pcm)
	opusBuf := make([]byte, 4000)
	frame := make([]int16, frameSamples)
	var seq uint16
	var ts uint32
	for off := 0; off < len(samples); off += frameSamples {
		// zero-pad the final partial frame
		n := copy(frame, samples[off:])
		for i := n; i < frameSamples; i++ {
			frame[i] = 0
		}
		size, err := enc.Encode(frame, opusBuf)
		if err != nil {
			_ = w.Close()
			return fmt.Errorf("opus encode: %w", err)
		}
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    111,
				SequenceNumber: seq,
				Timestamp:      ts,
			},
			Payload: append([]byte(nil), opusBuf[:size]...),
		}
		if err := w.WriteRTP(pkt); err != nil {
			_ = w.Close()
			return fmt.Errorf("ogg write: %w", err)
		}
		seq++
		ts += opusClockRate / 50
	}
	return w.Close()
}

func pcmToInt16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return out
}
