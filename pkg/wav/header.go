// Copyright 2026 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/livekit/wavrec/pkg/errors"
)

const (
	// HeaderSize is the size of the canonical PCM WAV header.
	HeaderSize = 44

	fmtChunkSize = 16
	formatPCM    = 1

	// MaxDataSize is the largest PCM payload representable in RIFF size fields.
	MaxDataSize = math.MaxUint32 - (HeaderSize - 8)
)

var (
	magicRIFF = [4]byte{'R', 'I', 'F', 'F'}
	magicWAVE = [4]byte{'W', 'A', 'V', 'E'}
	magicFmt  = [4]byte{'f', 'm', 't', ' '}
	magicData = [4]byte{'d', 'a', 't', 'a'}
)

// Header is the canonical 44-byte RIFF/WAVE header. Field order matches the on-disk layout.
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + data size
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // data size
}

// NewHeader builds a header for dataLen bytes of PCM in format f.
func NewHeader(f Format, dataLen uint32) Header {
	return Header{
		ChunkID:       magicRIFF,
		ChunkSize:     HeaderSize - 8 + dataLen,
		Format:        magicWAVE,
		Subchunk1ID:   magicFmt,
		Subchunk1Size: fmtChunkSize,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.ByteRate()),
		BlockAlign:    uint16(f.BlockAlign()),
		BitsPerSample: uint16(f.BitsPerSample),
		Subchunk2ID:   magicData,
		Subchunk2Size: dataLen,
	}
}

func (h Header) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("wav header too short: need %d bytes, got %d", HeaderSize, len(data))
	}
	return binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, h)
}

// Validate checks chunk identifiers and the PCM format fields.
func (h Header) Validate() error {
	switch {
	case h.ChunkID != magicRIFF:
		return fmt.Errorf("invalid wav file: missing RIFF header")
	case h.Format != magicWAVE:
		return fmt.Errorf("invalid wav file: missing WAVE format")
	case h.Subchunk1ID != magicFmt:
		return fmt.Errorf("invalid wav file: missing fmt chunk")
	case h.Subchunk2ID != magicData:
		return fmt.Errorf("invalid wav file: missing data chunk")
	case h.AudioFormat != formatPCM:
		return fmt.Errorf("%w: audio format %d, only PCM is supported", errors.ErrUnsupportedFormat, h.AudioFormat)
	}
	return h.AudioFormatDesc().Validate()
}

// AudioFormatDesc returns the audio format declared by the header.
func (h Header) AudioFormatDesc() Format {
	return Format{
		SampleRate:    int(h.SampleRate),
		Channels:      int(h.NumChannels),
		BitsPerSample: int(h.BitsPerSample),
	}
}

// Duration of the PCM payload declared by the header.
func (h Header) Duration() time.Duration {
	if h.ByteRate == 0 {
		return 0
	}
	return time.Duration(uint64(h.Subchunk2Size) * uint64(time.Second) / uint64(h.ByteRate))
}

// ReadHeader reads and validates a header from the start of r.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("cannot read wav header: %w", err)
	}
	var h Header
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}
