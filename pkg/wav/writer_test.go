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
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	rerrors "github.com/livekit/wavrec/pkg/errors"
)

var _ io.WriteSeeker = (*memSink)(nil)

// memSink is an in-memory io.WriteSeeker.
type memSink struct {
	buf    []byte
	off    int64
	writes int

	failAfter int // fail writes once this many bytes were accepted; 0 disables
}

func (s *memSink) Write(p []byte) (int, error) {
	s.writes++
	if s.failAfter > 0 && s.off+int64(len(p)) > int64(s.failAfter) {
		n := int(int64(s.failAfter) - s.off)
		if n < 0 {
			n = 0
		}
		s.put(p[:n])
		return n, errors.New("disk full")
	}
	s.put(p)
	return len(p), nil
}

func (s *memSink) put(p []byte) {
	if end := s.off + int64(len(p)); end > int64(len(s.buf)) {
		s.buf = append(s.buf, make([]byte, end-int64(len(s.buf)))...)
	}
	copy(s.buf[s.off:], p)
	s.off += int64(len(p))
}

func (s *memSink) Seek(off int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		off += s.off
	case io.SeekEnd:
		off += int64(len(s.buf))
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	s.off = off
	return off, nil
}

func le32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func le16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

func TestWriter(t *testing.T) {
	t.Run("three chunks", func(t *testing.T) {
		sink := &memSink{}
		w, err := Open(sink, DefaultFormat)
		require.NoError(t, err)

		for _, sz := range []int{100, 250, 4096} {
			chunk := bytes.Repeat([]byte{0x5a}, sz)
			require.NoError(t, w.WriteChunk(chunk))
		}
		n, err := w.Finalize()
		require.NoError(t, err)
		require.Equal(t, int64(4446), n)

		b := sink.buf
		require.Len(t, b, HeaderSize+4446)
		require.Equal(t, "RIFF", string(b[0:4]))
		require.Equal(t, uint32(4482), le32(b, 4))
		require.Equal(t, "WAVE", string(b[8:12]))
		require.Equal(t, "fmt ", string(b[12:16]))
		require.Equal(t, uint32(16), le32(b, 16))
		require.Equal(t, uint16(1), le16(b, 20))
		require.Equal(t, uint16(1), le16(b, 22))
		require.Equal(t, uint32(16000), le32(b, 24))
		require.Equal(t, uint32(32000), le32(b, 28))
		require.Equal(t, uint16(2), le16(b, 32))
		require.Equal(t, uint16(16), le16(b, 34))
		require.Equal(t, "data", string(b[36:40]))
		require.Equal(t, uint32(4446), le32(b, 40))
		require.Equal(t, bytes.Repeat([]byte{0x5a}, 4446), b[HeaderSize:])
	})
	t.Run("no chunks", func(t *testing.T) {
		sink := &memSink{}
		w, err := Open(sink, DefaultFormat)
		require.NoError(t, err)
		n, err := w.Finalize()
		require.NoError(t, err)
		require.Zero(t, n)
		require.Len(t, sink.buf, HeaderSize)
		require.Equal(t, uint32(36), le32(sink.buf, 4))
		require.Equal(t, uint32(0), le32(sink.buf, 40))
	})
	t.Run("placeholder before finalize", func(t *testing.T) {
		sink := &memSink{}
		w, err := Open(sink, DefaultFormat)
		require.NoError(t, err)
		require.Equal(t, make([]byte, HeaderSize), sink.buf)
		require.Zero(t, w.Size())
	})
	t.Run("empty chunk", func(t *testing.T) {
		sink := &memSink{}
		w, err := Open(sink, DefaultFormat)
		require.NoError(t, err)
		require.NoError(t, w.WriteChunk(nil))
		require.NoError(t, w.WriteChunk([]byte{}))
		require.Zero(t, w.Size())
		n, err := w.Finalize()
		require.NoError(t, err)
		require.Zero(t, n)
		require.Len(t, sink.buf, HeaderSize)
	})
	t.Run("header offsets do not drift", func(t *testing.T) {
		for _, total := range []int{1, 2, 43, 44, 45, 4095, 70000} {
			sink := &memSink{}
			w, err := Open(sink, DefaultFormat)
			require.NoError(t, err)
			data := make([]byte, total)
			for i := range data {
				data[i] = byte(i)
			}
			for len(data) > 0 {
				n := min(len(data), 1000)
				require.NoError(t, w.WriteChunk(data[:n]))
				data = data[n:]
			}
			_, err = w.Finalize()
			require.NoError(t, err)

			h, err := ReadHeader(bytes.NewReader(sink.buf))
			require.NoError(t, err)
			require.Equal(t, NewHeader(DefaultFormat, uint32(total)), *h)
			require.Len(t, sink.buf, HeaderSize+total)
			require.Equal(t, byte(0), sink.buf[HeaderSize])
		}
	})
	t.Run("finalize twice", func(t *testing.T) {
		sink := &memSink{}
		w, err := Open(sink, DefaultFormat)
		require.NoError(t, err)
		require.NoError(t, w.WriteChunk([]byte{1, 2, 3, 4}))
		_, err = w.Finalize()
		require.NoError(t, err)

		before := bytes.Clone(sink.buf)
		writes := sink.writes
		_, err = w.Finalize()
		require.ErrorIs(t, err, rerrors.ErrInvalidState)
		require.Equal(t, before, sink.buf)
		require.Equal(t, writes, sink.writes)

		err = w.WriteChunk([]byte{5, 6})
		require.ErrorIs(t, err, rerrors.ErrInvalidState)
		require.Equal(t, before, sink.buf)
	})
	t.Run("write failure", func(t *testing.T) {
		sink := &memSink{failAfter: HeaderSize + 10}
		w, err := Open(sink, DefaultFormat)
		require.NoError(t, err)
		require.NoError(t, w.WriteChunk([]byte{1, 2}))

		big := make([]byte, 2*defaultBufferSize)
		err = w.WriteChunk(big)
		require.ErrorIs(t, err, rerrors.ErrIO)
		var ioErr *rerrors.IOError
		require.ErrorAs(t, err, &ioErr)
		require.Equal(t, int64(2), w.Size())

		require.ErrorIs(t, w.WriteChunk([]byte{1}), rerrors.ErrInvalidState)
		_, err = w.Finalize()
		require.ErrorIs(t, err, rerrors.ErrIO)
		// Placeholder is left in place.
		require.Equal(t, make([]byte, HeaderSize), sink.buf[:HeaderSize])
	})
	t.Run("abort", func(t *testing.T) {
		sink := &memSink{}
		w, err := Open(sink, DefaultFormat)
		require.NoError(t, err)
		require.NoError(t, w.WriteChunk([]byte{1, 2}))
		require.NoError(t, w.Abort())
		require.Equal(t, make([]byte, HeaderSize), sink.buf)
		_, err = w.Finalize()
		require.ErrorIs(t, err, rerrors.ErrInvalidState)
	})
	t.Run("finalize without open", func(t *testing.T) {
		var w Writer
		_, err := w.Finalize()
		require.ErrorIs(t, err, rerrors.ErrInvalidState)
		require.ErrorIs(t, w.WriteChunk([]byte{1, 2}), rerrors.ErrInvalidState)
		require.ErrorIs(t, w.Abort(), rerrors.ErrInvalidState)
		require.Zero(t, w.Size())

		var nw *Writer
		_, err = nw.Finalize()
		require.ErrorIs(t, err, rerrors.ErrInvalidState)
		require.ErrorIs(t, nw.WriteChunk([]byte{1, 2}), rerrors.ErrInvalidState)
		require.ErrorIs(t, nw.Abort(), rerrors.ErrInvalidState)
	})
}

func TestWriterFormat(t *testing.T) {
	for _, c := range []struct {
		name string
		f    Format
		ok   bool
	}{
		{"default", DefaultFormat, true},
		{"stereo 48k", Format{SampleRate: 48000, Channels: 2, BitsPerSample: 16}, true},
		{"zero rate", Format{SampleRate: 0, Channels: 1, BitsPerSample: 16}, false},
		{"negative rate", Format{SampleRate: -8000, Channels: 1, BitsPerSample: 16}, false},
		{"zero channels", Format{SampleRate: 8000, Channels: 0, BitsPerSample: 16}, false},
		{"8 bit", Format{SampleRate: 8000, Channels: 1, BitsPerSample: 8}, false},
		{"24 bit", Format{SampleRate: 8000, Channels: 1, BitsPerSample: 24}, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			sink := &memSink{}
			w, err := Open(sink, c.f)
			if !c.ok {
				require.ErrorIs(t, err, rerrors.ErrUnsupportedFormat)
				require.Empty(t, sink.buf)
				return
			}
			require.NoError(t, err)
			_, err = w.Finalize()
			require.NoError(t, err)

			b := sink.buf
			require.Equal(t, uint16(c.f.Channels), le16(b, 22))
			require.Equal(t, uint32(c.f.SampleRate), le32(b, 24))
			require.Equal(t, uint32(c.f.SampleRate*c.f.Channels*c.f.BitsPerSample/8), le32(b, 28))
			require.Equal(t, uint16(c.f.Channels*c.f.BitsPerSample/8), le16(b, 32))
			require.Equal(t, uint16(c.f.BitsPerSample), le16(b, 34))
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xff}, 1000), 0o644))

	w, err := Create(path, DefaultFormat)
	require.NoError(t, err)
	pcm := make([]byte, 320)
	require.NoError(t, w.WriteChunk(pcm))
	n, err := w.Finalize()
	require.NoError(t, err)
	require.Equal(t, int64(320), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+320)
	h, err := ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, uint32(320), h.Subchunk2Size)

	_, err = Create(filepath.Join(dir, "missing", "out.wav"), DefaultFormat)
	require.ErrorIs(t, err, rerrors.ErrIO)
}
