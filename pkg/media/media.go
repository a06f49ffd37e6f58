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

package media

import (
	"fmt"
	"io"
	"time"

	msdk "github.com/livekit/media-sdk"
)

const (
	// DefFrameDur is a default duration of an audio frame.
	DefFrameDur = 20 * time.Millisecond
	// DefFramesPerSec is a default number of audio frames per second.
	DefFramesPerSec = int(time.Second / DefFrameDur)
)

// Source is a capture device producing raw signed 16-bit little-endian PCM.
//
// Read may return 0 bytes with a nil error when no data is ready.
// It returns io.EOF when the source is exhausted.
type Source interface {
	String() string
	SampleRate() int
	Channels() int
	Read(p []byte) (int, error)
	Close() error
}

// FrameFunc returns the next PCM frame. A frame may be returned together with an error,
// in which case the error is reported after the frame is consumed.
type FrameFunc func() (msdk.PCM16Sample, error)

// NewFrameSource adapts a frame producer to a byte-oriented Source.
// Parts of a frame that do not fit into the caller's buffer are kept for the next Read.
func NewFrameSource(name string, sampleRate, channels int, next FrameFunc, closer func() error) *FrameSource {
	return &FrameSource{
		name:       name,
		sampleRate: sampleRate,
		channels:   channels,
		next:       next,
		closer:     closer,
	}
}

type FrameSource struct {
	name       string
	sampleRate int
	channels   int
	next       FrameFunc
	closer     func() error
	buf        LPCM16Sample
	pending    LPCM16Sample
	err        error
	closed     bool
}

var _ Source = (*FrameSource)(nil)

func (s *FrameSource) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.name, s.sampleRate, s.channels)
}

func (s *FrameSource) SampleRate() int {
	return s.sampleRate
}

func (s *FrameSource) Channels() int {
	return s.channels
}

func (s *FrameSource) Read(p []byte) (int, error) {
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		frame, err := s.next()
		s.err = err
		s.buf = AppendPCM(s.buf[:0], frame)
		s.pending = s.buf
		if len(s.pending) == 0 {
			return 0, err
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *FrameSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
