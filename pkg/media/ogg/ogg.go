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

// Package ogg replays Ogg Vorbis files as a capture source.
package ogg

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
	msdk "github.com/livekit/media-sdk"

	"github.com/livekit/wavrec/pkg/media"
)

// Open decodes the Ogg Vorbis file at path.
func Open(path string) (*media.FrameSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewSource(f, f.Close)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}

// NewSource decodes Ogg Vorbis audio from r. The closer is called when the source is closed, if set.
func NewSource(r io.Reader, closer func() error) (*media.FrameSource, error) {
	or, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read ogg stream: %w", err)
	}
	perFrame := or.SampleRate() / media.DefFramesPerSec * or.Channels()
	d := &decoder{
		r:   or,
		buf: make([]float32, perFrame),
		out: make(msdk.PCM16Sample, perFrame),
	}
	return media.NewFrameSource("Ogg", or.SampleRate(), or.Channels(), d.nextFrame, closer), nil
}

type decoder struct {
	r   *oggvorbis.Reader
	buf []float32
	out msdk.PCM16Sample
}

func (d *decoder) nextFrame() (msdk.PCM16Sample, error) {
	// Frames in the source file may be shorter, so a frame is returned as soon as any samples are decoded.
	n, err := d.r.Read(d.buf)
	frame := d.out[:n]
	for i := range frame {
		frame[i] = toPCM16(d.buf[i])
	}
	return frame, err
}

func toPCM16(v float32) int16 {
	switch {
	case v >= 1:
		return 0x7fff
	case v <= -1:
		return -0x7fff
	}
	return int16(v * 0x7fff)
}
