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

//go:build portaudio

// Package portaudio captures the default input device. It requires the PortAudio C library.
package portaudio

import (
	"errors"

	"github.com/gordonklaus/portaudio"
	msdk "github.com/livekit/media-sdk"

	"github.com/livekit/wavrec/pkg/media"
)

const Available = true

// Open starts capturing from the default input device.
func Open(sampleRate, channels int) (*media.FrameSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	buf := make(msdk.PCM16Sample, sampleRate/media.DefFramesPerSec*channels)
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), len(buf)/channels, []int16(buf))
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	if err = stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, err
	}
	m := &mic{stream: stream, buf: buf}
	return media.NewFrameSource("Mic", sampleRate, channels, m.nextFrame, m.close), nil
}

type mic struct {
	stream *portaudio.Stream
	buf    msdk.PCM16Sample
}

func (m *mic) nextFrame() (msdk.PCM16Sample, error) {
	if err := m.stream.Read(); err != nil {
		return nil, err
	}
	return m.buf, nil
}

func (m *mic) close() error {
	err := errors.Join(m.stream.Stop(), m.stream.Close())
	return errors.Join(err, portaudio.Terminate())
}
