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

package tones

import (
	"io"
	"math"
	"time"

	"github.com/frostbyte73/core"
	msdk "github.com/livekit/media-sdk"

	"github.com/livekit/wavrec/pkg/media"
)

type Hz uint32

func Generate(buf msdk.PCM16Sample, ts, dur time.Duration, amp int16, freq []Hz) time.Duration {
	for i := range buf {
		phi := ts + (dur*time.Duration(i))/time.Duration(len(buf))
		if len(freq) == 0 {
			buf[i] = 0
		} else {
			var sum float64
			for _, hz := range freq {
				ph := (phi * time.Duration(hz) * 2).Seconds() * math.Pi
				sum += math.Sin(ph)
			}
			buf[i] = int16(float64(amp) * sum / float64(len(freq)))
		}
	}
	return ts + dur
}

type Tone struct {
	Freq    []Hz
	Dur     time.Duration
	Silence time.Duration
}

var (
	ETSIDial    = []Tone{{Freq: []Hz{425}}}
	ETSIRinging = []Tone{{Freq: []Hz{425}, Dur: time.Second, Silence: 4 * time.Second}}
	ETSIBusy    = []Tone{{Freq: []Hz{425}, Dur: time.Second / 2, Silence: time.Second / 2}}
)

// Sine returns a continuous tone of a single frequency.
func Sine(hz Hz) []Tone {
	return []Tone{{Freq: []Hz{hz}}}
}

type SourceOption func(*generator)

// WithRealtime paces frames with a ticker, like a live capture device would.
func WithRealtime() SourceOption {
	return func(g *generator) {
		g.realtime = true
	}
}

// WithLimit ends the source with io.EOF after dur of audio.
func WithLimit(dur time.Duration) SourceOption {
	return func(g *generator) {
		g.limit = dur
	}
}

// NewSource plays specified audio tones in a loop as a mono capture source.
func NewSource(sampleRate int, vol int16, tones []Tone, opts ...SourceOption) *media.FrameSource {
	g := &generator{
		tones: tones,
		vol:   vol,
		buf:   make(msdk.PCM16Sample, sampleRate/media.DefFramesPerSec),
		ind:   -1, // ind%2 is tone and silence, ind/2 is the index in tones
	}
	for _, o := range opts {
		o(g)
	}
	if g.realtime {
		g.ticker = time.NewTicker(media.DefFrameDur)
	}
	return media.NewFrameSource("Tones", sampleRate, 1, g.nextFrame, g.close)
}

type generator struct {
	tones    []Tone
	vol      int16
	buf      msdk.PCM16Sample
	realtime bool
	ticker   *time.Ticker
	closed   core.Fuse
	limit    time.Duration

	ts        time.Duration
	freq      []Hz
	remaining time.Duration
	ind       int
}

func (g *generator) next() (t Tone, silence bool) {
	g.ind++
	g.ind %= len(g.tones) * 2
	return g.tones[g.ind/2], g.ind%2 != 0
}

func (g *generator) nextFrame() (msdk.PCM16Sample, error) {
	const frameDur = media.DefFrameDur
	if g.limit > 0 && g.ts >= g.limit {
		return nil, io.EOF
	}
	if g.ticker != nil {
		select {
		case <-g.closed.Watch():
			return nil, io.ErrClosedPipe
		case <-g.ticker.C:
		}
	}
	// pick the next tone (or tone vs silence)
	if g.remaining <= 0 && len(g.tones) != 0 {
		t, silence := g.next()
		if silence && t.Silence == 0 {
			// no silence for this tone - continue to the next one
			t, silence = g.next()
		}
		if !silence {
			g.freq = t.Freq
			g.remaining = t.Dur
		} else {
			g.freq = nil
			g.remaining = t.Silence
		}
	}
	// generate audio tones or silence
	if len(g.freq) == 0 {
		clear(g.buf)
	} else {
		Generate(g.buf, g.ts, frameDur, g.vol, g.freq)
	}
	g.remaining -= frameDur
	g.ts += frameDur
	return g.buf, nil
}

func (g *generator) close() error {
	g.closed.Break()
	if g.ticker != nil {
		g.ticker.Stop()
	}
	return nil
}
