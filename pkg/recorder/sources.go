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

package recorder

import (
	"context"
	"fmt"

	"github.com/livekit/wavrec/pkg/config"
	"github.com/livekit/wavrec/pkg/media"
	"github.com/livekit/wavrec/pkg/media/ogg"
	"github.com/livekit/wavrec/pkg/media/portaudio"
	"github.com/livekit/wavrec/pkg/media/tones"
	"github.com/livekit/wavrec/pkg/wav"
)

// NewSourceFactory returns a factory for the capture source selected in the config.
func NewSourceFactory(conf *config.Config) SourceFactory {
	sc := conf.Source
	return func(ctx context.Context, f wav.Format) (media.Source, error) {
		switch sc.Type {
		case config.SourceMic:
			return portaudio.Open(f.SampleRate, f.Channels)
		case config.SourceTone:
			opts := []tones.SourceOption{tones.WithRealtime()}
			if sc.Limit > 0 {
				opts = append(opts, tones.WithLimit(sc.Limit))
			}
			return tones.NewSource(f.SampleRate, int16(sc.Volume), tones.Sine(tones.Hz(sc.ToneHz)), opts...), nil
		case config.SourceOgg:
			src, err := ogg.Open(sc.Path)
			if err != nil {
				return nil, err
			}
			if src.SampleRate() == f.SampleRate {
				return src, nil
			}
			r, err := media.Resample(src, f.SampleRate)
			if err != nil {
				_ = src.Close()
				return nil, err
			}
			return r, nil
		}
		return nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}
