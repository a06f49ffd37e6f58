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

//go:build !portaudio

package portaudio

import (
	"errors"

	"github.com/livekit/wavrec/pkg/media"
)

const Available = false

var ErrNotAvailable = errors.New("microphone capture requires building with -tags portaudio")

func Open(sampleRate, channels int) (*media.FrameSource, error) {
	return nil, ErrNotAvailable
}
