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
	"fmt"
	"math"
	"time"

	"github.com/livekit/wavrec/pkg/errors"
)

// DefaultFormat is 16 kHz mono signed 16-bit PCM.
var DefaultFormat = Format{
	SampleRate:    16000,
	Channels:      1,
	BitsPerSample: 16,
}

var supportedBits = map[int]bool{
	16: true,
}

// Format describes raw PCM audio stored in a WAV file.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

func (f Format) String() string {
	return fmt.Sprintf("PCM(%dHz,%dch,%dbit)", f.SampleRate, f.Channels, f.BitsPerSample)
}

// BlockAlign is the size of a single frame with all channels, in bytes.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate is the number of PCM bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// BytesFor returns the PCM size of dur worth of audio, rounded down to whole frames.
func (f Format) BytesFor(dur time.Duration) int {
	frames := int(int64(f.SampleRate) * int64(dur) / int64(time.Second))
	return frames * f.BlockAlign()
}

func (f Format) Validate() error {
	if f.SampleRate <= 0 || int64(f.SampleRate) > math.MaxUint32 {
		return fmt.Errorf("%w: invalid sample rate %d", errors.ErrUnsupportedFormat, f.SampleRate)
	}
	if f.Channels <= 0 || f.Channels > math.MaxUint16 {
		return fmt.Errorf("%w: invalid channel count %d", errors.ErrUnsupportedFormat, f.Channels)
	}
	if !supportedBits[f.BitsPerSample] {
		return fmt.Errorf("%w: %d bits per sample", errors.ErrUnsupportedFormat, f.BitsPerSample)
	}
	if int64(f.ByteRate()) > math.MaxUint32 || f.BlockAlign() > math.MaxUint16 {
		return fmt.Errorf("%w: byte rate out of range", errors.ErrUnsupportedFormat)
	}
	return nil
}
