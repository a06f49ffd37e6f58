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

// Package audiotest helps to verify recorded audio content.
package audiotest

import (
	"math"
	"math/cmplx"
	"slices"

	msdk "github.com/livekit/media-sdk"
	"github.com/mjibson/go-dsp/fft"
)

// Wave is a sine with Ind being the log2 of the number of periods in the window.
type Wave struct {
	Ind int
	Amp int
}

func GenSignal(dst msdk.PCM16Sample, waves []Wave) {
	for i := range dst {
		ifl := float64(i) / float64(len(dst))
		var v float64
		for _, w := range waves {
			v += float64(w.Amp) * math.Sin(ifl*2*math.Pi*(float64(int(1)<<w.Ind)))
		}
		dst[i] = int16(v)
	}
}

func spectrum(src msdk.PCM16Sample) []complex128 {
	cmp := make([]complex128, len(src))
	for i, v := range src {
		cmp[i] = complex(float64(v), 0)
	}
	return fft.FFT(cmp)
}

// FindSignal returns waves generated by GenSignal, strongest first.
func FindSignal(src msdk.PCM16Sample) []Wave {
	out := spectrum(src)
	var waves []Wave
	for i, v := range out[:len(out)/2] {
		if i == 0 {
			continue
		}
		a := 2 * cmplx.Abs(v) / float64(len(src))
		if a < 1 {
			continue
		}
		fi := int(math.Log2(float64(i)))
		waves = append(waves, Wave{Ind: fi, Amp: int(math.Round(a + 0.5))})
	}
	slices.SortFunc(waves, func(a, b Wave) int {
		return b.Amp - a.Amp
	})
	return waves
}

// DominantFreq returns the frequency with the highest magnitude, in Hz.
func DominantFreq(src msdk.PCM16Sample, sampleRate int) float64 {
	if len(src) == 0 {
		return 0
	}
	out := spectrum(src)
	best, bestAmp := 0, 0.0
	for i, v := range out[1 : len(out)/2] {
		if a := cmplx.Abs(v); a > bestAmp {
			best, bestAmp = i+1, a
		}
	}
	return float64(best) * float64(sampleRate) / float64(len(src))
}
