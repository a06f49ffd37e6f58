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

	msdk "github.com/livekit/media-sdk"
)

// Resample returns a source that converts mono PCM from src to sampleRate.
// The returned source owns src and closes it.
func Resample(src Source, sampleRate int) (Source, error) {
	srcRate := src.SampleRate()
	if srcRate == sampleRate {
		return src, nil
	}
	if src.Channels() != 1 {
		return nil, fmt.Errorf("cannot resample %s: only mono audio is supported", src)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	r := &resampler{
		src: src,
		in:  make([]byte, 2*srcRate/DefFramesPerSec),
	}
	r.w = msdk.ResampleWriter(msdk.NewPCM16BufferWriter(&r.out, sampleRate), srcRate)
	name := fmt.Sprintf("Resample(%d->%d) <- %s", srcRate, sampleRate, src.String())
	return NewFrameSource(name, sampleRate, 1, r.next, r.close), nil
}

type resampler struct {
	src Source
	w   msdk.PCM16Writer

	in    []byte
	carry int // odd byte left in the input buffer

	out     msdk.PCM16Sample
	flushed bool
}

func (r *resampler) next() (msdk.PCM16Sample, error) {
	r.out = r.out[:0]
	if r.flushed {
		return nil, io.EOF
	}
	n, err := r.src.Read(r.in[r.carry:])
	n += r.carry
	even := n &^ 1
	if even > 0 {
		if werr := r.w.WriteSample(LPCM16Sample(r.in[:even]).Decode()); werr != nil && err == nil {
			err = werr
		}
	}
	r.carry = copy(r.in, r.in[even:n])
	if err == io.EOF {
		// Flush samples kept by the resampler.
		r.flushed = true
		if cerr := r.w.Close(); cerr != nil {
			err = fmt.Errorf("cannot flush resampler: %w", cerr)
		}
	}
	return r.out, err
}

func (r *resampler) close() error {
	return r.src.Close()
}
