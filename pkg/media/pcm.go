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
	"encoding/binary"

	msdk "github.com/livekit/media-sdk"
)

// LPCM16Sample is signed 16-bit little-endian PCM, the layout used in WAV files.
type LPCM16Sample []byte

func (s LPCM16Sample) Decode() msdk.PCM16Sample {
	out := make(msdk.PCM16Sample, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		out[i/2] = int16(binary.LittleEndian.Uint16(s[i:]))
	}
	return out
}

// EncodePCM converts samples to little-endian bytes.
func EncodePCM(s msdk.PCM16Sample) LPCM16Sample {
	return AppendPCM(make(LPCM16Sample, 0, len(s)*2), s)
}

// AppendPCM appends little-endian encoded samples to dst.
func AppendPCM(dst LPCM16Sample, s msdk.PCM16Sample) LPCM16Sample {
	for _, v := range s {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(v))
	}
	return dst
}
