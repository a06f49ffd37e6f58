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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/wavrec/pkg/wav"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("WAVREC_OUTPUT_DIR", "/tmp/rec")
		conf, err := NewConfig("")
		require.NoError(t, err)
		require.Equal(t, "/tmp/rec", conf.OutputDir)
		require.Equal(t, DefaultFilePrefix, conf.FilePrefix)
		require.Equal(t, wav.DefaultFormat, conf.Format())
		require.Equal(t, DefaultChunkSize, conf.Audio.ChunkSize)
		require.Equal(t, SourceMic, conf.Source.Type)
	})
	t.Run("yaml", func(t *testing.T) {
		conf, err := NewConfig(`
output_dir: out
file_prefix: memo
prometheus_port: 9090
audio:
  sample_rate: 48000
  channels: 2
  chunk_size: 3840
source:
  type: tone
  tone_hz: 1000
  limit: 2s
logging:
  level: debug
`)
		require.NoError(t, err)
		require.Equal(t, "out", conf.OutputDir)
		require.Equal(t, "memo", conf.FilePrefix)
		require.Equal(t, 9090, conf.PrometheusPort)
		require.Equal(t, wav.Format{SampleRate: 48000, Channels: 2, BitsPerSample: 16}, conf.Format())
		require.Equal(t, 3840, conf.Audio.ChunkSize)
		require.Equal(t, SourceTone, conf.Source.Type)
		require.Equal(t, 1000, conf.Source.ToneHz)
		require.Equal(t, 2*time.Second, conf.Source.Limit)
		require.Equal(t, "debug", conf.Logging.Level)
	})
	t.Run("invalid", func(t *testing.T) {
		for name, body := range map[string]string{
			"yaml":        "audio: [",
			"bits":        "audio: {bits_per_sample: 24}",
			"rate":        "audio: {sample_rate: -1}",
			"chunk align": "audio: {channels: 2, chunk_size: 4098}",
			"chunk":       "audio: {chunk_size: -4}",
			"source":      "source: {type: line-in}",
			"ogg path":    "source: {type: ogg}",
			"tone":        "source: {type: tone, tone_hz: 9000}",
			"volume":      "source: {volume: 40000}",
			"port":        "prometheus_port: 70000",
		} {
			_, err := NewConfig(body)
			require.Error(t, err, name)
		}
	})
}
