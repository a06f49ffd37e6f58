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

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livekit/wavrec/pkg/wav"
)

func TestRecordAndInspect(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	err := newCommand().Run(ctx, []string{"wavrec", "record",
		"--out-dir", dir,
		"--source", "tone",
		"--duration", "100ms",
	})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "rec_*.wav"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	h, err := wav.ReadHeader(f)
	require.NoError(t, err)
	require.Equal(t, wav.DefaultFormat, h.AudioFormatDesc())
	require.NotZero(t, h.Subchunk2Size)

	require.NoError(t, newCommand().Run(ctx, []string{"wavrec", "inspect", files[0]}))
	require.Error(t, newCommand().Run(ctx, []string{"wavrec", "inspect", filepath.Join(dir, "missing.wav")}))
	require.Error(t, newCommand().Run(ctx, []string{"wavrec", "inspect"}))
}

func TestRecordInvalidConfig(t *testing.T) {
	err := newCommand().Run(context.Background(), []string{"wavrec", "record",
		"--out-dir", t.TempDir(),
		"--config-body", "source: {type: line-in}",
	})
	require.Error(t, err)
}
