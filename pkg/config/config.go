// Copyright 2026 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/protocol/utils"

	"github.com/livekit/wavrec/pkg/errors"
	"github.com/livekit/wavrec/pkg/wav"
)

const (
	SourceMic  = "mic"
	SourceTone = "tone"
	SourceOgg  = "ogg"

	DefaultChunkSize  = 4096
	DefaultFilePrefix = "rec"
	DefaultToneHz     = 440
	DefaultToneVolume = 8000
)

type Config struct {
	OutputDir      string `yaml:"output_dir"`  // env WAVREC_OUTPUT_DIR
	FilePrefix     string `yaml:"file_prefix"` // default "rec"
	PrometheusPort int    `yaml:"prometheus_port"`

	Audio  AudioConfig  `yaml:"audio"`
	Source SourceConfig `yaml:"source"`

	Logging logger.Config `yaml:"logging"`

	// internal
	ServiceName string `yaml:"-"`
	NodeID      string // Do not provide, will be overwritten
}

type AudioConfig struct {
	SampleRate    int `yaml:"sample_rate"`
	Channels      int `yaml:"channels"`
	BitsPerSample int `yaml:"bits_per_sample"`
	// ChunkSize is the size of a single capture read, in bytes.
	ChunkSize int `yaml:"chunk_size"`
}

type SourceConfig struct {
	Type   string `yaml:"type"` // mic, tone or ogg
	Path   string `yaml:"path"` // ogg only
	ToneHz int    `yaml:"tone_hz"`
	Volume int    `yaml:"volume"`
	// Limit stops the tone source after the given duration, zero means no limit.
	Limit time.Duration `yaml:"limit"`
}

func NewConfig(confString string) (*Config, error) {
	conf := &Config{
		OutputDir:   os.Getenv("WAVREC_OUTPUT_DIR"),
		ServiceName: "wavrec",
	}
	if confString != "" {
		if err := yaml.Unmarshal([]byte(confString), conf); err != nil {
			return nil, errors.ErrCouldNotParseConfig(err)
		}
	}
	conf.setDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) setDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.FilePrefix == "" {
		c.FilePrefix = DefaultFilePrefix
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = wav.DefaultFormat.SampleRate
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = wav.DefaultFormat.Channels
	}
	if c.Audio.BitsPerSample == 0 {
		c.Audio.BitsPerSample = wav.DefaultFormat.BitsPerSample
	}
	if c.Audio.ChunkSize == 0 {
		c.Audio.ChunkSize = DefaultChunkSize
	}
	if c.Source.Type == "" {
		c.Source.Type = SourceMic
	}
	if c.Source.ToneHz == 0 {
		c.Source.ToneHz = DefaultToneHz
	}
	if c.Source.Volume == 0 {
		c.Source.Volume = DefaultToneVolume
	}
}

func (c *Config) Validate() error {
	if err := c.Format().Validate(); err != nil {
		return errors.ErrInvalidConfig("audio: %v", err)
	}
	if c.Audio.ChunkSize < 0 {
		return errors.ErrInvalidConfig("audio: chunk_size must be positive, got %d", c.Audio.ChunkSize)
	}
	if align := c.Format().BlockAlign(); c.Audio.ChunkSize%align != 0 {
		return errors.ErrInvalidConfig("audio: chunk_size %d must be a multiple of %d", c.Audio.ChunkSize, align)
	}
	if c.PrometheusPort < 0 || c.PrometheusPort > 65535 {
		return errors.ErrInvalidConfig("prometheus_port must be between 0 and 65535, got %d", c.PrometheusPort)
	}
	switch c.Source.Type {
	case SourceMic, SourceTone:
	case SourceOgg:
		if c.Source.Path == "" {
			return errors.ErrInvalidConfig("source: path is required for ogg source")
		}
	default:
		return errors.ErrInvalidConfig("source: unknown type %q", c.Source.Type)
	}
	if c.Source.ToneHz < 0 || c.Source.ToneHz >= c.Audio.SampleRate/2 {
		return errors.ErrInvalidConfig("source: tone_hz must be below the Nyquist frequency, got %d", c.Source.ToneHz)
	}
	if c.Source.Volume < 0 || c.Source.Volume > 0x7fff {
		return errors.ErrInvalidConfig("source: volume must be between 0 and 32767, got %d", c.Source.Volume)
	}
	return nil
}

// Format returns the audio format of recorded files.
func (c *Config) Format() wav.Format {
	return wav.Format{
		SampleRate:    c.Audio.SampleRate,
		Channels:      c.Audio.Channels,
		BitsPerSample: c.Audio.BitsPerSample,
	}
}

func (c *Config) Init() error {
	c.NodeID = utils.NewGuid("NE_")

	if err := c.InitLogger(); err != nil {
		return err
	}

	return nil
}

func (c *Config) InitLogger(values ...interface{}) error {
	zl, err := logger.NewZapLogger(&c.Logging)
	if err != nil {
		return err
	}

	values = append(c.GetLoggerValues(), values...)
	l := zl.WithValues(values...)
	logger.SetLogger(l, c.ServiceName)

	return nil
}

// To use with zap logger
func (c *Config) GetLoggerValues() []interface{} {
	return []interface{}{"nodeID", c.NodeID}
}
