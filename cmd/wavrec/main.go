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

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/wavrec/pkg/config"
	"github.com/livekit/wavrec/pkg/errors"
	"github.com/livekit/wavrec/pkg/recorder"
	"github.com/livekit/wavrec/pkg/stats"
	"github.com/livekit/wavrec/pkg/wav"
	"github.com/livekit/wavrec/version"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:        "wavrec",
		Usage:       "LiveKit WAV recorder",
		Version:     version.Version,
		Description: "Records PCM audio from a capture device into WAV files",
		Commands: []*cli.Command{
			{
				Name:  "record",
				Usage: "record audio until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Usage:   "wavrec yaml config file",
						Sources: cli.EnvVars("WAVREC_CONFIG_FILE"),
					},
					&cli.StringFlag{
						Name:    "config-body",
						Usage:   "wavrec yaml config body",
						Sources: cli.EnvVars("WAVREC_CONFIG_BODY"),
					},
					&cli.StringFlag{
						Name:  "out-dir",
						Usage: "directory for recorded files",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "capture source: mic, tone or ogg",
					},
					&cli.StringFlag{
						Name:  "input",
						Usage: "input file for the ogg source",
					},
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "stop recording after this duration",
					},
				},
				Action: runRecord,
			},
			{
				Name:      "inspect",
				Usage:     "print the header of a WAV file",
				ArgsUsage: "<file.wav>",
				Action:    runInspect,
			},
		},
	}
}

func runRecord(ctx context.Context, c *cli.Command) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	if err = conf.Init(); err != nil {
		return err
	}
	log := logger.GetLogger()

	mon := stats.NewMonitor(conf)
	if err = mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()
	if conf.PrometheusPort > 0 {
		go servePrometheus(conf.PrometheusPort, mon, log)
	}

	rec := recorder.New(conf, recorder.NewSourceFactory(conf), mon, log)
	path, err := rec.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Println("recording to", path)

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(stopChan)

	var timeout <-chan time.Time
	if d := c.Duration("duration"); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case sig := <-stopChan:
		log.Infow("exit requested, finishing recording", "signal", sig)
	case <-timeout:
		log.Debugw("recording duration reached")
	case <-rec.Done():
		log.Debugw("capture source finished")
	}
	res, err := rec.Stop(ctx)
	mon.Shutdown()
	if res != nil {
		fmt.Printf("%s: %d bytes, %s\n", res.Path, res.Bytes, res.Duration)
	}
	return err
}

func runInspect(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("usage: wavrec inspect <file.wav>")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	h, err := wav.ReadHeader(f)
	if err != nil {
		return err
	}
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	fmt.Printf("format:   %s\n", h.AudioFormatDesc())
	fmt.Printf("data:     %d bytes\n", h.Subchunk2Size)
	fmt.Printf("duration: %s\n", h.Duration())
	if want := int64(wav.HeaderSize) + int64(h.Subchunk2Size); fi.Size() != want {
		fmt.Printf("warning: file size %d does not match header (%d), recording may be incomplete\n", fi.Size(), want)
	}
	return nil
}

func servePrometheus(port int, mon *stats.Monitor, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Handler())
	addr := net.JoinHostPort("", strconv.Itoa(port))
	log.Infow("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorw("metrics server failed", err)
	}
}

func getConfig(c *cli.Command) (*config.Config, error) {
	configFile := c.String("config")
	configBody := c.String("config-body")
	if configBody == "" && configFile != "" {
		content, err := os.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
		if len(content) == 0 {
			return nil, errors.ErrNoConfig
		}
		configBody = string(content)
	}

	conf, err := config.NewConfig(configBody)
	if err != nil {
		return nil, err
	}
	if v := c.String("out-dir"); v != "" {
		conf.OutputDir = v
	}
	if v := c.String("source"); v != "" {
		conf.Source.Type = v
	}
	if v := c.String("input"); v != "" {
		conf.Source.Path = v
		if c.String("source") == "" {
			conf.Source.Type = config.SourceOgg
		}
	}
	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
