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

//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"go/build"
	"os"
	"os/exec"
	"strings"

	"github.com/livekit/mageutil"
)

var Default = Build

var packages = []string{"pkg-config", "portaudio"}

func Bootstrap() error {
	brewPrefix, err := getBrewPrefix()
	if err != nil {
		return err
	}

	for _, plugin := range packages {
		if _, err := os.Stat(fmt.Sprintf("%s%s", brewPrefix, plugin)); err != nil {
			if err = run(fmt.Sprintf("brew install %s", plugin)); err != nil {
				return err
			}
		}
	}

	return nil
}

// Build builds wavrec with the PortAudio microphone source.
func Build() error {
	return mageutil.Run(context.Background(),
		fmt.Sprintf("go build -tags portaudio -o %s/bin/wavrec ./cmd/wavrec", gopath()),
	)
}

// BuildNoMic builds wavrec without cgo dependencies. Only tone and ogg sources are available.
func BuildNoMic() error {
	return mageutil.Run(context.Background(),
		fmt.Sprintf("go build -o %s/bin/wavrec ./cmd/wavrec", gopath()),
	)
}

func Test() error {
	return run("go test -v ./pkg/... ./cmd/...")
}

func TestRace() error {
	return run("go test -race ./pkg/...")
}

// helpers

func gopath() string {
	if p := os.Getenv("GOPATH"); p != "" {
		return p
	}
	return build.Default.GOPATH
}

func getBrewPrefix() (string, error) {
	out, err := exec.Command("brew", "--prefix").Output()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/Cellar/", strings.TrimSpace(string(out))), nil
}

func run(commands ...string) error {
	for _, command := range commands {
		args := strings.Split(command, " ")
		if err := runArgs(args...); err != nil {
			return err
		}
	}
	return nil
}

func runArgs(args ...string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
