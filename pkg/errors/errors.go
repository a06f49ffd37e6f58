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

package errors

import (
	"errors"

	"github.com/livekit/psrpc"
)

var (
	ErrNoConfig = psrpc.NewErrorf(psrpc.InvalidArgument, "missing config")

	// ErrInvalidState is returned when an operation is not allowed in the current session or recorder state.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnsupportedFormat is returned for audio formats outside of the 16-bit PCM profile.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrDataTooLarge is returned when PCM data would not fit into 32-bit RIFF size fields.
	ErrDataTooLarge = errors.New("wav data too large")
	// ErrIO matches any IOError via errors.Is.
	ErrIO = errors.New("i/o error")
)

func ErrCouldNotParseConfig(err error) psrpc.Error {
	return psrpc.NewErrorf(psrpc.InvalidArgument, "could not parse config: %v", err)
}

func ErrInvalidConfig(format string, args ...any) psrpc.Error {
	return psrpc.NewErrorf(psrpc.InvalidArgument, format, args...)
}

// IOError wraps a failure of the underlying sink.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return "wav " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IO wraps err as an IOError, or returns nil if err is nil.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}
