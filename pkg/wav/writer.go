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

// Package wav writes PCM audio into RIFF/WAVE files whose length is not known up front.
//
// The writer reserves the 44-byte header, streams PCM after it through a buffer,
// and rewrites the header with the final sizes on Finalize.
package wav

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/livekit/wavrec/pkg/errors"
)

const defaultBufferSize = 32 * 1024

type writerState int

const (
	stateUnopened writerState = iota
	stateOpen
	stateFailed
	stateClosed
)

// Writer is a single WAV recording session. It must not be used concurrently.
type Writer struct {
	sink   io.WriteSeeker
	owned  io.Closer // set when the writer opened the sink itself
	bw     *bufio.Writer
	format Format
	size   int64
	state  writerState
}

// Open reserves the header at the start of sink and returns a session writing PCM in format f.
// The sink is expected to be empty; it is not truncated.
func Open(sink io.WriteSeeker, f Format) (*Writer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if _, err := sink.Seek(0, io.SeekStart); err != nil {
		return nil, errors.IO("seek", err)
	}
	w := &Writer{
		sink:   sink,
		bw:     bufio.NewWriterSize(sink, defaultBufferSize),
		format: f,
		state:  stateOpen,
	}
	var placeholder [HeaderSize]byte
	if _, err := w.bw.Write(placeholder[:]); err != nil {
		return nil, errors.IO("write header placeholder", err)
	}
	if err := w.bw.Flush(); err != nil {
		return nil, errors.IO("write header placeholder", err)
	}
	return w, nil
}

// Create creates or truncates the file at path and opens a session on it.
// The file is closed by Finalize or Abort.
func Create(path string, f Format) (*Writer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.IO("create", err)
	}
	w, err := Open(fh, f)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	w.owned = fh
	return w, nil
}

func (w *Writer) String() string {
	return fmt.Sprintf("WAV(%s)", w.format)
}

func (w *Writer) Format() Format {
	return w.format
}

// Size returns the number of PCM bytes written so far.
func (w *Writer) Size() int64 {
	return w.size
}

// WriteChunk appends PCM bytes after the previously written data.
//
// A chunk is only counted if it was written completely. Any write error poisons
// the session: later writes and Finalize fail, so a header with a wrong size is never written.
func (w *Writer) WriteChunk(p []byte) error {
	if w == nil || w.state == stateUnopened {
		return fmt.Errorf("%w: write without open", errors.ErrInvalidState)
	}
	switch w.state {
	case stateClosed:
		return fmt.Errorf("%w: write after finalize", errors.ErrInvalidState)
	case stateFailed:
		return fmt.Errorf("%w: write after failed write", errors.ErrInvalidState)
	}
	if len(p) == 0 {
		return nil
	}
	if w.size+int64(len(p)) > MaxDataSize {
		return fmt.Errorf("%w: %d bytes written, chunk of %d", errors.ErrDataTooLarge, w.size, len(p))
	}
	if _, err := w.bw.Write(p); err != nil {
		w.state = stateFailed
		return errors.IO("write", err)
	}
	w.size += int64(len(p))
	return nil
}

// Finalize flushes buffered PCM and rewrites the header with the final sizes.
// It returns the total number of PCM bytes. The session cannot be used afterwards.
func (w *Writer) Finalize() (int64, error) {
	if w == nil || w.state == stateUnopened {
		return 0, fmt.Errorf("%w: finalize without open", errors.ErrInvalidState)
	}
	switch w.state {
	case stateClosed:
		return 0, fmt.Errorf("%w: already finalized", errors.ErrInvalidState)
	case stateFailed:
		w.state = stateClosed
		return 0, errors.Join(
			errors.IO("finalize", fmt.Errorf("session has a failed write")),
			w.closeOwned(),
		)
	}
	w.state = stateClosed
	if err := w.finalize(); err != nil {
		_ = w.closeOwned()
		return 0, err
	}
	if err := w.closeOwned(); err != nil {
		return 0, err
	}
	return w.size, nil
}

func (w *Writer) finalize() error {
	if err := w.bw.Flush(); err != nil {
		return errors.IO("flush", err)
	}
	hdr, err := NewHeader(w.format, uint32(w.size)).MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.sink.Seek(0, io.SeekStart); err != nil {
		return errors.IO("seek header", err)
	}
	// Single write at a fixed offset, so the header is either placeholder or complete.
	if _, err := w.sink.Write(hdr); err != nil {
		return errors.IO("write header", err)
	}
	if _, err := w.sink.Seek(HeaderSize+w.size, io.SeekStart); err != nil {
		return errors.IO("seek end", err)
	}
	if s, ok := w.sink.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return errors.IO("sync", err)
		}
	}
	return nil
}

// Abort ends the session without writing the header. Buffered PCM is discarded.
func (w *Writer) Abort() error {
	if w == nil || w.state == stateUnopened {
		return fmt.Errorf("%w: abort without open", errors.ErrInvalidState)
	}
	if w.state == stateClosed {
		return fmt.Errorf("%w: already finalized", errors.ErrInvalidState)
	}
	w.state = stateClosed
	w.bw.Reset(io.Discard)
	return w.closeOwned()
}

func (w *Writer) closeOwned() error {
	if w.owned == nil {
		return nil
	}
	c := w.owned
	w.owned = nil
	return errors.IO("close", c.Close())
}
