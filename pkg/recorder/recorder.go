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

// Package recorder drains a capture source into WAV files.
//
// A recording runs two roles: a capture goroutine reading the source and writing
// chunks, and the caller that signals stop, waits for the capture goroutine to finish,
// and only then finalizes the WAV header.
package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frostbyte73/core"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/wavrec/pkg/config"
	"github.com/livekit/wavrec/pkg/errors"
	"github.com/livekit/wavrec/pkg/media"
	"github.com/livekit/wavrec/pkg/stats"
	"github.com/livekit/wavrec/pkg/wav"
)

type State int32

const (
	StateUninitialized State = iota
	StateReady               // capture source acquired, not capturing
	StateCapturing
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateCapturing:
		return "capturing"
	case StateReleased:
		return "released"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// SourceFactory acquires a new capture source. It is called once per recording.
type SourceFactory func(ctx context.Context, f wav.Format) (media.Source, error)

// Result describes a finalized recording.
type Result struct {
	Path     string
	Bytes    int64
	Duration time.Duration
}

type Recorder struct {
	conf      *config.Config
	log       logger.Logger
	mon       *stats.Monitor
	newSource SourceFactory
	now       func() time.Time

	mu    sync.Mutex
	state atomic.Int32
	sess  *session
}

func New(conf *config.Config, newSource SourceFactory, mon *stats.Monitor, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Recorder{
		conf:      conf,
		log:       log,
		mon:       mon,
		newSource: newSource,
		now:       time.Now,
	}
}

func (r *Recorder) State() State {
	return State(r.state.Load())
}

func (r *Recorder) setState(s State) {
	r.state.Store(int32(s))
}

// Done is closed when the current capture goroutine exits, either because
// the recording was stopped or because the source ended or failed.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return r.sess.done
}

// Start acquires a capture source, creates a new WAV file and starts capturing into it.
// It returns the path of the file.
func (r *Recorder) Start(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Recorder.Start")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	switch st := r.State(); st {
	case StateUninitialized, StateReleased:
	default:
		return "", fmt.Errorf("%w: cannot start recording while %s", errors.ErrInvalidState, st)
	}
	s, err := r.open(ctx)
	if err != nil {
		r.setState(StateReleased)
		span.RecordError(err)
		span.SetStatus(codes.Error, "cannot start recording")
		return "", err
	}
	span.SetAttributes(attribute.String("path", s.path))
	r.sess = s
	r.setState(StateCapturing)
	r.mon.SessionStarted()
	go s.run()
	s.log.Infow("recording started", "source", s.src.String(), "format", s.w.Format().String())
	return s.path, nil
}

func (r *Recorder) open(ctx context.Context) (*session, error) {
	f := r.conf.Format()
	src, err := r.newSource(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("cannot open capture source: %w", err)
	}
	r.setState(StateReady)
	if src.SampleRate() != f.SampleRate || src.Channels() != f.Channels {
		_ = src.Close()
		return nil, fmt.Errorf("%w: source %s does not match %s", errors.ErrUnsupportedFormat, src, f)
	}
	path, err := r.nextPath()
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	w, err := wav.Create(path, f)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return &session{
		log:   r.log.WithValues("path", path),
		mon:   r.mon,
		path:  path,
		src:   src,
		w:     w,
		chunk: r.conf.Audio.ChunkSize,
		done:  make(chan struct{}),
		start: r.now(),
	}, nil
}

// nextPath picks a file name like rec_20060102_150405.wav that does not exist yet.
func (r *Recorder) nextPath() (string, error) {
	if err := os.MkdirAll(r.conf.OutputDir, 0o755); err != nil {
		return "", errors.IO("create output dir", err)
	}
	base := r.conf.FilePrefix + "_" + r.now().Format("20060102_150405")
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		path := filepath.Join(r.conf.OutputDir, name+".wav")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", errors.IO("stat", err)
		}
	}
	return "", fmt.Errorf("cannot pick a file name for %s", base)
}

// Stop signals the capture goroutine to stop, waits for it, releases the source and finalizes the file.
//
// If the capture goroutine failed, its error is returned together with the result when
// the file could still be finalized. If ctx is done before capture stops, the recorder
// keeps capturing and Stop may be called again.
func (r *Recorder) Stop(ctx context.Context) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Recorder.Stop")
	defer span.End()

	s, err := r.stopCapture(ctx)
	if err != nil {
		return nil, err
	}
	closeErr := s.src.Close()

	t := time.Now()
	n, ferr := s.w.Finalize()
	r.mon.Finalized(time.Since(t))
	r.setState(StateReleased)

	dur := time.Since(s.start)
	if ferr != nil {
		err = errors.Join(ferr, s.err, closeErr)
		s.log.Errorw("cannot finalize recording", err, "bytes", s.w.Size())
		span.RecordError(err)
		span.SetStatus(codes.Error, "cannot finalize recording")
		r.mon.SessionFinished(stats.StatusError, dur)
		return nil, err
	}
	res := &Result{
		Path:     s.path,
		Bytes:    n,
		Duration: audioDuration(n, s.w.Format()),
	}
	span.SetAttributes(attribute.Int64("bytes", n))
	status := stats.StatusOK
	if err = errors.Join(s.err, closeErr); err != nil {
		status = stats.StatusError
		span.RecordError(err)
		s.log.Warnw("recording finalized after capture error", err, "bytes", n)
	} else {
		s.log.Infow("recording finalized", "bytes", n, "duration", res.Duration)
	}
	r.mon.SessionFinished(status, dur)
	return res, err
}

// Cancel stops capturing and deletes the partial file.
func (r *Recorder) Cancel(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Recorder.Cancel")
	defer span.End()

	s, err := r.stopCapture(ctx)
	if err != nil {
		return err
	}
	err = errors.Join(s.src.Close(), s.w.Abort())
	if rerr := os.Remove(s.path); rerr != nil && !os.IsNotExist(rerr) {
		err = errors.Join(err, errors.IO("remove", rerr))
	}
	r.setState(StateReleased)
	r.mon.SessionFinished(stats.StatusCanceled, time.Since(s.start))
	if err != nil {
		span.RecordError(err)
		s.log.Warnw("recording canceled with errors", err)
	} else {
		s.log.Infow("recording canceled")
	}
	return err
}

// stopCapture breaks the stop fuse and waits until the capture goroutine exits.
// On success the caller owns the session. The recorder stays Capturing until the
// caller releases the source and moves it to Released.
func (r *Recorder) stopCapture(ctx context.Context) (*session, error) {
	r.mu.Lock()
	s := r.sess
	if st := r.State(); st != StateCapturing || s == nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: not recording (%s)", errors.ErrInvalidState, st)
	}
	r.mu.Unlock()

	s.stop.Break()
	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess != s {
		return nil, fmt.Errorf("%w: recording already stopped", errors.ErrInvalidState)
	}
	r.sess = nil
	return s, nil
}

func audioDuration(n int64, f wav.Format) time.Duration {
	rate := int64(f.ByteRate())
	if rate == 0 {
		return 0
	}
	return time.Duration(n * int64(time.Second) / rate)
}

// idleWait is how long the capture loop waits when the source has no data ready.
const idleWait = 5 * time.Millisecond

type session struct {
	log   logger.Logger
	mon   *stats.Monitor
	path  string
	src   media.Source
	w     *wav.Writer
	chunk int
	start time.Time

	stop core.Fuse
	done chan struct{}
	err  error // written by run before done is closed
}

func (s *session) run() {
	defer close(s.done)
	buf := make([]byte, s.chunk)
	for !s.stop.IsBroken() {
		n, err := s.src.Read(buf)
		if n > 0 {
			if werr := s.w.WriteChunk(buf[:n]); werr != nil {
				s.fail(pkgerrors.Wrap(werr, "capture write"))
				return
			}
			s.mon.PCMBytes(n)
		}
		if err == io.EOF {
			s.log.Debugw("capture source ended", "bytes", s.w.Size())
			return
		} else if err != nil {
			s.fail(pkgerrors.Wrap(err, "capture read"))
			return
		}
		if n == 0 {
			s.idle()
		}
	}
}

// idle waits briefly for the source to produce data, or until stopped.
func (s *session) idle() {
	t := time.NewTimer(idleWait)
	defer t.Stop()
	select {
	case <-s.stop.Watch():
	case <-t.C:
	}
}

func (s *session) fail(err error) {
	s.err = err
	s.mon.CaptureError()
	s.log.Errorw("capture stopped", err, "bytes", s.w.Size())
}
