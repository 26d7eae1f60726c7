// /home/krylon/go/src/github.com/blicero/ariadne/alert/sound.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-24 17:48:21 krylon>

package alert

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// ErrAudioUnavailable indicates we cannot get a hold of the audio
// device. Alerts degrade gracefully in that case, the event itself is
// unaffected.
var ErrAudioUnavailable = errors.New("audio output is unavailable")

const (
	sampleRate = beep.SampleRate(44100)
	toneLow    = 800
	toneHigh   = 1000
	toneLen    = time.Millisecond * 150
	toneGap    = time.Millisecond * 200
)

// fallbackTone is a canned rendition of the chime for the case that
// tone synthesis fails.
//
//go:embed fallback.wav
var fallbackTone []byte

// Chime plays the audible alert.
type Chime interface {
	Play() error
}

// TwoTone is the default Chime, a short low-high two-note signal,
// synthesized on the fly.
type TwoTone struct {
	lock   sync.Mutex
	ready  bool
	broken bool
}

// NewTwoTone creates a TwoTone chime. The audio device is not touched
// until the first Play.
func NewTwoTone() *TwoTone {
	return &TwoTone{}
} // func NewTwoTone() *TwoTone

// init brings up the speaker once. If that fails, the Chime considers
// the audio device gone for good and does not retry.
func (t *TwoTone) init() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.broken {
		return ErrAudioUnavailable
	} else if t.ready {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*50)); err != nil {
		t.broken = true
		return ErrAudioUnavailable
	}

	t.ready = true
	return nil
} // func (t *TwoTone) init() error

// Play plays the chime, blocking until it has finished.
func (t *TwoTone) Play() error {
	var (
		err error
		s   beep.Streamer
	)

	if err = t.init(); err != nil {
		return err
	}

	if s, err = t.synthesize(); err != nil {
		if s, err = t.canned(); err != nil {
			return err
		}
	}

	var done = make(chan struct{})

	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))
	<-done

	return nil
} // func (t *TwoTone) Play() error

func (t *TwoTone) synthesize() (beep.Streamer, error) {
	var (
		err       error
		low, high beep.Streamer
	)

	if low, err = generators.SinTone(sampleRate, toneLow); err != nil {
		return nil, err
	} else if high, err = generators.SinTone(sampleRate, toneHigh); err != nil {
		return nil, err
	}

	return beep.Seq(
		beep.Take(sampleRate.N(toneLen), low),
		beep.Silence(sampleRate.N(toneGap)),
		beep.Take(sampleRate.N(toneLen), high),
	), nil
} // func (t *TwoTone) synthesize() (beep.Streamer, error)

func (t *TwoTone) canned() (beep.Streamer, error) {
	var (
		err    error
		stream beep.StreamSeekCloser
		format beep.Format
	)

	if stream, format, err = wav.Decode(io.NopCloser(bytes.NewReader(fallbackTone))); err != nil {
		return nil, err
	}

	if format.SampleRate != sampleRate {
		return beep.Resample(4, format.SampleRate, sampleRate, stream), nil
	}

	return stream, nil
} // func (t *TwoTone) canned() (beep.Streamer, error)
