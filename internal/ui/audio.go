package ui

import (
	"encoding/binary"
	"time"

	"github.com/imchristina/boyo/internal/emu"
)

// applyPlayerBufferSize sets the audio player's internal buffer for
// low latency during fast-forward, longer otherwise.
func (a *App) applyPlayerBufferSize() {
	if a.audioPlayer == nil {
		return
	}
	bufMs := 40
	if a.cfg.AudioLowLatency || a.fast {
		bufMs = 20
	}
	a.audioPlayer.SetBufferSize(time.Duration(bufMs) * time.Millisecond)
}

// apuStream implements io.Reader by pulling PCM samples from the core
// and converting them to 16-bit little-endian stereo frames, the
// format ebiten/v2/audio.NewPlayer (itself backed by oto/v3) expects.
type apuStream struct {
	c          *emu.Core
	mono       bool
	muted      *bool
	lowLatency bool

	underruns  int
	lastWant   int
	lastPulled int
}

func (s *apuStream) Read(p []byte) (int, error) {
	if len(p) == 0 || s == nil || s.c == nil {
		return 0, nil
	}
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	if s.muted != nil && *s.muted {
		for i := range p {
			p[i] = 0
		}
		time.Sleep(5 * time.Millisecond)
		return len(p), nil
	}

	maxReq := len(p) / 4
	capFrames := 2048
	if s.lowLatency {
		capFrames = 1024
	}
	if maxReq > capFrames {
		maxReq = capFrames
	}

	frames := s.c.PullAudio(maxReq * 2)
	pulled := 0
	i := 0
	for j := 0; j+1 < len(frames) && i+3 < len(p); j += 2 {
		l := frames[j]
		r := frames[j+1]
		if s.mono {
			m := int16((int32(l) + int32(r)) / 2)
			binary.LittleEndian.PutUint16(p[i:], uint16(m))
			binary.LittleEndian.PutUint16(p[i+2:], uint16(m))
		} else {
			binary.LittleEndian.PutUint16(p[i:], uint16(l))
			binary.LittleEndian.PutUint16(p[i+2:], uint16(r))
		}
		i += 4
		pulled++
	}
	if pulled == 0 {
		silenceFrames := 128
		if silenceFrames > maxReq {
			silenceFrames = maxReq
		}
		for k := 0; k < silenceFrames*4 && k+3 < len(p); k += 4 {
			binary.LittleEndian.PutUint16(p[k:], 0)
			binary.LittleEndian.PutUint16(p[k+2:], 0)
		}
		s.underruns++
		s.lastWant = silenceFrames
		s.lastPulled = silenceFrames
		return silenceFrames * 4, nil
	}
	s.lastWant = maxReq
	s.lastPulled = pulled
	return pulled * 4, nil
}
