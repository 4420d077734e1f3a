package ui

import (
	"errors"

	"github.com/charmbracelet/log"
)

var ErrAutoplayBlocked = errors.New("autoplay blocked: media must be muted")

// MediaElement is the playable element a [Playback] drives.
type MediaElement interface {
	SetMuted(muted bool)
	Muted() bool
	Play() error
}

// Playback keeps the local mute flag and the overlay-player flag of one
// component. The element's mute state and the local flag change together.
type Playback struct {
	el         MediaElement
	logger     *log.Logger
	muted      bool
	playing    bool
	playerOpen bool
}

// NewPlayback wraps el, which may be nil when there is no playable asset. The
// element starts muted.
func NewPlayback(el MediaElement, logger *log.Logger) *Playback {
	p := &Playback{el: el, logger: logger, muted: true}
	if el != nil {
		el.SetMuted(true)
	}
	return p
}

// Autoplay starts playback muted. A rejection by the environment is logged
// and otherwise ignored; playback stays paused.
func (p *Playback) Autoplay() {
	if p.el == nil {
		return
	}
	p.muted = true
	p.el.SetMuted(true)
	if err := p.el.Play(); err != nil {
		p.playing = false
		if p.logger != nil {
			p.logger.Debug("autoplay rejected", "err", err)
		}
		return
	}
	p.playing = true
}

// ToggleMute flips the mute flag on both the element and the local state and
// returns the new value. Without an element it does nothing.
func (p *Playback) ToggleMute() bool {
	if p.el == nil {
		return p.muted
	}
	p.muted = !p.muted
	p.el.SetMuted(p.muted)
	return p.muted
}

func (p *Playback) Muted() bool { return p.muted }

func (p *Playback) Playing() bool { return p.playing }

func (p *Playback) HasMedia() bool { return p.el != nil }

func (p *Playback) OpenPlayer() { p.playerOpen = true }

func (p *Playback) ClosePlayer() { p.playerOpen = false }

func (p *Playback) PlayerOpen() bool { return p.playerOpen }

// VideoTag is the server-rendered stand-in for a video element: it records
// the attributes the markup is emitted with.
type VideoTag struct {
	Src      string
	Poster   string
	muted    bool
	autoplay bool
}

func (v *VideoTag) SetMuted(muted bool) { v.muted = muted }

func (v *VideoTag) Muted() bool { return v.muted }

// Play marks the tag for autoplay. Browsers only allow muted autoplay, so
// an unmuted tag is refused.
func (v *VideoTag) Play() error {
	if !v.muted {
		return ErrAutoplayBlocked
	}
	v.autoplay = true
	return nil
}

func (v *VideoTag) Autoplay() bool { return v.autoplay }
