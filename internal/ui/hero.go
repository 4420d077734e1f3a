package ui

// HeroPhase is the display state of the hero banner.
type HeroPhase string

const (
	HeroLoading HeroPhase = "loading"
	HeroNoMedia HeroPhase = "no-media"
	HeroReady   HeroPhase = "ready"
)

// PhaseFor derives the hero phase from whether a featured item is present,
// whether it is still loading and its resolved media address.
func PhaseFor(hasItem, loading bool, mediaURL string) HeroPhase {
	switch {
	case loading || !hasItem:
		return HeroLoading
	case mediaURL == "":
		return HeroNoMedia
	default:
		return HeroReady
	}
}

// ShowMuteControl is true only when there is media to mute.
func (p HeroPhase) ShowMuteControl() bool { return p == HeroReady }

func (p HeroPhase) Loading() bool { return p == HeroLoading }
