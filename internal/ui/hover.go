package ui

import "fmt"

// CardKey composes the hover key of the card showing movieID at position.
func CardKey(movieID string, position int) string {
	return fmt.Sprintf("%s-%d", movieID, position)
}

// Hover is the single hovered-card value owned by a row. The zero value is
// idle.
type Hover struct {
	key string
}

// Enter makes key the hovered card, replacing whichever card was hovered.
func (h *Hover) Enter(key string) {
	h.key = key
}

// Leave returns the row to idle when key is the hovered card. A leave for any
// other key is stale and ignored.
func (h *Hover) Leave(key string) {
	if h.key == key {
		h.key = ""
	}
}

// Key returns the hovered card's key, or "" when idle.
func (h *Hover) Key() string { return h.key }

func (h *Hover) Active() bool { return h.key != "" }

func (h *Hover) IsHovered(key string) bool {
	return key != "" && h.key == key
}
