package ui

// ScrollStep is the distance one scroll control moves a row strip.
const ScrollStep = 300

// Strip is the horizontal scroll position of one row.
type Strip struct {
	offset   int
	content  int
	viewport int
}

func NewStrip(content, viewport int) *Strip {
	return &Strip{content: content, viewport: viewport}
}

func (s *Strip) Offset() int { return s.offset }

// Overflows reports whether the content is wider than the viewport; without
// overflow the scroll controls are inert.
func (s *Strip) Overflows() bool { return s.content > s.viewport }

func (s *Strip) maxOffset() int {
	if !s.Overflows() {
		return 0
	}
	return s.content - s.viewport
}

func (s *Strip) ScrollLeft() int { return s.scrollBy(-ScrollStep) }

func (s *Strip) ScrollRight() int { return s.scrollBy(ScrollStep) }

func (s *Strip) scrollBy(delta int) int {
	s.offset = min(max(s.offset+delta, 0), s.maxOffset())
	return s.offset
}

// Resize changes the measured widths and clamps the offset into range.
func (s *Strip) Resize(content, viewport int) {
	s.content, s.viewport = content, viewport
	s.scrollBy(0)
}

func (s *Strip) CanScrollLeft() bool { return s.offset > 0 }

func (s *Strip) CanScrollRight() bool { return s.offset < s.maxOffset() }
