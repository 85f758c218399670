package mia

// Progress is a bounded milestone counter for the conversation, advanced at
// phase transitions. It never decrements except through Reset.
type Progress struct {
	step int
	max  int
}

// NewProgress creates a Progress counting from 1 to max.
func NewProgress(max int) Progress {
	if max < 1 {
		max = 1
	}
	return Progress{step: 1, max: max}
}

// Advance moves to the next step, clamped at the maximum.
func (p *Progress) Advance() {
	if p.step < p.max {
		p.step++
	}
}

// Reset returns the counter to the first step.
func (p *Progress) Reset() {
	p.step = 1
}

// Step returns the current step (1-based).
func (p Progress) Step() int { return p.step }

// Max returns the final step.
func (p Progress) Max() int { return p.max }
