package writer

import (
	"errors"

	"github.com/anuragh27crony/gobdd/internal/event"
)

// Tee forwards every event to both L and R. Its Normalized and
// NonTransforming flags are the conjunction of its children's; it is
// Summarizable when either child is.
type Tee struct {
	L, R Writer
}

// NewTee builds a Tee writer (spec §4.5).
func NewTee(l, r Writer) *Tee {
	return &Tee{L: l, R: r}
}

func (t *Tee) Write(e event.Event) {
	t.L.Write(e)
	t.R.Write(e)
}

// Close closes both sides, joining their errors (spec §4.5: "completion is
// the join of both").
func (t *Tee) Close() error {
	lerr := t.L.Close()
	rerr := t.R.Close()
	return errors.Join(lerr, rerr)
}

func (t *Tee) Normalized() bool      { return t.L.Normalized() && t.R.Normalized() }
func (t *Tee) NonTransforming() bool { return t.L.NonTransforming() && t.R.NonTransforming() }
func (t *Tee) Summarizable() bool    { return t.L.Summarizable() || t.R.Summarizable() }
