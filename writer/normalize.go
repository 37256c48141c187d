package writer

import (
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/internal/normalizer"
)

// Normalize wraps a downstream writer with the reordering stage of spec
// §4.4, so writers that declare Normalized() == true (they need an ordered
// stream) can sit under it. Suite.Run always puts one Normalize stage above
// its whole writer pipeline.
type Normalize struct {
	Next Writer
	n    *normalizer.Normalizer
}

// NewNormalize wraps next behind a fresh Normalizer.
func NewNormalize(next Writer) *Normalize {
	w := &Normalize{Next: next}
	w.n = normalizer.New(next.Write)
	return w
}

func (w *Normalize) Write(e event.Event) { w.n.Handle(e) }

func (w *Normalize) Close() error { return w.Next.Close() }

func (w *Normalize) Normalized() bool      { return true }
func (w *Normalize) NonTransforming() bool { return w.Next.NonTransforming() }
func (w *Normalize) Summarizable() bool    { return w.Next.Summarizable() }
