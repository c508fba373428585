// ABOUTME: Flattens a nested group/control/part tree into ordered text units.
// ABOUTME: Parent control context is fixed per control regardless of part depth.
package catalog

import (
	"github.com/2389-research/ctlmatch/internal/embeddings"
	"github.com/2389-research/ctlmatch/internal/models"
)

// FlattenOption configures Flatten.
type FlattenOption func(*flattener)

// WithEnhancements also flattens control enhancements nested under a control.
// Each enhancement is reported as its own parent control.
func WithEnhancements() FlattenOption {
	return func(f *flattener) {
		f.enhancements = true
	}
}

type flattener struct {
	enhancements bool
	units        []models.TextUnit
}

// Flatten walks the catalog depth-first and returns one text unit per piece of prose.
// The order is document order and is used positionally by the scorer, so it never changes
// between calls on the same document. A document without catalog.groups yields no units.
func Flatten(doc *Document, opts ...FlattenOption) []models.TextUnit {
	f := &flattener{}
	for _, opt := range opts {
		opt(f)
	}
	if doc == nil || doc.Catalog == nil {
		return f.units
	}
	f.visitGroups(doc.Catalog.Groups)
	return f.units
}

func (f *flattener) emit(u models.TextUnit) {
	f.units = append(f.units, u)
}

func (f *flattener) visitGroups(groups []Group) {
	for _, g := range groups {
		for _, c := range g.Controls {
			f.visitControl(c)
		}
		f.visitGroups(g.Groups)
	}
}

func (f *flattener) visitControl(c Control) {
	parent := models.ControlRef{ID: c.ID, Title: c.Title, Class: c.Class}

	switch {
	case len(c.Parts) > 0:
		for _, p := range c.Parts {
			visitPart(p, parent, f.emit)
		}
	case hasProse(c.Prose):
		f.emit(models.NewTextUnit(c.ID, parent, c.Prose))
	}

	if f.enhancements {
		for _, enh := range c.Controls {
			f.visitControl(enh)
		}
	}
}

// visitPart emits the part's prose and recurses into sub-parts. parent is always the
// top-level control, never an intermediate part.
func visitPart(p Part, parent models.ControlRef, emit func(models.TextUnit)) {
	if hasProse(p.Prose) {
		emit(models.NewTextUnit(p.ID, parent, p.Prose))
	}
	for _, sub := range p.Parts {
		visitPart(sub, parent, emit)
	}
}

// hasProse reports whether s still has text once normalized for embedding.
func hasProse(s string) bool {
	return embeddings.NormalizeText(s) != ""
}
