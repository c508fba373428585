// ABOUTME: Core data models for flattened catalog text units, matches, and reports.
// ABOUTME: Provides constructor functions and type definitions shared by the matching pipeline.
package models

import (
	"time"

	"github.com/google/uuid"
)

// NotAvailable is printed in place of missing identifiers.
const NotAvailable = "N/A"

// ControlRef identifies the control a text unit was taken from.
type ControlRef struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Class string `json:"class,omitempty"`
}

// DisplayID returns the control id or N/A when the control has none.
func (c ControlRef) DisplayID() string {
	if c.ID == "" {
		return NotAvailable
	}
	return c.ID
}

// TextUnit is one piece of prose attributable to a control.
type TextUnit struct {
	UnitID          string     `json:"unit_id,omitempty"`
	ParentControlID string     `json:"parent_control_id"`
	ParentControl   ControlRef `json:"parent_control"`
	Text            string     `json:"text"`
}

// NewTextUnit builds a text unit, falling back to the parent control id when
// the originating part has no id of its own.
func NewTextUnit(partID string, parent ControlRef, text string) TextUnit {
	unitID := partID
	if unitID == "" {
		unitID = parent.ID
	}
	return TextUnit{
		UnitID:          unitID,
		ParentControlID: parent.ID,
		ParentControl:   parent,
		Text:            text,
	}
}

// DisplayID returns the unit id or N/A when neither the part nor its control had one.
func (u TextUnit) DisplayID() string {
	if u.UnitID == "" {
		return NotAvailable
	}
	return u.UnitID
}

// Texts returns the prose of each unit in order.
func Texts(units []TextUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

// Match pairs a base-side text unit with its similarity score.
type Match struct {
	Base  TextUnit `json:"base"`
	Score float64  `json:"score"`
}

// ReportEntry holds the ranked matches for one merge-side unit.
type ReportEntry struct {
	Unit    TextUnit `json:"unit"`
	Matches []Match  `json:"matches"`
}

// HasMatches returns true if at least one base unit cleared the threshold.
func (e ReportEntry) HasMatches() bool {
	return len(e.Matches) > 0
}

// Report is the outcome of one matching run.
type Report struct {
	RunID       uuid.UUID     `json:"run_id"`
	BaseName    string        `json:"base"`
	MergeName   string        `json:"merge"`
	Threshold   float64       `json:"threshold"`
	TopK        int           `json:"top_k"`
	Model       string        `json:"model,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
	Entries     []ReportEntry `json:"entries"`
}

// NewReport creates an empty report with a generated run ID and timestamp.
func NewReport(baseName, mergeName string, threshold float64, topK int) *Report {
	return &Report{
		RunID:       uuid.New(),
		BaseName:    baseName,
		MergeName:   mergeName,
		Threshold:   threshold,
		TopK:        topK,
		GeneratedAt: time.Now(),
	}
}

// MatchedCount returns how many merge units have at least one match.
func (r *Report) MatchedCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.HasMatches() {
			n++
		}
	}
	return n
}
