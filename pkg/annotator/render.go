package annotator

import (
	"fmt"
	"html"

	"github.com/FrenchMajesty/veracious/pkg/types"
)

const (
	// TagClass is carried by every annotation element, permanent or pending
	TagClass = "veracious-tag"

	// PendingClass marks the transient placeholder of an in-flight item
	PendingClass = "veracious-pending"
)

// Style is a background/foreground color pair
type Style struct {
	Background string
	Color      string
}

// leanStyles maps each lean to its pill colors
var leanStyles = map[types.Lean]Style{
	types.LeanLeft:          {Background: "#dbeafe", Color: "#1d4ed8"},
	types.LeanRight:         {Background: "#fee2e2", Color: "#b91c1c"},
	types.LeanLiberal:       {Background: "#e0f2fe", Color: "#0369a1"},
	types.LeanConservative:  {Background: "#fef3c7", Color: "#b45309"},
	types.LeanAuthoritarian: {Background: "#f3e8ff", Color: "#7e22ce"},
	types.LeanLibertarian:   {Background: "#fef9c3", Color: "#a16207"},
	types.LeanCentrist:      {Background: "#f1f5f9", Color: "#475569"},
	types.LeanUnclear:       {Background: "#f8fafc", Color: "#94a3b8"},
}

// Band is a manipulation score range
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

var bandStyles = map[Band]Style{
	BandLow:    {Background: "#dcfce7", Color: "#15803d"},
	BandMedium: {Background: "#fef3c7", Color: "#b45309"},
	BandHigh:   {Background: "#fee2e2", Color: "#b91c1c"},
}

// ScoreBand classifies a manipulation score: above 66 is high, above 33 is medium, the rest low
func ScoreBand(score types.Score) Band {
	switch {
	case score > 66:
		return BandHigh
	case score > 33:
		return BandMedium
	default:
		return BandLow
	}
}

// LeanStyle returns the colors for a lean, falling back to the unclear style
func LeanStyle(lean types.Lean) Style {
	if s, ok := leanStyles[lean]; ok {
		return s
	}
	return leanStyles[types.LeanUnclear]
}

// Tag is the visual summary attached to a classified item
type Tag struct {
	Lean      types.Lean
	LeanStyle Style
	Score     types.Score
	Band      Band
	BandStyle Style
}

// NewTag derives the tag for a classification result
func NewTag(result types.Classification) Tag {
	lean := result.Lean()
	if _, ok := leanStyles[lean]; !ok {
		lean = types.LeanUnclear
	}
	band := ScoreBand(result.ManipulationScore)

	return Tag{
		Lean:      lean,
		LeanStyle: LeanStyle(lean),
		Score:     result.ManipulationScore,
		Band:      band,
		BandStyle: bandStyles[band],
	}
}

const pillStyle = "font-size:11px;font-weight:700;padding:2px 8px;border-radius:999px;" +
	"font-family:'JetBrains Mono','Consolas',monospace;letter-spacing:0.01em;"

// HTML renders the tag markup
func (t Tag) HTML() string {
	return fmt.Sprintf(
		`<div style="margin-bottom:6px;"><div class="%s" data-lean="%s" data-band="%s" `+
			`style="display:inline-flex;align-items:center;margin-bottom:7px;background:white;`+
			`border:1.5px solid #e2e8f0;border-radius:999px;padding:2px 3px;gap:3px;">`+
			`<span style="background:%s;color:%s;%s">%s</span>`+
			`<span style="color:#cbd5e1;font-size:11px;font-family:monospace;padding:0 1px;">|</span>`+
			`<span style="background:%s;color:%s;%s">mani: %d%%</span>`+
			`</div></div>`,
		TagClass, html.EscapeString(string(t.Lean)), t.Band,
		t.LeanStyle.Background, t.LeanStyle.Color, pillStyle, html.EscapeString(string(t.Lean)),
		t.BandStyle.Background, t.BandStyle.Color, pillStyle, t.Score,
	)
}

// PendingHTML is the zero-height placeholder attached while an item's batch is in flight
const PendingHTML = `<div class="` + TagClass + ` ` + PendingClass + `" style="height:0;overflow:hidden;"></div>`

// TagRenderer attaches annotations to feed items
type TagRenderer struct{}

// Render attaches the tag for result to item. It is a no-op if item is already annotated,
// and reports whether a tag was attached.
func (r *TagRenderer) Render(item Item, result types.Classification) (bool, error) {
	if item.Annotated() {
		return false, nil
	}
	if err := item.Attach(NewTag(result).HTML()); err != nil {
		return false, fmt.Errorf("failed to attach tag to item %s: %w", item.ID(), err)
	}
	return true, nil
}

// MarkPending attaches the pending placeholder unless one is already present
func (r *TagRenderer) MarkPending(item Item) error {
	if item.Pending() {
		return nil
	}
	if err := item.MarkPending(PendingHTML); err != nil {
		return fmt.Errorf("failed to mark item %s pending: %w", item.ID(), err)
	}
	return nil
}

// ClearPending removes the pending placeholder
func (r *TagRenderer) ClearPending(item Item) error {
	if err := item.ClearPending(); err != nil {
		return fmt.Errorf("failed to clear pending mark on item %s: %w", item.ID(), err)
	}
	return nil
}
