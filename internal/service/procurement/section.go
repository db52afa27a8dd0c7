package procurement

import (
	"strings"

	"github.com/messmaestro/maestro/internal/domain/models"
)

// SectionKind identifies which strength field scales a menu section.
type SectionKind int

const (
	SectionOther SectionKind = iota
	SectionBreakfast
	SectionLuncheon
	SectionDinner
	SectionLunchPacks
	SectionScaleM
)

func (k SectionKind) String() string {
	switch k {
	case SectionBreakfast:
		return "breakfast"
	case SectionLuncheon:
		return "luncheon"
	case SectionDinner:
		return "dinner"
	case SectionLunchPacks:
		return "lunch_packs"
	case SectionScaleM:
		return "scale_m"
	default:
		return "other"
	}
}

// Markers in descending precedence. A section id containing several markers
// resolves to the one that sits last in the planner's breakfast, luncheon,
// dinner, lunch_packs, scale_m ordering.
// TODO: confirm the precedence with the menu planners; no live section id
// carries two markers yet.
var sectionMarkers = []struct {
	marker string
	kind   SectionKind
}{
	{"scale_m", SectionScaleM},
	{"lunch_packs", SectionLunchPacks},
	{"dinner", SectionDinner},
	{"luncheon", SectionLuncheon},
	{"breakfast", SectionBreakfast},
}

// ClassifySection resolves a section id to its kind.
func ClassifySection(sectionID string) SectionKind {
	for _, m := range sectionMarkers {
		if strings.Contains(sectionID, m.marker) {
			return m.kind
		}
	}
	return SectionOther
}

// Percent picks the strength percentage applying to this kind. Other
// sections are served at full strength.
func (k SectionKind) Percent(s models.DailyStrength) float64 {
	switch k {
	case SectionBreakfast:
		return s.Breakfast
	case SectionLuncheon:
		return s.Lunch
	case SectionDinner:
		return s.Supper
	case SectionLunchPacks:
		return s.LunchPacks
	case SectionScaleM:
		return s.ScaleM
	default:
		return 100
	}
}
