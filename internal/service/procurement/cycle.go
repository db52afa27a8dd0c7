package procurement

import (
	"fmt"
	"time"

	"github.com/messmaestro/maestro/internal/domain/models"
)

const dateLayout = "2006-01-02"

// CycleDay maps a calendar date to its menu cycle day (1..28). The cycle
// restarts on 1 January of every year, so two dates 28 days apart share a
// cycle day only when both fall in the same calendar year.
func CycleDay(date time.Time) int {
	return (date.YearDay()-1)%models.CycleLength + 1
}

// StrengthKey is the lookup key of a unit's strength record for a month.
func StrengthKey(unitID string, year int, month time.Month) string {
	return fmt.Sprintf("%s_%d_%d", unitID, year, int(month))
}

type unitMonth struct {
	unitID string
	year   int
	month  time.Month
}

func (um unitMonth) key() string {
	return StrengthKey(um.unitID, um.year, um.month)
}

// unitMonths lists every (unit, month) pair touched by the inclusive range.
func unitMonths(unitIDs []string, start, end time.Time) []unitMonth {
	var out []unitMonth
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(last) {
		for _, id := range unitIDs {
			out = append(out, unitMonth{unitID: id, year: cursor.Year(), month: cursor.Month()})
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return out
}

// cycleDaysInRange returns the distinct cycle days hit by the range, in first-seen order.
func cycleDaysInRange(start, end time.Time) []int {
	seen := make(map[int]struct{}, models.CycleLength)
	var days []int
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cd := CycleDay(d)
		if _, ok := seen[cd]; ok {
			continue
		}
		seen[cd] = struct{}{}
		days = append(days, cd)
		if len(days) == models.CycleLength {
			break
		}
	}
	return days
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}
