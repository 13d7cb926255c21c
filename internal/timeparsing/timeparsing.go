// Package timeparsing provides the date-arithmetic and natural-language
// time parsing primitives the scheduler needs: calendar-aware repetition
// of target dates, day/month boundary helpers, and free-text parsing of
// target dates typed by a human.
package timeparsing

import (
	"errors"
	"time"

	"github.com/formalizer/fzcore/internal/types"
)

// ErrUnknownPattern is returned by AddToDate for a TDPattern value outside
// the known enum range.
var ErrUnknownPattern = errors.New("unknown td_pattern")

// ErrBadTimestamp is returned when a caller-supplied time value is the
// zero time.Time, which never denotes a valid target date in this system.
var ErrBadTimestamp = errors.New("bad timestamp")

// AddToDate advances t by n periods of pattern, applying calendar-aware
// logic for month- and workday-based patterns:
//   - workdays skips Saturday and Sunday when counting the n steps.
//   - endofmonthoffset preserves the number of days t sits before the end
//     of its month, re-applied to the target month.
//
// PatternNonperiodic and the legacy PatternSpan pattern are not advanced
// automatically; t is returned unchanged for them, matching the
// convention that only genuinely periodic patterns generate a sequence of
// instances (spec §4.D).
func AddToDate(t time.Time, pattern types.TDPattern, n int) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrBadTimestamp
	}
	switch pattern {
	case types.PatternDaily:
		return t.AddDate(0, 0, n), nil
	case types.PatternWorkdays:
		return addWorkdays(t, n), nil
	case types.PatternWeekly:
		return t.AddDate(0, 0, 7*n), nil
	case types.PatternBiweekly:
		return t.AddDate(0, 0, 14*n), nil
	case types.PatternMonthly:
		return TimeAddMonth(t, n), nil
	case types.PatternEndOfMonthOffset:
		return addEndOfMonthOffset(t, n), nil
	case types.PatternYearly:
		return t.AddDate(n, 0, 0), nil
	case types.PatternSpan, types.PatternNonperiodic:
		return t, nil
	default:
		return time.Time{}, ErrUnknownPattern
	}
}

func addWorkdays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		t = t.AddDate(0, 0, step)
		if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
			n--
		}
	}
	return t
}

func addEndOfMonthOffset(t time.Time, n int) time.Time {
	monthEnd := endOfMonth(t)
	offsetFromEnd := monthEnd.YearDay() - t.YearDay()
	if monthEnd.Year() != t.Year() {
		// crossed a year boundary computing YearDay; fall back to day math.
		offsetFromEnd = int(monthEnd.Sub(dayStart(t)).Hours() / 24)
	}
	target := TimeAddMonth(t, n)
	targetMonthEnd := endOfMonth(target)
	result := targetMonthEnd.AddDate(0, 0, -offsetFromEnd)
	return time.Date(result.Year(), result.Month(), result.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// TimeAddMonth advances t by n months, clamping the day-of-month into the
// target month when it would otherwise overflow (e.g. Jan 31 + 1 month
// lands on the last day of February, not March 3).
func TimeAddMonth(t time.Time, n int) time.Time {
	year, month := t.Year(), int(t.Month())
	month += n
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}
	lastDay := time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, t.Location()).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// TimeAddDay advances t by n days.
func TimeAddDay(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayStartTime returns midnight local time on the day of t.
func DayStartTime(t time.Time) time.Time {
	return dayStart(t)
}

// TodayEndTime returns the last second of today (local time), i.e. the
// instant just before tomorrow's DayStartTime.
func TodayEndTime() time.Time {
	now := time.Now()
	return dayStart(now).AddDate(0, 0, 1).Add(-time.Second)
}
