// Package analytics computes dashboard metrics over in-memory session
// records. Every function here is a deterministic, side-effect-free function
// of its inputs.
package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
)

// TimeRange selects how far back sessions are considered.
type TimeRange string

const (
	Range24H TimeRange = "24H"
	Range1W  TimeRange = "1W"
	Range1M  TimeRange = "1M"
	Range6M  TimeRange = "6M"
	Range1Y  TimeRange = "1Y"
	RangeAll TimeRange = "All"
)

// ParseTimeRange maps a label to a TimeRange, defaulting to All.
func ParseTimeRange(s string) TimeRange {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "24H":
		return Range24H
	case "1W":
		return Range1W
	case "1M":
		return Range1M
	case "6M":
		return Range6M
	case "1Y":
		return Range1Y
	default:
		return RangeAll
	}
}

// cutoff returns the earliest start time included, zero for All.
func (r TimeRange) cutoff(now time.Time) time.Time {
	switch r {
	case Range24H:
		return now.Add(-24 * time.Hour)
	case Range1W:
		return now.AddDate(0, 0, -7)
	case Range1M:
		return now.AddDate(0, -1, 0)
	case Range6M:
		return now.AddDate(0, -6, 0)
	case Range1Y:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// SessionLength buckets sessions by duration.
type SessionLength string

const (
	LengthAny    SessionLength = ""
	LengthShort  SessionLength = "short"  // under 2h
	LengthMedium SessionLength = "medium" // 2h to 6h
	LengthLong   SessionLength = "long"   // over 6h
)

// TimeOfDay buckets sessions by local start hour.
type TimeOfDay string

const (
	TimeAny       TimeOfDay = ""
	TimeMorning   TimeOfDay = "morning"   // 05:00-11:59
	TimeAfternoon TimeOfDay = "afternoon" // 12:00-17:59
	TimeEvening   TimeOfDay = "evening"   // 18:00-23:59
	TimeNight     TimeOfDay = "night"     // 00:00-04:59
)

// Filter narrows the session set. Zero values mean "any".
type Filter struct {
	GameType       session.GameType
	Stakes         string
	Location       string
	Length         SessionLength
	ProfitableOnly bool
	TimeOfDay      TimeOfDay
	// Weekday filters by start day when set.
	Weekday *time.Weekday
}

// Matches reports whether a session passes the filter.
func (f Filter) Matches(s session.Session) bool {
	if f.GameType != "" && s.GameType != f.GameType {
		return false
	}
	if f.Stakes != "" && !strings.EqualFold(f.Stakes, s.Stakes) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(f.Location, s.Location) {
		return false
	}
	if f.Length != LengthAny && lengthBucket(s) != f.Length {
		return false
	}
	if f.ProfitableOnly && s.Profit <= 0 {
		return false
	}
	if f.TimeOfDay != TimeAny && timeOfDayBucket(s.StartedAt) != f.TimeOfDay {
		return false
	}
	if f.Weekday != nil && s.StartedAt.Weekday() != *f.Weekday {
		return false
	}
	return true
}

func lengthBucket(s session.Session) SessionLength {
	h := s.Hours()
	switch {
	case h < 2:
		return LengthShort
	case h <= 6:
		return LengthMedium
	default:
		return LengthLong
	}
}

func timeOfDayBucket(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return TimeMorning
	case h >= 12 && h < 18:
		return TimeAfternoon
	case h >= 18:
		return TimeEvening
	default:
		return TimeNight
	}
}

// Select returns completed sessions within the range that pass the filter,
// ordered by start time. Live sessions are excluded: they have no result yet.
func Select(sessions []session.Session, r TimeRange, f Filter, now time.Time) []session.Session {
	cutoff := r.cutoff(now)
	out := make([]session.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Live {
			continue
		}
		if !cutoff.IsZero() && s.StartedAt.Before(cutoff) {
			continue
		}
		if !f.Matches(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Summary aggregates headline dashboard numbers.
type Summary struct {
	SessionCount int
	TotalProfit  float64
	AvgProfit    float64
	// WinRate is the fraction of sessions with positive profit, 0..1.
	WinRate    float64
	TotalHours float64
	// HourlyRate is TotalProfit / TotalHours, zero when no hours recorded.
	HourlyRate  float64
	BestSession *session.Session
}

// Summarize computes the headline metrics for the selected sessions.
func Summarize(selected []session.Session) Summary {
	var sum Summary
	sum.SessionCount = len(selected)
	if len(selected) == 0 {
		return sum
	}

	wins := 0
	best := selected[0]
	for _, s := range selected {
		sum.TotalProfit += s.Profit
		sum.TotalHours += s.Hours()
		if s.Profit > 0 {
			wins++
		}
		if s.Profit > best.Profit {
			best = s
		}
	}
	sum.AvgProfit = sum.TotalProfit / float64(len(selected))
	sum.WinRate = float64(wins) / float64(len(selected))
	if sum.TotalHours > 0 {
		sum.HourlyRate = sum.TotalProfit / sum.TotalHours
	}
	bestCopy := best
	sum.BestSession = &bestCopy
	return sum
}

// BucketPoint is one point of the time-bucketed profit series.
type BucketPoint struct {
	Start  time.Time
	Profit float64
}

// ProfitSeries buckets cumulative profit over the range. Bucket width follows
// the range: hourly for 24H, daily for 1W/1M, monthly otherwise.
func ProfitSeries(selected []session.Session, r TimeRange) []BucketPoint {
	if len(selected) == 0 {
		return nil
	}

	truncate := bucketTruncator(r)
	totals := make(map[time.Time]float64)
	for _, s := range selected {
		totals[truncate(s.StartedAt)] += s.Profit
	}

	points := make([]BucketPoint, 0, len(totals))
	for start, profit := range totals {
		points = append(points, BucketPoint{Start: start, Profit: profit})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Start.Before(points[j].Start) })

	// Series is cumulative so the dashboard draws a bankroll curve.
	running := 0.0
	for i := range points {
		running += points[i].Profit
		points[i].Profit = running
	}
	return points
}

func bucketTruncator(r TimeRange) func(time.Time) time.Time {
	switch r {
	case Range24H:
		return func(t time.Time) time.Time { return t.Truncate(time.Hour) }
	case Range1W, Range1M:
		return func(t time.Time) time.Time {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		}
	default:
		return func(t time.Time) time.Time {
			y, m, _ := t.Date()
			return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
		}
	}
}

// Persona labels a player's style from their aggregates.
type Persona string

const (
	PersonaRookie      Persona = "rookie"
	PersonaGrinder     Persona = "grinder"
	PersonaHighRoller  Persona = "high_roller"
	PersonaWeekendHero Persona = "weekend_hero"
	PersonaCrusher     Persona = "crusher"
)

// Classify assigns a persona from the selected sessions.
func Classify(selected []session.Session) Persona {
	if len(selected) < 5 {
		return PersonaRookie
	}

	sum := Summarize(selected)

	weekend := 0
	bigStakes := 0
	for _, s := range selected {
		switch s.StartedAt.Weekday() {
		case time.Saturday, time.Sunday:
			weekend++
		}
		if stakeBigBlind(s.Stakes) >= 5 {
			bigStakes++
		}
	}

	switch {
	case sum.WinRate >= 0.6 && sum.TotalProfit > 0:
		return PersonaCrusher
	case bigStakes*2 > len(selected):
		return PersonaHighRoller
	case weekend*2 > len(selected):
		return PersonaWeekendHero
	default:
		return PersonaGrinder
	}
}

// stakeBigBlind extracts the big blind from a "sb/bb" stakes label, zero when
// the label does not parse.
func stakeBigBlind(stakes string) float64 {
	parts := strings.Split(stakes, "/")
	if len(parts) != 2 {
		return 0
	}
	bb, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0
	}
	return bb
}
