package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
)

var base = time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

func mk(start time.Time, hours float64, profit float64, mut ...func(*session.Session)) session.Session {
	s := session.Session{
		GameType:  session.GameCash,
		Stakes:    "1/2",
		Location:  "Bellagio",
		BuyIn:     200,
		Cashout:   200 + profit,
		Profit:    profit,
		StartedAt: start,
		EndedAt:   start.Add(time.Duration(hours * float64(time.Hour))),
	}
	for _, fn := range mut {
		fn(&s)
	}
	return s
}

func TestSelect_RangeAndFilter(t *testing.T) {
	now := base
	sessions := []session.Session{
		mk(now.Add(-2*time.Hour), 1, 50),
		mk(now.AddDate(0, 0, -3), 3, -100),
		mk(now.AddDate(0, 0, -20), 4, 300),
		mk(now.AddDate(0, -8, 0), 5, 900), // outside 6M
		mk(now.Add(-time.Hour), 0, 0, func(s *session.Session) { s.Live = true }),
	}

	require.Len(t, Select(sessions, Range24H, Filter{}, now), 1)
	require.Len(t, Select(sessions, Range1W, Filter{}, now), 2)
	require.Len(t, Select(sessions, Range1M, Filter{}, now), 3)
	require.Len(t, Select(sessions, Range6M, Filter{}, now), 3)
	require.Len(t, Select(sessions, RangeAll, Filter{}, now), 4, "live session excluded")

	profitable := Select(sessions, RangeAll, Filter{ProfitableOnly: true}, now)
	require.Len(t, profitable, 3)

	long := Select(sessions, RangeAll, Filter{Length: LengthShort}, now)
	require.Len(t, long, 1)
}

func TestSelect_MultiFieldFilter(t *testing.T) {
	now := base
	monday := time.Date(2024, 2, 26, 9, 0, 0, 0, time.UTC) // a Monday morning
	sessions := []session.Session{
		mk(monday, 3, 120),
		mk(monday, 3, 120, func(s *session.Session) { s.Location = "Aria" }),
		mk(monday, 3, 120, func(s *session.Session) { s.GameType = session.GameTournament }),
		mk(monday.Add(10*time.Hour), 3, 120), // evening
	}

	wd := time.Monday
	f := Filter{
		GameType:  session.GameCash,
		Location:  "bellagio", // case-insensitive
		TimeOfDay: TimeMorning,
		Weekday:   &wd,
	}
	require.Len(t, Select(sessions, RangeAll, f, now), 1)
}

func TestSummarize(t *testing.T) {
	now := base
	sessions := []session.Session{
		mk(now.Add(-1*time.Hour), 2, 100),
		mk(now.Add(-2*time.Hour), 4, -50),
		mk(now.Add(-3*time.Hour), 4, 250),
	}

	sum := Summarize(Select(sessions, RangeAll, Filter{}, now))
	require.Equal(t, 3, sum.SessionCount)
	require.InDelta(t, 300.0, sum.TotalProfit, 1e-9)
	require.InDelta(t, 100.0, sum.AvgProfit, 1e-9)
	require.InDelta(t, 2.0/3.0, sum.WinRate, 1e-9)
	require.InDelta(t, 10.0, sum.TotalHours, 1e-9)
	require.InDelta(t, 30.0, sum.HourlyRate, 1e-9)
	require.NotNil(t, sum.BestSession)
	require.InDelta(t, 250.0, sum.BestSession.Profit, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)
	require.Equal(t, 0, sum.SessionCount)
	require.Zero(t, sum.TotalProfit)
	require.Zero(t, sum.WinRate)
	require.Nil(t, sum.BestSession)
}

func TestProfitSeries_CumulativeDailyBuckets(t *testing.T) {
	now := base
	d1 := time.Date(2024, 2, 26, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC)
	sessions := []session.Session{
		mk(d1, 2, 100),
		mk(d1.Add(5*time.Hour), 2, -40), // same day, same bucket
		mk(d2, 2, 70),
	}

	points := ProfitSeries(Select(sessions, Range1W, Filter{}, now), Range1W)
	require.Len(t, points, 2)
	require.InDelta(t, 60.0, points[0].Profit, 1e-9)
	require.InDelta(t, 130.0, points[1].Profit, 1e-9, "series is cumulative")
	require.True(t, points[0].Start.Before(points[1].Start))
}

func TestProfitSeries_Deterministic(t *testing.T) {
	now := base
	sessions := []session.Session{
		mk(now.AddDate(0, 0, -1), 2, 10),
		mk(now.AddDate(0, 0, -2), 2, 20),
		mk(now.AddDate(0, 0, -3), 2, 30),
	}
	a := ProfitSeries(Select(sessions, Range1W, Filter{}, now), Range1W)
	b := ProfitSeries(Select(sessions, Range1W, Filter{}, now), Range1W)
	require.Equal(t, a, b)
}

func TestClassify(t *testing.T) {
	now := base

	require.Equal(t, PersonaRookie, Classify(nil))

	var winners []session.Session
	for i := 0; i < 10; i++ {
		winners = append(winners, mk(now.AddDate(0, 0, -i), 3, 100))
	}
	require.Equal(t, PersonaCrusher, Classify(winners))

	var highRollers []session.Session
	for i := 0; i < 10; i++ {
		highRollers = append(highRollers, mk(now.AddDate(0, 0, -i), 3, -10,
			func(s *session.Session) { s.Stakes = "5/10" }))
	}
	require.Equal(t, PersonaHighRoller, Classify(highRollers))

	// Mostly weekend play, losing, small stakes.
	var weekenders []session.Session
	sat := time.Date(2024, 2, 24, 20, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		weekenders = append(weekenders, mk(sat.AddDate(0, 0, -7*i), 3, -20))
	}
	require.Equal(t, PersonaWeekendHero, Classify(weekenders))

	// Weekday volume with mixed results.
	var grinders []session.Session
	mon := time.Date(2024, 2, 26, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		profit := -30.0
		if i%2 == 0 {
			profit = 25
		}
		grinders = append(grinders, mk(mon.AddDate(0, 0, -i), 6, profit))
	}
	require.Equal(t, PersonaGrinder, Classify(grinders))
}
