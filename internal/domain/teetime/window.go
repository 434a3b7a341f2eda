package teetime

import "time"

// TimeWindow is an inclusive range of minutes after midnight.
type TimeWindow struct {
	Start int `json:"startMinutes"`
	End   int `json:"endMinutes"`
}

func (w TimeWindow) Contains(minutes int) bool {
	return minutes >= w.Start && minutes <= w.End
}

func (w TimeWindow) String() string {
	return FormatClock(w.Start) + "-" + FormatClock(w.End)
}

// Preference is the subset of the scheduler configuration the resolver needs.
type Preference struct {
	DaysAhead          int
	PreferredTeeTime   string
	FlexibilityMinutes int
}

// Target is what a run goes after: a calendar date and a window on it.
type Target struct {
	Date             time.Time
	Window           TimeWindow
	PreferredMinutes int
}

// DateString formats the target date as YYYY-MM-DD.
func (t Target) DateString() string { return t.Date.Format(DateLayout) }

const DateLayout = "2006-01-02"

// Resolve turns a preference into a target date and window. The date is
// computed as a calendar date in loc, so a run just after local midnight
// still counts from the local day.
func Resolve(p Preference, now time.Time, loc *time.Location) (Target, error) {
	preferred, err := ParseClock(p.PreferredTeeTime)
	if err != nil {
		return Target{}, WrapConfiguration(err, "preferred tee time")
	}
	if p.DaysAhead < 0 {
		return Target{}, ConfigurationErrorf("booking days ahead must not be negative, got %d", p.DaysAhead)
	}
	if p.FlexibilityMinutes < 0 {
		return Target{}, ConfigurationErrorf("flexibility must not be negative, got %d", p.FlexibilityMinutes)
	}
	if loc == nil {
		loc = time.Local
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	return Target{
		Date: today.AddDate(0, 0, p.DaysAhead),
		Window: TimeWindow{
			Start: max(MinMinute, preferred-p.FlexibilityMinutes),
			End:   min(MaxMinute, preferred+p.FlexibilityMinutes),
		},
		PreferredMinutes: preferred,
	}, nil
}
