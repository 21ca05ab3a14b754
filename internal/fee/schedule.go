package fee

import (
	"fmt"
	"sort"
)

// Tier applies RateBps to the whole gross when gross <= UpTo. UpTo == 0 means unbounded.
type Tier struct {
	UpTo    Money
	RateBps int64
}

// Schedule is an immutable, versioned fee table. Payments record the version that priced them.
type Schedule struct {
	Version          int
	Tiers            []Tier
	ProcessorRateBps int64
	ProcessorFixed   Money
}

// CurrentVersion is the schedule new payments are priced with unless configured otherwise.
const CurrentVersion = 1

var schedules = map[int]Schedule{
	1: {
		Version: 1,
		Tiers: []Tier{
			{UpTo: 50000, RateBps: 1500},
			{UpTo: 200000, RateBps: 1200},
			{UpTo: 0, RateBps: 1000},
		},
		ProcessorRateBps: 290,
		ProcessorFixed:   30,
	},
}

// Lookup returns a copy of the schedule for version.
func Lookup(version int) (Schedule, error) {
	s, ok := schedules[version]
	if !ok {
		return Schedule{}, fmt.Errorf("%w: %d", ErrUnknownScheduleVersion, version)
	}
	tiers := make([]Tier, len(s.Tiers))
	copy(tiers, s.Tiers)
	s.Tiers = tiers
	return s, nil
}

// Versions lists every known schedule version in ascending order.
func Versions() []int {
	out := make([]int, 0, len(schedules))
	for v := range schedules {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// PlatformRate is a single threshold lookup, not a marginal blend.
func (s Schedule) PlatformRate(gross Money) int64 {
	for _, t := range s.Tiers {
		if t.UpTo == 0 || gross <= t.UpTo {
			return t.RateBps
		}
	}
	return s.Tiers[len(s.Tiers)-1].RateBps
}
