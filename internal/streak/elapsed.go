package streak

import "time"

const secondsPerDay = 86400

// Elapsed is the decomposition of a streak's age into calendar-free units.
// Truncation only, day = 86400 seconds.
type Elapsed struct {
	Started      bool  `json:"started"`
	TotalSeconds int64 `json:"total_seconds"`
	Days         int   `json:"days"`
	Hours        int   `json:"hours"`
	Minutes      int   `json:"minutes"`
	Seconds      int   `json:"seconds"`
}

// ElapsedBetween computes the elapsed duration of a streak started at start.
// A nil start means no active streak and yields the zero value. Clock skew
// that would produce a negative delta is clamped to zero.
func ElapsedBetween(start *time.Time, now time.Time) Elapsed {
	if start == nil {
		return Elapsed{}
	}

	total := int64(now.Sub(*start) / time.Second)
	if total < 0 {
		total = 0
	}

	return Elapsed{
		Started:      true,
		TotalSeconds: total,
		Days:         int(total / secondsPerDay),
		Hours:        int(total % secondsPerDay / 3600),
		Minutes:      int(total % 3600 / 60),
		Seconds:      int(total % 60),
	}
}
