package streak

import (
	"math"
	"sort"
	"time"
)

const (
	histogramMonths  = 6
	ratePeriodSecs   = 30 * secondsPerDay
	dateKeyLayout    = "2006-01-02"
	monthLabelLayout = "Jan"
)

// MonthBucket is one calendar month of the trailing relapse histogram.
type MonthBucket struct {
	Label string     `json:"label"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Count int        `json:"count"`
}

// Analytics is the longitudinal view derived from the relapse ledger.
type Analytics struct {
	MonthlyHistogram []MonthBucket   `json:"monthly_histogram"`
	AvgStreakDays    int             `json:"avg_streak_days"`
	RelapseDateSet   map[string]bool `json:"relapse_date_set"`
	RelapseRate      float64         `json:"relapse_rate"`
	RelapseCount     int             `json:"relapse_count"`
}

// Aggregate derives the analytics from the ledger at the given instant. The
// current elapsed duration feeds the average for streaks with fewer than two
// relapses and the 30-day-period relapse rate.
func Aggregate(relapses []RelapseEvent, elapsed Elapsed, now time.Time) Analytics {
	return Analytics{
		MonthlyHistogram: monthlyHistogram(relapses, now),
		AvgStreakDays:    avgStreakDays(relapses, elapsed),
		RelapseDateSet:   relapseDateSet(relapses),
		RelapseRate:      relapseRate(len(relapses), elapsed.TotalSeconds),
		RelapseCount:     len(relapses),
	}
}

// monthlyHistogram buckets relapses into the six calendar months ending at
// now's month, oldest first. Bucketing matches on year+month only.
func monthlyHistogram(relapses []RelapseEvent, now time.Time) []MonthBucket {
	buckets := make([]MonthBucket, 0, histogramMonths)
	for i := histogramMonths - 1; i >= 0; i-- {
		anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		buckets = append(buckets, MonthBucket{
			Label: anchor.Format(monthLabelLayout),
			Year:  anchor.Year(),
			Month: anchor.Month(),
		})
	}

	for _, event := range relapses {
		for i := range buckets {
			if event.Date.Year() == buckets[i].Year && event.Date.Month() == buckets[i].Month {
				buckets[i].Count++
				break
			}
		}
	}

	return buckets
}

// avgStreakDays returns the rounded mean of the inter-relapse intervals.
// With fewer than two relapses there is no prior interval to average, so the
// ongoing streak length stands in.
func avgStreakDays(relapses []RelapseEvent, elapsed Elapsed) int {
	if len(relapses) < 2 {
		return elapsed.Days
	}

	sorted := append([]RelapseEvent(nil), relapses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var totalDays float64
	for i := 1; i < len(sorted); i++ {
		totalDays += sorted[i].Date.Sub(sorted[i-1].Date).Seconds() / secondsPerDay
	}

	return int(math.Round(totalDays / float64(len(sorted)-1)))
}

// relapseDateSet collapses the ledger to calendar-day membership keys for
// calendar-cell lookup. Multiple relapses on one day yield a single entry.
func relapseDateSet(relapses []RelapseEvent) map[string]bool {
	set := make(map[string]bool, len(relapses))
	for _, event := range relapses {
		set[event.Date.Format(dateKeyLayout)] = true
	}
	return set
}

// relapseRate is relapses per elapsed 30-day period. The denominator is at
// least one so very short streaks never divide by zero.
func relapseRate(count int, elapsedSeconds int64) float64 {
	periods := int64(math.Ceil(float64(elapsedSeconds) / float64(ratePeriodSecs)))
	if periods < 1 {
		periods = 1
	}
	return float64(count) / float64(periods)
}

// MonthGrid produces calendar cells for the displayed month: one zero cell per
// day of leading padding (the weekday index of the 1st, Sunday first), then
// the day numbers themselves. Pure function of (year, month).
func MonthGrid(year int, month time.Month) []int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	cells := make([]int, 0, int(first.Weekday())+daysInMonth)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, 0)
	}
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, day)
	}
	return cells
}
