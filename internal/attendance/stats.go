package attendance

import (
	"github.com/studydash/internal/dates"
)

// maxPredictionSteps bounds the prediction searches, targets that can never
// be reached (100% after any absence) stop there.
const maxPredictionSteps = 1000

// ComputeStats counts conducted and attended classes of every subject from
// start to end inclusive. Holidays, cancelled classes and leaves are not
// counted at all. Scheduled classes without a record count as conducted.
// Timetable entries of subjects that no longer exist are ignored.
func ComputeStats(
	subjects []Subject,
	timetable Timetable,
	records Records,
	holidays HolidayChecker,
	start, end string,
) Stats {
	stats := Stats{
		PerSubject: make(map[string]Count, len(subjects)),
	}
	for _, subject := range subjects {
		stats.PerSubject[subject.ID] = Count{}
	}

	days, err := dates.Range(start, end)
	if err != nil {
		return stats
	}

	for _, date := range days {
		if holidays != nil && holidays.IsHoliday(date) {
			continue
		}
		weekday, _ := dates.Weekday(date)
		marks := records[date]
		for _, subjectID := range timetable[weekday] {
			count, ok := stats.PerSubject[subjectID]
			if !ok {
				continue
			}
			status := marks[subjectID]
			if status.Excluded() {
				continue
			}
			count.Conducted++
			if status == StatusPresent {
				count.Attended++
			}
			stats.PerSubject[subjectID] = count
		}
	}

	for _, count := range stats.PerSubject {
		stats.Totals.Conducted += count.Conducted
		stats.Totals.Attended += count.Attended
	}
	stats.Percent = stats.Totals.Percent()

	return stats
}

// PredictSkippable returns, per subject, how many further classes can be
// missed while attendance stays at or above target percent.
func PredictSkippable(perSubject map[string]Count, target float64) map[string]int {
	out := make(map[string]int, len(perSubject))
	for id, count := range perSubject {
		k := 0
		for ratio(count.Attended, count.Conducted+k) >= target {
			k++
			if k > maxPredictionSteps {
				break
			}
		}
		out[id] = max(0, k-1)
	}
	return out
}

// PredictNeeded returns, per subject, how many classes in a row must be
// attended to bring attendance to target percent.
func PredictNeeded(perSubject map[string]Count, target float64) map[string]int {
	out := make(map[string]int, len(perSubject))
	for id, count := range perSubject {
		if count.Conducted == 0 {
			out[id] = 0
			continue
		}
		n := 0
		for ratio(count.Attended+n, max(1, count.Conducted+n)) < target {
			n++
			if n > maxPredictionSteps {
				break
			}
		}
		out[id] = n
	}
	return out
}

// ratio is 0 when nothing was conducted.
func ratio(attended, conducted int) float64 {
	if conducted <= 0 {
		return 0
	}
	return float64(attended) / float64(conducted) * 100
}
