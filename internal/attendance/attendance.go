package attendance

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Status string

const (
	StatusPresent   Status = "Present"
	StatusAbsent    Status = "Absent"
	StatusCancelled Status = "Cancelled"
	StatusLeave     Status = "Leave"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusCancelled, StatusLeave:
		return true
	default:
		return false
	}
}

// Excluded statuses remove the class from accounting altogether.
func (s Status) Excluded() bool {
	return s == StatusCancelled || s == StatusLeave
}

type Subject struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Resources []string `json:"resources,omitempty"`
}

func NewSubjectID() string {
	return gonanoid.Must()
}

// Timetable maps a weekday to the ids of the subjects taught that day.
type Timetable map[time.Weekday][]string

// Records maps an ISO date to the status of every marked subject.
type Records map[string]map[string]Status

// Cycle is the window attendance is measured over. A nil End means today.
type Cycle struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

// Count is the accounting of one subject.
type Count struct {
	Conducted int `json:"conducted"`
	Attended  int `json:"attended"`
}

func (c Count) Percent() float64 {
	return float64(c.Attended) / float64(max(1, c.Conducted)) * 100
}

type Stats struct {
	PerSubject map[string]Count `json:"per_subject"`
	Totals     Count            `json:"totals"`
	Percent    float64          `json:"percent"`
}

type HolidayChecker interface {
	IsHoliday(date string) bool
}
