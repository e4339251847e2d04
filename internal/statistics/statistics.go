package statistics

type Subject struct {
	Name    string `json:"name"`
	Seconds int    `json:"seconds"`
}

type Year struct {
	Seconds  int       `json:"seconds"`
	Months   []int     `json:"months"`
	Subjects []Subject `json:"subjects"`
}

type Month struct {
	Seconds  int       `json:"seconds"`
	Weeks    []Week    `json:"weeks"`
	Subjects []Subject `json:"subjects"`
}

type Week struct {
	Seconds int `json:"seconds"`
	// Number is an ISO week number
	Number int `json:"number"`
}

type Day struct {
	Date    string `json:"date"`
	Seconds int    `json:"seconds"`
}

type YearWeek struct {
	Seconds  int       `json:"seconds"`
	Days     []Day     `json:"days"`
	Subjects []Subject `json:"subjects"`
}
