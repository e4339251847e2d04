package calendars

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/studydash/internal/profiles"
)

type Calendar struct {
	ID        string      `json:"id"`
	ProfileID profiles.ID `json:"profile_id"`
}

func NewCalendar(profileID profiles.ID) *Calendar {
	return &Calendar{
		ID:        gonanoid.Must(),
		ProfileID: profileID,
	}
}
