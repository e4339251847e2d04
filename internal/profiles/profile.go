package profiles

import (
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/studydash/internal/keys"
)

type ID string

func NewID() ID {
	return ID(gonanoid.Must())
}

type Profile struct {
	ID           ID        `json:"id"`
	Registration string    `json:"registration"`
	Mobile       string    `json:"mobile"`
	Name         string    `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeRegistration makes registration numbers case and space
// insensitive.
func NormalizeRegistration(registration string) string {
	return strings.ToUpper(strings.Join(strings.Fields(registration), ""))
}

func (p Profile) Encode(key *keys.Key) (*EncodedProfile, error) {
	encoded, err := key.Encrypt([]byte(p.Mobile))
	if err != nil {
		return nil, err
	}
	return &EncodedProfile{
		ID:           p.ID,
		Registration: p.Registration,
		Mobile:       encoded,
		Name:         p.Name,
		CreatedAt:    p.CreatedAt,
	}, nil
}

type EncodedProfile struct {
	ID           ID        `json:"id"`
	Registration string    `json:"registration"`
	Mobile       []byte    `json:"mobile"`
	Name         string    `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e EncodedProfile) Decode(key *keys.Key) (*Profile, error) {
	mobile, err := key.Decrypt(e.Mobile)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:           e.ID,
		Registration: e.Registration,
		Mobile:       string(mobile),
		Name:         e.Name,
		CreatedAt:    e.CreatedAt,
	}, nil
}
