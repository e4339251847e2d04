package devices

import (
	"net/http"
	"time"

	"github.com/studydash/internal/profiles"
)

const cookieName = "profile_id"

type Device struct {
	ProfileID profiles.ID
}

func FromCookies(cookies []*http.Cookie) (*Device, bool) {
	d := &Device{}
	for _, cookie := range cookies {
		switch cookie.Name {
		case cookieName:
			d.ProfileID = profiles.ID(cookie.Value)
		}
	}
	if len(d.ProfileID) == 0 {
		return nil, false
	}
	return d, true
}

var (
	minute = time.Second * 60
	hour   = minute * 60
	day    = hour * 24
)

func (d Device) ToCookies(secure bool) []*http.Cookie {
	return []*http.Cookie{
		{
			Name:     cookieName,
			Value:    string(d.ProfileID),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * day),
			Secure:   secure,
		},
	}
}

// ExpiredCookies clear the device cookies.
func ExpiredCookies(secure bool) []*http.Cookie {
	return []*http.Cookie{
		{
			Name:     cookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
			Secure:   secure,
		},
	}
}
