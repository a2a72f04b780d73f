package pve

import "net/http"

const (
	// cookieName is the identity cookie carrying the ticket.
	cookieName = "PVEAuthCookie"
	// csrfHeader carries the anti-forgery token.
	csrfHeader = "CSRFPreventionToken"
)

// Session holds an authenticated identity. It is immutable after Login and
// may be shared by any number of concurrent requests.
type Session struct {
	ticket    string
	csrfToken string
	username  string
}

// NewSession builds a Session from an existing ticket and CSRF token.
func NewSession(username, ticket, csrfToken string) *Session {
	return &Session{
		ticket:    ticket,
		csrfToken: csrfToken,
		username:  username,
	}
}

// Username returns the user the ticket was issued to.
func (s *Session) Username() string {
	return s.username
}

// authorize attaches the identity cookie and CSRF header to req.
func (s *Session) authorize(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: s.ticket})
	req.Header.Set(csrfHeader, s.csrfToken)
}
