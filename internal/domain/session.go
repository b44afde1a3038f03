package domain

import "time"

// Session is the per-browser state kept between requests.
type Session struct {
	ID                string     `json:"id"`
	Principal         *Principal `json:"principal,omitempty"`
	Cart              *Cart      `json:"cart"`
	CheckoutSessionID string     `json:"checkout_session_id,omitempty"`
	Flashes           []string   `json:"flashes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func NewSession(id string) *Session {
	return &Session{ID: id, Cart: NewCart(), CreatedAt: time.Now().UTC()}
}

func (s *Session) Flash(msg string) {
	s.Flashes = append(s.Flashes, msg)
}

// PopFlashes returns pending flash messages and clears them.
func (s *Session) PopFlashes() []string {
	f := s.Flashes
	s.Flashes = nil
	return f
}
