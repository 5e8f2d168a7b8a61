package services

import "time"

func (s *SessionManager) SetClock(now func() time.Time) {
	s.now = now
}
