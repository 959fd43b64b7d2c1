package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Service wraps cron-based periodic jobs. Jobs are registered before
// Start and run until Stop drains them.
type Service struct {
	cron *cron.Cron
}

// NewService creates an empty scheduler.
func NewService() *Service {
	return &Service{cron: cron.New()}
}

// ScheduleInterval registers a periodic job every given duration.
func (s *Service) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, job)
}

// Start begins running registered jobs.
func (s *Service) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
