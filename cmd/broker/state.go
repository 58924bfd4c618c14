package main

import "sync"

// SetStatus records the broker's current lifecycle status ("starting",
// "running", "stopping").
func SetStatus(value string) {
	brokerState.setStatus(value)
}

// GetStatus returns the broker's current lifecycle status.
func GetStatus() string {
	return brokerState.getStatus()
}

// SetLastError records err as the most recently observed routing error and
// increments the running error count.
func SetLastError(err error) {
	brokerState.setLastError(err)
}

// GetErrorCount returns the total number of routing errors observed since
// startup.
func GetErrorCount() int {
	return brokerState.getErrorCount()
}

// GetLastError returns the most recently observed routing error, or nil if
// none has occurred.
func GetLastError() error {
	return brokerState.getLastError()
}

type state struct {
	sync.RWMutex
	status     string
	errorCount int
	lastError  error
}

func (s *state) setStatus(value string) {
	s.Lock()
	s.status = value
	s.Unlock()
}

func (s *state) getStatus() string {
	s.RLock()
	defer s.RUnlock()
	return s.status
}

func (s *state) setLastError(err error) {
	s.Lock()
	s.lastError = err
	s.errorCount++
	s.Unlock()
}

func (s *state) getErrorCount() int {
	s.RLock()
	defer s.RUnlock()
	return s.errorCount
}

func (s *state) getLastError() error {
	s.RLock()
	defer s.RUnlock()
	return s.lastError
}

var brokerState = &state{status: "starting"}
