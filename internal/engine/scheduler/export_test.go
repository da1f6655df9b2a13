package scheduler

// GetProgramStatusMap returns a copy of the internal program status map.
// This is exported for testing purposes only.
func (s *Scheduler) GetProgramStatusMap() map[string]ProgramStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statusMap := make(map[string]ProgramStatus, len(s.programStatus))
	for k, v := range s.programStatus {
		statusMap[k] = v
	}
	return statusMap
}
