package matcher

// Stats are plain counters owned by one worker. Workers keep their own copy
// and callers combine them with Merge when reporting.
type Stats struct {
	Buffers          uint64 // Search calls
	Bytes            uint64 // bytes offered to Search
	Iterations       uint64 // match attempts
	Matches          uint64 // validated matches counted
	ValidatorRejects uint64 // longest terminal failed its validator
	GuardRejects     uint64 // match touched a guard byte after its end
	EarlyExits       uint64 // searches that hit the threshold before the buffer end
}

// Merge adds o into s.
func (s *Stats) Merge(o Stats) {
	s.Buffers += o.Buffers
	s.Bytes += o.Bytes
	s.Iterations += o.Iterations
	s.Matches += o.Matches
	s.ValidatorRejects += o.ValidatorRejects
	s.GuardRejects += o.GuardRejects
	s.EarlyExits += o.EarlyExits
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	*s = Stats{}
}
