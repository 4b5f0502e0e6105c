package batch

import "fmt"

// Summary accumulates the outcome of one batch run.
type Summary struct {
	RunID    string
	Stores   int // store files found under the root
	Total    int // stores anchored in this run
	Fallback int // anchored stores where no sample passed the threshold
	Skipped  int // stores that already had an anchor
	Empty    int // stores without samples
}

// Visited returns the number of stores handled so far.
func (s *Summary) Visited() int {
	return s.Total + s.Skipped + s.Empty
}

// Percent returns the share of stores handled so far (0-100).
func (s *Summary) Percent() float64 {
	if s.Stores == 0 {
		return 100
	}
	return float64(s.Visited()) / float64(s.Stores) * 100.0
}

// Running renders the counts after each store.
func (s *Summary) Running() string {
	return fmt.Sprintf("%d/%d stores: %d anchored, %d fallback, %d skipped, %d empty",
		s.Visited(), s.Stores, s.Total, s.Fallback, s.Skipped, s.Empty)
}

// BadNodes renders the fallback ratio of the run.
func (s *Summary) BadNodes() string {
	return fmt.Sprintf("bad nodes percentage: %d/%d", s.Fallback, s.Total)
}
