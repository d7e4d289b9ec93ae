package sync

import (
	"fmt"
	"strings"
)

// Status aggregates fetch state across accounts for the header line.
type Status struct {
	Accounts int
	Syncing  []string
	Failing  []string
}

// Status reports which accounts are fetching and which failed last.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{Accounts: len(r.order)}
	for _, login := range r.order {
		s := r.accounts[login].state
		if s.FetchInFlight {
			st.Syncing = append(st.Syncing, login)
		}
		if s.LastError != nil {
			st.Failing = append(st.Failing, login)
		}
	}
	return st
}

func (s Status) String() string {
	var parts []string
	if len(s.Syncing) > 0 {
		parts = append(parts, fmt.Sprintf("syncing (%d)", len(s.Syncing)))
	}
	if len(s.Failing) > 0 {
		parts = append(parts, "failing: "+strings.Join(s.Failing, ", "))
	}
	if len(parts) == 0 {
		if s.Accounts == 0 {
			return "no accounts"
		}
		return "idle"
	}
	return strings.Join(parts, " · ")
}
