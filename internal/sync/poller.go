package sync

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultTick is how often the poller consults the scheduler.
const DefaultTick = time.Second

// RefreshResultMsg is a tea.Msg sent when a fetch completes.
type RefreshResultMsg struct {
	Event
}

// RefreshDispatchedMsg is a tea.Msg listing accounts whose fetch started.
type RefreshDispatchedMsg struct {
	Logins []string
}

// Poller drives the registry's automatic schedule from a ticker and
// relays completion events to the Bubble Tea runtime.
type Poller struct {
	registry *Registry
	clock    clockwork.Clock
	tick     time.Duration
	log      *zap.Logger

	mu      gosync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPoller creates a Poller over reg. A non-positive tick uses DefaultTick.
func NewPoller(reg *Registry, tick time.Duration, clock clockwork.Clock, log *zap.Logger) *Poller {
	if tick <= 0 {
		tick = DefaultTick
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		registry: reg,
		clock:    clock,
		tick:     tick,
		log:      log.Named("poller"),
	}
}

// Start launches the tick loop and returns a command that waits for the
// first fetch result.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.loop(p.stopCh, p.doneCh)

	return p.waitForResult()
}

// Stop halts the tick loop. Fetches already in flight keep running until
// the registry is closed.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	<-done
}

func (p *Poller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := p.clock.NewTicker(p.tick)
	defer ticker.Stop()

	p.tickOnce()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			p.tickOnce()
		}
	}
}

func (p *Poller) tickOnce() {
	if started := p.registry.Tick(); len(started) > 0 {
		p.log.Debug("scheduled refresh", zap.Strings("accounts", started))
	}
}

// RefreshAll forces a manual refresh of every idle account.
func (p *Poller) RefreshAll() tea.Cmd {
	return func() tea.Msg {
		return RefreshDispatchedMsg{Logins: p.registry.RefreshAll(true)}
	}
}

// RefreshAccount forces a manual refresh of one account. Nothing is
// dispatched while that account already has a fetch in flight.
func (p *Poller) RefreshAccount(login string) tea.Cmd {
	return func() tea.Msg {
		ok, err := p.registry.RequestRefresh(login, true)
		if err != nil || !ok {
			return RefreshDispatchedMsg{}
		}
		return RefreshDispatchedMsg{Logins: []string{login}}
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	events := p.registry.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return RefreshResultMsg{Event: ev}
	}
}

// WaitForNextResult returns a command for the next fetch result. Call it
// after handling each RefreshResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
