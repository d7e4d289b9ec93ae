package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/reminder/internal/keys"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
	appsync "github.com/nhle/reminder/internal/sync"
	"github.com/nhle/reminder/internal/theme"
	"github.com/nhle/reminder/internal/ui"
	"github.com/nhle/reminder/internal/ui/accountform"
	configview "github.com/nhle/reminder/internal/ui/config"
	"github.com/nhle/reminder/internal/ui/dashboard"
	"github.com/nhle/reminder/internal/ui/detail"
	helpview "github.com/nhle/reminder/internal/ui/help"
)

// redrawInterval keeps relative times and in-flight markers current.
const redrawInterval = time.Second

type accountsLoadedMsg struct {
	count int
	err   error
}

type accountAddedMsg struct {
	login string
	err   error
}

type accountRemovedMsg struct {
	login string
	err   error
}

type redrawMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewHelp
	ViewAccountForm
	ViewSettings
	ViewDetail
)

// historyLimit is how many sync runs the detail view lists.
const historyLimit = 10

// Model is the root Bubble Tea model. It owns no inbox state: every
// render reads fresh views from the registry.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	accounts     Accounts
	registry     *appsync.Registry
	poller       *appsync.Poller
	log          *zap.Logger
	dashboard    dashboard.Model
	helpView     helpview.Model
	accountForm  accountform.Model
	settings     configview.Model
	detailView   detail.Model
	cfg          model.AppConfig
	configPath   string
	ready        bool
	statusMsg    string
}

// New creates the root model. The poller is started once stored accounts
// are loaded. Settings edited in the UI are written to configPath.
func New(accounts Accounts, poller *appsync.Poller, cfg model.AppConfig, configPath string) Model {
	k := keys.DefaultKeyMap()
	log := accounts.logger().Named("ui")

	return Model{
		currentView: ViewDashboard,
		keys:        k,
		accounts:    accounts,
		registry:    accounts.Registry,
		poller:      poller,
		log:         log,
		dashboard:   dashboard.New(k, 80, 24),
		helpView:    helpview.New(k, accounts.Registry.Interval().String(), 80, 24),
		accountForm: accountform.New(80, 24),
		settings:    configview.New(80, 24),
		detailView:  detail.New(k, 80, 24),
		cfg:         cfg,
		configPath:  configPath,
	}
}

// Init loads stored accounts and starts the redraw ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadAccounts(), redraw())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.dashboard.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.accountForm.SetSize(w, h)
		m.settings.SetSize(w, h)
		m.detailView.SetSize(w, h)
		return m.updateActiveView(msg)

	case accountsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = "failed to load accounts: " + msg.err.Error()
		}
		m.refreshViews()
		start := m.poller.Start()
		if msg.count == 0 {
			return m, tea.Batch(start, m.openAccountForm())
		}
		return m, start

	case appsync.RefreshResultMsg:
		m.refreshViews()
		if msg.Outcome == model.SyncFailed && source.IsAuthError(msg.Err) {
			m.statusMsg = fmt.Sprintf("%s: token rejected. Press d then a to re-add it.", msg.Login)
		} else if msg.Err == nil && m.statusMsg != "" {
			m.statusMsg = ""
		}
		return m, m.poller.WaitForNextResult()

	case appsync.RefreshDispatchedMsg:
		m.refreshViews()
		return m, nil

	case redrawMsg:
		m.refreshViews()
		return m, redraw()

	case dashboard.MarkSeenMsg:
		if _, err := m.registry.MarkSeen(msg.Login, msg.ID); err != nil {
			m.log.Debug("mark seen", zap.Error(err))
		}
		m.refreshViews()
		return m, nil

	case dashboard.MarkSectionSeenMsg:
		if _, err := m.registry.MarkBucketSeen(msg.Login, msg.Bucket); err != nil {
			m.log.Debug("mark section seen", zap.Error(err))
		}
		m.refreshViews()
		return m, nil

	case dashboard.SectionViewedMsg:
		_ = m.registry.ClearHighlight(msg.Login, msg.Bucket)
		m.refreshViews()
		return m, nil

	case dashboard.FilterChangedMsg:
		_ = m.registry.SetFilter(msg.Login, msg.Text)
		m.refreshViews()
		return m, nil

	case dashboard.RefreshRequestMsg:
		return m, m.poller.RefreshAccount(msg.Login)

	case accountform.SubmittedMsg:
		m.currentView = ViewDashboard
		return m, m.addAccount(msg.Login, msg.Token)

	case accountform.RemoveConfirmedMsg:
		m.currentView = ViewDashboard
		return m, m.removeAccount(msg.Login)

	case accountform.CancelMsg:
		m.currentView = ViewDashboard
		return m, nil

	case configview.SavedMsg:
		m.currentView = ViewDashboard
		m.applySettings(msg.Config)
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = ViewDashboard
		return m, nil

	case detail.HistoryLoadedMsg:
		m.detailView, _ = m.detailView.Update(msg)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewDashboard
		return m, nil

	case helpview.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case accountAddedMsg:
		if msg.err != nil {
			m.statusMsg = "adding account: " + msg.err.Error()
		} else {
			m.statusMsg = msg.login + " added"
		}
		m.refreshViews()
		return m, nil

	case accountRemovedMsg:
		if msg.err != nil {
			m.statusMsg = "removing account: " + msg.err.Error()
		} else {
			m.statusMsg = msg.login + " removed"
		}
		m.refreshViews()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work on the dashboard unless the
// filter input has focus.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return tea.Quit, true
	}
	if (m.currentView == ViewAccountForm || m.currentView == ViewSettings) && key.Matches(msg, m.keys.Back) {
		m.currentView = ViewDashboard
		return nil, true
	}
	if m.currentView != ViewDashboard || m.dashboard.Filtering() {
		return nil, false
	}

	m.statusMsg = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.poller.Stop()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.AddAccount):
		return m.openAccountForm(), true

	case key.Matches(msg, m.keys.RemoveAccount):
		login := m.dashboard.FocusedLogin()
		if login == "" {
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewAccountForm
		return m.accountForm.StartRemove(login), true

	case key.Matches(msg, m.keys.RefreshAll):
		return m.poller.RefreshAll(), true

	case key.Matches(msg, m.keys.Details):
		rec, _, ok := m.dashboard.SelectedRow()
		if !ok {
			return nil, true
		}
		login := m.dashboard.FocusedLogin()
		m.detailView.Show(login, rec)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m.loadHistory(login), true

	case key.Matches(msg, m.keys.Settings):
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m.settings.Start(m.cfg), true
	}

	return nil, false
}

func (m *Model) openAccountForm() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewAccountForm
	return m.accountForm.StartAdd(m.registry.Logins())
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewAccountForm:
		m.accountForm, cmd = m.accountForm.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	}

	return m, cmd
}

// applySettings persists cfg and applies what can change while running.
func (m *Model) applySettings(cfg model.AppConfig) {
	if err := theme.Apply(cfg.Display.Theme); err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.registry.SetInterval(cfg.Refresh.Interval())
	m.helpView = helpview.New(m.keys, m.registry.Interval().String(), m.layout.ContentWidth(), m.layout.ContentHeight())
	m.cfg = cfg

	if m.configPath == "" {
		m.statusMsg = "settings applied"
		return
	}
	if err := model.SaveConfig(m.configPath, &cfg); err != nil {
		m.log.Warn("saving settings", zap.Error(err))
		m.statusMsg = "settings applied but not saved: " + err.Error()
		return
	}
	m.statusMsg = "settings saved"
}

func (m *Model) refreshViews() {
	m.dashboard.SetViews(m.registry.Views())
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Reminder"
	if n := m.unseenTotal(); n > 0 {
		title = fmt.Sprintf("Reminder [%d unseen]", n)
	}
	header := m.layout.RenderHeader(title, m.registry.Status().String())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewAccountForm:
		return m.accountForm.View()
	case ViewSettings:
		return m.settings.View()
	case ViewDetail:
		return m.detailView.View()
	default:
		return m.dashboard.View()
	}
}

func (m Model) unseenTotal() int {
	n := 0
	for _, v := range m.registry.Views() {
		n += v.UnseenTotal()
	}
	return n
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && m.currentView == ViewDashboard {
		return m.statusMsg
	}
	if hint := m.dashboard.Hint(); hint != "" && m.currentView == ViewDashboard {
		return hint
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewAccountForm, ViewSettings:
		return "enter submit | esc cancel"
	case ViewDetail:
		return "esc back | j/k scroll"
	default:
		if m.dashboard.Filtering() {
			return "enter apply | esc clear"
		}
		return "q quit | ? help | tab account | enter seen | s section seen | v details | / filter | r refresh | a add"
	}
}

func (m Model) addAccount(login, token string) tea.Cmd {
	accounts := m.accounts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		added, err := accounts.Add(ctx, login, token)
		return accountAddedMsg{login: added, err: err}
	}
}

func (m Model) removeAccount(login string) tea.Cmd {
	accounts := m.accounts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return accountRemovedMsg{login: login, err: accounts.Remove(ctx, login)}
	}
}

func (m Model) loadHistory(login string) tea.Cmd {
	db := m.accounts.Store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		runs, err := db.SyncRuns(ctx, login, historyLimit)
		return detail.HistoryLoadedMsg{Login: login, Runs: runs, Err: err}
	}
}

func (m Model) loadAccounts() tea.Cmd {
	accounts := m.accounts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		n, err := accounts.Load(ctx)
		return accountsLoadedMsg{count: n, err: err}
	}
}

func redraw() tea.Cmd {
	return tea.Tick(redrawInterval, func(time.Time) tea.Msg { return redrawMsg{} })
}
