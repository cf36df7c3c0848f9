package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/repositories"
	"github.com/lecternhq/lectern/internal/syncer"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SeriesListView ViewState = iota
	SermonListView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	userID  string
	series  *repositories.SeriesRepository
	sermons *repositories.SermonRepository
	engine  *syncer.Engine

	width  int
	height int

	seriesList     list.Model
	sermonList     list.Model
	selectedSeries *models.SeriesRecord

	progressChan chan syncer.ProgressUpdate
	syncDone     chan syncCompleteMsg
	progress     syncer.ProgressUpdate
	result       *syncer.Result
	err          error

	help help.Model
	keys keyMap
}

type seriesLoadedMsg struct {
	series []*models.SeriesRecord
	err    error
}

type sermonsLoadedMsg struct {
	series  *models.SeriesRecord
	sermons []*models.SermonRecord
	err     error
}

type progressUpdateMsg syncer.ProgressUpdate

type syncCompleteMsg struct {
	result *syncer.Result
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, userID string, series *repositories.SeriesRepository, sermons *repositories.SermonRepository, engine *syncer.Engine) *Model {
	return &Model{
		ctx:     ctx,
		view:    SeriesListView,
		userID:  userID,
		series:  series,
		sermons: sermons,
		engine:  engine,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading the series list.
func (m *Model) Init() tea.Cmd {
	return m.loadSeries()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.seriesList.Width() == 0 {
			m.seriesList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.sermonList.Width() == 0 {
			m.sermonList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SeriesListView:
			return m.handleSeriesListKeys(msg)
		case SermonListView:
			return m.handleSermonListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case seriesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.series))
		for i, s := range msg.series {
			items[i] = seriesItem{series: s}
		}
		m.seriesList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.seriesList.Title = "Series"
		m.seriesList.SetSize(m.width-4, m.height-8)
		return m, nil

	case sermonsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = SeriesListView
			return m, nil
		}
		m.selectedSeries = msg.series
		items := make([]list.Item, len(msg.sermons))
		for i, s := range msg.sermons {
			items[i] = sermonItem{sermon: s}
		}
		m.sermonList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.sermonList.Title = fmt.Sprintf("Sermons in '%s'", msg.series.Title)
		m.sermonList.SetSize(m.width-4, m.height-8)
		m.view = SermonListView
		return m, nil

	case progressUpdateMsg:
		m.progress = syncer.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SeriesListView:
		return m.renderSeriesList()
	case SermonListView:
		return m.renderSermonList()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSeriesListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.view = SyncView
		return m, m.startSync()
	case "enter":
		selected := m.seriesList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(seriesItem); ok {
				return m, m.loadSermons(item.series)
			}
		}
	}

	var cmd tea.Cmd
	m.seriesList, cmd = m.seriesList.Update(msg)
	return m, cmd
}

func (m *Model) handleSermonListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SeriesListView
		return m, nil
	}

	var cmd tea.Cmd
	m.sermonList, cmd = m.sermonList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = SeriesListView
		m.result = nil
		m.err = nil
		// Reload so freshly pulled records show up.
		return m, m.loadSeries()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SeriesListView:
		m.seriesList, cmd = m.seriesList.Update(msg)
	case SermonListView:
		m.sermonList, cmd = m.sermonList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSeries() tea.Cmd {
	return func() tea.Msg {
		series, err := m.series.QueryActive(m.userID, nil)
		return seriesLoadedMsg{series: series, err: err}
	}
}

func (m *Model) loadSermons(series *models.SeriesRecord) tea.Cmd {
	return func() tea.Msg {
		sermons, err := m.sermons.QueryActive(m.userID, map[string]any{"series_id": series.ID})
		return sermonsLoadedMsg{series: series, sermons: sermons, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	progressChan := make(chan syncer.ProgressUpdate, 50)
	m.progressChan = progressChan

	done := make(chan syncCompleteMsg, 1)
	go func() {
		result, err := m.engine.Sync(m.ctx, m.userID, progressChan)
		done <- syncCompleteMsg{result: result, err: err}
		close(progressChan)
	}()
	m.syncDone = done

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return <-m.syncDone
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderSeriesList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.sync, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.seriesList.View(), helpView)
}

func (m *Model) renderSermonList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.sermonList.View(), helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing")

	var phase string
	switch m.progress.Phase {
	case syncer.PullPhase:
		phase = "Pulling changes from server..."
	case syncer.ResolvePhase:
		phase = "Resolving conflicts..."
	case syncer.PushPhase:
		phase = "Pushing local changes..."
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete")
	info := fmt.Sprintf(
		"\nPulled: %d\nPushed: %d\nConflicts: %d",
		m.result.Pulled,
		m.result.Pushed,
		m.result.Conflicts,
	)

	var rejected string
	if m.result.Rejected > 0 {
		rejected = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d changes were rejected and stay queued", m.result.Rejected)))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, rejected, helpView)
}
