// Package tui is the interactive terminal front end for the coordinator.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nijaru/pitch-analyzer/coordinator"
	"github.com/nijaru/pitch-analyzer/db"
	"github.com/nijaru/pitch-analyzer/models"
)

const historyLimit = 10

// Resolver turns a typed path into a file payload.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*models.Blob, error)
}

// History lists recent submission attempts.
type History interface {
	Recent(ctx context.Context, limit int) ([]db.Entry, error)
}

type editTarget int

const (
	editNone editTarget = iota
	editText
	editFile
	editURL
)

type snapshotMsg coordinator.Snapshot

type resolvedMsg struct {
	kind models.ChannelKind
	blob *models.Blob
	err  error
}

type historyMsg struct {
	entries []db.Entry
	err     error
}

// Model binds the coordinator to a bubbletea program.
type Model struct {
	ctx      context.Context
	coord    *coordinator.Coordinator
	resolver Resolver
	history  History

	updates     <-chan coordinator.Snapshot
	unsubscribe func()

	snap        coordinator.Snapshot
	cursor      int
	editing     editTarget
	input       textinput.Model
	spinner     spinner.Model
	keys        keyMap
	status      string
	width       int
	showHistory bool
	entries     []db.Entry
}

func New(ctx context.Context, coord *coordinator.Coordinator, resolver Resolver, history History) *Model {
	input := textinput.New()
	input.CharLimit = 0
	input.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	updates, unsubscribe := coord.Subscribe()
	return &Model{
		ctx:         ctx,
		coord:       coord,
		resolver:    resolver,
		history:     history,
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        coord.Snapshot(),
		input:       input,
		spinner:     sp,
		keys:        defaultKeys(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.spinner.Tick)
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) selected() models.ChannelKind {
	return models.Channels[m.cursor]
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = coordinator.Snapshot(msg)
		cmds := []tea.Cmd{m.waitForSnapshot()}
		if m.showHistory {
			cmds = append(cmds, m.loadHistory())
		}
		return m, tea.Batch(cmds...)

	case resolvedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if err := m.coord.SelectFile(msg.kind, msg.blob); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Selected %s", msg.blob.Name)
		return m, nil

	case historyMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.entries = msg.entries
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.editing != editNone {
			return m.handleEditKey(msg)
		}
		return m.handleBrowseKey(msg)
	}
	return m, nil
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unsubscribe()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(models.Channels)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Edit):
		if m.selected() == models.ChannelText {
			m.startEdit(editText, m.snap.Inputs.Text, "Transcript text")
		} else {
			m.startEdit(editFile, "", "Path or s3://bucket/key")
		}
	case key.Matches(msg, m.keys.EditURL):
		if m.selected() == models.ChannelVideo {
			m.startEdit(editURL, m.snap.Inputs.VideoURL, "YouTube link")
		}
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.Clear):
		m.coord.ClearText()
		m.status = ""
	case key.Matches(msg, m.keys.History):
		m.showHistory = !m.showHistory
		if m.showHistory {
			return m, m.loadHistory()
		}
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.stopEdit()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		value := m.input.Value()
		target := m.editing
		kind := m.selected()
		m.stopEdit()

		switch target {
		case editText:
			m.coord.SetText(value)
		case editURL:
			m.coord.SetVideoURL(value)
		case editFile:
			if value == "" {
				if err := m.coord.SelectFile(kind, nil); err != nil {
					m.status = err.Error()
				}
				return m, nil
			}
			return m, m.resolve(kind, value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startEdit(target editTarget, value, placeholder string) {
	m.editing = target
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.status = ""
}

func (m *Model) stopEdit() {
	m.editing = editNone
	m.input.Blur()
	m.input.Reset()
}

// submit refuses to start a second request in a group that is still busy.
func (m *Model) submit() tea.Cmd {
	kind := m.selected()
	busy := m.snap.Loading.General
	if kind.Group() == models.GroupVideo {
		busy = m.snap.Loading.Video
	}
	if busy {
		m.status = "A submission is already in progress."
		return nil
	}
	m.status = ""
	m.coord.SubmitChannel(m.ctx, kind)
	return nil
}

func (m *Model) resolve(kind models.ChannelKind, ref string) tea.Cmd {
	ctx := m.ctx
	resolver := m.resolver
	return func() tea.Msg {
		if resolver == nil {
			return resolvedMsg{kind: kind, err: fmt.Errorf("no file resolver configured")}
		}
		blob, err := resolver.Resolve(ctx, ref)
		return resolvedMsg{kind: kind, blob: blob, err: err}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	ctx := m.ctx
	history := m.history
	return func() tea.Msg {
		if history == nil {
			return historyMsg{}
		}
		entries, err := history.Recent(ctx, historyLimit)
		return historyMsg{entries: entries, err: err}
	}
}
