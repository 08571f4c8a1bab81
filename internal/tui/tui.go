// Package tui provides the interactive terminal view over a repository
// session: every list as a row, with the expanded list's tasks beneath it.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"fstodo/internal/logging"
	"fstodo/internal/output"
	"fstodo/internal/prefs"
	"fstodo/internal/repository"
)

// Mode is the current input mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeNewList
	ModeEdit
	ModeConfirmDelete
)

// row is one visible line: a list header, or a task when TaskID is set.
type row struct {
	ListID string
	TaskID string
}

// Model is the Bubble Tea model.
type Model struct {
	ctx     context.Context
	repo    *repository.Repository
	session *repository.Session
	prefs   prefs.Store
	log     *log.Logger

	lists  []repository.List
	rows   []row
	cursor int

	mode   Mode
	input  textinput.Model
	target string // list id the add-task input writes to
	status string
	err    string

	theme  prefs.Theme
	styles styles
	keys   keyMap
	help   help.Model

	title      string
	showFooter bool
	width      int
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the header line. An empty title hides the header.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithFooter shows or hides the key help footer.
func WithFooter(show bool) Option {
	return func(m *Model) { m.showFooter = show }
}

// WithLogger sets the logger used for failed writes.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.log = l }
}

// snapshotMsg is sent after the repository reconciles a snapshot.
type snapshotMsg struct{}

// writeResultMsg reports the outcome of a write started from a key press.
type writeResultMsg struct {
	op  string
	err error
}

// New creates a model over an attached session. The theme is read from p.
func New(ctx context.Context, session *repository.Session, p prefs.Store, opts ...Option) *Model {
	ti := textinput.New()
	ti.CharLimit = 256

	theme := prefs.LoadTheme(p)
	m := &Model{
		ctx:        ctx,
		repo:       session.Repository(),
		session:    session,
		prefs:      p,
		log:        logging.Discard(),
		input:      ti,
		theme:      theme,
		styles:     newStyles(theme),
		keys:       defaultKeyMap(),
		help:       help.New(),
		title:      "fstodo",
		showFooter: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.refresh()
	return m
}

// Theme returns the active theme.
func (m *Model) Theme() prefs.Theme { return m.theme }

// Mode returns the current input mode.
func (m *Model) Mode() Mode { return m.mode }

// Status returns the last error or notice shown in the status line.
func (m *Model) Status() string {
	if m.err != "" {
		return m.err
	}
	return m.status
}

// Init starts listening for snapshots.
func (m *Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m *Model) waitForSnapshot() tea.Cmd {
	changed := m.repo.Changed()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-changed:
			return snapshotMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// refresh rebuilds the rows from the repository and clamps the cursor.
func (m *Model) refresh() {
	selected, hadRow := m.selected()

	m.lists = m.repo.Lists()
	expanded := m.session.Expanded()
	m.rows = m.rows[:0]
	for _, l := range m.lists {
		m.rows = append(m.rows, row{ListID: l.ID})
		if l.ID != expanded {
			continue
		}
		for _, t := range repository.DisplayOrder(l.Tasks) {
			m.rows = append(m.rows, row{ListID: l.ID, TaskID: t.ID})
		}
	}

	// Keep the cursor on the same row when it still exists
	if hadRow {
		for i, r := range m.rows {
			if r == selected {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) list(id string) (repository.List, bool) {
	for _, l := range m.lists {
		if l.ID == id {
			return l, true
		}
	}
	return repository.List{}, false
}

func (m *Model) task(r row) (repository.Task, bool) {
	l, ok := m.list(r.ListID)
	if !ok || r.TaskID == "" {
		return repository.Task{}, false
	}
	for _, t := range l.Tasks {
		if t.ID == r.TaskID {
			return t, true
		}
	}
	return repository.Task{}, false
}

func (m *Model) write(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return writeResultMsg{op: op, err: fn(ctx)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.refresh()
		return m, m.waitForSnapshot()

	case writeResultMsg:
		return m.handleWriteResult(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case ModeAddTask, ModeNewList:
			return m.handleInputMode(msg)
		case ModeEdit:
			return m.handleEditMode(msg)
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		}
		return m.handleNormalMode(msg)
	}
	return m, nil
}

func (m *Model) handleWriteResult(msg writeResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Debug("write failed", "op", msg.op, "err", msg.err)
		m.err = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
		return m, nil
	}
	m.err = ""
	switch msg.op {
	case "rename":
		if _, editing := m.session.Editing(); !editing {
			m.mode = ModeNormal
			m.input.Blur()
		}
	case "delete":
		if _, pending := m.session.PendingDelete(); !pending {
			m.mode = ModeNormal
		}
	}
	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	r, ok := m.selected()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Expand):
		if ok {
			m.session.ToggleExpansion(r.ListID)
			// Collapsing from a task row moves the cursor to its list
			m.rows[m.cursor].TaskID = ""
			m.refresh()
		}

	case key.Matches(msg, m.keys.Toggle):
		if ok && r.TaskID != "" {
			return m, m.write("toggle", func(ctx context.Context) error {
				return m.repo.ToggleTaskDone(ctx, r.ListID, r.TaskID)
			})
		}

	case key.Matches(msg, m.keys.Add):
		if !ok {
			m.status = "no lists (press n to create one)"
			return m, nil
		}
		m.target = r.ListID
		return m, m.openInput(ModeAddTask, "New task name...", "")

	case key.Matches(msg, m.keys.NewList):
		return m, m.openInput(ModeNewList, "New list name...", "")

	case key.Matches(msg, m.keys.Edit):
		if ok && r.TaskID != "" && m.session.StartEdit(r.ListID, r.TaskID) {
			edit, _ := m.session.Editing()
			return m, m.openInput(ModeEdit, "Task name...", edit.Text)
		}

	case key.Matches(msg, m.keys.Delete):
		if ok && r.TaskID != "" {
			m.session.RequestDelete(r.ListID, r.TaskID)
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, m.keys.Theme):
		m.theme = m.theme.Toggle()
		m.styles = newStyles(m.theme)
		if err := prefs.SaveTheme(m.prefs, m.theme); err != nil {
			m.err = fmt.Sprintf("saving theme failed: %v", err)
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) openInput(mode Mode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.err = ""
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *Model) closeInput() {
	m.mode = ModeNormal
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil

	case tea.KeyEnter:
		value := m.input.Value()
		mode, listID := m.mode, m.target
		m.closeInput()
		// Blank names are dropped by the repository without a write
		if mode == ModeNewList {
			return m, m.write("create list", func(ctx context.Context) error {
				return m.repo.CreateList(ctx, value)
			})
		}
		return m, m.write("add", func(ctx context.Context) error {
			return m.repo.AddTask(ctx, listID, value)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.session.CancelEdit()
		m.closeInput()
		return m, nil

	case tea.KeyEnter:
		m.session.SetEditText(m.input.Value())
		if strings.TrimSpace(m.input.Value()) == "" {
			m.err = "task name required"
			return m, nil
		}
		return m, m.write("rename", m.session.SaveEdit)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.write("delete", m.session.ConfirmDelete)
	case "n", "N", "esc":
		m.session.CancelDelete()
		m.mode = ModeNormal
	}
	return m, nil
}

// View renders the model.
func (m *Model) View() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(m.styles.title.Render(m.title))
		b.WriteString("\n")
	}

	if len(m.rows) == 0 {
		b.WriteString(m.styles.task.Render("No lists. Press n to create one."))
		b.WriteString("\n")
	}

	edit, editing := m.session.Editing()
	for i, r := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(cursor)
		if r.TaskID == "" {
			b.WriteString(m.renderList(r, i == m.cursor))
		} else if editing && m.mode == ModeEdit && edit.TaskID == r.TaskID {
			b.WriteString("    ")
			b.WriteString(m.input.View())
		} else {
			b.WriteString(m.renderTask(r, i == m.cursor))
		}
		b.WriteString("\n")
	}

	switch m.mode {
	case ModeAddTask:
		name := ""
		if l, ok := m.list(m.target); ok {
			name = l.Name
		}
		b.WriteString(m.styles.dialog.Render("Add to " + name + "\n" + m.input.View()))
		b.WriteString("\n")
	case ModeNewList:
		b.WriteString(m.styles.dialog.Render("New list\n" + m.input.View()))
		b.WriteString("\n")
	case ModeConfirmDelete:
		name := ""
		if ref, ok := m.session.PendingDelete(); ok {
			if t, ok := m.task(row{ListID: ref.ListID, TaskID: ref.TaskID}); ok {
				name = output.DisplayName(t.Name)
			}
		}
		b.WriteString(m.styles.dialog.Render(fmt.Sprintf("Delete %q?  y: yes  n: no", name)))
		b.WriteString("\n")
	}

	if line := m.Status(); line != "" {
		style := m.styles.status
		if m.err != "" {
			style = m.styles.err
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if m.showFooter {
		b.WriteString(m.help.View(m.keys))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderList(r row, selected bool) string {
	l, _ := m.list(r.ListID)
	arrow := "▸"
	if m.session.Expanded() == l.ID {
		arrow = "▾"
	}
	open := 0
	for _, t := range l.Tasks {
		if !t.Done {
			open++
		}
	}
	name := l.Name
	if strings.TrimSpace(name) == "" {
		name = "(untitled)"
	}
	line := fmt.Sprintf("%s %s (%d open)", arrow, name, open)
	if selected {
		return m.styles.selected.Render(line)
	}
	return m.styles.list.Render(line)
}

func (m *Model) renderTask(r row, selected bool) string {
	t, _ := m.task(r)
	mark := "[ ]"
	if t.Done {
		mark = "[x]"
	}
	line := fmt.Sprintf("    %s %s", mark, output.DisplayName(t.Name))
	switch {
	case selected:
		return m.styles.selected.Render(line)
	case t.Done:
		return m.styles.done.Render(line)
	}
	return m.styles.task.Render(line)
}
