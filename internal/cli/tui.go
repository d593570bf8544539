package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/editor"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/scene"
	"github.com/matzehuels/thinkingspace/pkg/session"
)

const (
	// cursorStep is how far one arrow key moves the cursor, in world units.
	cursorStep = 0.5

	panelWidth = 34

	// scaleStep is the factor one +/- key press scales the selected node by.
	scaleStep = 1.25

	// selfWriteWindow is how long after an export file events on the
	// export target are taken to be our own write.
	selfWriteWindow = time.Second
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	statusStyle  = lipgloss.NewStyle().Foreground(colorGray)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	cursorColor  = "#ffcc00"
	confirmStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

// uiMode is what the keyboard currently drives.
type uiMode int

const (
	modeCanvas uiMode = iota
	modeText
	modePrompt
	modeConfirm
	modeHelp
)

type (
	snapshotDueMsg struct{}
	fileChangedMsg struct{ path string }
)

// editorConfig holds the settings of one edit run that are not part of the
// session.
type editorConfig struct {
	// File is the import and quick-export target. Empty exports to
	// defaultExportPath.
	File          string
	Watcher       *session.FileWatcher
	Snapshots     bool
	ConfirmDelete bool
}

// confirmation is a pending yes/no question.
type confirmation struct {
	prompt string
	yes    func()
}

// editorModel is the bubbletea model of the terminal editor.
//
// The model drives the session from the bubbletea event loop: key presses,
// the snapshot timer and file changes all arrive as messages, so the
// session is only ever touched from Update.
type editorModel struct {
	ctx      context.Context
	sess     *session.Session
	renderer *scene.MemoryRenderer
	gizmo    *editor.TransformGizmo
	panel    *termPanel
	cfg      editorConfig
	logger   *log.Logger

	width, height int
	view          viewport
	cx, cz        float64

	mode      uiMode
	text      textarea.Model
	prompt    textinput.Model
	confirm   *confirmation
	status    string
	statusErr bool
	lastWrite time.Time
}

func newEditorModel(ctx context.Context, sess *session.Session, r *scene.MemoryRenderer, g *editor.TransformGizmo, p *termPanel, cfg editorConfig, logger *log.Logger) *editorModel {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = true

	ti := textinput.New()
	ti.Prompt = ":"

	m := &editorModel{
		ctx:      ctx,
		sess:     sess,
		renderer: r,
		gizmo:    g,
		panel:    p,
		cfg:      cfg,
		logger:   logger,
		width:    100,
		height:   30,
		text:     ta,
		prompt:   ti,
	}
	m.resize(m.width, m.height)
	m.setStatus("Press ? for help")
	return m
}

// askRestore starts the editor with a question whether to replace the
// loaded document with the stored snapshot.
func (m *editorModel) askRestore(snap *session.Snapshot) {
	m.ask(fmt.Sprintf("Restore snapshot from %s (%s)?",
		snap.SavedAt.Local().Format(time.DateTime), formatStats(snap.Document.Stats())), func() {
		if _, err := m.sess.Restore(m.ctx); err != nil {
			m.fail(err)
			return
		}
		m.setStatus("Snapshot restored")
	})
}

func (m *editorModel) Init() tea.Cmd {
	return tea.Batch(m.waitSnapshot(), m.waitFile())
}

func (m *editorModel) waitSnapshot() tea.Cmd {
	if !m.cfg.Snapshots {
		return nil
	}
	due := m.sess.Snapshots().Due()
	return func() tea.Msg {
		<-due
		return snapshotDueMsg{}
	}
}

func (m *editorModel) waitFile() tea.Cmd {
	if m.cfg.Watcher == nil {
		return nil
	}
	changes := m.cfg.Watcher.Changes()
	return func() tea.Msg {
		path, ok := <-changes
		if !ok {
			return nil
		}
		return fileChangedMsg{path: path}
	}
}

// =============================================================================
// Update
// =============================================================================

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case snapshotDueMsg:
		m.saveSnapshot()
		return m, m.waitSnapshot()
	case fileChangedMsg:
		m.reload(msg.path)
		return m, m.waitFile()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeText:
			return m, m.updateText(msg)
		case modePrompt:
			return m, m.updatePrompt(msg)
		case modeConfirm:
			m.updateConfirm(msg)
			return m, nil
		case modeHelp:
			m.mode = modeCanvas
			return m, nil
		}
		return m, m.updateCanvas(msg)
	}
	return m, nil
}

func (m *editorModel) updateCanvas(msg tea.KeyMsg) tea.Cmd {
	ed := m.sess.Editor()
	switch msg.String() {
	case "q":
		return tea.Quit
	case "?":
		m.mode = modeHelp

	case "up", "k":
		m.moveCursor(0, -cursorStep)
	case "down", "j":
		m.moveCursor(0, cursorStep)
	case "left", "h":
		m.moveCursor(-cursorStep, 0)
	case "right", "l":
		m.moveCursor(cursorStep, 0)
	case "0":
		m.cx, m.cz = 0, 0
		m.view.cx, m.view.cz = 0, 0

	case "enter", " ":
		ed.Click(m.cx, m.cz, false)
	case "c":
		ed.Click(m.cx, m.cz, true)
	case "esc":
		ed.Escape()
	case "d", "delete", "backspace":
		m.deleteSelected()

	case "g":
		ed.SetMode(editor.ModeTranslate)
	case "r":
		ed.SetMode(editor.ModeRotate)
	case "s":
		ed.SetMode(editor.ModeScale)
	case "x":
		ed.ToggleAxis(editor.AxisX)
	case "y":
		ed.ToggleAxis(editor.AxisY)
	case "z":
		ed.ToggleAxis(editor.AxisZ)
	case "tab":
		if ed.ToggleSnap() {
			m.setStatus("Snap on")
		} else {
			m.setStatus("Snap off")
		}

	case "shift+left":
		m.translate(model.Vec3{-1, 0, 0})
	case "shift+right":
		m.translate(model.Vec3{1, 0, 0})
	case "shift+up":
		m.translate(model.Vec3{0, 0, -1})
	case "shift+down":
		m.translate(model.Vec3{0, 0, 1})
	case "pgup":
		m.translate(model.Vec3{0, 1, 0})
	case "pgdown":
		m.translate(model.Vec3{0, -1, 0})
	case "+", "=":
		m.scale(scaleStep)
	case "-":
		m.scale(1 / scaleStep)

	case "n":
		m.added(ed.AddNode())
	case "G":
		m.added(ed.AddGroup())
	case "C":
		m.added(ed.AddConnection())

	case "1":
		m.toggleLayer(model.KindGroup)
	case "2":
		m.toggleLayer(model.KindConnection)

	case "t":
		m.openText()
		return textarea.Blink
	case ":":
		m.mode = modePrompt
		m.prompt.SetValue("")
		return m.prompt.Focus()
	case "Y":
		m.copyToClipboard()
	case "ctrl+s":
		m.exportTo(m.exportPath())
	}
	return nil
}

func (m *editorModel) moveCursor(dx, dz float64) {
	m.cx += dx
	m.cz += dz
	m.view.follow(m.cx, m.cz, 2)
	m.sess.Editor().PointerMove(m.cx, m.cz)
}

// translate moves the selected node one grid step in direction dir.
func (m *editorModel) translate(dir model.Vec3) {
	if !m.gizmo.Attached() {
		m.setStatus("Select a node to move it")
		return
	}
	if m.gizmo.Translate(dir.Scale(m.sess.Editor().Options().GridSize)) {
		m.sess.Editor().GizmoChanged()
	}
}

func (m *editorModel) scale(f float64) {
	if !m.gizmo.Attached() {
		m.setStatus("Select a node to scale it")
		return
	}
	if m.gizmo.ScaleBy(f) {
		m.sess.Editor().GizmoChanged()
	}
}

func (m *editorModel) added(e any, err error) {
	if err != nil {
		m.fail(err)
		return
	}
	switch e := e.(type) {
	case model.Node:
		m.setStatus("Added node " + e.ID)
	case model.Group:
		m.setStatus("Added group " + e.ID)
	case model.Connection:
		m.setStatus(fmt.Sprintf("Added connection %s → %s", e.From, e.To))
	}
}

func (m *editorModel) deleteSelected() {
	ed := m.sess.Editor()
	prompt, ok := ed.DeletePrompt()
	if !ok {
		m.setStatus("Nothing selected")
		return
	}
	del := func() {
		if err := ed.DeleteSelected(); err != nil {
			m.fail(err)
			return
		}
		m.setStatus("Deleted")
	}
	if !m.cfg.ConfirmDelete {
		del()
		return
	}
	m.ask(prompt, del)
}

func (m *editorModel) toggleLayer(k model.Kind) {
	l := scene.LayerOf(k)
	visible := !m.renderer.Visible(l)
	m.sess.Scene().SetVisible(k, visible)
	state := "hidden"
	if visible {
		state = "shown"
	}
	m.setStatus(fmt.Sprintf("%s layer %s", l, state))
}

func (m *editorModel) copyToClipboard() {
	data, err := m.sess.Export(codec.Block)
	if err != nil {
		m.fail(err)
		return
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		m.fail(fmt.Errorf("copy to clipboard: %w", err))
		return
	}
	m.setStatus("Copied YAML to clipboard")
}

func (m *editorModel) exportPath() string {
	if m.cfg.File != "" {
		return m.cfg.File
	}
	return defaultExportPath
}

func (m *editorModel) exportTo(path string) {
	if err := m.sess.ExportFile(path); err != nil {
		m.fail(err)
		return
	}
	m.lastWrite = time.Now()
	m.setStatus("Exported to " + path)
}

func (m *editorModel) importFrom(path string) {
	if err := m.sess.ReloadFile(m.ctx, path); err != nil {
		m.fail(err)
		return
	}
	m.setStatus(fmt.Sprintf("Imported %s (%s)", path, formatStats(m.sess.Document().Stats())))
}

func (m *editorModel) reload(path string) {
	if time.Since(m.lastWrite) < selfWriteWindow {
		return
	}
	if m.mode == modeText && m.sess.Text().Dirty() {
		m.setStatus("File changed on disk; text pane has unapplied edits")
		return
	}
	m.importFrom(path)
}

func (m *editorModel) saveSnapshot() {
	wrote, err := m.sess.Snapshots().Save(m.ctx, m.sess.Document())
	if err != nil {
		m.fail(err)
		return
	}
	if wrote {
		m.logger.Debug("snapshot saved")
	}
}

// =============================================================================
// Text pane
// =============================================================================

func (m *editorModel) openText() {
	m.mode = modeText
	if !m.sess.Text().Dirty() {
		m.sess.Text().Refresh()
	}
	m.text.SetValue(m.sess.Text().Text())
	m.text.Focus()
	m.validateText()
}

func (m *editorModel) updateText(msg tea.KeyMsg) tea.Cmd {
	txt := m.sess.Text()
	switch msg.String() {
	case "esc":
		m.text.Blur()
		m.mode = modeCanvas
		if txt.Dirty() {
			m.setStatus("Text pane has unapplied edits (t to return, ctrl+g to apply)")
		}
		return nil
	case "ctrl+g":
		if err := txt.Apply(m.ctx); err != nil {
			m.fail(err)
			return nil
		}
		m.text.SetValue(txt.Text())
		m.setStatus("Applied " + formatStats(m.sess.Document().Stats()))
		return nil
	case "ctrl+r":
		txt.Refresh()
		m.text.SetValue(txt.Text())
		m.setStatus("Text refreshed from the diagram")
		return nil
	case "ctrl+x":
		m.sess.ResetToDefaults()
		m.text.SetValue(txt.Text())
		m.setStatus("Reset to the loaded diagram")
		return nil
	}
	var cmd tea.Cmd
	m.text, cmd = m.text.Update(msg)
	txt.SetText(m.text.Value())
	m.validateText()
	return cmd
}

func (m *editorModel) validateText() {
	if err := m.sess.Text().Validate(); err != nil {
		m.fail(err)
		return
	}
	if m.sess.Text().Dirty() {
		m.setStatus("Valid, ctrl+g to apply")
	} else {
		m.setStatus("Valid")
	}
}

// =============================================================================
// Command prompt
// =============================================================================

func (m *editorModel) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt.Blur()
		m.mode = modeCanvas
		return nil
	case tea.KeyEnter:
		line := m.prompt.Value()
		m.prompt.Blur()
		m.mode = modeCanvas
		return m.runCommand(line)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

// runCommand executes one prompt line.
func (m *editorModel) runCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "":
	case "q", "quit":
		return tea.Quit
	case "o", "open":
		if arg == "" {
			arg = m.cfg.File
		}
		if arg == "" {
			m.fail(errors.New(errors.ErrCodeInvalidInput, "usage: :open <file>"))
			return nil
		}
		m.importFrom(arg)
	case "w", "write":
		if arg == "" {
			arg = m.exportPath()
		}
		m.exportTo(arg)
	case "set":
		key, value, _ := strings.Cut(arg, " ")
		b := m.sess.Inspector()
		if b == nil {
			m.fail(errors.New(errors.ErrCodeInternal, "no inspector"))
			return nil
		}
		if err := b.Set(key, strings.TrimSpace(value)); err != nil {
			m.fail(err)
			return nil
		}
		m.setStatus(fmt.Sprintf("Set %s", key))
	case "grid":
		g, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			m.fail(errors.Wrap(errors.ErrCodeInvalidInput, err, "grid size"))
			return nil
		}
		if err := m.sess.Editor().SetGridSize(g); err != nil {
			m.fail(err)
			return nil
		}
		m.setStatus(fmt.Sprintf("Grid %g", g))
	case "restore":
		ok, err := m.sess.Restore(m.ctx)
		switch {
		case err != nil:
			m.fail(err)
		case !ok:
			m.setStatus("No snapshot stored")
		default:
			m.setStatus("Snapshot restored")
		}
	case "snapshot":
		if _, err := m.sess.Snapshots().Save(m.ctx, m.sess.Document()); err != nil {
			m.fail(err)
			return nil
		}
		m.setStatus("Snapshot saved")
	case "defaults":
		m.sess.ResetToDefaults()
		m.setStatus("Reset to the loaded diagram")
	default:
		m.fail(errors.New(errors.ErrCodeInvalidInput, "unknown command %q", name))
	}
	return nil
}

// =============================================================================
// Confirmation
// =============================================================================

func (m *editorModel) ask(prompt string, yes func()) {
	m.confirm = &confirmation{prompt: prompt, yes: yes}
	m.mode = modeConfirm
}

func (m *editorModel) updateConfirm(msg tea.KeyMsg) {
	c := m.confirm
	m.confirm = nil
	m.mode = modeCanvas
	switch msg.String() {
	case "y", "Y", "enter":
		c.yes()
	default:
		m.setStatus("Canceled")
	}
}

func (m *editorModel) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *editorModel) fail(err error) {
	m.status, m.statusErr = errors.UserMessage(err), true
	m.logger.Debug("editor error", "err", err)
}

// =============================================================================
// View
// =============================================================================

func (m *editorModel) resize(w, h int) {
	m.width, m.height = w, h
	m.view.width = max(w-panelWidth-2, 10)
	m.view.height = max(h-4, 5)
	m.text.SetWidth(max(w-2, 10))
	m.text.SetHeight(max(h-5, 3))
	m.prompt.Width = max(w-4, 10)
}

func (m *editorModel) View() string {
	var body string
	switch m.mode {
	case modeText:
		body = m.text.View()
	case modeHelp:
		body = helpView()
	default:
		c := newCanvas(m.view)
		c.drawScene(m.renderer)
		col, row := m.view.toScreen(model.Vec3{m.cx, 0, m.cz})
		c.set(col, row, '@', cursorColor)
		body = lipgloss.JoinHorizontal(lipgloss.Top, c.render(), " ", m.panel.view(panelWidth-2))
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.footerView())
}

func (m *editorModel) headerView() string {
	ed := m.sess.Editor()
	opts := ed.Options()
	axes := ed.Axes()
	var on []string
	for i, enabled := range axes {
		if enabled {
			on = append(on, editor.Axis(i).String())
		}
	}
	snap := "off"
	if opts.Snap {
		snap = fmt.Sprintf("%g", opts.GridSize)
	}
	state := ed.State()
	sel := state.Kind.String()
	if state.Kind != editor.Idle {
		sel += " " + state.Ref.String()
	}
	return headerStyle.Render(appName) + "  " + StyleDim.Render(fmt.Sprintf(
		"%s · mode %s · axes %s · snap %s · %s · cursor %.1f,%.1f",
		formatStats(m.sess.Document().Stats()), opts.Mode, strings.Join(on, ""), snap, sel, m.cx, m.cz))
}

func (m *editorModel) footerView() string {
	switch m.mode {
	case modePrompt:
		return m.prompt.View()
	case modeConfirm:
		return confirmStyle.Render(m.confirm.prompt + " [y/N]")
	case modeText:
		return m.statusLine() + "\n" + StyleDim.Render("ctrl+g apply · ctrl+r refresh · ctrl+x defaults · esc back")
	}
	return m.statusLine() + "\n" + StyleDim.Render("←↑↓→ move · enter select · c connect · d delete · n/G/C add · t text · : command · ? help · q quit")
}

func (m *editorModel) statusLine() string {
	if m.statusErr {
		return errorStyle.Render("✗ " + m.status)
	}
	return statusStyle.Render(m.status)
}

func helpView() string {
	rows := [][2]string{
		{"arrows, hjkl", "move the cursor"},
		{"enter, space", "select what is under the cursor"},
		{"c", "connect: pick a source node, then a target"},
		{"esc", "deselect or cancel connecting"},
		{"d, delete", "delete the selection"},
		{"g / r / s", "translate / rotate / scale mode"},
		{"x / y / z", "toggle an axis"},
		{"tab", "toggle grid snap"},
		{"shift+arrows", "move the selected node on x/z"},
		{"pgup / pgdown", "move the selected node on y"},
		{"+ / -", "scale the selected node"},
		{"n / G / C", "add a node / group / connection"},
		{"1 / 2", "show or hide groups / connections"},
		{"t", "edit the diagram as YAML"},
		{"Y", "copy the diagram as YAML"},
		{"ctrl+s", "export to the diagram file"},
		{"0", "return to the origin"},
		{":open <file>", "import a YAML or JSON file"},
		{":write [file]", "export to a file"},
		{":set <key> <v>", "set a field of the selection"},
		{":grid <size>", "set the grid size"},
		{":restore", "restore the stored snapshot"},
		{":snapshot", "save a snapshot now"},
		{":defaults", "reset to the loaded diagram"},
	}
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("Keys") + "\n\n")
	for _, r := range rows {
		sb.WriteString(panelKeyStyle.Render(fmt.Sprintf("  %-16s", r[0])) + r[1] + "\n")
	}
	sb.WriteString("\n" + StyleDim.Render("press any key to return"))
	return sb.String()
}
