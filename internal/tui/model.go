package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"textsearch/internal/analyzer"
)

type focusArea int

const (
	focusTable focusArea = iota
	focusTail
)

// Config 는 헤더에 보여줄 실행 정보입니다.
type Config struct {
	Pattern   string
	RootPath  string
	Recursive bool
	Workers   int
	TailMax   int
}

var (
	cTitle = lipgloss.NewStyle().Bold(true)
	cDim   = lipgloss.NewStyle().Faint(true)

	box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	headerBar = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			Padding(0, 1)

	badgeOK = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true)

	badgeRun = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	badgeWarn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	badgeErr = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	hit = lipgloss.NewStyle().
		Foreground(lipgloss.Color("13")).
		Bold(true)

	keyHint = lipgloss.NewStyle().Faint(true)
)

type model struct {
	width  int
	height int

	started time.Time

	prog progress.Model
	spin spinner.Model
	tab  table.Model
	tail viewport.Model

	cfg Config

	updates <-chan analyzer.Event

	// totals
	filesTotal int
	filesDone  int
	linesTotal int64
	matches    int64
	failed     int

	done bool
	err  error

	// file -> row index
	rowIndexByFile map[string]int

	// tail buffer
	tailLines []string

	focus focusArea
}

func initialModel(files []string, updates <-chan analyzer.Event, cfg Config) model {
	if cfg.TailMax <= 0 {
		cfg.TailMax = 20
	}

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	cols := []table.Column{
		{Title: "File", Width: 44},
		{Title: "Lines", Width: 10},
		{Title: "Matches", Width: 10},
		{Title: "Status", Width: 8},
	}

	rows := make([]table.Row, 0, len(sorted))
	rowIndex := make(map[string]int, len(sorted))
	for _, f := range sorted {
		// 같은 경로가 두 번 나오는 일은 없지만 행은 하나만 둔다.
		if _, ok := rowIndex[f]; ok {
			continue
		}
		rowIndex[f] = len(rows)
		rows = append(rows, table.Row{f, "-", "-", analyzer.StatusWait})
	}

	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithFocused(true))
	t.SetHeight(minInt(12, len(rows)+1))

	st := table.DefaultStyles()
	st.Header = st.Header.Bold(true)
	st.Selected = st.Selected.Bold(true)
	t.SetStyles(st)

	vp := viewport.New(80, 8)
	vp.SetContent("")

	return model{
		started:        time.Now(),
		prog:           p,
		spin:           s,
		tab:            t,
		tail:           vp,
		cfg:            cfg,
		updates:        updates,
		filesTotal:     len(files),
		rowIndexByFile: rowIndex,
		tailLines:      make([]string, 0, cfg.TailMax),
		focus:          focusTable,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		waitEvent(m.updates),
	)
}

// waitEvent: 채널이 닫히면 완료로 간주한다.
func waitEvent(ch <-chan analyzer.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return analyzer.Totals{Done: true}
		}
		return ev
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.prog.Width = clamp(m.width-12, 20, 90)

		leftW := clamp(m.width/2, 40, 90)
		fileColWidth := clamp(leftW-26, 20, 80)

		cols := m.tab.Columns()
		cols[0].Width = fileColWidth
		m.tab.SetColumns(cols)

		rightW := maxInt(30, m.width-leftW-3)
		m.tail.Width = clamp(rightW-4, 26, 120)
		if m.height > 32 {
			m.tail.Height = 10
		} else {
			m.tail.Height = 8
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		case "tab":
			if m.focus == focusTable {
				m.focus = focusTail
			} else {
				m.focus = focusTable
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.focus == focusTable {
				m.tab, cmd = m.tab.Update(msg)
			} else {
				m.tail, cmd = m.tail.Update(msg)
			}
			return m, cmd
		}

	case analyzer.FileUpdate:
		u := msg
		if idx, ok := m.rowIndexByFile[u.File]; ok {
			rows := m.tab.Rows()
			lines, matches := "-", "-"
			if u.Status != analyzer.StatusWait {
				lines = fmt.Sprintf("%d", u.Lines)
				matches = fmt.Sprintf("%d", u.Matches)
			}
			rows[idx] = table.Row{u.File, lines, matches, u.Status}
			m.tab.SetRows(rows)
		}
		if u.Status == analyzer.StatusFail {
			m.failed++
		}
		return m, waitEvent(m.updates)

	case analyzer.MatchLine:
		m.pushTail(fmt.Sprintf("%s:%d:%s", filepath.Base(msg.File), msg.LineNumber, msg.Line))
		return m, waitEvent(m.updates)

	case analyzer.Totals:
		s := msg
		if s.FilesTotal > 0 {
			m.filesTotal = s.FilesTotal
			m.filesDone = s.FilesDone
			m.linesTotal = s.LinesTotal
			m.matches = s.MatchesTotal
		}

		var percent float64
		if m.filesTotal > 0 {
			percent = float64(m.filesDone) / float64(m.filesTotal)
		}
		cmd := m.prog.SetPercent(percent)

		if s.Done {
			m.done = true
			m.err = s.Err
			return m, tea.Batch(cmd, tea.Quit)
		}
		return m, tea.Batch(cmd, waitEvent(m.updates))

	default:
		return m, nil
	}
}

func (m *model) pushTail(line string) {
	m.tailLines = append(m.tailLines, line)
	if len(m.tailLines) > m.cfg.TailMax {
		m.tailLines = m.tailLines[len(m.tailLines)-m.cfg.TailMax:]
	}

	pretty := make([]string, 0, len(m.tailLines))
	for _, ln := range m.tailLines {
		pretty = append(pretty, highlight(ln, m.cfg.Pattern))
	}
	m.tail.SetContent(strings.Join(pretty, "\n"))
	m.tail.GotoBottom()
}

func (m model) View() string {
	statusBadge := badgeRun.Render(" SCANNING ")
	switch {
	case m.err != nil:
		statusBadge = badgeErr.Render(" ABORTED ")
	case m.done && m.failed > 0:
		statusBadge = badgeWarn.Render(" DONE ")
	case m.done:
		statusBadge = badgeOK.Render(" DONE ")
	}

	mode := "file"
	if m.cfg.Recursive {
		mode = "recursive"
	}
	headLeft := cTitle.Render("textsearch") + " " + m.spin.View() + " " + statusBadge
	headRight := cDim.Render(fmt.Sprintf("pattern=%q  path=%s (%s)  workers=%d", m.cfg.Pattern, m.cfg.RootPath, mode, m.cfg.Workers))
	header := headerBar.Width(maxInt(0, m.width-2)).Render(headLeft + "\n" + headRight)

	elapsed := time.Since(m.started).Truncate(100 * time.Millisecond)
	percent := 0.0
	if m.filesTotal > 0 {
		percent = float64(m.filesDone) / float64(m.filesTotal)
	}
	bar := m.prog.ViewAs(percent)

	stats := fmt.Sprintf("Files %d/%d  Lines %d  Matches %d  Failed %d  Elapsed %s",
		m.filesDone, m.filesTotal, m.linesTotal, m.matches, m.failed, elapsed)

	top := joinLines(header, "", bar, cDim.Render(stats))

	leftW := clamp(m.width/2, 40, 90)
	rightW := maxInt(30, m.width-leftW-3)

	tableBox := box.Width(leftW).Render(cTitle.Render("Files") + "\n" + m.tab.View())
	tailBox := box.Width(rightW).Render(cTitle.Render("Recent Matches") + "\n" + m.tail.View())
	row := lipgloss.JoinHorizontal(lipgloss.Top, tableBox, " ", tailBox)

	focusTag := cDim.Render("Focus: TABLE (tab to switch)")
	if m.focus == focusTail {
		focusTag = cDim.Render("Focus: TAIL (tab to switch)")
	}
	hint := keyHint.Render("Keys: tab focus | ↑/↓ scroll (focused) | q quit view")

	if m.err != nil {
		return joinLines(top, "", row, "", badgeErr.Render("ERROR: "+m.err.Error()))
	}
	return joinLines(top, "", focusTag, "", row, "", hint)
}

// highlight 는 tail 한 줄 안의 패턴 출현을 강조한다.
func highlight(line, pattern string) string {
	if pattern == "" || !strings.Contains(line, pattern) {
		return line
	}
	return strings.ReplaceAll(line, pattern, hit.Render(pattern))
}

func joinLines(lines ...string) string { return strings.Join(lines, "\n") }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
