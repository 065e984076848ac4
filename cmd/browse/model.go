package browse

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/feed"
	"github.com/nicolastakashi/banshee-console/internal/format"
	"github.com/nicolastakashi/banshee-console/internal/rules"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	liveStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	pausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	anomalousStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	normalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

const (
	sparkWidth = 60
	helpText   = "space live/pause · / pattern · l limit · s sort · m mode · p past · q quit"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

type redrawMsg struct{}

type tickMsg time.Time

type model struct {
	browser     *feed.Browser
	graphiteURL string
	redraw      <-chan struct{}

	editing bool
	input   textinput.Model
}

func newModel(b *feed.Browser, graphiteURL string, redraw <-chan struct{}) model {
	ti := textinput.New()
	ti.Placeholder = "metric pattern, e.g. timer.count_ps.*"
	ti.CharLimit = 256
	ti.Width = 48
	return model{browser: b, graphiteURL: graphiteURL, redraw: redraw, input: ti}
}

func waitRedraw(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return redrawMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tea.Batch(waitRedraw(m.redraw), tick()) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			switch msg.String() {
			case "esc":
				m.editing = false
				m.input.Blur()
				return m, nil
			case "enter":
				m.editing = false
				m.input.Blur()
				f := m.browser.Filter()
				f.Pattern = strings.TrimSpace(m.input.Value())
				f.Project = 0
				m.browser.SetFilter(f)
				return m, nil
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ":
			m.browser.Toggle()
		case "/":
			m.editing = true
			m.input.SetValue(m.browser.Filter().Pattern)
			m.input.Focus()
			return m, textinput.Blink
		case "l":
			f := m.browser.Filter()
			f.Limit = next(feed.Limits, f.Limit)
			m.browser.SetFilter(f)
		case "s":
			f := m.browser.Filter()
			f.Sort = banshee.SortUp
			if m.browser.Filter().Sort == banshee.SortUp {
				f.Sort = banshee.SortDown
			}
			m.browser.SetFilter(f)
		case "m":
			f := m.browser.Filter()
			f.Mode = feed.ModeValue
			if m.browser.Filter().Mode == feed.ModeValue {
				f.Mode = feed.ModeScore
			}
			m.browser.SetFilter(f)
		case "p":
			f := m.browser.Filter()
			f.Past = next(feed.Pasts, f.Past)
			m.browser.SetFilter(f)
		}
		return m, nil
	case redrawMsg:
		return m, waitRedraw(m.redraw)
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

// next returns the value after cur in values, wrapping around. Values not
// in the list restart from the first.
func next[T comparable](values []T, cur T) T {
	i := slices.Index(values, cur)
	return values[(i+1)%len(values)]
}

func (m model) View() string {
	var b strings.Builder

	f := m.browser.Filter()
	state := liveStyle.Render(m.browser.State().String())
	if m.browser.State() == feed.Paused {
		state = pausedStyle.Render(m.browser.State().String())
	}
	target := "*"
	switch {
	case f.Project > 0:
		target = fmt.Sprintf("project %d", f.Project)
	case f.Pattern != "":
		target = f.Pattern
	}
	b.WriteString(headerStyle.Render("banshee") + " " + state + " " + mutedStyle.Render(fmt.Sprintf(
		"%s · limit %d · sort %s · mode %s · past %s",
		target, f.Limit, f.Sort, f.Mode, format.SecondsToTimespanString(int(f.Past.Seconds())),
	)))
	b.WriteString("\n")

	snap := m.browser.Chart().Snapshot()
	if snap.Generation > 0 {
		b.WriteString(mutedStyle.Render(snap.Window.String()))
		b.WriteString("\n")
	}
	if err := m.browser.Err(); err != nil {
		b.WriteString(errorStyle.Render(banshee.Message(err)))
		b.WriteString("\n")
	}
	if m.editing {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	titles := m.browser.Titles(m.graphiteURL)
	for i, s := range snap.Series {
		if i >= len(titles) {
			break
		}
		b.WriteString(renderTitle(titles[i]))
		b.WriteString("\n  ")
		switch {
		case !s.Loaded:
			b.WriteString(mutedStyle.Render("loading..."))
		case s.Err != nil:
			b.WriteString(errorStyle.Render(banshee.Message(s.Err)))
		default:
			b.WriteString(sparkline(s.Points, sparkWidth))
			b.WriteString(" " + mutedStyle.Render(format.FoldNumber(feed.Peak(s.Points))))
		}
		b.WriteString("\n")
	}
	if snap.Generation > 0 && len(snap.Series) == 0 {
		b.WriteString(mutedStyle.Render("no metrics matched"))
		b.WriteString("\n")
	}

	b.WriteString("\n" + mutedStyle.Render(helpText))
	return b.String()
}

func renderTitle(t feed.Title) string {
	style := normalStyle
	if t.Class == feed.ClassAnomalous {
		style = anomalousStyle
	}
	line := style.Render(t.Trend + rules.DisplayName(t.Name))
	if t.RuleCount > 0 {
		line += mutedStyle.Render(fmt.Sprintf(" (%d rules)", t.RuleCount))
	}
	if t.Graphite != "" {
		line += " " + mutedStyle.Render(t.Graphite)
	}
	return line
}

// sparkline renders the last width points scaled to the series peak.
func sparkline(points []float64, width int) string {
	if len(points) > width {
		points = points[len(points)-width:]
	}
	peak := feed.Peak(points)
	out := make([]rune, len(points))
	for i, p := range points {
		level := 0
		if peak > 0 {
			level = int(math.Round(math.Abs(p) / peak * float64(len(sparkRunes)-1)))
		}
		out[i] = sparkRunes[level]
	}
	return string(out)
}
