package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/scenario"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 600
	maxStepsPerTick = 256
)

type TickMsg time.Time

// Factory rebuilds a fresh job; the live view calls it on reset.
type Factory func() (scenario.Job, error)

// Model steps a scenario job on every tick and draws its density.
type Model struct {
	job     scenario.Job
	factory Factory
	canvas  *Canvas
	theme   Theme
	styles  styles

	running       bool
	stepsPerTick  int
	maxSteps      int
	steps         int
	e0            float64
	energyHistory []float64
	normHistory   []float64
	top           float64
	err           error
	showHelp      bool
}

// NewModel builds the view from factory. maxSteps of zero runs until quit.
func NewModel(factory Factory, maxSteps int) (Model, error) {
	job, err := factory()
	if err != nil {
		return Model{}, err
	}
	theme := Themes[0]
	m := Model{
		factory:      factory,
		canvas:       NewCanvas(width, height),
		theme:        theme,
		styles:       newStyles(theme),
		running:      true,
		stepsPerTick: 1,
		maxSteps:     maxSteps,
	}
	m.load(job)
	return m, nil
}

func (m *Model) load(job scenario.Job) {
	m.job = job
	m.steps = 0
	m.err = nil
	m.e0 = job.Energy()
	m.top = maxOf(job.Density())
	m.energyHistory = make([]float64, 0, historyCapacity)
	m.normHistory = make([]float64, 0, historyCapacity)
	m.record()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			job, err := m.factory()
			if err != nil {
				m.err = err
				m.running = false
			} else {
				m.load(job)
			}
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "n":
			m.advance(1)
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerTick)
		}
		return m, tick()
	}
	return m, nil
}

// advance steps the job up to n times, stopping at the first error or at maxSteps.
func (m *Model) advance(n int) {
	if m.err != nil {
		return
	}
	for i := 0; i < n; i++ {
		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			m.running = false
			break
		}
		if err := m.job.Step(); err != nil {
			m.err = err
			m.running = false
			break
		}
		m.steps++
	}
	m.record()
}

func (m *Model) record() {
	m.energyHistory = appendCapped(m.energyHistory, m.job.Energy())
	m.normHistory = appendCapped(m.normHistory, m.job.Norm())
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// DrawDensity renders rho on c: a curve for one axis, a dithered map of
// the first two axes otherwise. top fixes the 1D vertical scale.
func DrawDensity(c *Canvas, g *grid.Grid, rho []float64, top float64) {
	c.Clear()
	plane, nx, ny := Project(g, rho)
	if ny == 1 {
		c.Plot(plane, top)
		return
	}
	c.Heatmap(plane, nx, ny)
}

// Project sums rho over every axis past the second.
func Project(g *grid.Grid, rho []float64) (plane []float64, nx, ny int) {
	shape := g.Shape()
	if len(shape) == 1 {
		return rho, shape[0], 1
	}
	nx, ny = shape[0], shape[1]
	plane = make([]float64, nx*ny)
	for i, v := range rho {
		plane[g.AxisIndex(i, 0)*ny+g.AxisIndex(i, 1)] += v
	}
	return plane, nx, ny
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.bad.Render("ERROR")
	case m.maxSteps > 0 && m.steps >= m.maxSteps:
		return m.styles.good.Render("DONE")
	case m.running:
		return m.styles.good.Render("RUNNING")
	default:
		return m.styles.warn.Render("PAUSED")
	}
}

func (m Model) View() string {
	DrawDensity(m.canvas, m.job.Grid(), m.job.Density(), 1.2*m.top)
	canvasView := m.styles.canvas.Render(m.canvas.String())

	st := m.styles
	row := func(label, value string) string {
		return st.label.Render(label) + st.value.Render(value) + "\n"
	}

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.job.Name())+"  "+m.job.Engine()) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	energy := m.job.Energy()
	drift := 0.0
	if m.e0 != 0 {
		drift = math.Abs(energy-m.e0) / math.Abs(m.e0)
	}
	s.WriteString(row("Time", fmt.Sprintf("%.4f", m.job.Time())))
	s.WriteString(row("Step", fmt.Sprintf("%d ×%d", m.steps, m.stepsPerTick)))
	s.WriteString(row("Energy", fmt.Sprintf("%.6g", energy)))
	s.WriteString(row("Drift", fmt.Sprintf("%.2e", drift)))
	s.WriteString(row("Norm", fmt.Sprintf("%.10f", m.job.Norm())))
	s.WriteString(row("⟨x⟩", fmt.Sprintf("%.4f", m.job.Position())))
	s.WriteString(row("Norm hist", Sparkline(m.normHistory, 24)))
	if m.maxSteps > 0 {
		s.WriteString(row("Progress", ProgressBar(float64(m.steps)/float64(m.maxSteps), 24)))
	}
	if m.err != nil {
		s.WriteString("\n" + st.bad.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause N:Step R:Reset Q:Quit\n+/-:Speed T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
	if m.showHelp {
		return `
  Space  pause or resume
  N      single step
  R      rebuild the initial state
  + / -  double or halve steps per frame
  T      cycle themes
  Q      quit
` + "\n" + mainView
	}
	return mainView
}

// Run starts the live view in the alternate screen.
func Run(factory Factory, maxSteps int) error {
	m, err := NewModel(factory, maxSteps)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
