// Package tui renders a planning episode live in the terminal: a braille
// canvas animates the plant while a side panel tracks the planner's
// per-cycle cost statistics.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/pathintegral/mppi/internal/dynamo"
	"github.com/pathintegral/mppi/internal/mppi"
	"github.com/pathintegral/mppi/internal/sim"
)

const (
	canvasWidth  = 60
	canvasHeight = 20
	costCapacity = 400
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).Width(44)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model drives one closed-loop episode under bubbletea: every tick replans
// from the current plant state and executes the returned commands.
type Model struct {
	planner   *mppi.Controller
	world     *sim.World
	worldName string

	state     dynamo.State
	initState dynamo.State
	lastU     dynamo.Control
	t         float64
	cycle     int
	maxCycles int

	goalX, goalY float64

	canvas   *canvas
	trail    []struct{ x, y int }
	minCosts []float64
	running  bool
	done     bool
	err      error
}

func NewModel(planner *mppi.Controller, world *sim.World, worldName string, x0 dynamo.State, cycles int) Model {
	return Model{
		planner:   planner,
		world:     world,
		worldName: worldName,
		state:     x0.Clone(),
		initState: x0.Clone(),
		maxCycles: cycles,
		canvas:    newCanvas(canvasWidth, canvasHeight),
		trail:     make([]struct{ x, y int }, 0, 120),
		minCosts:  make([]float64, 0, costCapacity),
		running:   true,
	}
}

// SetGoal marks a target position on the canvas for goal-reaching worlds.
func (m *Model) SetGoal(x, y float64) {
	m.goalX, m.goalY = x, y
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
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
			m.reset()
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.step()
		}
		m.draw()
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step runs one planning cycle and executes the commanded actions.
func (m *Model) step() {
	actions, err := m.planner.Command(m.state)
	if err != nil {
		m.err = err
		return
	}

	m.recordCost()

	dt := m.world.Dt()
	for _, u := range actions {
		next, eff, err := m.world.Step(m.state, u, m.t)
		if err != nil {
			m.err = err
			return
		}
		m.state = next
		m.lastU = eff
		m.t += dt
	}

	m.cycle++
	if m.cycle >= m.maxCycles {
		m.done = true
	}
}

func (m *Model) recordCost() {
	costs := m.planner.Costs()
	if len(costs) == 0 {
		return
	}
	best := costs[0]
	for _, c := range costs[1:] {
		if c < best {
			best = c
		}
	}
	m.minCosts = append(m.minCosts, best)
	if len(m.minCosts) > costCapacity {
		m.minCosts = m.minCosts[1:]
	}
}

func (m *Model) reset() {
	m.planner.Reset()
	m.state = m.initState.Clone()
	m.lastU = nil
	m.t = 0
	m.cycle = 0
	m.done = false
	m.err = nil
	m.trail = m.trail[:0]
	m.minCosts = m.minCosts[:0]
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.worldName)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(errStyle.Render("PLANNING FAILED") + "\n")
		s.WriteString(valueStyle.Render(m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString("DONE\n\n")
	case m.running:
		s.WriteString("PLANNING\n\n")
	default:
		s.WriteString("PAUSED\n\n")
	}

	if len(m.minCosts) > 1 {
		chart := asciigraph.Plot(m.minCosts,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("best sampled cost"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Cycle") + valueStyle.Render(fmt.Sprintf("%d / %d", m.cycle, m.maxCycles)) + "\n")
	if len(m.minCosts) > 0 {
		s.WriteString(labelStyle.Render("Min cost") + valueStyle.Render(fmt.Sprintf("%.3f", m.minCosts[len(m.minCosts)-1])) + "\n")
	}
	if len(m.lastU) > 0 {
		s.WriteString(labelStyle.Render("Action") + valueStyle.Render(formatVec(m.lastU)) + "\n")
	}

	cfg := m.planner.Config()
	s.WriteString("\nPLANNER\n")
	s.WriteString(labelStyle.Render("Samples") + valueStyle.Render(fmt.Sprintf("%d", cfg.Samples)) + "\n")
	s.WriteString(labelStyle.Render("Horizon") + valueStyle.Render(fmt.Sprintf("%d", cfg.Horizon)) + "\n")
	s.WriteString(labelStyle.Render("Lambda") + valueStyle.Render(fmt.Sprintf("%.3f", cfg.Lambda)) + "\n")

	s.WriteString(helpStyle.Render("\n─────────────────\nSP:Pause R:Reset Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

func formatVec(v []float64) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%.2f", x))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (m *Model) draw() {
	m.canvas.clear()
	switch m.worldName {
	case "cartpole":
		m.drawCartpole()
	case "pointmass":
		m.drawPointMass()
	default:
		m.drawPendulum()
	}
}

// Pixel space is (canvasWidth*2) x (canvasHeight*4), y growing downward.
const (
	pxW = canvasWidth * 2
	pxH = canvasHeight * 4
)

func (m *Model) drawPendulum() {
	if len(m.state) < 2 {
		return
	}
	theta := m.state[0]
	px, py := pxW/2, pxH/2
	length := 28.0

	// theta 0 hangs down; the swing-up target is theta = pi (upright).
	bx := px + int(length*math.Sin(theta))
	by := py + int(length*math.Cos(theta))

	m.pushTrail(bx, by, 60)
	for _, pt := range m.trail {
		m.canvas.set(pt.x, pt.y)
	}

	m.canvas.line(px, py, bx, by)
	m.dot(bx, by)
}

func (m *Model) drawCartpole() {
	if len(m.state) < 4 {
		return
	}
	pos, theta := m.state[0], m.state[2]
	gy := pxH - 12
	cx := pxW/2 + int(pos*14)

	m.canvas.line(4, gy+4, pxW-4, gy+4)
	m.canvas.line(cx-5, gy, cx+5, gy)
	m.canvas.line(cx-5, gy+2, cx+5, gy+2)

	plen := 30.0
	bx := cx + int(plen*math.Sin(theta))
	by := gy - 2 - int(plen*math.Cos(theta))
	m.canvas.line(cx, gy-2, bx, by)
	m.dot(bx, by)
}

func (m *Model) drawPointMass() {
	if len(m.state) < 2 {
		return
	}
	scale := 16.0
	ox, oy := pxW/2, pxH/2
	x := ox + int(m.state[0]*scale)
	y := oy - int(m.state[1]*scale)

	gx := ox + int(m.goalX*scale)
	gy := oy - int(m.goalY*scale)
	m.canvas.line(gx-2, gy-2, gx+2, gy+2)
	m.canvas.line(gx-2, gy+2, gx+2, gy-2)

	m.pushTrail(x, y, 120)
	for _, pt := range m.trail {
		m.canvas.set(pt.x, pt.y)
	}
	m.dot(x, y)
}

func (m *Model) pushTrail(x, y, keep int) {
	m.trail = append(m.trail, struct{ x, y int }{x, y})
	if len(m.trail) > keep {
		m.trail = m.trail[1:]
	}
}

func (m *Model) dot(x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			m.canvas.set(x+dx, y+dy)
		}
	}
}
