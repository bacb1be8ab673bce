package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/rt"
	"github.com/wisplang/wisp/internal/rtconfig"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Live TUI dashboard over space occupancy and PIC hit rate",
	Long:  `inspect runs a synthetic workload against the heap in the background and renders space occupancy, generation pressure, and PIC hit-rate as they change.`,
	RunE:  runInspect,
}

type tickMsg time.Time

type inspectModel struct {
	heap     *rt.Heap
	pic      *rt.PIC
	proto    rt.Value
	i        int
	lastGC   *rt.CollectStats
	width    int
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := rtconfig.FindAndLoad(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	h := rt.NewHeap(cfg.HeapConfig())
	proto := h.AllocateObject(true, h.Nil)

	m := &inspectModel{
		heap:  h,
		pic:   rt.NewPIC(h, cfg.PIC.Capacity),
		proto: proto,
		width: 72,
	}
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func (m *inspectModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil
	case tickMsg:
		m.step()
		return m, tick()
	}
	return m, nil
}

// step advances the synthetic workload by one tick of 64 iterations;
// each allocates an object and a string, exercises the PIC against a
// shared prototype, and collects if the heap has flagged a pending cycle.
func (m *inspectModel) step() {
	for i := 0; i < 64; i++ {
		m.i++
		obj := m.heap.AllocateObject(false, m.proto)
		_ = m.heap.AllocateString(false, []byte(fmt.Sprintf("entry-%d", m.i)))

		if _, ok := m.pic.Lookup(obj); !ok {
			m.pic.OnMiss(obj, uintptr(m.i%8)*8)
		}

		if stats := m.heap.CollectIfNeeded(); stats != nil {
			m.lastGC = stats
		}
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func (m *inspectModel) View() string {
	hs := m.heap.Stats()
	ps := m.pic.Stats()

	var b strings.Builder
	b.WriteString(titleStyle.Render("wisp inspect") + labelStyle.Render("  (q to quit)") + "\n\n")

	b.WriteString(renderSpace("new", hs.New, m.width))
	b.WriteString(renderSpace("old", hs.Old, m.width))

	b.WriteString(fmt.Sprintf("\n%s %d   %s %s   %s %d/%d/%d\n",
		labelStyle.Render("factory entries:"), hs.FactoryCount,
		labelStyle.Render("needs-gc:"), hs.NeedsGC,
		labelStyle.Render("handles (p/n/w):"), hs.Persistent, hs.NormalHandles, hs.WeakHandles))

	hitRate := 0.0
	if total := ps.Hits + ps.Misses; total > 0 {
		hitRate = float64(ps.Hits) / float64(total) * 100
	}
	b.WriteString(fmt.Sprintf("%s %s  %s %.1f%% (%d hits / %d misses)\n",
		labelStyle.Render("pic state:"), ps.State,
		labelStyle.Render("hit rate:"), hitRate, ps.Hits, ps.Misses))

	if m.lastGC != nil {
		b.WriteString(fmt.Sprintf("%s target=%s evacuated=%d tenured=%d duration=%s\n",
			labelStyle.Render("last gc:"), m.lastGC.Target, m.lastGC.Evacuated, m.lastGC.Tenured, m.lastGC.Duration))
	}

	return b.String()
}

func renderSpace(name string, s rt.SpaceStats, width int) string {
	barWidth := width - 20
	if barWidth < 10 {
		barWidth = 10
	}
	frac := 0.0
	if s.SizeLimit > 0 {
		frac = float64(s.Used) / float64(s.SizeLimit)
		if frac > 1 {
			frac = 1
		}
	}
	filled := int(frac * float64(barWidth))
	bar := barStyle.Render(strings.Repeat("#", filled)) + strings.Repeat(".", barWidth-filled)
	return fmt.Sprintf("%-5s [%s] %d/%d bytes (%d pages)\n", name, bar, s.Used, s.SizeLimit, s.PageCount)
}
