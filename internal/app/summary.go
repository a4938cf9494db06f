package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/loader"
	"github.com/vk/routeloader/internal/registry"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func statusText(s loader.Status) string {
	switch s {
	case loader.StatusSuccess:
		return successStyle.Render(string(s))
	case loader.StatusSkipped:
		return skippedStyle.Render(string(s))
	default:
		return failedStyle.Render(string(s))
	}
}

// PrintSummary writes the loading report and the route table to the
// application's output.
func (a *App) PrintSummary() error {
	var b strings.Builder
	if report := a.Report(); report != nil {
		renderReport(&b, report)
	}
	renderRoutes(&b, a.host.Routes())
	_, err := io.WriteString(a.outW, b.String())
	return err
}

func renderReport(w io.Writer, r *loader.Report) {
	fmt.Fprintln(w, titleStyle.Render("Loading pass "+r.PassID))
	if r.Err != nil {
		fmt.Fprintln(w, failedStyle.Render("discovery failed: "+r.Reason))
		return
	}

	t := newTable("RESOURCE", "BACKEND", "STATUS", "ROUTES", "REASON")
	for _, o := range r.Outcomes {
		t.Row(o.Resource, o.Backend, statusText(o.Status), strings.Join(o.Routes, ", "), o.Reason)
	}
	fmt.Fprintln(w, t.Render())
	totals := fmt.Sprintf("%d succeeded, %d skipped, %d failed in %s", r.Succeeded, r.Skipped, r.Failed, r.Duration.Round(time.Microsecond))
	if r.OK() {
		totals = successStyle.Render(totals)
	} else {
		totals = failedStyle.Render(totals)
	}
	fmt.Fprintf(w, "%s\n\n", totals)
}

func renderRoutes(w io.Writer, routes []*host.RouteDefinition) {
	fmt.Fprintln(w, titleStyle.Render("Routes"))
	if len(routes) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}

	t := newTable("ID", "FROM", "STEPS", "ORIGIN", "REGISTERED")
	for _, r := range routes {
		t.Row(r.ID, r.From, formatSteps(r.Steps), r.Origin, strconv.FormatBool(r.Registered))
	}
	fmt.Fprintln(w, t.Render())
}

func formatSteps(steps []host.Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = fmt.Sprintf("%s(%s)", s.Kind, strings.Join(s.Args, ", "))
	}
	return strings.Join(parts, " → ")
}

// PrintBackends writes every registered backend and the selection it won to
// the application's output.
func (a *App) PrintBackends() error {
	statuses := a.registry.Statuses(a.ctx)

	t := newTable("EXTENSION", "BACKEND", "PRIORITY", "AVAILABLE", "SELECTED")
	for _, s := range statuses {
		t.Row(s.Extension, backendLabel(s), strconv.Itoa(s.Priority), strconv.FormatBool(s.Available), selectedMark(s))
	}
	_, err := fmt.Fprintln(a.outW, t.Render())
	return err
}

func backendLabel(s registry.Status) string {
	if s.Disabled {
		return s.ID + " (disabled)"
	}
	return s.ID
}

func selectedMark(s registry.Status) string {
	if s.Selected {
		return successStyle.Render("yes")
	}
	return ""
}
