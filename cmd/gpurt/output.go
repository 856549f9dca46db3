package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/gpurt/internal/job"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)
)

// maxShown bounds how many elements of an array are printed.
const maxShown = 16

func formatValues(vals []float64) string {
	shown := vals
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = strconv.FormatFloat(v, 'g', 7, 64)
	}
	s := "[" + strings.Join(parts, " ")
	if len(vals) > maxShown {
		s += fmt.Sprintf(" … +%d", len(vals)-maxShown)
	}
	return s + "]"
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderResult(r job.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Name))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  grid=%d", r.Grid)))
	b.WriteByte('\n')
	for _, k := range sortedKeys(r.Outputs) {
		b.WriteString(labelStyle.Render(k))
		b.WriteString(valueStyle.Render(formatValues(r.Outputs[k])))
		b.WriteByte('\n')
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func printResults(w io.Writer, results []job.Result) {
	for _, r := range results {
		fmt.Fprintln(w, renderResult(r))
	}
}

type jsonResult struct {
	Name    string               `json:"name"`
	Grid    int                  `json:"grid"`
	Outputs map[string][]float64 `json:"outputs"`
}

func printJSON(w io.Writer, results []job.Result) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{Name: r.Name, Grid: r.Grid, Outputs: r.Outputs}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
