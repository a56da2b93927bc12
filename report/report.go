// Package report prints the short messages a user sees when there is
// nothing to plot, and the summary of what was loaded.
package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/angas/sacplot/convert"
	"github.com/angas/sacplot/csvlog"
	"github.com/angas/sacplot/plot"
	"github.com/charmbracelet/lipgloss"
)

var (
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	infoStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type Reporter struct {
	out io.Writer
}

func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) MissingFile(path, hint string) {
	r.println(warnStyle.Render("cannot find file: " + path))
	if hint != "" {
		r.println(hintStyle.Render(hint))
	}
}

func (r *Reporter) EmptyData(path, hint string) {
	r.println(infoStyle.Render(fmt.Sprintf("%s has no data to plot yet", path)))
	if hint != "" {
		r.println(hintStyle.Render(hint))
	}
}

// MissingColumn reports a log that does not carry the columns of its kind.
func (r *Reporter) MissingColumn(path string, err error) {
	r.println(infoStyle.Render(fmt.Sprintf("%s has no data to plot: %v", path, err)))
}

func (r *Reporter) Summary(s plot.Summary) {
	lines := []string{
		r.kv("log", fmt.Sprintf("%s (%s)", s.Path, s.Kind)),
		r.kv("rows", strconv.Itoa(s.Rows)),
		r.kv("skipped", strconv.Itoa(s.Skipped)),
		r.kv("last step", formatFloat(s.LastStep)),
		r.kv("last value", formatFloat(s.LastValue)),
	}
	if s.Window > 1 {
		lines = append(lines, r.kv(fmt.Sprintf("smoothed k=%d", s.Window), formatFloat(s.LastSmoothed)))
	}
	r.println(boxStyle.Render(strings.Join(lines, "\n")))
}

// Handle reports a missing log file, a log without the expected columns
// or an empty log and returns true for those. Other errors are handed back to the caller.
func (r *Reporter) Handle(err error, path, hint string) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		r.MissingFile(path, hint)
		return true, nil
	case errors.Is(err, plot.ErrNoData):
		r.EmptyData(path, hint)
		return true, nil
	case errors.Is(err, csvlog.ErrMissingColumn):
		r.MissingColumn(path, err)
		return true, nil
	default:
		return false, err
	}
}

func (r *Reporter) kv(key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(key), valueStyle.Render(value))
}

func (r *Reporter) println(s string) {
	fmt.Fprintln(r.out, s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(convert.RoundFloat64(f, 4), 'f', -1, 64)
}
