// Package progress provides ProgressSink implementations: a no-op, a
// plain line writer for logs, and a styled terminal bar.
package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

// Ensure implementations satisfy the sink interface.
var (
	_ domain.ProgressSink = NoopSink{}
	_ domain.ProgressSink = (*WriterSink)(nil)
	_ domain.ProgressSink = (*BarSink)(nil)
)

// NoopSink discards all updates.
type NoopSink struct{}

// OnProgress does nothing.
func (NoopSink) OnProgress(domain.ProgressUpdate) {}

// WriterSink writes one line per update, suitable for log files and
// non-terminal output.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a line-per-update sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// OnProgress writes the update as a single line.
func (s *WriterSink) OnProgress(u domain.ProgressUpdate) {
	fmt.Fprintf(s.w, "%s %s: %d/%d bytes (%.1f%%) %.1f KB/s\n",
		u.Status, u.Name, u.BytesDone, u.BytesTotal, u.Percent, u.Rate/1024)
}

// barWidth is the rendered width of the terminal bar.
const barWidth = 30

// BarSink renders an in-place terminal progress bar.
type BarSink struct {
	w        io.Writer
	fill     lipgloss.Style
	empty    lipgloss.Style
	doneMark lipgloss.Style
	failMark lipgloss.Style
}

// NewBarSink creates a terminal progress bar writing to w.
func NewBarSink(w io.Writer) *BarSink {
	return &BarSink{
		w:        w,
		fill:     lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")), // Cyan
		empty:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")), // Medium gray
		doneMark: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")), // Green
		failMark: lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")), // Red
	}
}

// OnProgress redraws the bar in place; terminal states print a final line.
func (s *BarSink) OnProgress(u domain.ProgressUpdate) {
	switch u.Status {
	case domain.ProgressCompleted:
		fmt.Fprintf(s.w, "\r%s %s (%d bytes)%s\n",
			s.doneMark.Render("✓"), u.Name, u.BytesDone, strings.Repeat(" ", barWidth))
	case domain.ProgressError:
		fmt.Fprintf(s.w, "\r%s %s failed after %d bytes%s\n",
			s.failMark.Render("✗"), u.Name, u.BytesDone, strings.Repeat(" ", barWidth))
	default:
		filled := int(u.Percent / 100 * barWidth)
		if filled > barWidth {
			filled = barWidth
		}
		bar := s.fill.Render(strings.Repeat("█", filled)) +
			s.empty.Render(strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(s.w, "\r%s %5.1f%% %8.1f KB/s %s", bar, u.Percent, u.Rate/1024, u.Name)
	}
}
