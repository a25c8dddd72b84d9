package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/JoneySinx/V2/pkg/search"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	accentColor  = lipgloss.Color("#F59E0B")
	successColor = lipgloss.Color("#22C55E")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6C7086")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	nameStyle = lipgloss.NewStyle().Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	badgeStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// formatSize formats a byte count using binary units
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// renderResults prints one search page
func renderResults(w io.Writer, q search.Query, res *search.Result) {
	if len(res.Records) == 0 {
		fmt.Fprintf(w, "%s\n", metaStyle.Render(fmt.Sprintf("No results for %q", q.Raw)))
		return
	}

	header := fmt.Sprintf("Results for %q", q.Raw)
	if res.Source != nil {
		header += " " + badgeStyle.Render("["+res.Source.String()+"]")
	}
	if res.Variant == search.Prefix {
		header += " " + metaStyle.Render("(prefix match)")
	}
	fmt.Fprintln(w, titleStyle.Render(header))
	fmt.Fprintln(w)

	for i, rec := range res.Records {
		fmt.Fprintf(w, "%d. %s\n", q.Offset+i+1, nameStyle.Render(rec.Name))
		meta := []string{"id " + rec.ID, formatSize(rec.Size)}
		if rec.Locator != "" {
			meta = append(meta, "locator "+rec.Locator)
		}
		fmt.Fprintf(w, "   %s\n", metaStyle.Render(strings.Join(meta, " · ")))
		if rec.Caption != "" {
			fmt.Fprintf(w, "   %s\n", rec.Caption)
		}
	}

	fmt.Fprintln(w)
	footer := fmt.Sprintf("Showing %d-%d of %s", q.Offset+1, q.Offset+len(res.Records), formatNumber(res.Total))
	if res.HasMore() {
		footer += fmt.Sprintf(", next page: --offset %s", res.NextOffset)
	}
	fmt.Fprintln(w, metaStyle.Render(footer))
}

// renderStats prints per-partition file counts
func renderStats(w io.Writer, stats *search.Stats) {
	fmt.Fprintln(w, titleStyle.Render("Storage Statistics"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total files: %s\n\n", formatNumber(stats.Total))

	for _, pc := range stats.Partitions {
		line := fmt.Sprintf("%-8s %s", pc.Partition, formatNumber(pc.Files))
		if stats.Total > 0 {
			pct := float64(pc.Files) / float64(stats.Total) * 100
			line += metaStyle.Render(fmt.Sprintf(" (%.1f%%)", pct))
		}
		fmt.Fprintln(w, line)
	}
}

func renderOK(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✓ ")+msg)
}

func renderFailed(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✗ ")+msg)
}
