package player

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// Banner is printed before the overlay table.
func Banner(sc *Scenario) string {
	return bannerStyle.Render(fmt.Sprintf("▶ %s · season %s · %d actions", sc.EpisodeID, sc.SeasonID, len(sc.Actions)))
}

// Summary renders the outcome of a run. pendingMs is read after Close, so
// it reflects the unload flush.
func Summary(r Report, pendingMs int64) string {
	line := okStyle.Render(fmt.Sprintf("✅ %d overlays, %s watched, %dms unsynced", r.Overlays, fmtMs(r.WatchedMs), pendingMs))
	if r.MeterStopped != nil {
		line += "\n" + warnStyle.Render(fmt.Sprintf("⚠️ metering interrupted: %v", r.MeterStopped))
	}
	return line
}
