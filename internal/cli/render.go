package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/questkeeper/internal/cooldown"
	"github.com/dmitrijs2005/questkeeper/internal/services"
)

const (
	barWidth  = 20
	idWidth   = 8
	noTimer   = "—"
	readyText = "READY"
)

func renderAccounts(w io.Writer, views []services.View, ready map[string]bool) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No accounts yet. Use 'add' to create one.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tUSERNAME\tPASSWORD\tLEVEL\tXP\tPROGRESS\tDONE\tTIMER")
	for i, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\tLv %d\t%d / %d XP\t%s\t%s\t%s\n",
			i+1,
			shortID(v.ID),
			orDash(v.Username),
			maskPassword(v.Password),
			v.Level,
			v.XP, v.XPMax,
			progressBar(v.XPPercent()),
			checkbox(v.Done()),
			timerText(v, ready[v.ID]),
		)
	}
	return tw.Flush()
}

func summaryLine(s services.Summary) string {
	return fmt.Sprintf("%d / %d done", s.Active, s.Total)
}

func timerText(v services.View, recentlyReady bool) string {
	switch v.State {
	case cooldown.Active:
		t := cooldown.FormatHMS(v.Remaining)
		if v.Urgent {
			t += " !"
		}
		return t
	case cooldown.Ready:
		return readyText
	default:
		if recentlyReady {
			return readyText
		}
		return noTimer
	}
}

func progressBar(pct int) string {
	filled := pct * barWidth / 100
	return fmt.Sprintf("[%s%s] %3d%%",
		strings.Repeat("#", filled),
		strings.Repeat(".", barWidth-filled),
		pct)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func maskPassword(p string) string {
	if p == "" {
		return "-"
	}
	return strings.Repeat("*", len([]rune(p)))
}

func shortID(id string) string {
	if len(id) > idWidth {
		return id[:idWidth]
	}
	return id
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
