package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"VoyageBot/internal/model"
	"VoyageBot/internal/recorder"
)

// FormatCycleReport formats a finished cycle into a Telegram message.
func FormatCycleReport(rep *model.CycleReport) string {
	var b strings.Builder
	done, aborted, timedOut := rep.Counts()

	b.WriteString(fmt.Sprintf("🔁 <b>Cycle #%d</b> | %s\n\n", rep.Number, rep.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Accounts: %d\n", len(rep.Results)))
	b.WriteString(fmt.Sprintf("Completed: %d | Aborted: %d | Timed out: %d\n", done, aborted, timedOut))
	b.WriteString(fmt.Sprintf("Check-ins: %d | Rejected: %d\n", rep.CheckIns(), rep.FailedCheckIns()))
	b.WriteString(fmt.Sprintf("Duration: %s\n", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second)))

	var failures []string
	for _, r := range rep.Results {
		switch {
		case r.State == model.StateAborted:
			failures = append(failures, fmt.Sprintf("  #%d %s: %s", r.Index+1, string(r.FailedAt), html.EscapeString(r.Reason)))
		case r.CheckInFailed:
			failures = append(failures, fmt.Sprintf("  #%d %s: %s", r.Index+1, string(model.StateCheckIn), html.EscapeString(r.Reason)))
		}
	}
	if len(failures) > 0 {
		const maxLines = 10
		b.WriteString("\n⚠️ <b>Failures:</b>\n")
		for i, f := range failures {
			if i == maxLines {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(failures)-maxLines))
				break
			}
			b.WriteString(f + "\n")
		}
	}
	return b.String()
}

// FormatDigest formats a history summary.
func FormatDigest(s *recorder.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Digest</b> | since %s\n\n", s.Since.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Cycles: %d\n", s.Cycles))
	b.WriteString(fmt.Sprintf("Account runs: %d\n", s.Runs))
	b.WriteString(fmt.Sprintf("Completed: %d | Aborted: %d | Timed out: %d\n", s.Done, s.Aborted, s.TimedOut))
	b.WriteString(fmt.Sprintf("Check-ins: %d | Rejected: %d\n", s.CheckIns, s.FailedCheckIns))
	return b.String()
}
