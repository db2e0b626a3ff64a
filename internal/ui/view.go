package ui

import (
	"fmt"
	"strings"

	"vidsnag/internal/progress"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.jobOrder)
	for _, id := range m.jobOrder {
		if m.jobs[id].done {
			done++
		}
	}
	title := m.styles.Title.Render("vidsnag")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Jobs: %d/%d done • q: quit", done, total))
	out := title + "\n" + sub
	if m.ffmpegErr != nil {
		out += "\n" + m.styles.Warning.Render("ffmpeg not found: single-file formats only, no audio conversion")
	}
	return out
}

func (m Model) viewJobs() string {
	var b strings.Builder
	for _, id := range m.jobOrder {
		b.WriteString(m.viewJob(m.jobs[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) stageStyle(s progress.Stage) func(...string) string {
	switch s {
	case progress.StageResolving, progress.StageMetadata:
		return m.styles.StageMeta.Render
	case progress.StageDownloading:
		return m.styles.StageDL.Render
	case progress.StageMerging, progress.StageConverting:
		return m.styles.StagePost.Render
	case progress.StageRetrying:
		return m.styles.StageWait.Render
	case progress.StageCompleted:
		return m.styles.Success.Render
	case progress.StageError:
		return m.styles.Error.Render
	}
	return m.styles.JobInfo.Render
}

func (m Model) viewJob(js *jobState) string {
	left := m.styles.JobTitle.Render(truncate(js.input, 48))
	stage := m.stageStyle(js.stage)(string(js.stage))

	var right string
	switch {
	case js.percent >= 0 && js.percent <= 100 && !js.done:
		right = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
		if js.speed != "" {
			right += "  " + m.styles.Faint.Render(js.speed)
		}
	case js.done && js.err == nil:
		right = m.styles.Success.Render("✓ done")
		if s := sizeLabel(js); s != "" {
			right += " " + m.styles.Faint.Render(s)
		}
	case js.err != nil:
		right = m.styles.Error.Render("✗ error")
	case !js.started:
		right = m.styles.Faint.Render("queued")
	default:
		right = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("working")
	}

	line1 := fmt.Sprintf("%s  %s", left, stage)
	line2 := m.styles.JobInfo.Render(js.status)
	out := line1 + "\n" + right + "\n" + line2
	if m.opts.Verbose && len(js.logsRing) > 0 {
		tail := js.logsRing
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		for _, l := range tail {
			out += "\n" + m.styles.Faint.Render("  "+truncate(l, 100))
		}
	}
	return m.styles.Box.Render(out)
}

func (m Model) viewSummary() string {
	var completed []string
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js.done && js.err == nil && js.outputPath != "" {
			completed = append(completed, js.outputPath)
		}
	}
	if len(completed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("✓ Saved files:"))
	b.WriteString("\n")
	for _, path := range completed {
		b.WriteString(m.styles.Success.Render("  • " + path))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
