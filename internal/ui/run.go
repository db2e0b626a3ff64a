package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"vidsnag/internal/model"
	"vidsnag/internal/pipeline"
)

// Run shows the job queue for inputs until every job has finished or the
// user quits. The returned error wraps every job failure, so callers can
// test it with errors.Is against the pipeline sentinels.
func Run(ctx context.Context, inputs []string, opts model.Options, shared pipeline.Shared) error {
	m := NewModel(ctx, inputs, opts, shared)
	defer m.cancel()
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	fm, ok := final.(Model)
	if !ok {
		return err
	}
	return fm.outcome()
}

func (m Model) outcome() error {
	if m.depsErr != nil {
		return m.depsErr
	}
	if failed := m.failures(); len(failed) > 0 {
		lines := make([]string, 0, len(failed))
		errs := make([]error, 0, len(failed))
		for _, f := range failed {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.input, f.err))
			errs = append(errs, f.err)
		}
		return fmt.Errorf("%d job(s) failed:\n%s%w", len(failed), strings.Join(lines, "\n"), hidden{errors.Join(errs...)})
	}
	if n := m.unfinished(); n > 0 && (m.quit || m.ctx.Err() != nil) {
		return fmt.Errorf("interrupted with %d job(s) unfinished: %w", n, context.Canceled)
	}
	return nil
}

// hidden keeps the joined job errors reachable for errors.Is without
// repeating them in the message.
type hidden struct{ err error }

func (h hidden) Error() string { return "" }
func (h hidden) Unwrap() error { return h.err }
