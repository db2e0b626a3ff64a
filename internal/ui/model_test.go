package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vidsnag/internal/model"
	"vidsnag/internal/pipeline"
	"vidsnag/internal/progress"
	"vidsnag/internal/util/deps"
)

func newTestModel(t *testing.T, n, workers int) Model {
	t.Helper()
	inputs := make([]string, n)
	for i := range inputs {
		inputs[i] = "https://youtu.be/vid" + string(rune('a'+i))
	}
	m := NewModel(context.Background(), inputs, model.Options{Jobs: workers}, pipeline.Shared{})
	t.Cleanup(m.cancel)
	return m
}

func step(t *testing.T, m Model, msg any) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func TestWorkerLimit(t *testing.T) {
	m := newTestModel(t, 3, 2)
	m = step(t, m, depsCheckedMsg{DownloaderPath: "/usr/bin/yt-dlp"})

	if m.running != 2 || m.next != 2 {
		t.Fatalf("after start: running=%d next=%d, want 2/2", m.running, m.next)
	}
	if m.shared.DownloaderPath != "/usr/bin/yt-dlp" {
		t.Errorf("downloader path not stored: %q", m.shared.DownloaderPath)
	}

	first := m.jobOrder[0]
	m = step(t, m, jobResultMsg{R: progress.Result{JobID: first, OutputPath: "/tmp/a.mp4", Bytes: 10}})
	if m.running != 2 || m.next != 3 {
		t.Errorf("after one result: running=%d next=%d, want 2/3", m.running, m.next)
	}
	if js := m.jobs[first]; !js.done || js.stage != progress.StageCompleted || js.outputPath != "/tmp/a.mp4" {
		t.Errorf("job state = %+v", js)
	}

	// A duplicate result must not free a second slot.
	m = step(t, m, jobResultMsg{R: progress.Result{JobID: first}})
	if m.running != 2 {
		t.Errorf("duplicate result changed running to %d", m.running)
	}
}

func TestDependencyErrorFailsAllJobs(t *testing.T) {
	m := newTestModel(t, 2, 1)
	derr := deps.ErrNotFound
	m = step(t, m, depsCheckedMsg{Err: derr})

	for _, id := range m.jobOrder {
		if js := m.jobs[id]; !js.done || js.stage != progress.StageError {
			t.Errorf("job %s = %+v", id, js)
		}
	}
	if m.running != 0 {
		t.Errorf("running = %d, want 0", m.running)
	}
	if err := m.outcome(); !errors.Is(err, deps.ErrNotFound) {
		t.Errorf("outcome() = %v, want ErrNotFound", err)
	}
}

func TestUpdateMessages(t *testing.T) {
	m := newTestModel(t, 1, 1)
	id := m.jobOrder[0]
	speed := "1.5MiB/s"
	m = step(t, m, jobUpdateMsg{U: progress.Update{JobID: id, Stage: progress.StageDownloading, Percent: 42, Speed: &speed, Message: "Downloading"}})

	js := m.jobs[id]
	if js.percent != 42 || js.stage != progress.StageDownloading || js.speed != speed {
		t.Errorf("job state = %+v", js)
	}
	if !strings.Contains(m.View(), "42.0%") {
		t.Errorf("view lacks progress:\n%s", m.View())
	}

	m = step(t, m, jobLogMsg{L: progress.Log{JobID: id, Line: "[download] line\n"}})
	if got := m.jobs[id].logsRing; len(got) != 1 || got[0] != "[download] line" {
		t.Errorf("logs = %q", got)
	}
}

func TestOutcomeWrapsJobErrors(t *testing.T) {
	m := newTestModel(t, 2, 2)
	m = step(t, m, depsCheckedMsg{DownloaderPath: "/usr/bin/yt-dlp"})
	a, b := m.jobOrder[0], m.jobOrder[1]
	m = step(t, m, jobResultMsg{R: progress.Result{JobID: a, Err: pipeline.ErrSearch}})
	m = step(t, m, jobResultMsg{R: progress.Result{JobID: b, OutputPath: "/tmp/b.mp4"}})

	err := m.outcome()
	if err == nil {
		t.Fatal("outcome() = nil, want failure")
	}
	if !errors.Is(err, pipeline.ErrSearch) {
		t.Errorf("outcome() = %v, want ErrSearch in chain", err)
	}
	if !strings.HasPrefix(err.Error(), "1 job(s) failed:") {
		t.Errorf("message = %q", err.Error())
	}
	if !strings.Contains(m.View(), "/tmp/b.mp4") {
		t.Error("summary lacks the saved file")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate long = %q", got)
	}
}
