package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"vidsnag/internal/model"
	"vidsnag/internal/pipeline"
	"vidsnag/internal/progress"
	"vidsnag/internal/util/deps"
	"vidsnag/internal/util/format"
)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	// App state (deps)
	depsChecked bool
	depsErr     error
	ffmpegErr   error
	shared      pipeline.Shared

	// Jobs
	inputs   []string
	opts     model.Options
	jobOrder []string
	jobs     map[string]*jobState
	workers  int
	running  int
	next     int // next index in jobOrder to start
	quit     bool

	// UI
	width, height int
	styles        Styles

	// Internal event channel used by reporter to feed tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, inputs []string, opts model.Options, shared pipeline.Shared) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	jobs := make(map[string]*jobState, len(inputs))
	order := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id := uuid.NewString()
		js := newJobState(id, in, sty)
		jobs[id] = &js
		order = append(order, id)
	}

	workers := opts.Jobs
	if workers <= 0 {
		workers = 2
	}

	return Model{
		ctx:      c,
		cancel:   cancel,
		shared:   shared,
		inputs:   inputs,
		opts:     opts,
		jobs:     jobs,
		jobOrder: order,
		workers:  workers,
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		cmds = append(cmds, m.jobs[id].spinner.Tick)
	}
	cmds = append(cmds, m.listenEventsCmd(), m.checkDepsCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case depsCheckedMsg:
		m.depsChecked = true
		m.depsErr = msg.Err
		m.ffmpegErr = msg.FFmpegErr
		if m.depsErr != nil {
			for _, id := range m.jobOrder {
				js := m.jobs[id]
				js.stage = progress.StageError
				js.status = fmt.Sprintf("Dependency error: %v", m.depsErr)
				js.err = m.depsErr
				js.done = true
			}
			return m, tea.Quit
		}
		m.shared.DownloaderPath = msg.DownloaderPath
		m.shared.FFmpegPath = msg.FFmpegPath
		return m, m.startWorkers()

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.jobs[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			if u.Message != "" {
				js.status = u.Message
			}
			if u.Bytes != nil {
				js.bytes = *u.Bytes
			}
			js.speed = ""
			if u.Speed != nil {
				js.speed = *u.Speed
			}
		}
		return m, m.listenEventsCmd()

	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			js.appendLog(strings.TrimRight(l.Line, "\r\n"))
		}
		return m, m.listenEventsCmd()

	case jobResultMsg:
		r := msg.R
		js, ok := m.jobs[r.JobID]
		if !ok || js.done {
			return m, m.listenEventsCmd()
		}
		js.done = true
		js.err = r.Err
		if r.Err == nil {
			js.stage = progress.StageCompleted
			js.percent = 100
			js.outputPath = r.OutputPath
			js.bytes = r.Bytes
			if js.status == "" {
				js.status = "Completed"
			}
		} else {
			js.stage = progress.StageError
			js.status = r.Err.Error()
			js.percent = -1
		}
		m.running--
		return m, tea.Batch(m.startWorkers(), m.listenEventsCmd())

	case allDoneMsg:
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	dlCustom, ffCustom := m.opts.DLBinary, m.opts.FFmpegBinary
	known := m.shared
	return func() tea.Msg {
		dl := known.DownloaderPath
		if dl == "" {
			var err error
			if dl, err = deps.FindDownloader(dlCustom); err != nil {
				return depsCheckedMsg{Err: err}
			}
		}
		ff := known.FFmpegPath
		var ferr error
		if ff == "" {
			ff, ferr = deps.FindFFmpeg(ffCustom)
		}
		return depsCheckedMsg{DownloaderPath: dl, FFmpegPath: ff, FFmpegErr: ferr}
	}
}

// startWorkers launches queued jobs up to the worker limit. It must run
// inside Update so the counters live on the returned model.
func (m *Model) startWorkers() tea.Cmd {
	if m.ctx.Err() != nil {
		return func() tea.Msg { return allDoneMsg{} }
	}
	var cmds []tea.Cmd
	for m.running < m.workers && m.next < len(m.jobOrder) {
		id := m.jobOrder[m.next]
		m.next++
		m.running++
		js := m.jobs[id]
		js.started = true
		js.status = "Starting"
		cmds = append(cmds, m.runJobCmd(id, js.input))
	}
	if m.next >= len(m.jobOrder) && m.running == 0 {
		return func() tea.Msg { return allDoneMsg{} }
	}
	return tea.Batch(cmds...)
}

func (m Model) runJobCmd(jobID, input string) tea.Cmd {
	opts := append(m.shared.Options(),
		pipeline.WithOptions(m.opts),
		pipeline.WithReporter(teaReporter{ctx: m.ctx, ch: m.eventCh}),
		pipeline.WithJobID(jobID),
	)
	ctx := m.ctx
	return func() tea.Msg {
		// Outcome reaches the model through the reporter's Result.
		_, _ = pipeline.NewService(opts...).RunJob(ctx, input)
		return nil
	}
}

// failures lists every job that ended in an error.
func (m Model) failures() []jobFailure {
	var out []jobFailure
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js.err != nil {
			out = append(out, jobFailure{input: js.input, err: js.err})
		}
	}
	return out
}

func (m Model) unfinished() int {
	n := 0
	for _, id := range m.jobOrder {
		if !m.jobs[id].done {
			n++
		}
	}
	return n
}

type jobFailure struct {
	input string
	err   error
}

type teaReporter struct {
	ctx context.Context
	ch  chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on terminal updates so they're delivered
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}

func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.ctx.Done():
	}
}

func sizeLabel(js *jobState) string {
	if js.bytes <= 0 {
		return ""
	}
	return format.HumanizeBytes(js.bytes)
}
