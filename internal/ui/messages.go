package ui

import "vidsnag/internal/progress"

type depsCheckedMsg struct {
	DownloaderPath string
	FFmpegPath     string
	FFmpegErr      error // not fatal
	Err            error
}

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

type allDoneMsg struct{}
