package ui

import (
	"github.com/desertthunder/jams/internal/tasks"
)

// progressUpdateMsg carries one engine progress event.
type progressUpdateMsg tasks.ProgressUpdate

// runCompleteMsg is sent once the engine returns.
type runCompleteMsg struct {
	result *tasks.RunResult
	err    error
}
