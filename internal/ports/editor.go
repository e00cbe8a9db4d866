package ports

import (
	"os/exec"

	"jupiter/internal/domain"
)

// EditorOpener builds the command that opens a file in the user's editor,
// for use with bubbletea's ExecProcess
type EditorOpener interface {
	Command(path string) (*exec.Cmd, error)
}

// URLOpener shows remote items in the user's browser
type URLOpener interface {
	ItemURL(id domain.RemoteID) string
	Open(id domain.RemoteID) error
}
