package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Opener implements ports.EditorOpener
type Opener struct{}

// NewOpener creates a new editor opener
func NewOpener() *Opener {
	return &Opener{}
}

// Command returns an exec.Cmd for opening a file in the editor
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	editor := o.findEditor()
	if editor == "" {
		return nil, fmt.Errorf("no editor found: set $EDITOR environment variable")
	}

	// $EDITOR may carry arguments, e.g. "code --wait"
	fields := strings.Fields(editor)
	cmd := exec.Command(fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

// findEditor returns the editor to use
func (o *Opener) findEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}

	for _, editor := range []string{"nvim", "vim", "vi", "nano"} {
		if path, err := exec.LookPath(editor); err == nil {
			return path
		}
	}

	return ""
}

// Draft is a temporary file holding text while an editor has it open
type Draft struct {
	Path     string
	original string
}

// NewDraft writes text to a fresh temporary file
func NewDraft(text string) (*Draft, error) {
	f, err := os.CreateTemp("", "jupiter-notes-*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write draft: %w", err)
	}
	return &Draft{Path: f.Name(), original: text}, nil
}

// Read returns the edited text without trailing whitespace and whether it
// differs from what the draft started with
func (d *Draft) Read() (string, bool, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read draft: %w", err)
	}
	text := strings.TrimRight(string(data), " \t\r\n")
	return text, text != strings.TrimRight(d.original, " \t\r\n"), nil
}

// Remove deletes the temporary file
func (d *Draft) Remove() error {
	if err := os.Remove(d.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
