package console

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrNoSuchEntry is returned for ids that are unknown or have no actions.
var ErrNoSuchEntry = errors.New("no such entry")

// ShareTitle is exported to the share command as NLCONSOLE_SHARE_TITLE.
const ShareTitle = "Query Result"

// ShareResult says how a share request was fulfilled.
type ShareResult int

const (
	ShareNone ShareResult = iota
	ShareCommand
	ShareCopied
)

// Actions implements copy and share for log entries.
type Actions struct {
	shareCommand string
	copyFn       func(string) error
	runFn        func(command, text string) error
}

// NewActions shares through shareCommand, or copies when it is empty.
func NewActions(shareCommand string) *Actions {
	return &Actions{
		shareCommand: strings.TrimSpace(shareCommand),
		copyFn:       clipboard.WriteAll,
		runFn:        runShareCommand,
	}
}

// Copy writes text to the system clipboard.
func (a *Actions) Copy(text string) error {
	if err := a.copyFn(strings.TrimSpace(text)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// Share runs the share command with text on stdin. When no command is
// configured, or it cannot be started, the text is copied instead.
func (a *Actions) Share(text string) (ShareResult, error) {
	text = strings.TrimSpace(text)
	if a.shareCommand == "" {
		return ShareCopied, a.Copy(text)
	}

	err := a.runFn(a.shareCommand, text)
	var startErr *startError
	switch {
	case err == nil:
		return ShareCommand, nil
	case errors.As(err, &startErr):
		log.Printf("console: share command unavailable, copying instead: %v", err)
		return ShareCopied, a.Copy(text)
	default:
		return ShareCommand, fmt.Errorf("share: %w", err)
	}
}

type startError struct{ err error }

func (e *startError) Error() string { return e.err.Error() }
func (e *startError) Unwrap() error { return e.err }

func runShareCommand(command, text string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}
	cmd.Stdin = strings.NewReader(text)
	cmd.Env = append(os.Environ(), "NLCONSOLE_SHARE_TITLE="+ShareTitle)

	if err := cmd.Start(); err != nil {
		return &startError{err: err}
	}
	err := cmd.Wait()
	// the shell reports a missing program as 127
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 127 {
		return &startError{err: err}
	}
	return err
}
