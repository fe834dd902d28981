package hardware

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrCameraNotActive is returned when a frame is requested outside a
// started session. This is a precondition violation, not a retryable
// condition.
var ErrCameraNotActive = errors.New("camera is not active, start the session first")

// StillCamera captures frames by invoking a still-capture command such as
// libcamera-still. The command is a template whose "{out}" placeholder is
// replaced with the output file path, e.g.
//
//	libcamera-still -n --width 2592 --height 1944 -o {out}
//
// The camera is an exclusively owned resource: Start acquires it for a
// scoped session and Stop releases it.
type StillCamera struct {
	Command string

	started bool
	workDir string
}

func NewStillCamera(command string) *StillCamera {
	return &StillCamera{Command: command}
}

func (c *StillCamera) Start() error {
	if c.started {
		return nil
	}
	dir, err := os.MkdirTemp("", "meddispense-frames-")
	if err != nil {
		return fmt.Errorf("start camera: %w", err)
	}
	c.workDir = dir
	c.started = true
	return nil
}

// Frame captures one still and returns its bytes.
func (c *StillCamera) Frame() ([]byte, error) {
	if !c.started {
		return nil, ErrCameraNotActive
	}

	out := filepath.Join(c.workDir, "frame.jpg")
	args := strings.Fields(c.Command)
	if len(args) == 0 {
		return nil, errors.New("camera command not configured")
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "{out}", out)
	}

	cmd := exec.Command(args[0], args[1:]...)
	if outBytes, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("capture command failed: %w: %s", err, strings.TrimSpace(string(outBytes)))
	}
	return os.ReadFile(out)
}

func (c *StillCamera) Stop() error {
	if !c.started {
		return nil
	}
	c.started = false
	if c.workDir != "" {
		if err := os.RemoveAll(c.workDir); err != nil {
			return fmt.Errorf("stop camera: %w", err)
		}
		c.workDir = ""
	}
	return nil
}
