package histogram

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Viewer displays a rendered figure
type Viewer interface {
	Open(path string) error
}

// SystemViewer opens files with the desktop's default application and
// returns without waiting for it to exit.
type SystemViewer struct{}

// Open implements Viewer
func (SystemViewer) Open(path string) error {
	name, args := openCommand(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	// reap the launcher in the background
	go cmd.Wait()
	return nil
}

// openCommand returns the launcher for goos
func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}
