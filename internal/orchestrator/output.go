package orchestrator

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"mailstack-cli/internal/interfaces"
	"mailstack-cli/internal/store"
)

// clipboardWrite is swapped in tests
var clipboardWrite = clipboard.WriteAll

// OutputHandler implements the OutputHandler interface
type OutputHandler struct {
	out io.Writer
	fs  afero.Fs
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(out io.Writer, fs afero.Fs) interfaces.OutputHandler {
	return &OutputHandler{out: out, fs: fs}
}

// WriteToClipboard copies content to the system clipboard
func (h *OutputHandler) WriteToClipboard(content string) error {
	return clipboardWrite(content)
}

// WriteToStdout writes content to standard output
func (h *OutputHandler) WriteToStdout(content string) error {
	_, err := fmt.Fprintln(h.out, content)
	return err
}

// WriteToFile writes content to the specified file path. Values may be
// secrets, so the file is only readable by its owner.
func (h *OutputHandler) WriteToFile(content string, path string) error {
	return afero.WriteFile(h.fs, path, []byte(content+"\n"), store.FileMode)
}

// OpenInEditor opens an existing file in the specified editor. The editor
// may carry arguments, e.g. "code --wait".
func (h *OutputHandler) OpenInEditor(path string, editor string) error {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return errors.New("no editor configured")
	}

	cmd := exec.Command(fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "failed to launch editor %s", editor)
	}

	return nil
}
