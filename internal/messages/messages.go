// Package messages loads the instruction screens shown between phases.
package messages

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed text/*.txt
var defaults embed.FS

// Name identifies an instruction screen.
type Name string

const (
	BeforeTraining   Name = "before_training"
	BeforeExperiment Name = "before_experiment"
	Break            Name = "break"
	End              Name = "end"
)

const insertMarker = "<--insert-->"

// Loader reads screens from an override directory, falling back to the
// embedded defaults.
type Loader struct {
	dir string
}

// NewLoader returns a Loader. An empty dir uses only the embedded texts.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load returns the text of a screen with the insert marker substituted.
func (l *Loader) Load(name Name, insert string) (string, error) {
	file := string(name) + ".txt"
	if l.dir != "" {
		f, err := os.Open(filepath.Join(l.dir, file))
		switch {
		case err == nil:
			defer func() {
				if cerr := f.Close(); cerr != nil {
					// Best-effort close for read-only message file.
					_ = cerr
				}
			}()
			return Parse(f, insert)
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("failed to open message %s: %w", name, err)
		}
	}
	f, err := defaults.Open("text/" + file)
	if err != nil {
		return "", fmt.Errorf("unknown message %q: %w", name, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f, insert)
}

// Parse drops lines starting with '#' and replaces a line starting with the
// insert marker by insert. The marker line disappears when insert is empty.
func Parse(r io.Reader, insert string) (string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, insertMarker) {
			if insert != "" {
				lines = append(lines, insert)
			}
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n"), nil
}
