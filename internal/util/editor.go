package util

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func OpenEditor(filePath string, config model.Config) error {
	editor := config.Editor
	if env := os.Getenv("EDITOR"); env != "" {
		editor = env
	}
	c := exec.Command(editor, filePath)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to open editor (%s): %w", filePath, err)
	}
	return nil
}

// EditText opens initial in the configured editor and returns the
// saved text. Used for multi-line fields such as the description.
func EditText(initial string, config model.Config) (string, error) {
	f, err := os.CreateTemp("", "dtl-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := OpenEditor(path, config); err != nil {
		return "", err
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return strings.TrimRight(string(edited), "\n"), nil
}
