// Package clipboard copies text to the system clipboard, falling back to
// platform tools when the native clipboard is unavailable.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrNoTool is returned when no clipboard utility could be found
var ErrNoTool = errors.New("no clipboard tool found")

// Service copies text to the clipboard
type Service struct {
	// Command overrides the fallback tool, e.g. "wl-copy --primary"
	Command string
	logger  *slog.Logger

	// swapped in tests
	writeAll func(string) error
	lookPath func(string) (string, error)
	goos     string
	wsl      func() bool
}

// NewService creates a clipboard service. command may be empty.
func NewService(command string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Command:  command,
		logger:   logger,
		writeAll: clipboard.WriteAll,
		lookPath: exec.LookPath,
		goos:     runtime.GOOS,
		wsl:      isWSL,
	}
}

// Copy writes text to the clipboard. The native clipboard is tried first,
// then the configured command, then the platform default.
func (s *Service) Copy(ctx context.Context, text string) error {
	err := s.writeAll(text)
	if err == nil {
		s.logger.Debug("copied to clipboard", "length", len(text))
		return nil
	}
	s.logger.Warn("native clipboard failed, trying fallback", "error", err)

	parts, err := s.fallback()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		s.logger.Error("clipboard command failed", "command", parts, "error", err)
		return fmt.Errorf("clipboard command %s: %w", parts[0], err)
	}
	s.logger.Debug("copied to clipboard", "command", parts[0], "length", len(text))
	return nil
}

// fallback picks the command used when the native clipboard fails
func (s *Service) fallback() ([]string, error) {
	if s.Command != "" {
		parts := parseCommand(s.Command)
		if len(parts) == 0 {
			return nil, fmt.Errorf("invalid clipboard command: %q", s.Command)
		}
		return parts, nil
	}

	switch s.goos {
	case "windows":
		return []string{"clip.exe"}, nil
	case "darwin":
		return []string{"pbcopy"}, nil
	case "linux":
		if s.wsl() {
			return []string{"clip.exe"}, nil
		}
		candidates := [][]string{
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
		for _, c := range candidates {
			if _, err := s.lookPath(c[0]); err == nil {
				return c, nil
			}
		}
		return nil, fmt.Errorf("%w (install wl-clipboard, xclip or xsel)", ErrNoTool)
	default:
		return nil, fmt.Errorf("%w for %s", ErrNoTool, s.goos)
	}
}

// parseCommand splits a command string into parts, respecting quotes
func parseCommand(command string) []string {
	var parts []string
	var current strings.Builder
	var inQuotes bool
	var quoteChar rune

	for _, char := range command {
		switch {
		case char == '\'' || char == '"':
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
			} else {
				current.WriteRune(char)
			}
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}
