package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrQuit is returned by PromptFolder when the user types q.
var ErrQuit = errors.New("quit requested")

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// PromptFolder asks for a folder until an existing directory is entered.
// "." is the current folder, "q" quits with ErrQuit, end of input returns
// io.EOF.
func PromptFolder(in io.Reader, out io.Writer) (string, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "No folder to analyze was given.")
	for {
		fmt.Fprintln(out, "\nPlease input a folder to analyze.")
		fmt.Fprint(out, "Type . to analyze the current folder or q to quit:\n> ")

		line, err := reader.ReadString('\n')
		answer := strings.TrimSpace(line)
		if err != nil && answer == "" {
			return "", err
		}

		switch answer {
		case "":
			continue
		case "q":
			fmt.Fprintln(out, "Quitting")
			return "", ErrQuit
		}

		folder, statErr := existingDir(answer)
		if statErr == nil {
			return folder, nil
		}
		fmt.Fprintf(out, "%s does not exist.\n", answer)
		if err != nil {
			return "", err
		}
	}
}

func existingDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}
