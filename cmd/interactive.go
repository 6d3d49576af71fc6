package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"glampdata/internal/match"

	"golang.org/x/term"
)

// stdin is shared by every prompt; a reader per prompt would swallow the
// answers buffered for the next one.
var stdin = bufio.NewReader(os.Stdin)

// interactiveSelect lets the user move through options with the arrow keys
// and press Enter to pick one. It returns the chosen index, or -1 on Esc or
// Ctrl-C. When stdin is not a terminal it falls back to a numbered prompt.
func interactiveSelect(title string, options []string) int {
	if len(options) == 0 {
		return -1
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptSelect(title, options)
	}

	if runtime.GOOS == "windows" {
		enableVT()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return promptSelect(title, options)
	}
	defer term.Restore(fd, oldState)

	reader := stdin
	selected := 0

	redraw := func() {
		// Clear screen (ANSI reset to top + clear screen)
		fmt.Print("\033[H\033[2J")
		for _, l := range strings.Split(title, "\n") {
			fmt.Print(l + "\r\n")
		}
		fmt.Print("\r\n")
		for i, l := range options {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			fmt.Print(prefix + l + "\r\n")
		}
		fmt.Print("(↑/↓ to navigate, Enter to choose, Esc to skip)\r\n")
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return -1
		}
		// Handle Windows console arrow sequences (0 or 224, then code)
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72: // up
				if selected > 0 {
					selected--
					redraw()
				}
			case 80: // down
				if selected < len(options)-1 {
					selected++
					redraw()
				}
			case 13: // Enter
				return selected
			}
			continue
		}

		switch b1 {
		case 27: // ESC or ANSI sequence
			if reader.Buffered() == 0 {
				// Bare ESC – skip
				fmt.Print("\r\n")
				return -1
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' {
				// Not a CSI sequence; ignore unknown combo
				continue
			}
			if reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A': // up
				if selected > 0 {
					selected--
					redraw()
				}
			case 'B': // down
				if selected < len(options)-1 {
					selected++
					redraw()
				}
			}
		case '\r', '\n': // Enter
			fmt.Print("\r\n")
			return selected
		case 3: // Ctrl-C
			fmt.Print("\r\n")
			return -1

		default:
			// ignore other keys
		}
	}
}

// promptSelect is the line-based fallback for pipes and dumb terminals.
func promptSelect(title string, options []string) int {
	return promptFrom(stdin, os.Stdout, title, options)
}

func promptFrom(r *bufio.Reader, w io.Writer, title string, options []string) int {
	fmt.Fprintln(w, title)
	for i, o := range options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, o)
	}
	fmt.Fprint(w, "Choice (blank to skip): ")
	line, _ := r.ReadString('\n')
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(line), "%d", &n); err != nil || n < 1 || n > len(options) {
		return -1
	}
	return n - 1
}

// reviewMatch asks whether a containment or similarity match is a real
// duplicate. Skipping keeps the row.
func reviewMatch(name string, r match.Result) bool {
	title := fmt.Sprintf("Possible duplicate (%s, score %.2f)\n  row:       %s\n  reference: %s", r.Kind, r.Score, name, r.Candidate)
	return interactiveSelect(title, []string{"Remove row (duplicate)", "Keep row"}) == 0
}
