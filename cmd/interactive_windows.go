//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableVT turns on virtual terminal input and output so the review picker's
// arrow keys arrive as ANSI sequences and its redraws are interpreted.
// Consoles that refuse the mode are left as they are.
func enableVT() {
	addConsoleMode(os.Stdin, windows.ENABLE_VIRTUAL_TERMINAL_INPUT)
	addConsoleMode(os.Stdout, windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
}

func addConsoleMode(f *os.File, flag uint32) {
	h := windows.Handle(f.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil || mode&flag != 0 {
		return
	}
	_ = windows.SetConsoleMode(h, mode|flag)
}
