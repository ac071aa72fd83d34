//go:build windows

package winutil

import (
	"os"

	"golang.org/x/sys/windows"
)

const attachParentProcess = ^uintptr(0)

var (
	kernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procFreeConsole   = kernel32.NewProc("FreeConsole")
	procAttachConsole = kernel32.NewProc("AttachConsole")
)

// DetachConsole detaches the process from the current console, if any, so a
// double-clicked binary does not keep a console window next to the UI.
func DetachConsole() {
	if procFreeConsole.Find() != nil {
		return
	}
	_, _, _ = procFreeConsole.Call()
}

// EnsureConsole attaches to the parent process console when the binary is
// built for the windowsgui subsystem. Without a parent console it does
// nothing.
//
// A single exe then behaves like:
// - Double-click: GUI (no console window)
// - Run from cmd/powershell: console output works
func EnsureConsole() {
	if procAttachConsole.Find() != nil {
		return
	}
	if r1, _, _ := procAttachConsole.Call(attachParentProcess); r1 == 0 {
		return
	}

	// refresh std handles
	if h, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE); err == nil && h != 0 && h != windows.InvalidHandle {
		os.Stdout = os.NewFile(uintptr(h), "stdout")
	}
	if h, err := windows.GetStdHandle(windows.STD_ERROR_HANDLE); err == nil && h != 0 && h != windows.InvalidHandle {
		os.Stderr = os.NewFile(uintptr(h), "stderr")
	}
}
