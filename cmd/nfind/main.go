package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"native_find/internal/config"
	"native_find/internal/winutil"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	defer crashLog()

	args := os.Args[1:]
	// Double-click launches carry no arguments: go straight to the window.
	if runtime.GOOS == "windows" && len(args) == 0 {
		if !debugMode() {
			winutil.DetachConsole()
		}
		args = []string{"ui"}
	} else {
		// windowsgui builds need to attach to the parent console explicitly.
		winutil.EnsureConsole()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	root.SetArgs(args)
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	if isUsageError(err) {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, cmd.UsageString())
		cancel()
		os.Exit(exitUsage)
	}
	cancel()
	os.Exit(exitError)
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, p := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires "} {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}
	return false
}

// debugMode is on for NFIND_DEBUG=1 or an executable named *debug*.
func debugMode() bool {
	if os.Getenv(config.EnvDebug) == "1" {
		return true
	}
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(filepath.Base(exe)), "debug")
}

// crashLog appends a panic and its stack to nfind_debug.log next to the
// executable. A detached GUI process has nowhere else to report it.
func crashLog() {
	r := recover()
	if r == nil {
		return
	}
	msg := fmt.Sprintf("%s PANIC: %v\nStack:\n%s\n", time.Now().Format(time.RFC3339), r, debug.Stack())
	fmt.Fprint(os.Stderr, msg)
	if exe, err := os.Executable(); err == nil {
		logPath := filepath.Join(filepath.Dir(exe), "nfind_debug.log")
		if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			_, _ = f.WriteString(msg)
			_ = f.Close()
		}
	}
	os.Exit(exitError)
}
