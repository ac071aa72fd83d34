//go:build !windows && !darwin

package winutil

import (
	"os/exec"
	"path/filepath"
)

// RevealInExplorer opens the directory containing path. Desktop file
// managers have no common "select this file" switch.
func RevealInExplorer(path string) error {
	return exec.Command("xdg-open", filepath.Dir(path)).Start()
}
