//go:build windows

package winutil

import (
	"os/exec"
	"path/filepath"
)

// RevealInExplorer opens an Explorer window with path selected.
func RevealInExplorer(path string) error {
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	// explorer.exe /select,"C:\path\file"
	return exec.Command("explorer.exe", "/select,"+path).Start()
}
