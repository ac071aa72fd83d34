//go:build darwin

package winutil

import "os/exec"

// RevealInExplorer selects path in a Finder window.
func RevealInExplorer(path string) error {
	return exec.Command("open", "-R", path).Start()
}
