//go:build darwin

package nativesearch

import (
	"os/exec"
	"strings"
)

func platformChecks(r *diagReport) {
	out, err := exec.Command("mdutil", "-s", "/").CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		r.addf("mdutil -s /: %v %s", err, text)
		return
	}
	r.addf("mdutil -s /: %s", strings.ReplaceAll(text, "\n", " "))
}
