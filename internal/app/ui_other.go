//go:build !windows

package app

import (
	"context"
	"errors"
)

// ErrNoUI is returned by RunUI on platforms without the desktop window.
var ErrNoUI = errors.New("the search window is only available on Windows; use `nfind search`")

func RunUI(context.Context, Env) error {
	return ErrNoUI
}
