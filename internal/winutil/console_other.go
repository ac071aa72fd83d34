//go:build !windows

package winutil

func DetachConsole() {}

func EnsureConsole() {}
