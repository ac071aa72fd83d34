//go:build !windows && !(darwin && cgo)

package nativesearch

import (
	"context"

	"go.uber.org/zap"
)

type unsupportedBackend struct{}

func newPlatformBackend(*zap.Logger) backend { return unsupportedBackend{} }

// build still validates so callers get the same construction errors everywhere.
func (unsupportedBackend) build(spec QuerySpec) (string, error) {
	return BuildSQL(spec)
}

func (unsupportedBackend) execute(context.Context, string) (resultSet, error) {
	return nil, wrapError(StageInitialize, "", ErrUnsupported)
}
