//go:build !windows && !darwin

package nativesearch

func platformChecks(r *diagReport) {
	r.addf("no native file index backend for this platform")
}
