package nativesearch

// scope owns native resources acquired during one bridge call. Releases run
// in reverse acquisition order, each exactly once.
type scope struct {
	releases []func() error
	closed   bool
	onError  func(error)
}

// add registers release to run when the scope closes. Register right after
// the acquisition succeeds, never before.
func (s *scope) add(release func() error) {
	if s.closed {
		// acquired after close: release now rather than leak
		s.report(release())
		return
	}
	s.releases = append(s.releases, release)
}

func (s *scope) close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.report(s.releases[i]())
		s.releases[i] = nil
	}
	s.releases = nil
}

func (s *scope) report(err error) {
	if err != nil && s.onError != nil {
		s.onError(err)
	}
}
