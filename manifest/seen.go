package manifest

// SeenSet tracks document URLs already accepted during a run. It is owned
// by the orchestrator and shared across every folder, so a document listed
// under two categories is recorded once. The set lives and dies with the
// run; on-disk dedup is the downloader's existence check.
type SeenSet struct {
	urls map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{urls: make(map[string]struct{})}
}

// Seen reports whether the URL was already marked this run.
func (s *SeenSet) Seen(url string) bool {
	_, ok := s.urls[url]
	return ok
}

// Mark records a URL. Marking twice is the same as marking once.
func (s *SeenSet) Mark(url string) {
	s.urls[url] = struct{}{}
}

// Len returns the number of distinct URLs marked.
func (s *SeenSet) Len() int {
	return len(s.urls)
}
