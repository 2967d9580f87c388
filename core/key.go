package core

// Key derives the cache key for a host and path. The separator cannot
// occur in either component, so distinct (host, path) pairs always
// derive distinct keys. Exact match only; no prefix or wildcard
// semantics.
func Key(host, path string) string {
	return host + "\n" + path
}
