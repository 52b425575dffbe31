/*
Package assetx turns media paths returned by the remote API into absolute URLs.

The API reports uploads as paths relative to its own origin ("uploads/x.png"); pages need
absolute URLs. Resolution is a pure string transformation and never fails.
*/
package assetx

import "strings"

// Resolver resolves asset paths against the asset-serving origin.
type Resolver struct {
	origin string
}

// NewResolver builds a Resolver from a base URL. A trailing "/api" (with or without a
// trailing slash) is stripped so that assets resolve against the server origin.
func NewResolver(baseURL string) *Resolver {
	origin := strings.TrimRight(baseURL, "/")
	origin = strings.TrimSuffix(origin, "/api")
	origin = strings.TrimRight(origin, "/")

	return &Resolver{origin: origin}
}

// Origin returns the asset-serving origin.
func (r *Resolver) Origin() string {
	return r.origin
}

// Resolve returns the absolute URL for path.
// Empty input yields "" (no asset); http:// and https:// URLs are returned unchanged.
func (r *Resolver) Resolve(path string) string {
	if path == "" {
		return ""
	}

	if IsAbsolute(path) {
		return path
	}

	return r.origin + "/" + strings.TrimLeft(path, "/")
}

// ResolveAll resolves every path, dropping empty entries.
func (r *Resolver) ResolveAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if resolved := r.Resolve(p); resolved != "" {
			out = append(out, resolved)
		}
	}
	return out
}

// IsAbsolute reports whether path already carries an http(s) scheme.
func IsAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
