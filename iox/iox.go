// Package iox provides I/O helpers for releasing streams and clients.
package iox

import "io"

// drainLimit caps how much of a body DrainClose reads before closing.
const drainLimit = 64 << 10

// DiscardClose closes c and discards the error:
//
//	defer iox.DiscardClose(client)
func DiscardClose(c io.Closer) { _ = c.Close() }

// DrainClose reads up to 64 KiB of rc and closes it, so an HTTP connection
// can be reused after an unread or partially read response body.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, drainLimit))
	_ = rc.Close()
}

// CloseFunc returns a cleanup function that closes c, for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(adapter))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// ReadSnippet returns at most n bytes of r as a string, for error messages
// built from response bodies.
func ReadSnippet(r io.Reader, n int64) string {
	b, _ := io.ReadAll(io.LimitReader(r, n))
	return string(b)
}
