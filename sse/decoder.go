// Package sse decodes a text/event-stream body into classified lines.
//
// Chunks are decoded as UTF-8 with a streaming transformer: a multi-byte
// sequence split across two chunks is carried over instead of being decoded
// in isolation. Decoded text is split on '\n'; the trailing partial line is
// held until the next chunk completes it.
package sse

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxLineSize bounds the pending partial line (16 MiB).
const MaxLineSize = 16 * 1024 * 1024

// LineErrorKind classifies line decoding errors.
type LineErrorKind int

const (
	// LineErrorTooLarge indicates a line grew past MaxLineSize without a newline.
	LineErrorTooLarge LineErrorKind = iota
	// LineErrorDecode indicates the UTF-8 transformer failed.
	LineErrorDecode
)

// LineError represents a line decoding error.
type LineError struct {
	Kind LineErrorKind
	Msg  string
	Err  error
}

func (e *LineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// IsLineError returns true if err is (or wraps) a *LineError.
func IsLineError(err error) bool {
	var lineErr *LineError
	return errors.As(err, &lineErr)
}

// Decoder accumulates stream chunks and emits complete lines.
// A Decoder is owned by a single session and is not safe for concurrent use.
type Decoder struct {
	utf8  transform.Transformer
	carry []byte
	tail  string
}

// NewDecoder creates a new line decoder.
func NewDecoder() *Decoder {
	return &Decoder{utf8: unicode.UTF8.NewDecoder()}
}

// Ingest appends a chunk and returns every line completed by it, in order.
// Line terminators are stripped, including a '\r' preceding '\n'.
func (d *Decoder) Ingest(chunk []byte) ([]string, error) {
	text, err := d.decode(chunk, false)
	if err != nil {
		return nil, err
	}
	return d.split(text)
}

// Flush ends the stream. Undecodable carried bytes are replaced with U+FFFD
// and the pending tail, if non-empty, is returned as a final line.
func (d *Decoder) Flush() ([]string, error) {
	text, err := d.decode(nil, true)
	if err != nil {
		return nil, err
	}
	lines, err := d.split(text)
	if err != nil {
		return nil, err
	}
	if d.tail != "" {
		lines = append(lines, strings.TrimSuffix(d.tail, "\r"))
		d.tail = ""
	}
	return lines, nil
}

// Pending returns the buffered partial line.
func (d *Decoder) Pending() string {
	return d.tail
}

func (d *Decoder) decode(chunk []byte, atEOF bool) (string, error) {
	src := make([]byte, 0, len(d.carry)+len(chunk))
	src = append(src, d.carry...)
	src = append(src, chunk...)
	d.carry = nil

	// Each invalid byte may expand to a 3-byte replacement character.
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	var out strings.Builder
	for {
		nDst, nSrc, err := d.utf8.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			return out.String(), nil
		case errors.Is(err, transform.ErrShortSrc):
			// Incomplete multi-byte sequence at the end of the chunk.
			d.carry = append(d.carry, src...)
			return out.String(), nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		default:
			return "", &LineError{Kind: LineErrorDecode, Msg: "utf-8 decode failed", Err: err}
		}
	}
}

func (d *Decoder) split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	parts := strings.Split(d.tail+text, "\n")
	d.tail = parts[len(parts)-1]
	if len(d.tail) > MaxLineSize {
		return nil, &LineError{
			Kind: LineErrorTooLarge,
			Msg:  fmt.Sprintf("line exceeds maximum %d bytes without a newline", MaxLineSize),
		}
	}

	lines := parts[:len(parts)-1]
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}
