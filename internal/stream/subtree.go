package stream

import (
	"io"

	eng "github.com/reoring/prunejson/internal/engine"
)

// PreloadedSource is a subtree source that first returns a preloaded token
// (typically the first token of a value) and then continues to stream the
// remaining tokens for the same subtree from the underlying source. It stops
// after the subtree end is reached, returning io.EOF afterwards.
type PreloadedSource struct {
	inner       eng.TokenSource
	first       eng.Token
	depth       int
	done        bool
	firstServed bool
}

// NewPreloadedSource constructs a subtree source that will return first before
// consuming further tokens from inner.
func NewPreloadedSource(inner eng.TokenSource, first eng.Token) *PreloadedSource {
	return &PreloadedSource{inner: inner, first: first}
}

func (p *PreloadedSource) NextToken() (eng.Token, error) {
	if p.done {
		return eng.Token{}, io.EOF
	}
	var tok eng.Token
	if !p.firstServed {
		p.firstServed = true
		tok = p.first
	} else {
		t, err := p.inner.NextToken()
		if err != nil {
			if err == io.EOF {
				// the subtree is still open
				return eng.Token{}, io.ErrUnexpectedEOF
			}
			return eng.Token{}, err
		}
		tok = t
	}
	switch tok.Kind {
	case eng.KindBeginObject, eng.KindBeginArray:
		p.depth++
	case eng.KindEndObject, eng.KindEndArray:
		if p.depth > 0 {
			p.depth--
		}
	}
	// primitives at depth zero are single-token subtrees
	if p.depth == 0 {
		p.done = true
	}
	return tok, nil
}

func (p *PreloadedSource) Location() int64 { return p.inner.Location() }

// Skip consumes the value that starts with first, without materializing it.
func Skip(inner eng.TokenSource, first eng.Token) error {
	switch first.Kind {
	case eng.KindBeginObject, eng.KindBeginArray:
	default:
		return nil
	}
	sub := NewPreloadedSource(inner, first)
	for {
		if _, err := sub.NextToken(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
