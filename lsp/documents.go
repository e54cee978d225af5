package lsp

import (
	"bytes"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dhamidi/caret/language"
)

// Document is an open text document.
type Document struct {
	URI      string
	Language *language.Language
	Text     []byte
	Version  int32
}

// Documents holds the open documents by URI. It is safe for concurrent use.
type Documents struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewDocuments() *Documents {
	return &Documents{docs: make(map[string]*Document)}
}

// Open stores or replaces a document.
func (d *Documents) Open(doc *Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[doc.URI] = doc
}

// Update replaces the text of an open document. It reports whether the
// document was open.
func (d *Documents) Update(uri string, text []byte, version int32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[uri]
	if !ok {
		return false
	}
	d.docs[uri] = &Document{URI: uri, Language: doc.Language, Text: text, Version: version}
	return true
}

func (d *Documents) Close(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.docs, uri)
}

// Get returns the document for uri or nil. Documents are never modified
// once stored.
func (d *Documents) Get(uri string) *Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.docs[uri]
}

func (d *Documents) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Offset converts a zero-based line and UTF-16 character position into a
// byte offset of text. Positions past the end of a line map to its end,
// lines past the end of text to the end of text.
func Offset(text []byte, line, character int) int {
	offset := 0
	for l := 0; l < line; l++ {
		i := bytes.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}

	units := 0
	for offset < len(text) && text[offset] != '\n' && units < character {
		r, size := utf8.DecodeRune(text[offset:])
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > character {
			break
		}
		units += n
		offset += size
	}
	return offset
}
