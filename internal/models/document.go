package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

// ErrEmptyDocument is returned when the content has no node type.
var ErrEmptyDocument = errors.New("document has no type")

// Document is a rich-text node tree as produced by the editor. The root node
// is normally of type "doc".
type Document struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Document     `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Mark is inline formatting applied to a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// ParseDocument decodes a serialized document tree.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if dec.More() {
		return Document{}, errors.New("decode document: trailing data")
	}
	if doc.Type == "" {
		return Document{}, ErrEmptyDocument
	}
	return doc, nil
}

// CompactDocument checks that raw is a document tree and returns the submitted
// bytes with insignificant whitespace removed. Keys the editor adds beyond the
// node fields are kept as submitted.
func CompactDocument(raw []byte) (datatypes.JSON, error) {
	if _, err := ParseDocument(raw); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("compact document: %w", err)
	}
	return datatypes.JSON(buf.Bytes()), nil
}

// Encode serializes a document built in code into its stored column form.
func (d Document) Encode() (datatypes.JSON, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return datatypes.JSON(b), nil
}

// Document decodes the stored article content.
func (p *Post) Document() (Document, error) {
	return ParseDocument(p.ArticleContent)
}
