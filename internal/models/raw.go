package models

import (
	"errors"

	"github.com/tidwall/gjson"
)

var errInvalidJSON = errors.New("invalid json document")

// RawProfile is an upstream profile record. Its shape is not guaranteed, so
// fields are read by path and checked for presence at use.
type RawProfile struct {
	doc gjson.Result
}

// NewRawProfile wraps a JSON object returned by the upstream.
func NewRawProfile(data []byte) (RawProfile, error) {
	if !gjson.ValidBytes(data) {
		return RawProfile{}, errInvalidJSON
	}
	return RawProfile{doc: gjson.ParseBytes(data)}, nil
}

// Get returns the value at path (gjson syntax).
func (p RawProfile) Get(path string) gjson.Result {
	return p.doc.Get(path)
}

// Root returns the whole document.
func (p RawProfile) Root() gjson.Result {
	return p.doc
}

// Raw returns the underlying JSON text.
func (p RawProfile) Raw() string {
	return p.doc.Raw
}

// RawPost is one upstream feed entry from a profile's activity.
type RawPost struct {
	doc gjson.Result
}

// NewRawPost wraps a JSON object returned by the upstream.
func NewRawPost(data []byte) (RawPost, error) {
	if !gjson.ValidBytes(data) {
		return RawPost{}, errInvalidJSON
	}
	return RawPost{doc: gjson.ParseBytes(data)}, nil
}

// RawPostFromResult wraps an already parsed element.
func RawPostFromResult(r gjson.Result) RawPost {
	return RawPost{doc: r}
}

// Get returns the value at path (gjson syntax).
func (p RawPost) Get(path string) gjson.Result {
	return p.doc.Get(path)
}

// Root returns the whole document.
func (p RawPost) Root() gjson.Result {
	return p.doc
}

// Raw returns the underlying JSON text.
func (p RawPost) Raw() string {
	return p.doc.Raw
}
