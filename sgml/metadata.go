package sgml

import (
	"bytes"
	"encoding/json"
)

/*
This file provides the metadata tree returned by the parser.

Header and document metadata is a recursive structure: a tag either carries a
text value, opens a nested block of tags, or repeats at the same level. Value
models exactly those three shapes. Dict keeps its keys in first-appearance
order so that serializing a parsed submission reproduces the tag order of the
source filing. The types are shaped to work with json.Marshal, pretty
printing, and type switches out of the box. Dict's fields are unexported, so
comparing Dicts with cmp.Diff needs an option such as cmp.AllowUnexported.
*/

// Value is a node in the metadata tree: a Text leaf, a List of repeated
// values, or a nested *Dict block.
type Value interface {
	metadataValue()
}

// Text is a leaf value, the content following a tag.
type Text string

// List holds repeated occurrences of the same key at one nesting level, in
// source order.
type List []Value

// Dict is a nested tag block. Keys are ASCII-lowercased tag names and keep
// their insertion order.
type Dict struct {
	keys     []string
	children map[string]Value
}

func (Text) metadataValue()  {}
func (List) metadataValue()  {}
func (*Dict) metadataValue() {}

// NewDict creates a new empty Dict.
func NewDict() *Dict {
	return &Dict{children: make(map[string]Value)}
}

// Len returns the number of keys in the Dict.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Keys returns the Dict's keys in insertion order.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	value, ok := d.children[key]
	return value, ok
}

// Text returns the string stored under key, or false if the key is absent or
// not a Text leaf.
func (d *Dict) Text(key string) (string, bool) {
	value, ok := d.children[key]
	if !ok {
		return "", false
	}
	text, ok := value.(Text)
	return string(text), ok
}

// Set stores value under key, replacing any previous value. Document-level
// tag blocks have unique keys in practice, so they use replace semantics.
func (d *Dict) Set(key string, value Value) {
	if _, ok := d.children[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.children[key] = value
}

// Add inserts value under key. A repeated key promotes the existing value to
// a List and appends; an existing List just grows. This is the shared rule
// that lets filings repeat blocks such as <REPORTING-OWNER> at one level.
func (d *Dict) Add(key string, value Value) {
	existing, ok := d.children[key]
	if !ok {
		d.keys = append(d.keys, key)
		d.children[key] = value
		return
	}
	if list, ok := existing.(List); ok {
		d.children[key] = append(list, value)
		return
	}
	d.children[key] = List{existing, value}
}

// MarshalJSON writes the Dict as a JSON object with keys in insertion order.
func (d *Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(d.children[key])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
