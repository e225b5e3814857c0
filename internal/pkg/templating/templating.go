// Package templating fills placeholder tokens inside serialized canvas documents.
package templating

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	TokenName    = "{{name}}"
	TokenDate    = "{{date}}"
	TokenProgram = "{{program}}"
	TokenID      = "{{id}}"
)

var allTokens = []string{TokenName, TokenDate, TokenProgram, TokenID}

// Bindings are the per-recipient values. Empty fields are replaced by neutral labels.
type Bindings struct {
	Name    string
	Date    string
	Program string
	ID      string
}

// ErrEmptyDocument is returned for a missing or null document.
var ErrEmptyDocument = errors.New("design document is empty")

func (b Bindings) replacer() *strings.Replacer {
	return strings.NewReplacer(
		TokenName, orDefault(b.Name, "Participant"),
		TokenDate, orDefault(b.Date, "Date"),
		TokenProgram, orDefault(b.Program, "Program"),
		TokenID, orDefault(b.ID, "ID"),
	)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Substitute returns a copy of doc with every token in every string value replaced.
// Object keys, numbers and structure are preserved; doc itself is never modified.
func Substitute(doc []byte, b Bindings) ([]byte, error) {
	root, err := decode(doc)
	if err != nil {
		return nil, err
	}
	r := b.replacer()
	root = walk(root, func(s string) string { return r.Replace(s) })
	return encode(root)
}

// Tokens lists the placeholders used anywhere in doc, in canonical order.
func Tokens(doc []byte) ([]string, error) {
	root, err := decode(doc)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{})
	walk(root, func(s string) string {
		for _, tok := range allTokens {
			if strings.Contains(s, tok) {
				found[tok] = struct{}{}
			}
		}
		return s
	})

	out := make([]string, 0, len(found))
	for tok := range found {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool { return indexOf(out[i]) < indexOf(out[j]) })
	return out, nil
}

func indexOf(tok string) int {
	for i, t := range allTokens {
		if t == tok {
			return i
		}
	}
	return len(allTokens)
}

func decode(doc []byte) (interface{}, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyDocument
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode design document: %w", err)
	}
	return root, nil
}

func encode(root interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode design document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// walk rebuilds the tree, applying fn to string leaves. Decoded maps and slices are
// fresh values, so rewriting them in place does not touch the caller's bytes.
func walk(node interface{}, fn func(string) string) interface{} {
	switch v := node.(type) {
	case string:
		return fn(v)
	case map[string]interface{}:
		for k, child := range v {
			v[k] = walk(child, fn)
		}
		return v
	case []interface{}:
		for i, child := range v {
			v[i] = walk(child, fn)
		}
		return v
	default:
		return v
	}
}
