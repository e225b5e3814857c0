package templating

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canvas = `{
  "version": "5.3.0",
  "background": "#ffffff",
  "objects": [
    {"type": "textbox", "text": "Awarded to {{name}}", "left": 120.5, "fontSize": 42},
    {"type": "textbox", "text": "Congratulations, {{name}}!"},
    {"type": "textbox", "text": "Certificate {{id}}"},
    {"type": "textbox", "text": "Signed by the board & <staff>"},
    {"type": "rect", "fill": "#004488", "width": 1123}
  ]
}`

func texts(t *testing.T, doc []byte) []string {
	t.Helper()
	var parsed struct {
		Objects []map[string]interface{} `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	var out []string
	for _, o := range parsed.Objects {
		if s, ok := o["text"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestSubstituteReplacesEveryOccurrence(t *testing.T) {
	in := []byte(canvas)
	original := string(in)

	out, err := Substitute(in, Bindings{Name: "Ada Lovelace", ID: "c-42"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Awarded to Ada Lovelace",
		"Congratulations, Ada Lovelace!",
		"Certificate c-42",
		"Signed by the board & <staff>",
	}, texts(t, out))
	assert.Equal(t, original, string(in), "input must not be modified")
	assert.Contains(t, string(out), `"left":120.5`)
	assert.Contains(t, string(out), `"width":1123`)
	assert.NotContains(t, string(out), "{{")
}

func TestSubstituteSecondPassIsNoop(t *testing.T) {
	b := Bindings{Name: "Grace", Date: "01/02/2026", Program: "Go", ID: "x"}
	once, err := Substitute([]byte(canvas), b)
	require.NoError(t, err)

	tokens, err := Tokens(once)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	twice, err := Substitute(once, b)
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
}

func TestSubstituteMissingBindings(t *testing.T) {
	doc := []byte(`{"objects":[{"text":"{{name}} finished {{program}} on {{date}} ({{id}})"}]}`)
	out, err := Substitute(doc, Bindings{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Participant finished Program on Date (ID)"}, texts(t, out))
}

func TestSubstituteDoesNotCascade(t *testing.T) {
	doc := []byte(`{"objects":[{"text":"{{name}}"}]}`)
	out, err := Substitute(doc, Bindings{Name: "{{id}}", ID: "leak"})
	require.NoError(t, err)
	assert.Equal(t, []string{"{{id}}"}, texts(t, out))
}

func TestSubstituteNoTokens(t *testing.T) {
	doc := []byte(`{"objects":[{"text":"plain"}],"n":1e3}`)
	out, err := Substitute(doc, Bindings{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, `{"n":1e3,"objects":[{"text":"plain"}]}`, string(out))
}

func TestSubstituteRejectsInvalidDocuments(t *testing.T) {
	_, err := Substitute(nil, Bindings{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
	_, err = Substitute([]byte("null"), Bindings{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
	_, err = Substitute([]byte(`{"objects":[`), Bindings{})
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	tokens, err := Tokens([]byte(canvas))
	require.NoError(t, err)
	assert.Equal(t, []string{TokenName, TokenID}, tokens)

	tokens, err = Tokens([]byte(`["{{program}}", {"k": "{{date}} {{name}}"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{TokenName, TokenDate, TokenProgram}, tokens)
}
