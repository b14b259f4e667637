package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeForm_Empty(t *testing.T) {
	assert.Equal(t, "", EncodeForm(nil))
	assert.Equal(t, "", EncodeForm(&Form{}))
}

func TestEncodeForm_InsertionOrder(t *testing.T) {
	var f Form
	f.Set("zeta", "1")
	f.Set("alpha", "2")
	f.Set("mid", "3")

	assert.Equal(t, "zeta=1&alpha=2&mid=3", EncodeForm(&f))
}

func TestEncodeForm_LastValueWins(t *testing.T) {
	var f Form
	f.Set("name", "first")
	f.Set("other", "x")
	f.Set("name", "second")

	assert.Equal(t, "name=second&other=x", EncodeForm(&f))
	assert.Equal(t, 2, f.Len())

	value, ok := f.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestEncodeForm_Escaping(t *testing.T) {
	var f Form
	f.Set("full name", "Jane Doe")
	f.Set("q", "a&b=c+d/é")

	body := EncodeForm(&f)
	assert.Equal(t, "full+name=Jane+Doe&q=a%26b%3Dc%2Bd%2F%C3%A9", body)

	// The standard library decoder agrees with the encoding
	values, err := url.ParseQuery(body)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", values.Get("full name"))
	assert.Equal(t, "a&b=c+d/é", values.Get("q"))
}

func TestForm_RoundTrip(t *testing.T) {
	pairs := []FormField{
		{Name: "user", Value: "alice"},
		{Name: "pass word", Value: "p@ss w0rd!"},
		{Name: "emoji", Value: "🙂"},
		{Name: "empty", Value: ""},
		{Name: "symbols", Value: "%+&=?#"},
	}

	for _, pair := range pairs {
		t.Run(pair.Name, func(t *testing.T) {
			var f Form
			f.Set(pair.Name, pair.Value)

			decoded, err := DecodeForm(EncodeForm(&f))
			require.NoError(t, err)
			assert.Equal(t, []FormField{pair}, decoded.Fields())
		})
	}

	var all Form
	for _, pair := range pairs {
		all.Set(pair.Name, pair.Value)
	}
	decoded, err := DecodeForm(EncodeForm(&all))
	require.NoError(t, err)
	assert.Equal(t, pairs, decoded.Fields())
}

func TestDecodeForm_Invalid(t *testing.T) {
	_, err := DecodeForm("a=%zz")
	assert.Error(t, err)

	f, err := DecodeForm("")
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}
