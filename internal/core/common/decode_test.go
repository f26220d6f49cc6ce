package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeCleanJSON(t *testing.T) {
	result := Decode[payload](`{"name": "alpha", "count": 3}`)

	assert.True(t, result.Ok)
	assert.Equal(t, "alpha", result.Value.Name)
	assert.Equal(t, 3, result.Value.Count)
}

func TestDecodeStripsMarkdownFence(t *testing.T) {
	response := "Here is the result:\n```json\n{\"name\": \"beta\", \"count\": 1}\n```\nDone."
	result := Decode[payload](response)

	assert.True(t, result.Ok)
	assert.Equal(t, "beta", result.Value.Name)
}

func TestDecodeMalformedKeepsRaw(t *testing.T) {
	response := `{"name": "gamma", "count": `
	result := Decode[payload](response)

	assert.False(t, result.Ok)
	assert.Equal(t, response, result.Raw)
}

func TestDecodeNoObjectKeepsRaw(t *testing.T) {
	result := Decode[payload]("the model refused to answer")

	assert.False(t, result.Ok)
	assert.Equal(t, "the model refused to answer", result.Raw)
}
