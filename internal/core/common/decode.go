package common

import (
	"encoding/json"
)

// DecodeResult is the outcome of decoding model output against a shape T.
// Either Ok is true and Value holds the data, or Ok is false and Raw holds the
// text that failed to decode. Malformed output is a value, not an error
// channel.
type DecodeResult[T any] struct {
	Ok    bool
	Value T
	Raw   string
}

// Decode cleans and unmarshals a JSON object from model output. It trims
// common LLM quirks like surrounding markdown fences or preamble text by
// slicing from the first '{' to the last '}'.
func Decode[T any](response string) DecodeResult[T] {
	jsonStr := response

	start := -1
	end := -1
	for i, c := range jsonStr {
		if c == '{' {
			start = i
			break
		}
	}
	for i := len(jsonStr) - 1; i >= 0; i-- {
		if jsonStr[i] == '}' {
			end = i + 1
			break
		}
	}

	if start == -1 || end == -1 || start >= end {
		return DecodeResult[T]{Raw: response}
	}
	jsonStr = jsonStr[start:end]

	var value T
	if err := json.Unmarshal([]byte(jsonStr), &value); err != nil {
		return DecodeResult[T]{Raw: response}
	}
	return DecodeResult[T]{Ok: true, Value: value}
}
