package extism

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// callInput is the JSON document passed to the plugin function.
type callInput struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func encodeInput(a, b float64) ([]byte, error) {
	return json.Marshal(callInput{A: a, B: b})
}

// decodeOutput accepts a bare JSON number, {"result": n}, or plain text
// holding a number. Anything after the first value is rejected.
func decodeOutput(output []byte) (float64, error) {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("%w: empty output", ErrUnexpectedOutput)
	}

	d := json.NewDecoder(bytes.NewReader(trimmed))
	d.UseNumber()

	var result any
	if err := d.Decode(&result); err != nil {
		if f, perr := strconv.ParseFloat(strings.TrimSpace(string(trimmed)), 64); perr == nil {
			return f, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnexpectedOutput, trimmed)
	}
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: trailing data in %q", ErrUnexpectedOutput, trimmed)
	}

	switch v := result.(type) {
	case json.Number:
		return v.Float64()
	case map[string]any:
		if n, ok := v["result"].(json.Number); ok {
			return n.Float64()
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnexpectedOutput, trimmed)
}
