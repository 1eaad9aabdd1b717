package ocrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"unitcam/internal/services"
)

// Value is an extracted value. The service normally sends numbers but echoes
// the raw text when a reading could not be parsed.
type Value struct {
	text    string
	number  float64
	numeric bool
}

// NumberValue builds a numeric Value.
func NumberValue(v float64) Value {
	return Value{number: v, numeric: true}
}

// TextValue builds a textual Value.
func TextValue(s string) Value {
	return Value{text: s}
}

// String renders the value the way it is shown to the user.
func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return v.text
}

// IsZero reports whether no value was decoded.
func (v Value) IsZero() bool {
	return !v.numeric && v.text == ""
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = NumberValue(f)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return json.Marshal(v.number)
	}
	if v.text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(v.text)
}

// Item is one accepted (value, unit) pair.
type Item struct {
	Value Value  `json:"value"`
	Unit  string `json:"unit"`
}

// SkippedItem is a pair the service rejected, with its reason.
type SkippedItem struct {
	Value  Value  `json:"value"`
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

// ExtractionResult is the decoded outcome of one submission.
type ExtractionResult struct {
	Inserted []Item
	Skipped  []SkippedItem
}

// Empty reports whether no pair was accepted.
func (r ExtractionResult) Empty() bool {
	return len(r.Inserted) == 0
}

type ocrRequest struct {
	Image string `json:"image"`
}

type ocrResponse struct {
	envelope
	Inserted []Item        `json:"inserted"`
	Skipped  []SkippedItem `json:"skipped"`
}

// Submit posts an encoded frame (a data URL) to /ocr.
func (c *Client) Submit(ctx context.Context, image string) (ExtractionResult, error) {
	const op = "submit"
	var empty ExtractionResult
	if strings.TrimSpace(image) == "" {
		return empty, services.Wrap(services.ErrValidation, component, op, "image required", nil)
	}
	status, data, err := c.do(ctx, http.MethodPost, "/ocr", ocrRequest{Image: image}, op)
	if err != nil {
		return empty, err
	}
	var parsed ocrResponse
	if err := decode(op, status, data, &parsed); err != nil {
		return empty, err
	}
	if !parsed.ok(status) {
		return empty, parsed.serverError(op, status)
	}
	result := ExtractionResult{Inserted: parsed.Inserted, Skipped: parsed.Skipped}
	if result.Inserted == nil {
		result.Inserted = []Item{}
	}
	if result.Skipped == nil {
		result.Skipped = []SkippedItem{}
	}
	return result, nil
}
