package nexio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/yourorg/nexio-gateway/internal/adapter"
)

var (
	errNotObject    = errors.New("response body is not a JSON object")
	errTrailingData = errors.New("response body has data after the JSON object")
)

// parse decodes a response body into a map, keeping numbers as json.Number.
// An empty body is an empty object. The object must be the whole body.
func parse(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errNotObject
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return payload, nil
}

// normalize maps a parsed 2xx payload. Params stay empty unless success.
func (b *base) normalize(payload map[string]any, success bool) *adapter.Response {
	id := stringValue(payload["id"])
	resp := &adapter.Response{
		Success:              success,
		Params:               map[string]any{},
		Authorization:        id,
		AVSResult:            buildAVSResult(payload["avsResults"]),
		CVVResult:            buildCVVResult(payload["cvcResults"]),
		Test:                 b.cfg.Test,
		NetworkTransactionID: id,
	}
	if success {
		resp.Params = payload
	}
	return resp
}

// errorResponse maps a non-2xx answer. The body is parsed best effort.
func (b *base) errorResponse(status int, raw []byte) *adapter.Response {
	body, err := parse(raw)
	if err != nil {
		body = map[string]any{}
	}
	code := stringValue(body["error"])
	if code == "" {
		code = strconv.Itoa(status)
	}
	return b.failure(code, stringValue(body["message"]))
}

func (b *base) failure(code, message string) *adapter.Response {
	return &adapter.Response{
		Success:   false,
		Message:   message,
		Params:    map[string]any{},
		Test:      b.cfg.Test,
		ErrorCode: code,
	}
}

func buildAVSResult(v any) *adapter.AVSResult {
	data, ok := v.(map[string]any)
	if !ok || len(data) == 0 {
		return nil
	}
	return &adapter.AVSResult{
		StreetMatch: stringValue(data["matchAddress"]),
		PostalMatch: stringValue(data["matchPostal"]),
	}
}

func buildCVVResult(v any) *adapter.CVVResult {
	data, ok := v.(map[string]any)
	if !ok || len(data) == 0 {
		return nil
	}
	msg, _ := data["gatewayMessage"].(map[string]any)
	return &adapter.CVVResult{Code: stringValue(msg["cvvresponse"])}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}
