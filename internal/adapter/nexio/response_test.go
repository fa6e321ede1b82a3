package nexio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/nexio-gateway/internal/adapter"
)

func TestParse(t *testing.T) {
	payload, err := parse(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)

	payload, err = parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, payload)

	payload, err = parse([]byte(`{"amount": 12.30, "id": "tx"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12.30"), payload["amount"], "numbers keep their text")

	payload, err = parse([]byte("{\"id\": \"tx\"}\n\t "))
	require.NoError(t, err, "trailing whitespace is fine")
	assert.Equal(t, "tx", payload["id"])

	for _, bad := range []string{"null", "[]", "42", "{broken"} {
		_, err := parse([]byte(bad))
		assert.Error(t, err, bad)
	}

	for _, trailing := range []string{`{"id":"tx"}<html>oops</html>`, `{"id":"tx"}{"id":"tx2"}`, `{"id":"tx"} 42`} {
		_, err := parse([]byte(trailing))
		assert.ErrorIs(t, err, errTrailingData, trailing)
	}
}

func TestBuildAVSResult(t *testing.T) {
	assert.Nil(t, buildAVSResult(nil))
	assert.Nil(t, buildAVSResult(map[string]any{}))
	assert.Nil(t, buildAVSResult("not a section"))

	assert.Equal(t, &adapter.AVSResult{StreetMatch: "true", PostalMatch: "false"},
		buildAVSResult(map[string]any{"matchAddress": true, "matchPostal": false}))
	assert.Equal(t, &adapter.AVSResult{StreetMatch: "A", PostalMatch: ""},
		buildAVSResult(map[string]any{"matchAddress": "A"}))
}

func TestBuildCVVResult(t *testing.T) {
	assert.Nil(t, buildCVVResult(nil))
	assert.Nil(t, buildCVVResult(map[string]any{}))

	assert.Equal(t, &adapter.CVVResult{Code: "N"},
		buildCVVResult(map[string]any{"gatewayMessage": map[string]any{"cvvresponse": "N"}}))
	assert.Equal(t, &adapter.CVVResult{},
		buildCVVResult(map[string]any{"matchCvv": true}), "section present without a gateway message")
}

func TestErrorResponse(t *testing.T) {
	b := testBase(true)

	resp := b.errorResponse(422, []byte(`{"error":"card_declined","message":"Declined"}`))
	assert.False(t, resp.Success)
	assert.True(t, resp.Test)
	assert.Equal(t, "card_declined", resp.ErrorCode)
	assert.Equal(t, "Declined", resp.Message)
	assert.Empty(t, resp.Params)

	resp = b.errorResponse(503, []byte("Service Unavailable"))
	assert.Equal(t, "503", resp.ErrorCode)
	assert.Empty(t, resp.Message)
}
