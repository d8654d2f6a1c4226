package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-service/internal/models"
)

func TestDecodeLocationMissingLatitude(t *testing.T) {
	v := New()
	var in models.LocationInput

	err := v.Decode(json.RawMessage(`{"longitude":"-73.98"}`), &in)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
	assert.Equal(t, "validation error: latitude is required", err.Error())
}

func TestDecodeLocationOutOfRange(t *testing.T) {
	v := New()
	var in models.LocationInput

	err := v.Decode(json.RawMessage(`{"latitude":"91.5","longitude":"10","status":"busy"}`), &in)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
	assert.Contains(t, verr.Problems[0], "latitude")
	assert.Equal(t, "status must be one of: active, away, offline", verr.Problems[1])
}

func TestDecodeValidLocation(t *testing.T) {
	v := New()
	var in models.LocationInput

	err := v.Decode(json.RawMessage(`{"latitude":"40.7128","longitude":"-74.0060","locationName":"HQ"}`), &in)

	require.NoError(t, err)
	assert.Equal(t, "40.7128", in.Latitude)
	require.NotNil(t, in.LocationName)
	assert.Equal(t, "HQ", *in.LocationName)
}

func TestDecodeEmptyPayload(t *testing.T) {
	v := New()
	var in models.ChatMessageInput

	err := v.Decode(nil, &in)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	err = v.Decode(json.RawMessage(`"text"`), &in)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestAuthenticatePayload(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(models.AuthenticatePayload{UserID: 3}))
	assert.ErrorIs(t, v.Struct(models.AuthenticatePayload{}), ErrInvalidPayload)
}
