package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())
}

func TestCodec_PlainMessages(t *testing.T) {
	c := Codec{}
	due := time.Date(2031, 1, 1, 12, 0, 0, 0, time.UTC)

	data, err := c.Marshal(&CreateTaskRequest{Title: "Buy milk", Priority: "low", DueDate: due})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Buy milk","description":"","priority":"low","due_date":"2031-01-01T12:00:00Z"}`, string(data))

	var got CreateTaskRequest
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, "Buy milk", got.Title)
	assert.True(t, due.Equal(got.DueDate))
}

func TestCodec_ProtoMessages(t *testing.T) {
	c := Codec{}

	data, err := c.Marshal(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"SERVING"}`, string(data))

	var got healthpb.HealthCheckResponse
	require.NoError(t, c.Unmarshal([]byte(`{"status":"NOT_SERVING","extra":1}`), &got))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got.GetStatus())
}

func TestCodec_UnmarshalError(t *testing.T) {
	var req LoginRequest
	assert.Error(t, Codec{}.Unmarshal([]byte(`{"email":`), &req))
}
