package rabbitmq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdash/internal/model"
)

func TestDecodeActivity(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	payload, err := EncodeActivity(model.ActivityEvent{ID: 42, Kind: model.ActivityQuery, Status: model.ActivitySuccess, Subject: "q", CreatedAt: at})
	require.NoError(t, err)

	event, err := DecodeActivity(payload)
	require.NoError(t, err)
	assert.Zero(t, event.ID)
	assert.Equal(t, model.ActivityQuery, event.Kind)
	assert.True(t, event.CreatedAt.Equal(at))

	_, err = DecodeActivity([]byte(`{"status":"success"}`))
	assert.Error(t, err)
	_, err = DecodeActivity([]byte(`not json`))
	assert.Error(t, err)
}
