package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("ute-7"),
		Value:     []byte(`{"lat":-34.0,"lon":151.0}`),
		Topic:     "vehicle-positions",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("gps")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("ute-7"), raw.Key)
	assert.JSONEq(t, `{"lat":-34.0,"lon":151.0}`, string(raw.Value))
	assert.Equal(t, "vehicle-positions", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "gps", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.AlertEvent{
		ID:       "8f0c4a52-1111-4e0b-9a43-3f8f1c1d2e3f",
		Message:  domain.AlertTierExtreme.BannerMessage("Princes Hwy"),
		Tier:     domain.AlertTierExtreme,
		RoadName: "Princes Hwy",
		Position: domain.Position{Lat: -34.0, Lon: 151.0},
		RaisedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("Princes Hwy"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "alert_id", msg.Headers[0].Key)
	assert.Equal(t, []byte(event.ID), msg.Headers[0].Value)
	assert.Equal(t, "tier", msg.Headers[1].Key)
	assert.Equal(t, []byte("extreme"), msg.Headers[1].Value)
	assert.Equal(t, "raised_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var roundtrip domain.AlertEvent
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, event.Message, roundtrip.Message)
	assert.Equal(t, event.Position, roundtrip.Position)
}
