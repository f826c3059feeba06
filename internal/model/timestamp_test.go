package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"no zone", `"2024-05-01T10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"unix millis", `1714557600000`, time.UnixMilli(1714557600000)},
		{"garbage", `"yesterday-ish"`, time.Time{}},
		{"null", `null`, time.Time{}},
		{"object", `{}`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestamp_BadValueDoesNotBreakMessage(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{"id":"m1","conversationId":"c1","content":"hi","createdAt":"??"}`), &msg)
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, RecentlyLabel, msg.CreatedAt.Label())
}

func TestParticipant_DisplayName(t *testing.T) {
	var nobody *Participant
	assert.Empty(t, nobody.DisplayName())
	assert.Equal(t, "Ann", (&Participant{Name: "Ann", Email: "a@x.io"}).DisplayName())
	assert.Equal(t, "a@x.io", (&Participant{Email: "a@x.io"}).DisplayName())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("Shipping")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipping, s)

	_, err = ParseOrderStatus("lost")
	assert.Error(t, err)
}

func TestPaginate_HasNext(t *testing.T) {
	assert.True(t, Paginate{Page: 1, TotalPage: 3}.HasNext())
	assert.False(t, Paginate{Page: 3, TotalPage: 3}.HasNext())
	assert.False(t, Paginate{}.HasNext())
}
