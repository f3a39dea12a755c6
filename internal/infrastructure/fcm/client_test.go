package fcm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DisabledWithoutCredentials(t *testing.T) {
	c, err := NewClient(context.Background(), "", "", nil)
	require.NoError(t, err)
	assert.False(t, c.IsEnabled())

	_, err = c.SendMulticast(context.Background(), []string{"t"}, "title", "body", nil)
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage([]string{"a", "b"}, "BTC score 7/7", "ema20 > ema50", map[string]string{"symbol": "BTC"})

	assert.Equal(t, []string{"a", "b"}, msg.Tokens)
	assert.Equal(t, "BTC score 7/7", msg.Notification.Title)
	assert.Equal(t, "high", msg.Android.Priority)
	assert.Equal(t, ChannelID, msg.Android.Notification.ChannelID)
	assert.Equal(t, "BTC", msg.Data["symbol"])
}
