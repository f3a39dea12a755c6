package fcm

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// MaxMulticastTokens is the FCM limit on tokens per multicast request.
const MaxMulticastTokens = 500

// ChannelID is the Android notification channel used for score alerts.
const ChannelID = "ta_alerts"

type Client struct {
	client *messaging.Client
	log    *slog.Logger
}

// NewClient initializes Firebase Cloud Messaging from a credentials file or
// an inline JSON document. With neither, the client is disabled.
func NewClient(ctx context.Context, credPath, credJSON string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	var opt option.ClientOption
	switch {
	case credPath != "":
		opt = option.WithCredentialsFile(credPath)
	case credJSON != "":
		opt = option.WithCredentialsJSON([]byte(credJSON))
	default:
		log.Warn("no Firebase credentials found, FCM disabled")
		return &Client{log: log}, nil
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	log.Info("Firebase Cloud Messaging initialized")
	return &Client{client: client, log: log}, nil
}

// SendMulticast sends a notification to tokens in batches of
// MaxMulticastTokens and returns the tokens FCM reports as unregistered.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("FCM client not initialized")
	}

	var invalid []string
	for start := 0; start < len(tokens); start += MaxMulticastTokens {
		batch := tokens[start:min(start+MaxMulticastTokens, len(tokens))]

		response, err := c.client.SendEachForMulticast(ctx, buildMessage(batch, title, body, data))
		if err != nil {
			return invalid, fmt.Errorf("error sending multicast: %w", err)
		}

		for i, r := range response.Responses {
			if r.Success || r.Error == nil {
				continue
			}
			if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
				invalid = append(invalid, batch[i])
			}
		}

		c.log.InfoContext(ctx, "sent push batch",
			"success", response.SuccessCount,
			"failure", response.FailureCount,
		)
	}
	return invalid, nil
}

// IsEnabled returns true if FCM client is initialized
func (c *Client) IsEnabled() bool {
	return c.client != nil
}

func buildMessage(tokens []string, title, body string, data map[string]string) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: ChannelID,
				Priority:  messaging.PriorityHigh,
			},
		},
	}
}
