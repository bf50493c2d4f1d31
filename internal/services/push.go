package services

import (
	"context"
	"fmt"

	"vibe-check-backend/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushAlert is a user-visible push notification
type PushAlert struct {
	Title string
	Body  string
	Kind  string
	Data  map[string]string
}

// Pusher delivers push notifications to a device
type Pusher interface {
	Push(ctx context.Context, deviceToken string, alert PushAlert) error
}

// APNsPusher sends push notifications through Apple Push Notification service
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a token-authenticated APNs client
func NewAPNsPusher(cfg config.APNsConfig) (*APNsPusher, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{client: client, topic: cfg.Topic}, nil
}

// Push sends alert to deviceToken
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, alert PushAlert) error {
	pl := payload.NewPayload().
		AlertTitle(alert.Title).
		AlertBody(alert.Body).
		Sound("default").
		Custom("type", alert.Kind)
	for k, v := range alert.Data {
		pl = pl.Custom(k, v)
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
