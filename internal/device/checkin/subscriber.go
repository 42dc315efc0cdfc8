// Package checkin consumes device version reports from a Pub/Sub subscription.
package checkin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"update-tracker/internal/device/domain"
	"update-tracker/internal/device/usecase"
	"update-tracker/pkg/apperr"

	"cloud.google.com/go/pubsub"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Message is the payload published by devices on every launch
type Message struct {
	DeviceID  string `json:"device_id"`
	Version   string `json:"version"`
	PushToken string `json:"push_token,omitempty"`
}

// Recorder stores a check-in
type Recorder interface {
	CheckIn(ctx context.Context, id string, req usecase.CheckInRequest) (*domain.DeviceRecord, error)
}

type Subscriber struct {
	pubsubClient *pubsub.Client
	recorder     Recorder
	subName      string
	log          *log.Entry
}

func NewSubscriber(ctx context.Context, projectID, subName, credentialsFile string, recorder Recorder, logger *log.Entry) (*Subscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Subscriber{
		pubsubClient: client,
		recorder:     recorder,
		subName:      subName,
		log:          logger,
	}, nil
}

// Start blocks receiving messages until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) {
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to check subscription")
		return
	}
	if !exists {
		s.log.WithField("subscription", s.subName).Error("subscription does not exist, check-in consumer disabled")
		return
	}

	s.log.WithField("subscription", s.subName).Info("listening for device check-ins")
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.Handle(ctx, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).Error("error receiving check-ins")
	}
}

// Handle applies one message and reports whether it should be acknowledged.
// Malformed payloads and unknown devices are acknowledged and dropped; only
// storage failures are redelivered.
func (s *Subscriber) Handle(ctx context.Context, data []byte) bool {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.WithError(err).Warn("dropping malformed check-in")
		return true
	}
	if m.DeviceID == "" {
		s.log.Warn("dropping check-in without device_id")
		return true
	}

	_, err := s.recorder.CheckIn(ctx, m.DeviceID, usecase.CheckInRequest{Version: m.Version, PushToken: m.PushToken})
	if err == nil {
		return true
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindInvalidArgument:
		s.log.WithFields(log.Fields{"device_id": m.DeviceID, "kind": apperr.KindOf(err)}).Warn("dropping check-in")
		return true
	default:
		s.log.WithError(err).WithField("device_id", m.DeviceID).Error("failed to record check-in")
		return false
	}
}

func (s *Subscriber) Close() error {
	return s.pubsubClient.Close()
}
