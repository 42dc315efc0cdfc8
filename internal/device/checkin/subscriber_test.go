package checkin

import (
	"context"
	"errors"
	"testing"

	"update-tracker/internal/device/domain"
	"update-tracker/internal/device/usecase"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type fakeRecorder struct {
	err   error
	calls []usecase.CheckInRequest
}

func (r *fakeRecorder) CheckIn(ctx context.Context, id string, req usecase.CheckInRequest) (*domain.DeviceRecord, error) {
	r.calls = append(r.calls, req)
	if r.err != nil {
		return nil, r.err
	}
	return &domain.DeviceRecord{ID: id, CurrentVersion: req.Version}, nil
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		err     error
		ack     bool
		records int
	}{
		{"recorded", `{"device_id":"d1","version":"1.2","push_token":"tok"}`, nil, true, 1},
		{"malformed", `{"device_id":`, nil, true, 0},
		{"no device", `{"version":"1.2"}`, nil, true, 0},
		{"unknown device", `{"device_id":"d1","version":"1.2"}`, apperr.NotFound("device d1 not found"), true, 1},
		{"bad version", `{"device_id":"d1","version":""}`, apperr.InvalidArgument("version is required"), true, 1},
		{"storage down", `{"device_id":"d1","version":"1.2"}`, apperr.Internal("failed to record check-in", errors.New("db closed")), false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{err: tt.err}
			s := &Subscriber{recorder: recorder, subName: "checkins", log: logger.Discard()}

			assert.Equal(t, tt.ack, s.Handle(context.Background(), []byte(tt.data)))
			assert.Len(t, recorder.calls, tt.records)
		})
	}
}

func TestHandlePassesToken(t *testing.T) {
	recorder := &fakeRecorder{}
	s := &Subscriber{recorder: recorder, log: logger.Discard()}

	s.Handle(context.Background(), []byte(`{"device_id":"d1","version":"2.0","push_token":"abc"}`))
	assert.Equal(t, usecase.CheckInRequest{Version: "2.0", PushToken: "abc"}, recorder.calls[0])
}
