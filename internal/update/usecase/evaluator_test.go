package usecase

import (
	"context"
	"errors"
	"testing"

	versiondomain "update-tracker/internal/version/domain"
	"update-tracker/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRetiredMandatoryVersion(t *testing.T) {
	f := newFixture(t)
	f.androidPolicy(t)
	f.device(t, "d1", "ANDROID", "1.0")

	v, err := f.updates.Evaluate(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, v.UpdateAvailable)
	assert.Equal(t, "1.0", v.CurrentVersion)
	assert.Equal(t, "2.0", v.TargetVersion)
	assert.Equal(t, versiondomain.UrgencyMandatory, v.Urgency)
	assert.Equal(t, "user-d1", v.UserID)
}

func TestEvaluateClassification(t *testing.T) {
	f := newFixture(t)
	f.androidPolicy(t)

	tests := []struct {
		version   string
		available bool
		target    string
		urgency   versiondomain.UpdateUrgency
	}{
		{"2.0", false, "2.0", versiondomain.UrgencyUnavailable},
		{"1.5", true, "2.0", versiondomain.UrgencyOptional},
		{"1.0", true, "2.0", versiondomain.UrgencyMandatory},
		{"0.9", true, "2.0", versiondomain.UrgencyDeprecated},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			id := "dev-" + tt.version
			f.device(t, id, "ANDROID", tt.version)

			v, err := f.updates.Evaluate(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.available, v.UpdateAvailable)
			assert.Equal(t, tt.version, v.CurrentVersion)
			assert.Equal(t, tt.target, v.TargetVersion)
			assert.Equal(t, tt.urgency, v.Urgency)
		})
	}
}

func TestEvaluateUnflaggedOldVersionIsCurrent(t *testing.T) {
	f := newFixture(t)
	f.version(t, "3.0", "IOS", "UNAVAILABLE", true)
	f.version(t, "2.0", "IOS", "UNAVAILABLE", false)
	f.device(t, "d1", "IOS", "2.0")

	v, err := f.updates.Evaluate(context.Background(), "d1")
	require.NoError(t, err)
	assert.False(t, v.UpdateAvailable)
	assert.Equal(t, "2.0", v.TargetVersion)
}

func TestEvaluateFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.updates.Evaluate(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	f.device(t, "ios", "IOS", "1.0")
	_, err = f.updates.Evaluate(ctx, "ios")
	assert.True(t, errors.Is(err, apperr.ErrPolicyUnavailable))

	f.androidPolicy(t)
	f.device(t, "unknown", "ANDROID", "1.7")
	_, err = f.updates.Evaluate(ctx, "unknown")
	assert.True(t, errors.Is(err, apperr.ErrUnknownVersion))
}

func TestEvaluateDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	f.androidPolicy(t)
	f.device(t, "d1", "ANDROID", "0.9")

	_, err := f.updates.Evaluate(context.Background(), "d1")
	require.NoError(t, err)

	d, err := f.devices.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "0.9", d.CurrentVersion)
}
