package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	deviceRepo "update-tracker/internal/device/repository"
	deviceUsecase "update-tracker/internal/device/usecase"
	"update-tracker/internal/notification/domain"
	"update-tracker/internal/notification/repository"
	"update-tracker/internal/testutil"
	updatedomain "update-tracker/internal/update/domain"
	updateUsecase "update-tracker/internal/update/usecase"
	versiondomain "update-tracker/internal/version/domain"
	versionRepo "update-tracker/internal/version/repository"
	versionUsecase "update-tracker/internal/version/usecase"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/fcm"
	"update-tracker/pkg/logger"
	"update-tracker/pkg/metrics"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	mu   sync.Mutex
	fail bool
	sent []string
}

func (p *fakePusher) SendToDevice(ctx context.Context, token string, n fcm.NotificationData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("fcm unavailable")
	}
	p.sent = append(p.sent, token)
	return nil
}

type fixture struct {
	notifications NotificationUsecase
	repo          repository.NotificationRepository
	devices       deviceUsecase.DeviceUsecase
	versions      versionUsecase.VersionUsecase
}

func newFixture(t *testing.T, pusher Pusher) *fixture {
	db := testutil.NewDB(t)
	c := testutil.NewCache()
	versions := versionUsecase.NewVersionUsecase(versionRepo.NewGormVersionRepository(db), c, false, logger.Discard())
	devices := deviceUsecase.NewDeviceUsecase(deviceRepo.NewGormDeviceRepository(db), versions, c, logger.Discard())
	updates := updateUsecase.NewUpdateUsecase(versions, devices, 2, metrics.NewNop(), logger.Discard())
	repo := repository.NewGormNotificationRepository(db)
	return &fixture{
		notifications: NewNotificationUsecase(repo, updates, devices, pusher, c, metrics.NewNop(), logger.Discard()),
		repo:          repo,
		devices:       devices,
		versions:      versions,
	}
}

func (f *fixture) policy(t *testing.T) {
	for _, req := range []versionUsecase.CreateVersionRequest{
		{Version: "2.0", Platform: "ANDROID", Urgency: "UNAVAILABLE", Active: true},
		{Version: "1.0", Platform: "ANDROID", Urgency: "MANDATORY"},
		{Version: "1.5", Platform: "ANDROID", Urgency: "OPTIONAL"},
		{Version: "0.9", Platform: "ANDROID", Urgency: "DEPRECATED"},
	} {
		_, err := f.versions.Create(context.Background(), req)
		require.NoError(t, err)
	}
}

func (f *fixture) device(t *testing.T, id, version, token string) {
	t.Helper()
	_, err := f.devices.Register(context.Background(), deviceUsecase.RegisterDeviceRequest{
		ID: id, UserID: "u1", Platform: "ANDROID", CurrentVersion: version, PushToken: token,
	})
	require.NoError(t, err)
}

func mandatory(deviceID string) *updatedomain.Verdict {
	return &updatedomain.Verdict{
		DeviceID:        deviceID,
		UserID:          "u1",
		UpdateAvailable: true,
		CurrentVersion:  "1.0",
		TargetVersion:   "2.0",
		Urgency:         versiondomain.UrgencyMandatory,
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	n, err := f.notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, domain.StatusPending, n.Status)
	assert.Equal(t, Message(versiondomain.UrgencyMandatory, "2.0"), n.Message)

	again, err := f.notifications.Create(ctx, mandatory("d1"), "different text")
	require.NoError(t, err)
	assert.Nil(t, again)

	// A different target is a different notification
	v := mandatory("d1")
	v.TargetVersion = "2.1"
	other, err := f.notifications.Create(ctx, v, "")
	require.NoError(t, err)
	assert.NotNil(t, other)

	list, err := f.notifications.ListByDevice(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.notifications.Create(ctx, &updatedomain.Verdict{}, "")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestSuppressedDuplicateLogsExistingRecord(t *testing.T) {
	f := newFixture(t, nil)
	l, hook := logtest.NewNullLogger()
	l.SetLevel(log.DebugLevel)
	notifications := NewNotificationUsecase(f.repo, nil, nil, nil, testutil.NewCache(), metrics.NewNop(), log.NewEntry(l))
	ctx := context.Background()

	first, err := notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	_, err = notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "duplicate notification suppressed", entry.Message)
	assert.Equal(t, first.ID, entry.Data["existing_id"])
	assert.Equal(t, domain.StatusPending, entry.Data["existing_status"])
}

func TestMarkReadAndDismissed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	second, err := f.notifications.Create(ctx, mandatory("d2"), "")
	require.NoError(t, err)

	unread, err := f.notifications.ListUnreadByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := f.notifications.MarkRead(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, n.Status)
	require.NotNil(t, n.ReadAt)

	n, err = f.notifications.MarkDismissed(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDismissed, n.Status)

	_, err = f.notifications.MarkDismissed(ctx, second.ID)
	require.NoError(t, err)
	n, err = f.notifications.MarkRead(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, n.Status)

	stored, err := f.notifications.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, stored.Status)
	assert.NotNil(t, stored.ReadAt)

	unread, err = f.notifications.ListUnreadByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := f.notifications.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.notifications.MarkRead(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	pending, err := f.notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	read, err := f.notifications.Create(ctx, mandatory("d2"), "")
	require.NoError(t, err)
	dismissed, err := f.notifications.Create(ctx, mandatory("d3"), "")
	require.NoError(t, err)
	_, err = f.notifications.MarkRead(ctx, read.ID)
	require.NoError(t, err)
	_, err = f.notifications.MarkDismissed(ctx, dismissed.ID)
	require.NoError(t, err)

	// Nothing is 30 days old yet
	removed, err := f.notifications.PurgeExpired(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = f.notifications.PurgeExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = f.notifications.Get(ctx, pending.ID)
	assert.NoError(t, err)
	_, err = f.notifications.Get(ctx, read.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.notifications.PurgeExpired(ctx, -1)
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestPurgeExpiredHonoursAge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	old := &domain.Notification{
		DeviceID: "d1", UserID: "u1", CurrentVersion: "1.0", TargetVersion: "2.0",
		Urgency: versiondomain.UrgencyMandatory, Status: domain.StatusRead,
		CreatedAt: time.Now().AddDate(0, 0, -40),
	}
	_, err := f.repo.CreateIfAbsent(ctx, old)
	require.NoError(t, err)
	recent, err := f.notifications.Create(ctx, mandatory("d2"), "")
	require.NoError(t, err)
	_, err = f.notifications.MarkRead(ctx, recent.ID)
	require.NoError(t, err)

	removed, err := f.notifications.PurgeExpired(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = f.notifications.Get(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestPurgeExpiredKeepsUnreadOfAnyAge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -40)

	var ids []string
	for deviceID, status := range map[string]domain.Status{"d1": domain.StatusPending, "d2": domain.StatusSent} {
		n := &domain.Notification{
			DeviceID: deviceID, UserID: "u1", CurrentVersion: "1.0", TargetVersion: "2.0",
			Urgency: versiondomain.UrgencyMandatory, Status: status, CreatedAt: old,
		}
		inserted, err := f.repo.CreateIfAbsent(ctx, n)
		require.NoError(t, err)
		require.True(t, inserted)
		ids = append(ids, n.ID)
	}

	removed, err := f.notifications.PurgeExpired(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	for _, id := range ids {
		_, err := f.notifications.Get(ctx, id)
		assert.NoError(t, err)
	}
}

func TestDispatchToOutdatedWithoutPlatformPolicy(t *testing.T) {
	f := newFixture(t, nil)
	f.policy(t)
	f.device(t, "m1", "1.0", "")
	_, err := f.devices.Register(context.Background(), deviceUsecase.RegisterDeviceRequest{
		ID: "i1", UserID: "u1", Platform: "IOS", CurrentVersion: "1.0",
	})
	require.NoError(t, err)

	created, err := f.notifications.DispatchToOutdated(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrPolicyUnavailable), "got %v", err)
	assert.Zero(t, created)
}

func TestDispatchToOutdated(t *testing.T) {
	f := newFixture(t, nil)
	f.policy(t)
	f.device(t, "m1", "1.0", "")
	f.device(t, "m2", "1.0", "")
	f.device(t, "x1", "0.9", "")
	f.device(t, "o1", "1.5", "")
	f.device(t, "c1", "2.0", "")
	ctx := context.Background()

	created, err := f.notifications.DispatchToOutdated(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = f.notifications.DispatchToOutdated(ctx)
	require.NoError(t, err)
	assert.Zero(t, created, "a second dispatch finds every notification already present")

	list, err := f.notifications.ListByDevice(ctx, "x1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, versiondomain.UrgencyDeprecated, list[0].Urgency)
	assert.Equal(t, Message(versiondomain.UrgencyDeprecated, "2.0"), list[0].Message)
}

func TestDeliveryMovesToSent(t *testing.T) {
	pusher := &fakePusher{}
	f := newFixture(t, pusher)
	f.policy(t)
	f.device(t, "d1", "1.0", "token-1")
	f.device(t, "d2", "1.0", "")
	ctx := context.Background()

	n, err := f.notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, n.Status)
	assert.Equal(t, []string{"token-1"}, pusher.sent)

	// No token: nothing to push to
	n, err = f.notifications.Create(ctx, mandatory("d2"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, n.Status)

	unread, err := f.notifications.ListUnreadByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, unread, 2)
}

func TestFailedDeliveryStaysPending(t *testing.T) {
	pusher := &fakePusher{fail: true}
	f := newFixture(t, pusher)
	f.policy(t)
	f.device(t, "d1", "1.0", "token-1")
	ctx := context.Background()

	n, err := f.notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, n.Status)

	sent, err := f.notifications.DeliverPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	pusher.mu.Lock()
	pusher.fail = false
	pusher.mu.Unlock()

	sent, err = f.notifications.DeliverPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	stored, err := f.notifications.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, stored.Status)

	sent, err = f.notifications.DeliverPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDeliverPendingWithoutPusher(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.notifications.Create(context.Background(), mandatory("d1"), "")
	require.NoError(t, err)

	sent, err := f.notifications.DeliverPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDeleteNotification(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	n, err := f.notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	list, err := f.notifications.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.notifications.Delete(ctx, n.ID))
	list, err = f.notifications.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.True(t, errors.Is(f.notifications.Delete(ctx, n.ID), apperr.ErrNotFound))

	// Deleting frees the dedup key
	again, err := f.notifications.Create(ctx, mandatory("d1"), "")
	require.NoError(t, err)
	assert.NotNil(t, again)
}
