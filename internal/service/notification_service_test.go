package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/repository"
)

func newNotificationService(t *testing.T) (NotificationService, *miniredis.Miniredis) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := newTestDB(t)
	repo := repository.NewNotificationRepository(db)
	return NewNotificationService(repo, redisClient, "evalhub", nil, newTestValidator(), zerolog.Nop()), mini
}

func TestNotificationPublishPersistsAndBroadcasts(t *testing.T) {
	svc, _ := newNotificationService(t)
	ctx := context.Background()

	stream, cleanup := svc.Subscribe(7)
	defer cleanup()

	published, err := svc.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  7,
		Type:    "submission.evaluated",
		Message: "Your submission has been graded",
	})
	require.NoError(t, err)
	require.NotZero(t, published.ID)
	require.False(t, published.Read)

	select {
	case received := <-stream:
		require.Equal(t, published.ID, received.ID)
		require.Equal(t, "submission.evaluated", received.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast notification")
	}

	listed, err := svc.List(ctx, 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestNotificationPublishSanitizesMessage(t *testing.T) {
	svc, _ := newNotificationService(t)

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  1,
		Type:    "generic",
		Message: "<b>hello</b> there",
	})
	require.NoError(t, err)
	require.Equal(t, "hello there", published.Message)

	_, err = svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  1,
		Type:    "generic",
		Message: "<script>alert(1)</script>",
	})
	require.Error(t, err)
}

func TestNotificationMarkRead(t *testing.T) {
	svc, _ := newNotificationService(t)
	ctx := context.Background()

	published, err := svc.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  3,
		Type:    "challenge.responded",
		Message: "Your challenge was answered",
	})
	require.NoError(t, err)

	read, err := svc.MarkRead(ctx, published.ID, 3)
	require.NoError(t, err)
	require.True(t, read.Read)

	// Marking twice stays read and does not error.
	again, err := svc.MarkRead(ctx, published.ID, 3)
	require.NoError(t, err)
	require.True(t, again.Read)

	// Another user cannot mark it.
	_, err = svc.MarkRead(ctx, published.ID, 4)
	require.Error(t, err)
}

func TestNotificationSubscriberDoesNotReceiveOtherUsers(t *testing.T) {
	svc, _ := newNotificationService(t)

	stream, cleanup := svc.Subscribe(100)
	defer cleanup()

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  200,
		Type:    "generic",
		Message: "not for you",
	})
	require.NoError(t, err)

	select {
	case notification := <-stream:
		t.Fatalf("unexpected notification for user %d", notification.UserID)
	case <-time.After(100 * time.Millisecond):
	}
}
