package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/citizen-request-service/internal/config"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

func TestAppendAssignsIDAndListsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	first, err := env.notificationSvc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:    domain.NotificationComment,
		Title:   "Premier commentaire",
		Message: "Dossier reçu",
		Actor:   agentActor("Khalid"),
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^NOTIF-\d{3,}$`), first.ID)
	assert.False(t, first.IsRead)

	second, err := env.notificationSvc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:  domain.NotificationComment,
		Title: "Deuxième commentaire",
		Actor: agentActor("Khalid"),
	})
	require.NoError(t, err)

	entries, err := env.notificationSvc.ListFor(context.Background(), domain.ParentRequest, request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestAppendUnknownParent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.notificationSvc.Append(context.Background(), domain.ParentRequest, "REQ-2024-424242", NotificationInput{
		Type:  domain.NotificationComment,
		Title: "Commentaire",
		Actor: agentActor("Khalid"),
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}

func TestAppendInvalidType(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	_, err := env.notificationSvc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:  domain.NotificationType("SMS"),
		Title: "Commentaire",
		Actor: agentActor("Khalid"),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestAppendRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	_, err := env.notificationSvc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:  domain.NotificationComment,
		Title: "   ",
		Actor: agentActor("Khalid"),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	entry, err := env.notificationSvc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:  domain.NotificationComment,
		Title: "Premier",
		Actor: agentActor("Khalid"),
	})
	require.NoError(t, err)
	_, err = env.notificationSvc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:  domain.NotificationComment,
		Title: "Deuxième",
		Actor: agentActor("Khalid"),
	})
	require.NoError(t, err)

	require.NoError(t, env.notificationSvc.MarkRead(context.Background(), entry.ID))
	entries, err := env.notificationSvc.ListFor(context.Background(), domain.ParentRequest, request.ID)
	require.NoError(t, err)
	assert.False(t, entries[0].IsRead)
	assert.True(t, entries[1].IsRead)

	require.NoError(t, env.notificationSvc.MarkAllRead(context.Background(), domain.ParentRequest, request.ID))
	entries, err = env.notificationSvc.ListFor(context.Background(), domain.ParentRequest, request.ID)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.IsRead)
	}
}

func TestMarkReadUnknownEntry(t *testing.T) {
	env := newTestEnv(t)
	err := env.notificationSvc.MarkRead(context.Background(), "NOTIF-999")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}

func TestSystemEntriesStartReadWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	svc := NewNotificationService(NotificationDependencies{
		NotificationRepo: env.notifications,
		RequestRepo:      env.requests,
		CourierRepo:      env.couriers,
		SequenceRepo:     newFakeSequences(),
		Dispatcher:       env.dispatcher,
		Config:           config.NotificationConfig{MarkSystemRead: true},
	})

	systemEntry, err := svc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:  domain.NotificationReminder,
		Title: "Relance automatique",
		Actor: domain.Actor{Name: "system", Kind: domain.ActorSystem},
	})
	require.NoError(t, err)
	assert.True(t, systemEntry.IsRead)

	agentEntry, err := svc.Append(context.Background(), domain.ParentRequest, request.ID, NotificationInput{
		Type:  domain.NotificationComment,
		Title: "Commentaire agent",
		Actor: agentActor("Khalid"),
	})
	require.NoError(t, err)
	assert.False(t, agentEntry.IsRead)
}
