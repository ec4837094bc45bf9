package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/citizen-request-service/internal/domain"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

func TestCreateAudienceDefaults(t *testing.T) {
	env := newTestEnv(t)

	audience := env.createAudience(t, "Entretien permis de construire")

	assert.Regexp(t, regexp.MustCompile(`^AUD-\d{3}$`), audience.ID)
	assert.Equal(t, domain.AudienceScheduled, audience.Status)
}

func TestCreateAudienceValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.audienceSvc.Create(context.Background(), AudienceCreateInput{Sujet: "Entretien"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestConfirmAudienceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	audience := env.createAudience(t, "Entretien")

	confirmed, err := env.audienceSvc.Confirm(context.Background(), audience.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AudienceConfirmed, confirmed.Status)

	// Confirming again fails because the audience left the scheduled state.
	_, err = env.audienceSvc.Confirm(context.Background(), audience.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.Code(err))

	completed, err := env.audienceSvc.Complete(context.Background(), audience.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AudienceCompleted, completed.Status)

	_, err = env.audienceSvc.Cancel(context.Background(), audience.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.Code(err))
}

func TestRescheduleResetsToScheduled(t *testing.T) {
	env := newTestEnv(t)
	audience := env.createAudience(t, "Entretien")

	_, err := env.audienceSvc.Confirm(context.Background(), audience.ID)
	require.NoError(t, err)

	newDate := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	rescheduled, err := env.audienceSvc.Reschedule(context.Background(), audience.ID, newDate)
	require.NoError(t, err)
	assert.Equal(t, domain.AudienceScheduled, rescheduled.Status)
	assert.True(t, rescheduled.Date.Equal(newDate))
}

func TestRescheduleSettledAudienceConflicts(t *testing.T) {
	env := newTestEnv(t)
	audience := env.createAudience(t, "Entretien")

	_, err := env.audienceSvc.Cancel(context.Background(), audience.ID)
	require.NoError(t, err)

	_, err = env.audienceSvc.Reschedule(context.Background(), audience.ID, time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.Code(err))
}

func TestDeleteAudience(t *testing.T) {
	env := newTestEnv(t)
	audience := env.createAudience(t, "Entretien")

	require.NoError(t, env.audienceSvc.Delete(context.Background(), audience.ID))

	_, err := env.audienceSvc.Get(context.Background(), audience.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}
