package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/citizen-request-service/internal/domain"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

func (env *testEnv) createCourier(t *testing.T, objet string) *domain.Courier {
	t.Helper()
	courier, err := env.courierSvc.Create(context.Background(), CourierCreateInput{
		Objet:        objet,
		Type:         domain.CourierOutbound,
		Destinataire: "Mohamed Benaissa",
		Expediteur:   "Service Urbanisme",
	})
	require.NoError(t, err)
	return courier
}

func (env *testEnv) createAudience(t *testing.T, sujet string) *domain.Audience {
	t.Helper()
	audience, err := env.audienceSvc.Create(context.Background(), AudienceCreateInput{
		Sujet:   sujet,
		Citoyen: "Mohamed Benaissa",
		Date:    time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return audience
}

func TestLinkIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")
	courier := env.createCourier(t, "Accusé de réception")

	require.NoError(t, env.linkSvc.Link(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))
	require.NoError(t, env.linkSvc.Link(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))

	links, err := env.linkSvc.LinksFor(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{courier.ID}, links.Couriers)
	assert.Empty(t, links.Audiences)
}

func TestLinkUnknownRequest(t *testing.T) {
	env := newTestEnv(t)
	courier := env.createCourier(t, "Accusé de réception")

	err := env.linkSvc.Link(context.Background(), "REQ-2024-424242", domain.LinkKindCourier, courier.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}

func TestLinkUnknownEntity(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	err := env.linkSvc.Link(context.Background(), request.ID, domain.LinkKindAudience, "AUD-999")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}

func TestLinkInvalidKind(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	err := env.linkSvc.Link(context.Background(), request.ID, domain.LinkKind("DOSSIER"), "X-1")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestUnlinkIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")
	courier := env.createCourier(t, "Accusé de réception")

	require.NoError(t, env.linkSvc.Link(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))
	require.NoError(t, env.linkSvc.Unlink(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))
	// Unlinking again is a no-op.
	require.NoError(t, env.linkSvc.Unlink(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))

	links, err := env.linkSvc.LinksFor(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Empty(t, links.Couriers)
}

func TestLinksForGroupsByKind(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")
	courier := env.createCourier(t, "Accusé de réception")
	audience := env.createAudience(t, "Entretien sur le dossier")

	require.NoError(t, env.linkSvc.Link(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))
	require.NoError(t, env.linkSvc.Link(context.Background(), request.ID, domain.LinkKindAudience, audience.ID))

	links, err := env.linkSvc.LinksFor(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{courier.ID}, links.Couriers)
	assert.Equal(t, []string{audience.ID}, links.Audiences)
}

func TestRequestsForReverseLookup(t *testing.T) {
	env := newTestEnv(t)
	first := env.createRequest(t, "Première demande")
	second := env.createRequest(t, "Deuxième demande")
	courier := env.createCourier(t, "Courrier commun")

	require.NoError(t, env.linkSvc.Link(context.Background(), first.ID, domain.LinkKindCourier, courier.ID))
	require.NoError(t, env.linkSvc.Link(context.Background(), second.ID, domain.LinkKindCourier, courier.ID))

	ids, err := env.linkSvc.RequestsFor(context.Background(), domain.LinkKindCourier, courier.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestDeleteLinkedCourierRejected(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")
	courier := env.createCourier(t, "Accusé de réception")
	require.NoError(t, env.linkSvc.Link(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))

	err := env.courierSvc.Delete(context.Background(), courier.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.Code(err))

	// After unlinking, deletion succeeds.
	require.NoError(t, env.linkSvc.Unlink(context.Background(), request.ID, domain.LinkKindCourier, courier.ID))
	require.NoError(t, env.courierSvc.Delete(context.Background(), courier.ID))
}
