package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/citizen-request-service/internal/config"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/events"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

type testEnv struct {
	requests      *fakeRequestRepo
	agents        *fakeAgentRepo
	couriers      *fakeCourierRepo
	audiences     *fakeAudienceRepo
	links         *fakeLinkRepo
	notifications *fakeNotificationRepo
	dispatcher    *recordingDispatcher

	requestSvc      *RequestService
	workflowSvc     *WorkflowService
	linkSvc         *LinkService
	courierSvc      *CourierService
	audienceSvc     *AudienceService
	notificationSvc *NotificationService
	bulkSvc         *BulkService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		requests:      newFakeRequestRepo(),
		agents:        newFakeAgentRepo(),
		couriers:      newFakeCourierRepo(),
		audiences:     newFakeAudienceRepo(),
		links:         newFakeLinkRepo(),
		notifications: newFakeNotificationRepo(),
		dispatcher:    newRecordingDispatcher(),
	}
	sequences := newFakeSequences()
	workflowCfg := config.WorkflowConfig{
		StepsByType: map[string][]string{
			"Urbanisme": {"Réception", "Classification", "Analyse technique", "Validation", "Réponse", "Clôture"},
		},
		DefaultSteps: []string{"Réception", "Analyse", "Traitement", "Validation", "Clôture"},
	}
	slaCfg := config.SLAConfig{
		DefaultTargetHours:    72,
		TargetHoursByCategory: map[string]int{"Permis de construire": 120},
		AtRiskFraction:        0.8,
	}

	env.notificationSvc = NewNotificationService(NotificationDependencies{
		NotificationRepo: env.notifications,
		RequestRepo:      env.requests,
		CourierRepo:      env.couriers,
		SequenceRepo:     sequences,
		Dispatcher:       env.dispatcher,
		Config:           config.NotificationConfig{},
	})
	env.requestSvc = NewRequestService(RequestDependencies{
		RequestRepo:     env.requests,
		AgentRepo:       env.agents,
		SequenceRepo:    sequences,
		NotificationSvc: env.notificationSvc,
		Dispatcher:      env.dispatcher,
		Workflows:       workflowCfg,
		SLA:             slaCfg,
	})
	env.workflowSvc = NewWorkflowService(WorkflowDependencies{
		RequestRepo:     env.requests,
		NotificationSvc: env.notificationSvc,
		Dispatcher:      env.dispatcher,
	})
	env.linkSvc = NewLinkService(LinkDependencies{
		LinkRepo:     env.links,
		RequestRepo:  env.requests,
		CourierRepo:  env.couriers,
		AudienceRepo: env.audiences,
	})
	env.courierSvc = NewCourierService(CourierDependencies{
		CourierRepo:     env.couriers,
		LinkRepo:        env.links,
		SequenceRepo:    sequences,
		NotificationSvc: env.notificationSvc,
		Dispatcher:      env.dispatcher,
	})
	env.audienceSvc = NewAudienceService(AudienceDependencies{
		AudienceRepo: env.audiences,
		LinkRepo:     env.links,
		SequenceRepo: sequences,
	})
	env.bulkSvc = NewBulkService(BulkDependencies{
		RequestSvc:      env.requestSvc,
		CourierSvc:      env.courierSvc,
		AudienceSvc:     env.audienceSvc,
		NotificationSvc: env.notificationSvc,
		Dispatcher:      env.dispatcher,
	})
	return env
}

func agentActor(name string) domain.Actor {
	return domain.Actor{Name: name, Kind: domain.ActorAgent}
}

func (env *testEnv) createRequest(t *testing.T, subject string) *domain.Request {
	t.Helper()
	request, err := env.requestSvc.Create(context.Background(), agentActor("Khalid"), RequestCreateInput{
		Citizen:     domain.Citizen{Name: "Mohamed Benaissa", Email: "m.benaissa@example.ma"},
		Type:        "Urbanisme",
		Category:    "Permis de construire",
		Subject:     subject,
		Description: "Demande de permis pour extension de maison",
	})
	require.NoError(t, err)
	return request
}

func TestCreateRequestAssignsDisplayIDAndWorkflow(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	assert.Regexp(t, regexp.MustCompile(fmt.Sprintf(`^REQ-%d-\d{6}$`, time.Now().Year())), request.ID)
	assert.Equal(t, domain.RequestStatusNew, request.Status)
	assert.Equal(t, domain.PriorityMedium, request.Priority)
	assert.Equal(t, "Réception", request.Workflow.CurrentStep)
	assert.Len(t, request.Workflow.Steps, 6)
	assert.Equal(t, domain.SLAOnTime, request.SLAStatus)

	created := env.dispatcher.ofType(events.EventRequestCreated)
	require.Len(t, created, 1)
	assert.Equal(t, request.ID, created[0].EntityID)
}

func TestCreateRequestSequenceAdvances(t *testing.T) {
	env := newTestEnv(t)
	first := env.createRequest(t, "Première demande")
	second := env.createRequest(t, "Deuxième demande")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Less(t, first.ID, second.ID)
}

func TestCreateRequestValidatesRequiredFields(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.requestSvc.Create(context.Background(), agentActor("Khalid"), RequestCreateInput{
		Citizen: domain.Citizen{Name: "  "},
		Subject: "",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestCreateRequestUnknownTypeFallsBackToDefaultSteps(t *testing.T) {
	env := newTestEnv(t)
	request, err := env.requestSvc.Create(context.Background(), agentActor("Khalid"), RequestCreateInput{
		Citizen:     domain.Citizen{Name: "Fatima Zahra"},
		Type:        "Etat civil",
		Subject:     "Acte de naissance",
		Description: "Demande de copie",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Réception", "Analyse", "Traitement", "Validation", "Clôture"}, request.Workflow.Steps)
}

func TestGetRequestUnknownID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.requestSvc.Get(context.Background(), "REQ-2024-999999")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}

func TestUpdateStatusRecordsNotificationAndResolvedAt(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	resolved := domain.RequestStatusResolved
	updated, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), request.ID, RequestPatch{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	entries, err := env.notificationSvc.ListFor(context.Background(), domain.ParentRequest, request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.NotificationStatusChange, entries[0].Type)
	assert.Equal(t, "NEW", entries[0].Metadata["old_status"])
	assert.Equal(t, "RESOLVED", entries[0].Metadata["new_status"])
	assert.False(t, entries[0].IsRead)

	// Reopening clears the resolution timestamp.
	inProgress := domain.RequestStatusInProgress
	reopened, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), request.ID, RequestPatch{Status: &inProgress})
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedAt)
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	bogus := domain.RequestStatus("FERMÉ")
	_, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), request.ID, RequestPatch{Status: &bogus})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestAssignUnknownAgent(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	agentID := "a0000000-0000-0000-0000-000000000000"
	_, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), request.ID, RequestPatch{AssignedAgentID: &agentID})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}

func TestAssignRecordsNotification(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.agents.Create(context.Background(), &domain.Agent{
		ID:     "agent-1",
		Name:   "Samira",
		Email:  "samira@mairie.ma",
		Role:   domain.AgentRoleAgent,
		Active: true,
	}))
	request := env.createRequest(t, "Extension de maison")

	agentID := "agent-1"
	updated, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), request.ID, RequestPatch{AssignedAgentID: &agentID})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedAgent)
	assert.Equal(t, "agent-1", *updated.AssignedAgent)

	entries, err := env.notificationSvc.ListFor(context.Background(), domain.ParentRequest, request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.NotificationAssignment, entries[0].Type)
	assert.Equal(t, "agent-1", entries[0].Metadata["assigned_to"])

	assigned := env.dispatcher.ofType(events.EventRequestAssigned)
	require.Len(t, assigned, 1)
}

func TestUpdateConcurrentModificationConflicts(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	env.requests.failUpdateWith = repository.ErrStaleUpdate
	high := domain.PriorityHigh
	_, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), request.ID, RequestPatch{Priority: &high})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.Code(err))
}

func TestArchiveExcludesFromDefaultListing(t *testing.T) {
	env := newTestEnv(t)
	first := env.createRequest(t, "Première demande")
	env.createRequest(t, "Deuxième demande")

	_, err := env.requestSvc.Archive(context.Background(), agentActor("Khalid"), first.ID)
	require.NoError(t, err)

	visible, err := env.requestSvc.Query(context.Background(), RequestQuery{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.NotEqual(t, first.ID, visible[0].ID)

	all, err := env.requestSvc.Query(context.Background(), RequestQuery{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestQueryPreservesInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	first := env.createRequest(t, "Première demande")
	second := env.createRequest(t, "Deuxième demande")
	third := env.createRequest(t, "Troisième demande")

	listed, err := env.requestSvc.Query(context.Background(), RequestQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, []string{listed[0].ID, listed[1].ID, listed[2].ID})
}

func TestQueryFiltersByStatusAndSearch(t *testing.T) {
	env := newTestEnv(t)
	first := env.createRequest(t, "Fuite d'eau rue Hassan II")
	env.createRequest(t, "Lampadaire cassé")

	resolved := domain.RequestStatusResolved
	_, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), first.ID, RequestPatch{Status: &resolved})
	require.NoError(t, err)

	byStatus, err := env.requestSvc.Query(context.Background(), RequestQuery{Statuses: []domain.RequestStatus{domain.RequestStatusResolved}})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, first.ID, byStatus[0].ID)

	bySearch, err := env.requestSvc.Query(context.Background(), RequestQuery{Search: "hassan"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, first.ID, bySearch[0].ID)
}

func TestSLAEvaluation(t *testing.T) {
	cfg := config.SLAConfig{DefaultTargetHours: 72, AtRiskFraction: 0.8}
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	request := &domain.Request{Category: "Voirie", CreatedAt: created}

	assert.Equal(t, domain.SLAOnTime, EvaluateSLA(request, cfg, created.Add(10*time.Hour)))
	assert.Equal(t, domain.SLAAtRisk, EvaluateSLA(request, cfg, created.Add(60*time.Hour)))
	assert.Equal(t, domain.SLABreached, EvaluateSLA(request, cfg, created.Add(80*time.Hour)))

	// Resolved requests are judged against their resolution time, not now.
	resolvedAt := created.Add(10 * time.Hour)
	request.ResolvedAt = &resolvedAt
	assert.Equal(t, domain.SLAOnTime, EvaluateSLA(request, cfg, created.Add(200*time.Hour)))
}

func TestSLAUsesCategoryTarget(t *testing.T) {
	cfg := config.SLAConfig{
		DefaultTargetHours:    72,
		TargetHoursByCategory: map[string]int{"Permis de construire": 120},
		AtRiskFraction:        0.8,
	}
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	request := &domain.Request{Category: "Permis de construire", CreatedAt: created}

	// 80 hours breaches the default 72h target but not the 120h override.
	assert.Equal(t, domain.SLAOnTime, EvaluateSLA(request, cfg, created.Add(80*time.Hour)))
	assert.Equal(t, domain.SLABreached, EvaluateSLA(request, cfg, created.Add(130*time.Hour)))
}

func TestCreateRequestDefaultsAttachmentsToEmpty(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	// The attachments column is declared NOT NULL; a nil slice would be
	// encoded as SQL NULL and rejected by the database.
	require.NotNil(t, request.Attachments)
	assert.Equal(t, []string{}, request.Attachments)

	stored, err := env.requestSvc.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, stored.Attachments)
}

func TestUpdateRequestClearsAttachmentsToEmpty(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")

	var cleared []string
	updated, err := env.requestSvc.Update(context.Background(), agentActor("Khalid"), request.ID, RequestPatch{Attachments: &cleared})
	require.NoError(t, err)
	require.NotNil(t, updated.Attachments)
	assert.Empty(t, updated.Attachments)
}

func TestCreateRequestWithoutWorkflowSteps(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRequestService(RequestDependencies{
		RequestRepo:  env.requests,
		AgentRepo:    env.agents,
		SequenceRepo: newFakeSequences(),
		Dispatcher:   env.dispatcher,
	})

	_, err := svc.Create(context.Background(), agentActor("Khalid"), RequestCreateInput{
		Citizen:     domain.Citizen{Name: "Mohamed Benaissa", Email: "m.benaissa@example.ma"},
		Type:        "Urbanisme",
		Subject:     "Extension de maison",
		Description: "Demande de permis pour extension de maison",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestCreateRequestRecordsOwnerAccount(t *testing.T) {
	env := newTestEnv(t)
	accountID := "7f9c24e5-2f31-4a7b-9c64-1f51d2a6b001"

	request, err := env.requestSvc.Create(context.Background(), domain.Actor{Name: "Mohamed Benaissa", Kind: domain.ActorCitizen}, RequestCreateInput{
		Citizen:        domain.Citizen{Name: "Mohamed Benaissa", Email: "m.benaissa@example.ma"},
		OwnerAccountID: &accountID,
		Type:           "Urbanisme",
		Subject:        "Extension de maison",
		Description:    "Demande de permis pour extension de maison",
	})
	require.NoError(t, err)
	require.NotNil(t, request.OwnerAccountID)
	assert.Equal(t, accountID, *request.OwnerAccountID)

	owned, err := env.requestSvc.GetForCitizen(context.Background(), request.ID, accountID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, owned.ID)
}

func TestGetForCitizenRejectsForeignAccount(t *testing.T) {
	env := newTestEnv(t)
	accountID := "7f9c24e5-2f31-4a7b-9c64-1f51d2a6b001"

	request, err := env.requestSvc.Create(context.Background(), domain.Actor{Name: "Mohamed Benaissa", Kind: domain.ActorCitizen}, RequestCreateInput{
		Citizen:        domain.Citizen{Name: "Mohamed Benaissa", Email: "m.benaissa@example.ma"},
		OwnerAccountID: &accountID,
		Type:           "Urbanisme",
		Subject:        "Extension de maison",
		Description:    "Demande de permis pour extension de maison",
	})
	require.NoError(t, err)

	_, err = env.requestSvc.GetForCitizen(context.Background(), request.ID, "00000000-0000-0000-0000-000000000099")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.Code(err))
}

func TestGetForCitizenRejectsAgentCreatedRequest(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, "Extension de maison")
	require.Nil(t, request.OwnerAccountID)

	_, err := env.requestSvc.GetForCitizen(context.Background(), request.ID, "7f9c24e5-2f31-4a7b-9c64-1f51d2a6b001")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.Code(err))
}
