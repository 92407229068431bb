package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
)

type MockInvitationRepo struct {
	mock.Mock
}

func (m *MockInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvitationRepo) CreateWithShadow(ctx context.Context, inv *domain.Invitation, shadow *domain.Assessment, orgItems []domain.AssessmentItem) error {
	args := m.Called(ctx, inv, shadow, orgItems)
	return args.Error(0)
}

func (m *MockInvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) GetByAssessment(ctx context.Context, assessmentID uuid.UUID) (*domain.Invitation, error) {
	args := m.Called(ctx, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) Transition(ctx context.Context, token string, event domain.InvitationEvent, now time.Time) (*domain.Invitation, error) {
	args := m.Called(ctx, token, event, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) SupersedeExpired(ctx context.Context, orgAssessmentID uuid.UUID, now time.Time) error {
	args := m.Called(ctx, orgAssessmentID, now)
	return args.Error(0)
}

func (m *MockInvitationRepo) ListExpiring(ctx context.Context, now time.Time, window time.Duration) ([]domain.Invitation, error) {
	args := m.Called(ctx, now, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockAssessmentRepo struct {
	mock.Mock
}

func (m *MockAssessmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assessment), args.Error(1)
}

func (m *MockAssessmentRepo) ListItems(ctx context.Context, assessmentID uuid.UUID) ([]domain.AssessmentItem, error) {
	args := m.Called(ctx, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssessmentItem), args.Error(1)
}

func (m *MockAssessmentRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.AssessmentItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentItem), args.Error(1)
}

func (m *MockAssessmentRepo) UpdateItem(ctx context.Context, item *domain.AssessmentItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockAssessmentRepo) ResetItems(ctx context.Context, assessmentID uuid.UUID) error {
	args := m.Called(ctx, assessmentID)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendInvitation(ctx context.Context, inv *domain.Invitation, magicLink, assessmentName string) error {
	args := m.Called(ctx, inv, magicLink, assessmentName)
	return args.Error(0)
}

func (m *MockEmailService) SendExpiryReminder(ctx context.Context, inv *domain.Invitation, magicLink string) error {
	args := m.Called(ctx, inv, magicLink)
	return args.Error(0)
}

func (m *MockEmailService) SendCompletionNotice(ctx context.Context, to string, inv *domain.Invitation, assessmentName string) error {
	args := m.Called(ctx, to, inv, assessmentName)
	return args.Error(0)
}
