package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/internal/event"
	"github.com/maturehumanity/levela/internal/scoring"
	apperrors "github.com/maturehumanity/levela/pkg/errors"
	pkgkafka "github.com/maturehumanity/levela/pkg/kafka"
)

// --- Mock Endorsement Repository ---

type mockEndorsementRepository struct {
	mock.Mock
}

func (m *mockEndorsementRepository) Create(ctx context.Context, e *domain.Endorsement) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockEndorsementRepository) GetByID(ctx context.Context, id string) (*domain.Endorsement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Endorsement), args.Error(1)
}

func (m *mockEndorsementRepository) ListVisibleByRatee(ctx context.Context, rateeID string, pillar domain.Pillar) ([]domain.Endorsement, error) {
	args := m.Called(ctx, rateeID, pillar)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Endorsement), args.Error(1)
}

func (m *mockEndorsementRepository) VisiblePillarAverages(ctx context.Context, rateeID string) ([]domain.PillarAverage, error) {
	args := m.Called(ctx, rateeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PillarAverage), args.Error(1)
}

func (m *mockEndorsementRepository) LatestVisible(ctx context.Context, raterID, rateeID string, pillar domain.Pillar) (*domain.Endorsement, error) {
	args := m.Called(ctx, raterID, rateeID, pillar)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Endorsement), args.Error(1)
}

func (m *mockEndorsementRepository) ListReceived(ctx context.Context, rateeID string, pillar *domain.Pillar, page, perPage int) ([]domain.EndorsementWithRater, int, error) {
	args := m.Called(ctx, rateeID, pillar, page, perPage)
	return args.Get(0).([]domain.EndorsementWithRater), args.Int(1), args.Error(2)
}

func (m *mockEndorsementRepository) ListGiven(ctx context.Context, raterID string, page, perPage int) ([]domain.EndorsementWithRatee, int, error) {
	args := m.Called(ctx, raterID, page, perPage)
	return args.Get(0).([]domain.EndorsementWithRatee), args.Int(1), args.Error(2)
}

func (m *mockEndorsementRepository) ListRecentVisible(ctx context.Context, limit int) ([]domain.EndorsementWithParties, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.EndorsementWithParties), args.Error(1)
}

func (m *mockEndorsementRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	args := m.Called(ctx, id, hidden)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newEndorsementTestService(endorsementRepo *mockEndorsementRepository, userRepo *mockUserRepository) *EndorsementService {
	logger := newTestLogger()
	engine := scoring.NewEngine(endorsementRepo)
	return NewEndorsementService(endorsementRepo, userRepo, engine, newTestEventProducer(), logger)
}

func sampleRatee() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:        "u-ratee",
		Email:     "ratee@example.com",
		Name:      "Ratee",
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- Create Tests ---

func TestEndorsementCreate_Success(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	userRepo := new(mockUserRepository)
	svc := newEndorsementTestService(endorsementRepo, userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-ratee").Return(sampleRatee(), nil)
	endorsementRepo.On("LatestVisible", ctx, "u-rater", "u-ratee", domain.PillarEducation).
		Return(nil, nil)
	endorsementRepo.On("Create", ctx, mock.AnythingOfType("*domain.Endorsement")).Return(nil)

	got, err := svc.Create(ctx, "u-rater", CreateEndorsementInput{
		RateeID: "u-ratee",
		Pillar:  "education",
		Stars:   4,
		Comment: "solid work",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "u-rater", got.RaterID)
	assert.Equal(t, domain.PillarEducation, got.Pillar)
	assert.Equal(t, 4, got.Stars)
	assert.False(t, got.IsHidden)

	endorsementRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestEndorsementCreate_InvalidStars(t *testing.T) {
	svc := newEndorsementTestService(new(mockEndorsementRepository), new(mockUserRepository))
	ctx := context.Background()

	for _, stars := range []int{0, 6, -1} {
		_, err := svc.Create(ctx, "u-rater", CreateEndorsementInput{
			RateeID: "u-ratee",
			Pillar:  "education",
			Stars:   stars,
		})
		require.Error(t, err, "stars=%d", stars)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestEndorsementCreate_UnknownPillar(t *testing.T) {
	svc := newEndorsementTestService(new(mockEndorsementRepository), new(mockUserRepository))
	ctx := context.Background()

	_, err := svc.Create(ctx, "u-rater", CreateEndorsementInput{
		RateeID: "u-ratee",
		Pillar:  "charisma",
		Stars:   3,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestEndorsementCreate_SelfEndorsement(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	userRepo := new(mockUserRepository)
	svc := newEndorsementTestService(endorsementRepo, userRepo)
	ctx := context.Background()

	self := sampleRatee()
	userRepo.On("GetByID", ctx, "u-ratee").Return(self, nil)

	_, err := svc.Create(ctx, "u-ratee", CreateEndorsementInput{
		RateeID: "u-ratee",
		Pillar:  "culture",
		Stars:   5,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	endorsementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEndorsementCreate_WithinCooldown(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	userRepo := new(mockUserRepository)
	svc := newEndorsementTestService(endorsementRepo, userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-ratee").Return(sampleRatee(), nil)
	prior := &domain.Endorsement{
		ID:        "e-prior",
		RaterID:   "u-rater",
		RateeID:   "u-ratee",
		Pillar:    domain.PillarEducation,
		Stars:     3,
		CreatedAt: time.Now().UTC().Add(-5 * 24 * time.Hour),
	}
	endorsementRepo.On("LatestVisible", ctx, "u-rater", "u-ratee", domain.PillarEducation).
		Return(prior, nil)

	_, err := svc.Create(ctx, "u-rater", CreateEndorsementInput{
		RateeID: "u-ratee",
		Pillar:  "education",
		Stars:   4,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	endorsementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEndorsementCreate_UnknownRatee(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	userRepo := new(mockUserRepository)
	svc := newEndorsementTestService(endorsementRepo, userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Create(ctx, "u-rater", CreateEndorsementInput{
		RateeID: "u-ghost",
		Pillar:  "education",
		Stars:   4,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEndorsementCreate_StoreConflictSurfaces(t *testing.T) {
	// The gate passed, but a concurrent request won the race: the store's
	// window re-check rejects the insert.
	endorsementRepo := new(mockEndorsementRepository)
	userRepo := new(mockUserRepository)
	svc := newEndorsementTestService(endorsementRepo, userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-ratee").Return(sampleRatee(), nil)
	endorsementRepo.On("LatestVisible", ctx, "u-rater", "u-ratee", domain.PillarEconomy).
		Return(nil, nil)
	endorsementRepo.On("Create", ctx, mock.AnythingOfType("*domain.Endorsement")).
		Return(apperrors.Conflict("this user was already endorsed for this pillar within the last 30 days"))

	_, err := svc.Create(ctx, "u-rater", CreateEndorsementInput{
		RateeID: "u-ratee",
		Pillar:  "economy",
		Stars:   2,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

// --- CanEndorse Tests ---

func TestCanEndorse_EligibleAndIneligible(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	userRepo := new(mockUserRepository)
	svc := newEndorsementTestService(endorsementRepo, userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-ratee").Return(sampleRatee(), nil)
	endorsementRepo.On("LatestVisible", ctx, "u-rater", "u-ratee", domain.PillarCulture).
		Return(nil, nil)

	el, err := svc.CanEndorse(ctx, "u-rater", "u-ratee", "culture")
	require.NoError(t, err)
	assert.True(t, el.Can)

	el, err = svc.CanEndorse(ctx, "u-ratee", "u-ratee", "culture")
	require.NoError(t, err)
	assert.False(t, el.Can)
	assert.Equal(t, "cannot endorse yourself", el.Reason)
}

// --- Score Tests ---

func TestGetScore_RecomputedFromStore(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	userRepo := new(mockUserRepository)
	svc := newEndorsementTestService(endorsementRepo, userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-ratee").Return(sampleRatee(), nil)

	now := time.Now().UTC()
	endorsementRepo.On("ListVisibleByRatee", ctx, "u-ratee", domain.PillarEducation).
		Return([]domain.Endorsement{
			{ID: "e-1", RaterID: "u-a", RateeID: "u-ratee", Pillar: domain.PillarEducation, Stars: 5, CreatedAt: now},
			{ID: "e-2", RaterID: "u-b", RateeID: "u-ratee", Pillar: domain.PillarEducation, Stars: 3, CreatedAt: now},
		}, nil)
	for _, p := range []domain.Pillar{domain.PillarCulture, domain.PillarResponsibility, domain.PillarEnvironment, domain.PillarEconomy} {
		endorsementRepo.On("ListVisibleByRatee", ctx, "u-ratee", p).
			Return([]domain.Endorsement{}, nil)
	}
	// Both raters have no received endorsements: neutral 0.5 weight.
	endorsementRepo.On("VisiblePillarAverages", ctx, "u-a").Return([]domain.PillarAverage{}, nil)
	endorsementRepo.On("VisiblePillarAverages", ctx, "u-b").Return([]domain.PillarAverage{}, nil)

	score, err := svc.GetScore(ctx, "u-ratee")

	require.NoError(t, err)
	assert.Equal(t, 80.0, score.OverallScore)
	require.Len(t, score.PillarScores, 5)
	assert.Equal(t, 80.0, score.PillarScores[0].Score)
	assert.Equal(t, 4.0, score.PillarScores[0].AverageStars)
	assert.Equal(t, 2, score.PillarScores[0].EndorsementCount)
}

func TestGetPillarScore_UnknownPillar(t *testing.T) {
	svc := newEndorsementTestService(new(mockEndorsementRepository), new(mockUserRepository))

	_, err := svc.GetPillarScore(context.Background(), "u-ratee", "bogus")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
