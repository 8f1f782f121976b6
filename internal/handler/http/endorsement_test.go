package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/internal/event"
	"github.com/maturehumanity/levela/internal/scoring"
	"github.com/maturehumanity/levela/internal/service"
	"github.com/maturehumanity/levela/pkg/httputil"
	pkgkafka "github.com/maturehumanity/levela/pkg/kafka"
	"github.com/maturehumanity/levela/pkg/middleware"
)

// =============================================================================
// Mock repositories
// =============================================================================

type mockEndorsementRepo struct {
	mock.Mock
}

func (m *mockEndorsementRepo) Create(ctx context.Context, e *domain.Endorsement) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockEndorsementRepo) GetByID(ctx context.Context, id string) (*domain.Endorsement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Endorsement), args.Error(1)
}

func (m *mockEndorsementRepo) ListVisibleByRatee(ctx context.Context, rateeID string, pillar domain.Pillar) ([]domain.Endorsement, error) {
	args := m.Called(ctx, rateeID, pillar)
	return args.Get(0).([]domain.Endorsement), args.Error(1)
}

func (m *mockEndorsementRepo) VisiblePillarAverages(ctx context.Context, rateeID string) ([]domain.PillarAverage, error) {
	args := m.Called(ctx, rateeID)
	return args.Get(0).([]domain.PillarAverage), args.Error(1)
}

func (m *mockEndorsementRepo) LatestVisible(ctx context.Context, raterID, rateeID string, pillar domain.Pillar) (*domain.Endorsement, error) {
	args := m.Called(ctx, raterID, rateeID, pillar)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Endorsement), args.Error(1)
}

func (m *mockEndorsementRepo) ListReceived(ctx context.Context, rateeID string, pillar *domain.Pillar, page, perPage int) ([]domain.EndorsementWithRater, int, error) {
	args := m.Called(ctx, rateeID, pillar, page, perPage)
	return args.Get(0).([]domain.EndorsementWithRater), args.Int(1), args.Error(2)
}

func (m *mockEndorsementRepo) ListGiven(ctx context.Context, raterID string, page, perPage int) ([]domain.EndorsementWithRatee, int, error) {
	args := m.Called(ctx, raterID, page, perPage)
	return args.Get(0).([]domain.EndorsementWithRatee), args.Int(1), args.Error(2)
}

func (m *mockEndorsementRepo) ListRecentVisible(ctx context.Context, limit int) ([]domain.EndorsementWithParties, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.EndorsementWithParties), args.Error(1)
}

func (m *mockEndorsementRepo) SetHidden(ctx context.Context, id string, hidden bool) error {
	args := m.Called(ctx, id, hidden)
	return args.Error(0)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) Search(ctx context.Context, query string, page, perPage int) ([]domain.User, int, error) {
	args := m.Called(ctx, query, page, perPage)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

// =============================================================================
// Test helpers
// =============================================================================

const (
	testRaterID = "550e8400-e29b-41d4-a716-446655440001"
	testRateeID = "550e8400-e29b-41d4-a716-446655440002"
)

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestEventProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func endorsementTestHandler(endorsementRepo *mockEndorsementRepo, userRepo *mockUserRepo) *EndorsementHandler {
	logger := handlerTestLogger()
	engine := scoring.NewEngine(endorsementRepo)
	svc := service.NewEndorsementService(endorsementRepo, userRepo, engine, handlerTestEventProducer(), logger)
	return NewEndorsementHandler(svc, logger)
}

func fakeTokenValidator(userID string) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{UserID: userID, Email: "rater@example.com", Role: domain.RoleUser}, nil
	}
}

func endorsementRouter(handler *EndorsementHandler, raterID string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/endorsements", func(r chi.Router) {
			r.Use(middleware.Auth(fakeTokenValidator(raterID)))

			r.Post("/", handler.Create)
			r.Get("/given", handler.ListGiven)
			r.Get("/can-endorse", handler.CanEndorse)
		})
		r.Get("/pillars", handler.ListPillars)
		r.Get("/users/{userID}/endorsements", handler.ListReceived)
		r.Get("/users/{userID}/score", handler.GetScore)
	})
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func testRatee() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:        testRateeID,
		Email:     "ratee@example.com",
		Name:      "Ratee",
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// expectGateClear primes the mock so the eligibility gate sees no prior
// endorsement for the (rater, ratee, pillar) triple.
func expectGateClear(repo *mockEndorsementRepo) {
	repo.On("LatestVisible", mock.Anything, testRaterID, testRateeID, mock.AnythingOfType("domain.Pillar")).
		Return(nil, nil)
}

// =============================================================================
// POST /api/v1/endorsements
// =============================================================================

func TestCreateEndorsement_Success(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepo)
	userRepo := new(mockUserRepo)
	handler := endorsementTestHandler(endorsementRepo, userRepo)
	router := endorsementRouter(handler, testRaterID)

	userRepo.On("GetByID", mock.Anything, testRateeID).Return(testRatee(), nil)
	expectGateClear(endorsementRepo)
	endorsementRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Endorsement")).Return(nil)

	body := CreateEndorsementRequest{
		RateeID: testRateeID,
		Pillar:  "education",
		Stars:   5,
		Comment: "great mentor",
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/endorsements", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	endorsementRepo.AssertExpectations(t)
}

func TestCreateEndorsement_InvalidJSON(t *testing.T) {
	handler := endorsementTestHandler(new(mockEndorsementRepo), new(mockUserRepo))
	router := endorsementRouter(handler, testRaterID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/endorsements", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestCreateEndorsement_ValidationError(t *testing.T) {
	handler := endorsementTestHandler(new(mockEndorsementRepo), new(mockUserRepo))
	router := endorsementRouter(handler, testRaterID)

	// Missing ratee_id and stars out of range.
	body := CreateEndorsementRequest{
		Pillar: "education",
		Stars:  9,
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/endorsements", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateEndorsement_SelfEndorsement(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepo)
	userRepo := new(mockUserRepo)
	handler := endorsementTestHandler(endorsementRepo, userRepo)
	// Authenticated as the ratee.
	router := endorsementRouter(handler, testRateeID)

	userRepo.On("GetByID", mock.Anything, testRateeID).Return(testRatee(), nil)

	body := CreateEndorsementRequest{
		RateeID: testRateeID,
		Pillar:  "culture",
		Stars:   4,
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/endorsements", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
	endorsementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateEndorsement_Unauthenticated(t *testing.T) {
	handler := endorsementTestHandler(new(mockEndorsementRepo), new(mockUserRepo))
	router := endorsementRouter(handler, testRaterID)

	body := CreateEndorsementRequest{RateeID: testRateeID, Pillar: "education", Stars: 5}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/endorsements", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// GET /api/v1/endorsements/can-endorse
// =============================================================================

func TestCanEndorse_Eligible(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepo)
	userRepo := new(mockUserRepo)
	handler := endorsementTestHandler(endorsementRepo, userRepo)
	router := endorsementRouter(handler, testRaterID)

	userRepo.On("GetByID", mock.Anything, testRateeID).Return(testRatee(), nil)
	endorsementRepo.On("LatestVisible", mock.Anything, testRaterID, testRateeID, domain.PillarEducation).
		Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/endorsements/can-endorse?ratee_id="+testRateeID+"&pillar=education", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)

	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["can"])
}

func TestCanEndorse_MissingParams(t *testing.T) {
	handler := endorsementTestHandler(new(mockEndorsementRepo), new(mockUserRepo))
	router := endorsementRouter(handler, testRaterID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/endorsements/can-endorse?pillar=education", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// GET /api/v1/users/{userID}/endorsements
// =============================================================================

func TestListReceived_Success(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepo)
	userRepo := new(mockUserRepo)
	handler := endorsementTestHandler(endorsementRepo, userRepo)
	router := endorsementRouter(handler, testRaterID)

	items := []domain.EndorsementWithRater{
		{
			Endorsement: domain.Endorsement{
				ID:      "550e8400-e29b-41d4-a716-446655440010",
				RaterID: testRaterID,
				RateeID: testRateeID,
				Pillar:  domain.PillarEducation,
				Stars:   5,
			},
			Rater: domain.UserSummary{ID: testRaterID, Name: "Rater"},
		},
	}
	endorsementRepo.On("ListReceived", mock.Anything, testRateeID, (*domain.Pillar)(nil), 1, 20).
		Return(items, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+testRateeID+"/endorsements", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.PaginatedResponse[domain.EndorsementWithRater]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, domain.PillarEducation, resp.Data[0].Pillar)
}

func TestListReceived_InvalidUserID(t *testing.T) {
	handler := endorsementTestHandler(new(mockEndorsementRepo), new(mockUserRepo))
	router := endorsementRouter(handler, testRaterID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/not-a-uuid/endorsements", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// =============================================================================
// GET /api/v1/users/{userID}/score
// =============================================================================

func TestGetScore_Success(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepo)
	userRepo := new(mockUserRepo)
	handler := endorsementTestHandler(endorsementRepo, userRepo)
	router := endorsementRouter(handler, testRaterID)

	userRepo.On("GetByID", mock.Anything, testRateeID).Return(testRatee(), nil)
	endorsementRepo.On("ListVisibleByRatee", mock.Anything, testRateeID, mock.AnythingOfType("domain.Pillar")).
		Return([]domain.Endorsement{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+testRateeID+"/score", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)

	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), data["overall_score"])
	assert.Len(t, data["pillar_scores"], 5)
}

func TestGetScore_UserNotFound(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepo)
	userRepo := new(mockUserRepo)
	handler := endorsementTestHandler(endorsementRepo, userRepo)
	router := endorsementRouter(handler, testRaterID)

	userRepo.On("GetByID", mock.Anything, testRateeID).Return(nil, errors.New("no rows"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+testRateeID+"/score", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// GET /api/v1/pillars
// =============================================================================

func TestListPillars(t *testing.T) {
	handler := endorsementTestHandler(new(mockEndorsementRepo), new(mockUserRepo))
	router := endorsementRouter(handler, testRaterID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pillars", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)

	pillars := resp.Data.([]any)
	assert.Len(t, pillars, 5)

	first := pillars[0].(map[string]any)
	assert.Equal(t, "education", first["key"])
	assert.Equal(t, "Education & Skills", first["display_name"])
}
