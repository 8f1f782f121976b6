package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maturehumanity/levela/internal/domain"
)

// Feed tests run without a cache client: every call goes to the store.

func newFeedTestService(endorsementRepo *mockEndorsementRepository, evidenceRepo *mockEvidenceRepository) *FeedService {
	return NewFeedService(endorsementRepo, evidenceRepo, nil, newTestLogger())
}

func feedEndorsement(id string, createdAt time.Time) domain.EndorsementWithParties {
	return domain.EndorsementWithParties{
		Endorsement: domain.Endorsement{
			ID:        id,
			RaterID:   "u-rater",
			RateeID:   "u-ratee",
			Pillar:    domain.PillarEducation,
			Stars:     4,
			Comment:   "solid",
			CreatedAt: createdAt,
		},
		Rater: domain.UserSummary{ID: "u-rater", Name: "Rater"},
		Ratee: domain.UserSummary{ID: "u-ratee", Name: "Ratee"},
	}
}

func feedEvidence(id string, createdAt time.Time) (domain.Evidence, domain.UserSummary) {
	return domain.Evidence{
		ID:         id,
		UserID:     "u-owner",
		Pillar:     domain.PillarCulture,
		Title:      "Community award",
		Visibility: domain.VisibilityPublic,
		CreatedAt:  createdAt,
	}, domain.UserSummary{ID: "u-owner", Name: "Owner"}
}

func TestFeedRecent_MergesAndSortsByTime(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	evidenceRepo := new(mockEvidenceRepository)
	svc := newFeedTestService(endorsementRepo, evidenceRepo)
	ctx := context.Background()

	now := time.Now().UTC()
	ev, owner := feedEvidence("ev-mid", now.Add(-time.Minute))

	endorsementRepo.On("ListRecentVisible", ctx, 50).Return([]domain.EndorsementWithParties{
		feedEndorsement("e-new", now),
		feedEndorsement("e-old", now.Add(-2*time.Minute)),
	}, nil)
	evidenceRepo.On("ListRecentPublic", ctx, 50).
		Return([]domain.Evidence{ev}, []domain.UserSummary{owner}, nil)

	items, err := svc.Recent(ctx, 10)

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "e-new", items[0].ID)
	assert.Equal(t, "ev-mid", items[1].ID)
	assert.Equal(t, "e-old", items[2].ID)

	assert.Equal(t, domain.FeedItemEndorsement, items[0].Type)
	assert.Equal(t, "Rater", items[0].Rater.Name)
	assert.Equal(t, 4, items[0].Stars)

	assert.Equal(t, domain.FeedItemEvidence, items[1].Type)
	assert.Equal(t, "Owner", items[1].User.Name)
	assert.Equal(t, "Community award", items[1].Title)
}

func TestFeedRecent_LimitApplied(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	evidenceRepo := new(mockEvidenceRepository)
	svc := newFeedTestService(endorsementRepo, evidenceRepo)
	ctx := context.Background()

	now := time.Now().UTC()
	endorsements := make([]domain.EndorsementWithParties, 5)
	for i := range endorsements {
		endorsements[i] = feedEndorsement(fmt.Sprintf("e-%d", i), now.Add(-time.Duration(i)*time.Second))
	}

	endorsementRepo.On("ListRecentVisible", ctx, 50).Return(endorsements, nil)
	evidenceRepo.On("ListRecentPublic", ctx, 50).
		Return([]domain.Evidence{}, []domain.UserSummary{}, nil)

	items, err := svc.Recent(ctx, 2)

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "e-0", items[0].ID)
}

func TestFeedRecent_NonPositiveLimitFallsBack(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	evidenceRepo := new(mockEvidenceRepository)
	svc := newFeedTestService(endorsementRepo, evidenceRepo)
	ctx := context.Background()

	endorsementRepo.On("ListRecentVisible", ctx, 50).
		Return([]domain.EndorsementWithParties{}, nil)
	evidenceRepo.On("ListRecentPublic", ctx, 50).
		Return([]domain.Evidence{}, []domain.UserSummary{}, nil)

	items, err := svc.Recent(ctx, 0)

	require.NoError(t, err)
	assert.Empty(t, items)
	endorsementRepo.AssertExpectations(t)
}

func TestFeedRecent_StoreErrorPropagates(t *testing.T) {
	endorsementRepo := new(mockEndorsementRepository)
	evidenceRepo := new(mockEvidenceRepository)
	svc := newFeedTestService(endorsementRepo, evidenceRepo)
	ctx := context.Background()

	endorsementRepo.On("ListRecentVisible", ctx, 50).
		Return([]domain.EndorsementWithParties{}, fmt.Errorf("connection reset"))

	_, err := svc.Recent(ctx, 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list recent endorsements")
}
