package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/internal/repository"
)

const (
	feedCacheKey = "feed:recent"
	feedCacheTTL = 30 * time.Second

	// defaultFeedLimit caps the number of items returned in one feed page.
	defaultFeedLimit = 50
)

// FeedService assembles the public activity feed from recent endorsements and
// public evidence. The merged feed is cached in Redis for a short window;
// scores are never cached, only the feed listing itself.
type FeedService struct {
	endorsementRepo repository.EndorsementRepository
	evidenceRepo    repository.EvidenceRepository
	cache           *redis.Client
	logger          *slog.Logger
}

// NewFeedService creates a new feed service. The cache client may be nil, in
// which case every request hits the store.
func NewFeedService(
	endorsementRepo repository.EndorsementRepository,
	evidenceRepo repository.EvidenceRepository,
	cache *redis.Client,
	logger *slog.Logger,
) *FeedService {
	return &FeedService{
		endorsementRepo: endorsementRepo,
		evidenceRepo:    evidenceRepo,
		cache:           cache,
		logger:          logger,
	}
}

// Recent returns the newest feed items, endorsements and public evidence
// merged by creation time descending.
func (s *FeedService) Recent(ctx context.Context, limit int) ([]domain.FeedItem, error) {
	if limit <= 0 || limit > defaultFeedLimit {
		limit = defaultFeedLimit
	}

	if items, ok := s.cachedFeed(ctx); ok {
		if len(items) > limit {
			items = items[:limit]
		}
		return items, nil
	}

	items, err := s.buildFeed(ctx, defaultFeedLimit)
	if err != nil {
		return nil, err
	}

	s.storeFeed(ctx, items)

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// buildFeed assembles the merged feed from the store.
func (s *FeedService) buildFeed(ctx context.Context, limit int) ([]domain.FeedItem, error) {
	endorsements, err := s.endorsementRepo.ListRecentVisible(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent endorsements: %w", err)
	}

	evidence, owners, err := s.evidenceRepo.ListRecentPublic(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent evidence: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(endorsements)+len(evidence))

	for _, e := range endorsements {
		rater := e.Rater
		ratee := e.Ratee
		items = append(items, domain.FeedItem{
			Type:      domain.FeedItemEndorsement,
			ID:        e.ID,
			CreatedAt: e.CreatedAt,
			Pillar:    e.Pillar,
			Rater:     &rater,
			Ratee:     &ratee,
			Stars:     e.Stars,
			Comment:   e.Comment,
		})
	}

	for i, ev := range evidence {
		owner := owners[i]
		items = append(items, domain.FeedItem{
			Type:        domain.FeedItemEvidence,
			ID:          ev.ID,
			CreatedAt:   ev.CreatedAt,
			Pillar:      ev.Pillar,
			User:        &owner,
			Title:       ev.Title,
			Description: ev.Description,
			FileType:    ev.FileType,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

// cachedFeed attempts to load the feed from Redis. Cache failures are logged
// and treated as misses.
func (s *FeedService) cachedFeed(ctx context.Context) ([]domain.FeedItem, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, feedCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WarnContext(ctx, "feed cache read failed",
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var items []domain.FeedItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.WarnContext(ctx, "feed cache decode failed",
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	return items, true
}

// storeFeed writes the feed to Redis, best effort.
func (s *FeedService) storeFeed(ctx context.Context, items []domain.FeedItem) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(items)
	if err != nil {
		s.logger.WarnContext(ctx, "feed cache encode failed",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.cache.Set(ctx, feedCacheKey, data, feedCacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "feed cache write failed",
			slog.String("error", err.Error()),
		)
	}
}
