// Package cached decorates repositories with an in-process cache.
package cached

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/YusovID/addon-reviews/internal/repository"
	"github.com/patrickmn/go-cache"
)

const ratingsPrefix = "grouped_ratings:"

// ReviewQueryRepository serves GroupedRatings from memory and delegates everything else.
type ReviewQueryRepository struct {
	repository.ReviewQueryRepository

	cache *cache.Cache
	log   *slog.Logger
}

func NewReviewQueryRepository(next repository.ReviewQueryRepository, ttl time.Duration, log *slog.Logger) *ReviewQueryRepository {
	return &ReviewQueryRepository{
		ReviewQueryRepository: next,
		cache:                 cache.New(ttl, 2*ttl),
		log:                   log,
	}
}

func ratingsKey(addonID int64) string {
	return ratingsPrefix + strconv.FormatInt(addonID, 10)
}

func (r *ReviewQueryRepository) GroupedRatings(ctx context.Context, addonID int64) (map[int]int, error) {
	const op = "internal.repository.cached.GroupedRatings"

	key := ratingsKey(addonID)
	if cached, found := r.cache.Get(key); found {
		return copyRatings(cached.(map[int]int)), nil
	}

	r.log.Debug("grouped ratings cache miss", slog.String("op", op), slog.Int64("addon_id", addonID))

	grouped, err := r.ReviewQueryRepository.GroupedRatings(ctx, addonID)
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, copyRatings(grouped), cache.DefaultExpiration)

	return grouped, nil
}

// Forget drops the cached ratings of an add-on after one of its reviews changed.
func (r *ReviewQueryRepository) Forget(addonID int64) {
	r.cache.Delete(ratingsKey(addonID))
}

func copyRatings(in map[int]int) map[int]int {
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
