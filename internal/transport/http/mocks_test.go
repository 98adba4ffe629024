package http

import (
	"context"

	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/internal/service"
	"github.com/YusovID/addon-reviews/pkg/api"
	"github.com/stretchr/testify/mock"
)

type ReviewServiceMock struct {
	mock.Mock
}

func (m *ReviewServiceMock) ListReviews(ctx context.Context, caller domain.Caller, scope domain.ReviewScope, filter domain.ListFilter, page domain.Page, withGroupedRatings bool) (*api.ReviewList, error) {
	args := m.Called(ctx, caller, scope, filter, page, withGroupedRatings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.ReviewList), args.Error(1)
}

func (m *ReviewServiceMock) GetReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64) (interface{}, error) {
	args := m.Called(ctx, caller, addonRef, reviewID)
	return args.Get(0), args.Error(1)
}

func (m *ReviewServiceMock) CreateReview(ctx context.Context, caller domain.Caller, addonRef string, in service.ReviewInput) (*api.Review, error) {
	args := m.Called(ctx, caller, addonRef, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.Review), args.Error(1)
}

func (m *ReviewServiceMock) ReplyToReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, in service.ReplyInput) (*api.Reply, bool, error) {
	args := m.Called(ctx, caller, addonRef, reviewID, in)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}

	return args.Get(0).(*api.Reply), args.Bool(1), args.Error(2)
}

func (m *ReviewServiceMock) EditReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, patch service.ReviewPatch) (interface{}, error) {
	args := m.Called(ctx, caller, addonRef, reviewID, patch)
	return args.Get(0), args.Error(1)
}

func (m *ReviewServiceMock) DeleteReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, hard bool) error {
	args := m.Called(ctx, caller, addonRef, reviewID, hard)
	return args.Error(0)
}

func (m *ReviewServiceMock) UndeleteReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64) (interface{}, error) {
	args := m.Called(ctx, caller, addonRef, reviewID)
	return args.Get(0), args.Error(1)
}

func (m *ReviewServiceMock) FlagReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, reason domain.FlagReason, note string) (*domain.ReviewFlag, error) {
	args := m.Called(ctx, caller, addonRef, reviewID, reason, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewFlag), args.Error(1)
}

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Authenticate(ctx context.Context, token, ipAddress string) (domain.Caller, error) {
	args := m.Called(ctx, token, ipAddress)
	return args.Get(0).(domain.Caller), args.Error(1)
}
