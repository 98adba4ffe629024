package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/internal/service"
	"github.com/YusovID/addon-reviews/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const remoteIP = "192.0.2.1"

var (
	anonymous = domain.Caller{IPAddress: remoteIP}
	member    = domain.Caller{UserID: 7, IPAddress: remoteIP}
	created   = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
)

type routeCase struct {
	name                 string
	method               string
	target               string
	body                 string
	token                string
	setupMocks           func(*ReviewServiceMock)
	expectedStatusCode   int
	expectedResponseBody string
}

func newTestServer() (*Server, *ReviewServiceMock, *AuthServiceMock) {
	reviews := new(ReviewServiceMock)
	auth := new(AuthServiceMock)

	auth.On("Authenticate", mock.Anything, "", remoteIP).Return(anonymous, nil).Maybe()
	auth.On("Authenticate", mock.Anything, "good", remoteIP).Return(member, nil).Maybe()
	auth.On("Authenticate", mock.Anything, "bad", remoteIP).
		Return(domain.Caller{}, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthenticated)).Maybe()

	server := NewServer(slog.New(slog.NewJSONHandler(os.Stdout, nil)), reviews, auth, nil)

	return server, reviews, auth
}

func runRouteCases(t *testing.T, testCases []routeCase) {
	t.Helper()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, reviewServiceMock, _ := newTestServer()
			if tc.setupMocks != nil {
				tc.setupMocks(reviewServiceMock)
			}

			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}

			rr := httptest.NewRecorder()

			server.Routes().ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedResponseBody != "" {
				assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			} else {
				assert.Empty(t, rr.Body.String())
			}
			reviewServiceMock.AssertExpectations(t)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func sampleReview() *api.Review {
	return &api.Review{
		Id:       1,
		Addon:    api.AddonRef{Id: 3, Slug: "my-addon"},
		Body:     ptr("Great"),
		Rating:   ptr(5),
		User:     api.UserRef{Id: 7, Name: "alice"},
		Created:  created,
		IsLatest: true,
	}
}

const sampleReviewJSON = `{
	"id": 1,
	"addon": {"id": 3, "slug": "my-addon"},
	"body": "Great",
	"title": null,
	"rating": 5,
	"version": null,
	"user": {"id": 7, "name": "alice"},
	"created": "2024-01-02T03:04:05Z",
	"is_latest": true,
	"is_deleted": false,
	"reply": null
}`

func sampleReply() *api.Reply {
	return &api.Reply{
		Id:      2,
		Addon:   api.AddonRef{Id: 3, Slug: "my-addon"},
		ReplyTo: 1,
		Body:    ptr("Thanks"),
		User:    api.UserRef{Id: 7, Name: "alice"},
		Created: created,
	}
}

const sampleReplyJSON = `{
	"id": 2,
	"addon": {"id": 3, "slug": "my-addon"},
	"reply_to": 1,
	"body": "Thanks",
	"title": null,
	"user": {"id": 7, "name": "alice"},
	"created": "2024-01-02T03:04:05Z",
	"is_deleted": false
}`

func TestServer_ListAddonReviews(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Success with grouped ratings",
			method: http.MethodGet,
			target: "/api/v1/addons/my-addon/reviews/?filter=with_deleted&show_grouped_ratings=1&page=2",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ListReviews", mock.Anything, anonymous, domain.ReviewScope{AddonRef: "my-addon"},
					domain.FilterWithDeleted, domain.Page{Number: 2}, true).
					Return(&api.ReviewList{Count: 26, Page: 2, PageSize: 25, Results: []interface{}{}, GroupedRatings: map[int]int{5: 26}}, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"count":26,"page":2,"page_size":25,"results":[],"grouped_ratings":{"5":26}}`,
		},
		{
			name:   "Grouped ratings off by default",
			method: http.MethodGet,
			target: "/api/v1/addons/my-addon/reviews/",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ListReviews", mock.Anything, anonymous, domain.ReviewScope{AddonRef: "my-addon"},
					domain.FilterDefault, domain.Page{}, false).
					Return(&api.ReviewList{Count: 0, Page: 1, PageSize: 25, Results: []interface{}{}}, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"count":0,"page":1,"page_size":25,"results":[]}`,
		},
		{
			name:                 "Unknown filter",
			method:               http.MethodGet,
			target:               "/api/v1/addons/my-addon/reviews/?filter=everything",
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"Invalid input.","fields":{"filter":["Select a valid choice. everything is not one of the available choices."]}}}`,
		},
		{
			name:                 "Page is not a number",
			method:               http.MethodGet,
			target:               "/api/v1/addons/my-addon/reviews/?page=abc",
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"A valid integer is required.","fields":{"page":["A valid integer is required."]}}}`,
		},
		{
			name:                 "Page below one",
			method:               http.MethodGet,
			target:               "/api/v1/addons/my-addon/reviews/?page=-1",
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"Invalid input.","fields":{"page":["Ensure this value is greater than or equal to 1."]}}}`,
		},
		{
			name:   "Add-on not visible",
			method: http.MethodGet,
			target: "/api/v1/addons/hidden/reviews/",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ListReviews", mock.Anything, anonymous, domain.ReviewScope{AddonRef: "hidden"},
					domain.FilterDefault, domain.Page{}, false).Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":{"code":"NOT_FOUND","message":"Not found."}}`,
		},
	})
}

func TestServer_ListAccountReviews(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Success",
			method: http.MethodGet,
			target: "/api/v1/accounts/9/reviews/?page_size=10",
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ListReviews", mock.Anything, member, domain.ReviewScope{UserID: 9},
					domain.FilterDefault, domain.Page{Size: 10}, false).
					Return(&api.ReviewList{Count: 1, Page: 1, PageSize: 10, Results: []interface{}{sampleReply()}}, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"count":1,"page":1,"page_size":10,"results":[` + sampleReplyJSON + `]}`,
		},
		{
			name:                 "User id is not a number",
			method:               http.MethodGet,
			target:               "/api/v1/accounts/alice/reviews/",
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"A valid integer is required.","fields":{"user_id":["A valid integer is required."]}}}`,
		},
		{
			name:   "Unknown user",
			method: http.MethodGet,
			target: "/api/v1/accounts/404/reviews/",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ListReviews", mock.Anything, anonymous, domain.ReviewScope{UserID: 404},
					domain.FilterDefault, domain.Page{}, false).Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":{"code":"NOT_FOUND","message":"Not found."}}`,
		},
	})
}

func TestServer_CreateAddonReview(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Success",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/",
			body:   `{"body":"Great","rating":5,"version":11}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("CreateReview", mock.Anything, member, "my-addon", mock.MatchedBy(func(in service.ReviewInput) bool {
					return *in.Body == "Great" && *in.Rating == 5 && *in.Version == 11 && in.Title == nil
				})).Return(sampleReview(), nil).Once()
			},
			expectedStatusCode:   http.StatusCreated,
			expectedResponseBody: sampleReviewJSON,
		},
		{
			name:                 "Invalid JSON Body",
			method:               http.MethodPost,
			target:               "/api/v1/addons/my-addon/reviews/",
			body:                 `{invalid json}`,
			token:                "good",
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"invalid request body"}}`,
		},
		{
			name:                 "Rating of the wrong type",
			method:               http.MethodPost,
			target:               "/api/v1/addons/my-addon/reviews/",
			body:                 `{"rating":"five","version":11}`,
			token:                "good",
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"Expected int but got string.","fields":{"rating":["Expected int but got string."]}}}`,
		},
		{
			name:   "Title too long",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/",
			body:   `{"title":"` + strings.Repeat("t", 256) + `","rating":5,"version":11}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("CreateReview", mock.Anything, member, "my-addon", mock.Anything).
					Return(nil, apperrors.NewFieldError("title", "Ensure this field has no more than 255 characters.")).Once()
			},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"Ensure this field has no more than 255 characters.","fields":{"title":["Ensure this field has no more than 255 characters."]}}}`,
		},
		{
			name:   "Anonymous caller with an over-long title",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/",
			body:   `{"title":"` + strings.Repeat("t", 256) + `"}`,
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("CreateReview", mock.Anything, anonymous, "my-addon", mock.Anything).
					Return(nil, apperrors.ErrUnauthenticated).Once()
			},
			expectedStatusCode:   http.StatusUnauthorized,
			expectedResponseBody: `{"error":{"code":"UNAUTHENTICATED","message":"Authentication credentials were not provided."}}`,
		},
		{
			name:   "Anonymous caller",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/",
			body:   `{"rating":5,"version":11}`,
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("CreateReview", mock.Anything, anonymous, "my-addon", mock.Anything).
					Return(nil, apperrors.ErrUnauthenticated).Once()
			},
			expectedStatusCode:   http.StatusUnauthorized,
			expectedResponseBody: `{"error":{"code":"UNAUTHENTICATED","message":"Authentication credentials were not provided."}}`,
		},
		{
			name:   "Author reviewing own add-on",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/",
			body:   `{"rating":5,"version":11}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("CreateReview", mock.Anything, member, "my-addon", mock.Anything).
					Return(nil, &apperrors.ForbiddenError{Reason: "add-on author"}).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: `{"error":{"code":"FORBIDDEN","message":"You do not have permission to perform this action."}}`,
		},
		{
			name:   "Service-level field error",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/",
			body:   `{"rating":5}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("CreateReview", mock.Anything, member, "my-addon", mock.Anything).
					Return(nil, apperrors.NewFieldError("version", "This field is required.")).Once()
			},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"This field is required.","fields":{"version":["This field is required."]}}}`,
		},
		{
			name:   "Unexpected failure",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/",
			body:   `{"rating":5,"version":11}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("CreateReview", mock.Anything, member, "my-addon", mock.Anything).
					Return(nil, errors.New("connection reset")).Once()
			},
			expectedStatusCode:   http.StatusInternalServerError,
			expectedResponseBody: `{"error":{"code":"INTERNAL","message":"internal server error"}}`,
		},
	})
}

func TestServer_GetAddonReview(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Success",
			method: http.MethodGet,
			target: "/api/v1/addons/my-addon/reviews/1/",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("GetReview", mock.Anything, anonymous, "my-addon", int64(1)).Return(sampleReview(), nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: sampleReviewJSON,
		},
		{
			name:   "Reply is returned as a reply",
			method: http.MethodGet,
			target: "/api/v1/addons/my-addon/reviews/2/",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("GetReview", mock.Anything, anonymous, "my-addon", int64(2)).Return(sampleReply(), nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: sampleReplyJSON,
		},
		{
			name:   "Not found",
			method: http.MethodGet,
			target: "/api/v1/addons/my-addon/reviews/3/",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("GetReview", mock.Anything, anonymous, "my-addon", int64(3)).Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":{"code":"NOT_FOUND","message":"Not found."}}`,
		},
		{
			name:                 "Review id is not a number",
			method:               http.MethodGet,
			target:               "/api/v1/addons/my-addon/reviews/latest/",
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"A valid integer is required.","fields":{"review_id":["A valid integer is required."]}}}`,
		},
		{
			name:                 "Invalid token",
			method:               http.MethodGet,
			target:               "/api/v1/addons/my-addon/reviews/1/",
			token:                "bad",
			expectedStatusCode:   http.StatusUnauthorized,
			expectedResponseBody: `{"error":{"code":"UNAUTHENTICATED","message":"Authentication credentials were not provided."}}`,
		},
	})
}

func TestServer_PatchAddonReview(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Success",
			method: http.MethodPatch,
			target: "/api/v1/addons/my-addon/reviews/1/",
			body:   `{"body":"Great"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("EditReview", mock.Anything, member, "my-addon", int64(1),
					service.ReviewPatch{Body: ptr("Great")}).Return(sampleReview(), nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: sampleReviewJSON,
		},
		{
			name:   "Changing the version is rejected",
			method: http.MethodPatch,
			target: "/api/v1/addons/my-addon/reviews/1/",
			body:   `{"version":12}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("EditReview", mock.Anything, member, "my-addon", int64(1), mock.Anything).
					Return(nil, apperrors.NewFieldError("version", "You can't change the version of the add-on reviewed once the review has been created.")).Once()
			},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"You can't change the version of the add-on reviewed once the review has been created.","fields":{"version":["You can't change the version of the add-on reviewed once the review has been created."]}}}`,
		},
		{
			name:   "Not the owner",
			method: http.MethodPatch,
			target: "/api/v1/addons/my-addon/reviews/1/",
			body:   `{"body":"mine now"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("EditReview", mock.Anything, member, "my-addon", int64(1), mock.Anything).
					Return(nil, apperrors.ErrForbidden).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: `{"error":{"code":"FORBIDDEN","message":"You do not have permission to perform this action."}}`,
		},
		{
			name:   "Over-long title on someone else's review",
			method: http.MethodPatch,
			target: "/api/v1/addons/my-addon/reviews/1/",
			body:   `{"title":"` + strings.Repeat("t", 256) + `"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("EditReview", mock.Anything, member, "my-addon", int64(1), mock.Anything).
					Return(nil, apperrors.ErrForbidden).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: `{"error":{"code":"FORBIDDEN","message":"You do not have permission to perform this action."}}`,
		},
		{
			name:                 "PUT is not allowed",
			method:               http.MethodPut,
			target:               "/api/v1/addons/my-addon/reviews/1/",
			body:                 `{"body":"Great"}`,
			token:                "good",
			expectedStatusCode:   http.StatusMethodNotAllowed,
			expectedResponseBody: `{"error":{"code":"METHOD_NOT_ALLOWED","message":"Method \"PUT\" not allowed."}}`,
		},
	})
}

func TestServer_DeleteAddonReview(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Soft delete",
			method: http.MethodDelete,
			target: "/api/v1/addons/my-addon/reviews/1/",
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("DeleteReview", mock.Anything, member, "my-addon", int64(1), false).Return(nil).Once()
			},
			expectedStatusCode: http.StatusNoContent,
		},
		{
			name:   "Hard delete",
			method: http.MethodDelete,
			target: "/api/v1/addons/my-addon/reviews/1/?hard_delete=1",
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("DeleteReview", mock.Anything, member, "my-addon", int64(1), true).Return(nil).Once()
			},
			expectedStatusCode: http.StatusNoContent,
		},
		{
			name:   "Already deleted",
			method: http.MethodDelete,
			target: "/api/v1/addons/my-addon/reviews/1/",
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("DeleteReview", mock.Anything, member, "my-addon", int64(1), false).Return(apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":{"code":"NOT_FOUND","message":"Not found."}}`,
		},
	})
}

func TestServer_FlagAddonReview(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Success",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/flag/",
			body:   `{"flag":"review_flag_reason_spam"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("FlagReview", mock.Anything, member, "my-addon", int64(1), domain.FlagSpam, "").
					Return(&domain.ReviewFlag{Flag: domain.FlagSpam}, nil).Once()
			},
			expectedStatusCode:   http.StatusAccepted,
			expectedResponseBody: `{"msg":"Thanks; this review has been flagged for editor approval."}`,
		},
		{
			name:   "Other without a note",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/flag/",
			body:   `{"flag":"review_flag_reason_other"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("FlagReview", mock.Anything, member, "my-addon", int64(1), domain.FlagOther, "").
					Return(nil, apperrors.NewFieldError("note", "A short explanation must be provided when selecting \"Other\" as a flag reason.")).Once()
			},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"A short explanation must be provided when selecting \"Other\" as a flag reason.","fields":{"note":["A short explanation must be provided when selecting \"Other\" as a flag reason."]}}}`,
		},
		{
			name:   "Own review",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/flag/",
			body:   `{"flag":"review_flag_reason_spam"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("FlagReview", mock.Anything, member, "my-addon", int64(1), domain.FlagSpam, "").
					Return(nil, &apperrors.ForbiddenError{Reason: "own review"}).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: `{"error":{"code":"FORBIDDEN","message":"You do not have permission to perform this action."}}`,
		},
	})
}

func TestServer_ReplyToAddonReview(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "First reply",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/reply/",
			body:   `{"body":"Thanks"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ReplyToReview", mock.Anything, member, "my-addon", int64(1),
					service.ReplyInput{Body: ptr("Thanks")}).Return(sampleReply(), true, nil).Once()
			},
			expectedStatusCode:   http.StatusCreated,
			expectedResponseBody: sampleReplyJSON,
		},
		{
			name:   "Existing reply is rewritten",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/reply/",
			body:   `{"body":"Thanks"}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ReplyToReview", mock.Anything, member, "my-addon", int64(1), mock.Anything).
					Return(sampleReply(), false, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: sampleReplyJSON,
		},
		{
			name:   "Blank body",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/reply/",
			body:   `{"body":"   "}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ReplyToReview", mock.Anything, member, "my-addon", int64(1), service.ReplyInput{Body: ptr("   ")}).
					Return(nil, false, apperrors.NewFieldError("body", "This field is required.")).Once()
			},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":{"code":"VALIDATION_ERROR","message":"This field is required.","fields":{"body":["This field is required."]}}}`,
		},
		{
			name:   "Anonymous empty request",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/reply/",
			body:   `{}`,
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ReplyToReview", mock.Anything, anonymous, "my-addon", int64(1), service.ReplyInput{}).
					Return(nil, false, apperrors.ErrUnauthenticated).Once()
			},
			expectedStatusCode:   http.StatusUnauthorized,
			expectedResponseBody: `{"error":{"code":"UNAUTHENTICATED","message":"Authentication credentials were not provided."}}`,
		},
		{
			name:   "Empty request from a non-developer",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/reply/",
			body:   `{}`,
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ReplyToReview", mock.Anything, member, "my-addon", int64(1), service.ReplyInput{}).
					Return(nil, false, &apperrors.ForbiddenError{Reason: "not an add-on author"}).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: `{"error":{"code":"FORBIDDEN","message":"You do not have permission to perform this action."}}`,
		},
		{
			name:   "Empty request for a missing review",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/404/reply/",
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("ReplyToReview", mock.Anything, member, "my-addon", int64(404), service.ReplyInput{}).
					Return(nil, false, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":{"code":"NOT_FOUND","message":"Not found."}}`,
		},
	})
}

func TestServer_UndeleteAddonReview(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:   "Success",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/undelete/",
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("UndeleteReview", mock.Anything, member, "my-addon", int64(1)).Return(sampleReview(), nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: sampleReviewJSON,
		},
		{
			name:   "Missing permission",
			method: http.MethodPost,
			target: "/api/v1/addons/my-addon/reviews/1/undelete/",
			token:  "good",
			setupMocks: func(rsm *ReviewServiceMock) {
				rsm.On("UndeleteReview", mock.Anything, member, "my-addon", int64(1)).
					Return(nil, &apperrors.ForbiddenError{Reason: "admin only"}).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: `{"error":{"code":"FORBIDDEN","message":"You do not have permission to perform this action."}}`,
		},
	})
}

func TestServer_UnknownRoute(t *testing.T) {
	runRouteCases(t, []routeCase{
		{
			name:                 "Not found",
			method:               http.MethodGet,
			target:               "/api/v1/collections/",
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":{"code":"NOT_FOUND","message":"Not found."}}`,
		},
	})
}
