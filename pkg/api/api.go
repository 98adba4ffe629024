// Package api holds the JSON wire types of the reviews API and the chi route
// table that binds path and query parameters before calling a ServerInterface.
package api

import "time"

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

const (
	VALIDATIONERROR  ErrorCode = "VALIDATION_ERROR"
	UNAUTHENTICATED  ErrorCode = "UNAUTHENTICATED"
	FORBIDDEN        ErrorCode = "FORBIDDEN"
	NOTFOUND         ErrorCode = "NOT_FOUND"
	METHODNOTALLOWED ErrorCode = "METHOD_NOT_ALLOWED"
	RATELIMITED      ErrorCode = "RATE_LIMITED"
	INTERNAL         ErrorCode = "INTERNAL"
)

type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Fields maps a request field to its messages; "non_field_errors" collects the rest.
	Fields map[string][]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type AddonRef struct {
	Id   int64  `json:"id"`
	Slug string `json:"slug"`
}

type UserRef struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

// Review is a top-level review. Reply is null when the review has no visible reply.
type Review struct {
	Id        int64     `json:"id"`
	Addon     AddonRef  `json:"addon"`
	Body      *string   `json:"body"`
	Title     *string   `json:"title"`
	Rating    *int      `json:"rating"`
	Version   *string   `json:"version"`
	User      UserRef   `json:"user"`
	Created   time.Time `json:"created"`
	IsLatest  bool      `json:"is_latest"`
	IsDeleted bool      `json:"is_deleted"`
	IpAddress *string   `json:"ip_address,omitempty"`
	Reply     *Reply    `json:"reply"`
}

// Reply is a developer response to a review. It never carries a rating or a version.
type Reply struct {
	Id        int64     `json:"id"`
	Addon     AddonRef  `json:"addon"`
	ReplyTo   int64     `json:"reply_to"`
	Body      *string   `json:"body"`
	Title     *string   `json:"title"`
	User      UserRef   `json:"user"`
	Created   time.Time `json:"created"`
	IsDeleted bool      `json:"is_deleted"`
	IpAddress *string   `json:"ip_address,omitempty"`
}

// ReviewList is a page of results. Each result is a Review or, in user-scoped
// listings, a Reply.
type ReviewList struct {
	Count          int           `json:"count"`
	Page           int           `json:"page"`
	PageSize       int           `json:"page_size"`
	Results        []interface{} `json:"results"`
	GroupedRatings map[int]int   `json:"grouped_ratings,omitempty"`
}

type FlagResponse struct {
	Msg string `json:"msg"`
}

// ListAddonReviewsParams defines parameters for ListAddonReviews.
type ListAddonReviewsParams struct {
	Filter             *string `form:"filter,omitempty" json:"filter,omitempty"`
	ShowGroupedRatings *int    `form:"show_grouped_ratings,omitempty" json:"show_grouped_ratings,omitempty"`
	Page               *int    `form:"page,omitempty" json:"page,omitempty"`
	PageSize           *int    `form:"page_size,omitempty" json:"page_size,omitempty"`
}

// ListAccountReviewsParams defines parameters for ListAccountReviews.
type ListAccountReviewsParams struct {
	Filter   *string `form:"filter,omitempty" json:"filter,omitempty"`
	Page     *int    `form:"page,omitempty" json:"page,omitempty"`
	PageSize *int    `form:"page_size,omitempty" json:"page_size,omitempty"`
}

// DeleteAddonReviewParams defines parameters for DeleteAddonReview.
type DeleteAddonReviewParams struct {
	HardDelete *int `form:"hard_delete,omitempty" json:"hard_delete,omitempty"`
}
