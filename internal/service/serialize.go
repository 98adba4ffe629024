package service

import (
	"database/sql"

	"github.com/YusovID/addon-reviews/internal/authz"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/pkg/api"
)

// toAPI renders a review for the given caller; replies and top-level reviews
// have different shapes.
func toAPI(caller domain.Caller, review *domain.Review) interface{} {
	if review.IsReply() {
		return toAPIReply(caller, review)
	}

	return toAPIReview(caller, review)
}

func toAPIReview(caller domain.Caller, review *domain.Review) *api.Review {
	out := &api.Review{
		Id:        review.ID,
		Addon:     api.AddonRef{Id: review.AddonID, Slug: review.AddonSlug},
		Body:      nullString(review.Body),
		Title:     nullString(review.Title),
		Version:   nullString(review.VersionString),
		User:      api.UserRef{Id: review.UserID, Name: review.Username},
		Created:   review.Created,
		IsLatest:  review.IsLatest,
		IsDeleted: review.Deleted,
		IpAddress: ipFor(caller, review),
	}

	if review.Rating.Valid {
		rating := int(review.Rating.Int16)
		out.Rating = &rating
	}

	if review.Reply != nil {
		out.Reply = toAPIReply(caller, review.Reply)
	}

	return out
}

func toAPIReply(caller domain.Caller, reply *domain.Review) *api.Reply {
	return &api.Reply{
		Id:        reply.ID,
		Addon:     api.AddonRef{Id: reply.AddonID, Slug: reply.AddonSlug},
		ReplyTo:   reply.ReplyTo.Int64,
		Body:      nullString(reply.Body),
		Title:     nullString(reply.Title),
		User:      api.UserRef{Id: reply.UserID, Name: reply.Username},
		Created:   reply.Created,
		IsDeleted: reply.Deleted,
		IpAddress: ipFor(caller, reply),
	}
}

func ipFor(caller domain.Caller, review *domain.Review) *string {
	if !authz.Authorize(caller, authz.ActionViewIP, authz.Resource{Review: review}).Allowed {
		return nil
	}

	ip := review.IPAddress

	return &ip
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return &s.String
}
