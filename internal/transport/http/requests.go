package http

// The review bodies carry no tags: the review service checks them once the
// caller and the review are known, so auth and lookup errors come first.
type createReviewRequest struct {
	Body    *string `json:"body"`
	Title   *string `json:"title"`
	Rating  *int    `json:"rating"`
	Version *int64  `json:"version"`
}

type patchReviewRequest struct {
	Body    *string `json:"body"`
	Title   *string `json:"title"`
	Rating  *int    `json:"rating"`
	Version *int64  `json:"version"`
}

type replyRequest struct {
	Body  *string `json:"body"`
	Title *string `json:"title"`
}

// flagRequest is validated by the moderation rules after the note has been
// normalized, so it carries no tags.
type flagRequest struct {
	Flag string `json:"flag"`
	Note string `json:"note"`
}

type listQuery struct {
	Filter   string `json:"filter" validate:"omitempty,review_filter"`
	Page     int    `json:"page" validate:"omitempty,min=1"`
	PageSize int    `json:"page_size" validate:"omitempty,min=1"`
}
