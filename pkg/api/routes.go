package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /api/v1/accounts/{user_id}/reviews/)
	ListAccountReviews(w http.ResponseWriter, r *http.Request, userId int64, params ListAccountReviewsParams)
	// (GET /api/v1/addons/{addon}/reviews/)
	ListAddonReviews(w http.ResponseWriter, r *http.Request, addon string, params ListAddonReviewsParams)
	// (POST /api/v1/addons/{addon}/reviews/)
	CreateAddonReview(w http.ResponseWriter, r *http.Request, addon string)
	// (GET /api/v1/addons/{addon}/reviews/{review_id}/)
	GetAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64)
	// (PATCH /api/v1/addons/{addon}/reviews/{review_id}/)
	PatchAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64)
	// (DELETE /api/v1/addons/{addon}/reviews/{review_id}/)
	DeleteAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64, params DeleteAddonReviewParams)
	// (POST /api/v1/addons/{addon}/reviews/{review_id}/flag/)
	FlagAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64)
	// (POST /api/v1/addons/{addon}/reviews/{review_id}/reply/)
	ReplyToAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64)
	// (POST /api/v1/addons/{addon}/reviews/{review_id}/undelete/)
	UndeleteAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64)
}

type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts path and query strings into typed arguments.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError is passed to ErrorHandlerFunc when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, handler http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}

	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) bindReviewPath(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	var addon string
	if err := runtime.BindStyledParameterWithLocation("simple", false, "addon", runtime.ParamLocationPath, chi.URLParam(r, "addon"), &addon); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "addon", Err: err})
		return "", 0, false
	}

	var reviewId int64
	if err := runtime.BindStyledParameterWithLocation("simple", false, "review_id", runtime.ParamLocationPath, chi.URLParam(r, "review_id"), &reviewId); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "review_id", Err: err})
		return "", 0, false
	}

	return addon, reviewId, true
}

// ListAccountReviews operation middleware
func (siw *ServerInterfaceWrapper) ListAccountReviews(w http.ResponseWriter, r *http.Request) {
	var userId int64
	if err := runtime.BindStyledParameterWithLocation("simple", false, "user_id", runtime.ParamLocationPath, chi.URLParam(r, "user_id"), &userId); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "user_id", Err: err})
		return
	}

	var params ListAccountReviewsParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "filter", query, &params.Filter); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "filter", Err: err})
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page", Err: err})
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "page_size", query, &params.PageSize); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page_size", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListAccountReviews(w, r, userId, params)
	}))
}

// ListAddonReviews operation middleware
func (siw *ServerInterfaceWrapper) ListAddonReviews(w http.ResponseWriter, r *http.Request) {
	var addon string
	if err := runtime.BindStyledParameterWithLocation("simple", false, "addon", runtime.ParamLocationPath, chi.URLParam(r, "addon"), &addon); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "addon", Err: err})
		return
	}

	var params ListAddonReviewsParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "filter", query, &params.Filter); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "filter", Err: err})
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "show_grouped_ratings", query, &params.ShowGroupedRatings); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "show_grouped_ratings", Err: err})
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page", Err: err})
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "page_size", query, &params.PageSize); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page_size", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListAddonReviews(w, r, addon, params)
	}))
}

// CreateAddonReview operation middleware
func (siw *ServerInterfaceWrapper) CreateAddonReview(w http.ResponseWriter, r *http.Request) {
	var addon string
	if err := runtime.BindStyledParameterWithLocation("simple", false, "addon", runtime.ParamLocationPath, chi.URLParam(r, "addon"), &addon); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "addon", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreateAddonReview(w, r, addon)
	}))
}

// GetAddonReview operation middleware
func (siw *ServerInterfaceWrapper) GetAddonReview(w http.ResponseWriter, r *http.Request) {
	addon, reviewId, ok := siw.bindReviewPath(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetAddonReview(w, r, addon, reviewId)
	}))
}

// PatchAddonReview operation middleware
func (siw *ServerInterfaceWrapper) PatchAddonReview(w http.ResponseWriter, r *http.Request) {
	addon, reviewId, ok := siw.bindReviewPath(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.PatchAddonReview(w, r, addon, reviewId)
	}))
}

// DeleteAddonReview operation middleware
func (siw *ServerInterfaceWrapper) DeleteAddonReview(w http.ResponseWriter, r *http.Request) {
	addon, reviewId, ok := siw.bindReviewPath(w, r)
	if !ok {
		return
	}

	var params DeleteAddonReviewParams
	if err := runtime.BindQueryParameter("form", true, false, "hard_delete", r.URL.Query(), &params.HardDelete); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "hard_delete", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteAddonReview(w, r, addon, reviewId, params)
	}))
}

// FlagAddonReview operation middleware
func (siw *ServerInterfaceWrapper) FlagAddonReview(w http.ResponseWriter, r *http.Request) {
	addon, reviewId, ok := siw.bindReviewPath(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.FlagAddonReview(w, r, addon, reviewId)
	}))
}

// ReplyToAddonReview operation middleware
func (siw *ServerInterfaceWrapper) ReplyToAddonReview(w http.ResponseWriter, r *http.Request) {
	addon, reviewId, ok := siw.bindReviewPath(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ReplyToAddonReview(w, r, addon, reviewId)
	}))
}

// UndeleteAddonReview operation middleware
func (siw *ServerInterfaceWrapper) UndeleteAddonReview(w http.ResponseWriter, r *http.Request) {
	addon, reviewId, ok := siw.bindReviewPath(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UndeleteAddonReview(w, r, addon, reviewId)
	}))
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	base := options.BaseURL + "/api/v1"

	r.Group(func(r chi.Router) {
		r.Get(base+"/accounts/{user_id}/reviews/", wrapper.ListAccountReviews)
	})
	r.Group(func(r chi.Router) {
		r.Get(base+"/addons/{addon}/reviews/", wrapper.ListAddonReviews)
	})
	r.Group(func(r chi.Router) {
		r.Post(base+"/addons/{addon}/reviews/", wrapper.CreateAddonReview)
	})
	r.Group(func(r chi.Router) {
		r.Get(base+"/addons/{addon}/reviews/{review_id}/", wrapper.GetAddonReview)
	})
	r.Group(func(r chi.Router) {
		r.Patch(base+"/addons/{addon}/reviews/{review_id}/", wrapper.PatchAddonReview)
	})
	r.Group(func(r chi.Router) {
		r.Delete(base+"/addons/{addon}/reviews/{review_id}/", wrapper.DeleteAddonReview)
	})
	r.Group(func(r chi.Router) {
		r.Post(base+"/addons/{addon}/reviews/{review_id}/flag/", wrapper.FlagAddonReview)
	})
	r.Group(func(r chi.Router) {
		r.Post(base+"/addons/{addon}/reviews/{review_id}/reply/", wrapper.ReplyToAddonReview)
	})
	r.Group(func(r chi.Router) {
		r.Post(base+"/addons/{addon}/reviews/{review_id}/undelete/", wrapper.UndeleteAddonReview)
	})

	return r
}
