// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/internal/service"
	"github.com/YusovID/addon-reviews/internal/validation"
	"github.com/YusovID/addon-reviews/pkg/api"
	"github.com/YusovID/addon-reviews/pkg/logger/sl"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

// Server holds the dependencies for the HTTP server, including the logger and service interfaces.
type Server struct {
	log         *slog.Logger
	reviews     service.ReviewService
	auth        service.AuthService
	flagLimiter *limiter.Limiter
	flagLimit   *stdlib.Middleware
}

// NewServer creates a new instance of the HTTP server. flagLimiter may be nil
// to disable throttling of the flag endpoint.
func NewServer(
	log *slog.Logger,
	reviews service.ReviewService,
	auth service.AuthService,
	flagLimiter *limiter.Limiter,
) *Server {
	s := &Server{
		log:         log,
		reviews:     reviews,
		auth:        auth,
		flagLimiter: flagLimiter,
	}
	s.flagLimit = s.newFlagLimit()

	return s
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RealIP)
	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondAPIError(w, http.StatusNotFound, api.NOTFOUND, "Not found.", nil)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondAPIError(w, http.StatusMethodNotAllowed, api.METHODNOTALLOWED,
			fmt.Sprintf("Method \"%s\" not allowed.", r.Method), nil)
	})

	mux.Handle("/metrics", promhttp.Handler())

	api.HandlerWithOptions(s, api.ChiServerOptions{
		BaseRouter: mux,
		// The last middleware wraps outermost: callers are resolved before the limiter keys on them.
		Middlewares:      []api.MiddlewareFunc{s.limitFlags, s.authenticate},
		ErrorHandlerFunc: s.handleParamError,
	})

	return mux
}

func (s *Server) ListAccountReviews(w http.ResponseWriter, r *http.Request, userId int64, params api.ListAccountReviewsParams) {
	const op = "internal.transport.http.ListAccountReviews"

	query := newListQuery(params.Filter, params.Page, params.PageSize)
	if err := validation.ValidateStruct(&query); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	list, err := s.reviews.ListReviews(
		r.Context(),
		callerFromContext(r.Context()),
		domain.ReviewScope{UserID: userId},
		domain.ListFilter(query.Filter),
		domain.Page{Number: query.Page, Size: query.PageSize},
		false,
	)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, list)
}

func (s *Server) ListAddonReviews(w http.ResponseWriter, r *http.Request, addon string, params api.ListAddonReviewsParams) {
	const op = "internal.transport.http.ListAddonReviews"

	query := newListQuery(params.Filter, params.Page, params.PageSize)
	if err := validation.ValidateStruct(&query); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	grouped := params.ShowGroupedRatings != nil && *params.ShowGroupedRatings != 0

	list, err := s.reviews.ListReviews(
		r.Context(),
		callerFromContext(r.Context()),
		domain.ReviewScope{AddonRef: addon},
		domain.ListFilter(query.Filter),
		domain.Page{Number: query.Page, Size: query.PageSize},
		grouped,
	)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, list)
}

func newListQuery(filter *string, page, pageSize *int) listQuery {
	var q listQuery
	if filter != nil {
		q.Filter = *filter
	}

	if page != nil {
		q.Page = *page
	}

	if pageSize != nil {
		q.PageSize = *pageSize
	}

	return q
}

func (s *Server) CreateAddonReview(w http.ResponseWriter, r *http.Request, addon string) {
	const op = "internal.transport.http.CreateAddonReview"

	var req createReviewRequest
	if err := s.decode(r.Body, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	review, err := s.reviews.CreateReview(r.Context(), callerFromContext(r.Context()), addon, service.ReviewInput{
		Body:    req.Body,
		Title:   req.Title,
		Rating:  req.Rating,
		Version: req.Version,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, review)
}

func (s *Server) GetAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64) {
	const op = "internal.transport.http.GetAddonReview"

	review, err := s.reviews.GetReview(r.Context(), callerFromContext(r.Context()), addon, reviewId)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, review)
}

func (s *Server) PatchAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64) {
	const op = "internal.transport.http.PatchAddonReview"

	var req patchReviewRequest
	if err := s.decode(r.Body, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	review, err := s.reviews.EditReview(r.Context(), callerFromContext(r.Context()), addon, reviewId, service.ReviewPatch{
		Body:    req.Body,
		Title:   req.Title,
		Rating:  req.Rating,
		Version: req.Version,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, review)
}

func (s *Server) DeleteAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64, params api.DeleteAddonReviewParams) {
	const op = "internal.transport.http.DeleteAddonReview"

	hard := params.HardDelete != nil && *params.HardDelete != 0

	if err := s.reviews.DeleteReview(r.Context(), callerFromContext(r.Context()), addon, reviewId, hard); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) FlagAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64) {
	const op = "internal.transport.http.FlagAddonReview"

	var req flagRequest
	if err := s.decode(r.Body, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	_, err := s.reviews.FlagReview(r.Context(), callerFromContext(r.Context()), addon, reviewId,
		domain.FlagReason(req.Flag), req.Note)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusAccepted, api.FlagResponse{Msg: service.FlagAcceptedMessage})
}

func (s *Server) ReplyToAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64) {
	const op = "internal.transport.http.ReplyToAddonReview"

	var req replyRequest
	if err := s.decode(r.Body, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	reply, created, err := s.reviews.ReplyToReview(r.Context(), callerFromContext(r.Context()), addon, reviewId, service.ReplyInput{
		Body:  req.Body,
		Title: req.Title,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}

	s.respond(w, code, reply)
}

func (s *Server) UndeleteAddonReview(w http.ResponseWriter, r *http.Request, addon string, reviewId int64) {
	const op = "internal.transport.http.UndeleteAddonReview"

	review, err := s.reviews.UndeleteReview(r.Context(), callerFromContext(r.Context()), addon, reviewId)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, review)
}

// respond is a helper function to encode data to JSON and write it to the response.
// It centralizes setting the Content-Type header and writing the status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	if data == nil {
		w.WriteHeader(code)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", sl.Err(err))
	}
}

// respondAPIError sends the structured error body shared by every endpoint.
func (s *Server) respondAPIError(w http.ResponseWriter, code int, apiCode api.ErrorCode, message string, fields map[string][]string) {
	s.respond(w, code, api.ErrorResponse{
		Error: api.ErrorBody{
			Code:    apiCode,
			Message: message,
			Fields:  fields,
		},
	})
}

// decode is a helper function to decode a JSON request body. An empty body
// decodes to the zero value so required-field messages can be reported.
func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewFieldError(typeErr.Field, fmt.Sprintf("Expected %s but got %s.", typeErr.Type, typeErr.Value))
	}

	return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
}

// handleParamError reports path and query parameters that could not be bound.
func (s *Server) handleParamError(w http.ResponseWriter, r *http.Request, err error) {
	var paramErr *api.InvalidParamFormatError
	if errors.As(err, &paramErr) {
		s.handleServiceError(w, r, "internal.transport.http.bindParams",
			apperrors.NewFieldError(paramErr.ParamName, "A valid integer is required."))
		return
	}

	s.handleServiceError(w, r, "internal.transport.http.bindParams", fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err))
}

// handleServiceError provides centralized error handling for all HTTP handlers.
// It logs the internal error and maps it to a user-friendly HTTP response.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op), slog.String("request_id", getRequestID(r.Context())))

	var (
		validationErrs *validation.ValidationError
		fieldErr       *apperrors.ValidationError
		forbiddenErr   *apperrors.ForbiddenError
	)

	switch {
	case errors.As(err, &validationErrs):
		log.Debug("request rejected", sl.Err(err))
		s.respondAPIError(w, http.StatusBadRequest, api.VALIDATIONERROR, "Invalid input.", validationErrs.Fields())
	case errors.As(err, &fieldErr):
		log.Debug("request rejected", sl.Err(err))
		key := fieldErr.Field
		if key == "" {
			key = "non_field_errors"
		}
		s.respondAPIError(w, http.StatusBadRequest, api.VALIDATIONERROR, fieldErr.Message, map[string][]string{key: {fieldErr.Message}})
	case errors.Is(err, apperrors.ErrInvalidRequest):
		log.Debug("request rejected", sl.Err(err))
		s.respondAPIError(w, http.StatusBadRequest, api.VALIDATIONERROR, "invalid request body", nil)
	case errors.Is(err, apperrors.ErrParse):
		s.respondAPIError(w, http.StatusBadRequest, api.VALIDATIONERROR, apperrors.ErrParse.Error(), nil)
	case errors.Is(err, apperrors.ErrUnauthenticated):
		log.Info("unauthenticated request", sl.Err(err))
		s.respondAPIError(w, http.StatusUnauthorized, api.UNAUTHENTICATED, "Authentication credentials were not provided.", nil)
	case errors.Is(err, apperrors.ErrForbidden):
		if errors.As(err, &forbiddenErr) {
			log.Info("permission denied", slog.String("reason", forbiddenErr.Reason))
		}
		s.respondAPIError(w, http.StatusForbidden, api.FORBIDDEN, "You do not have permission to perform this action.", nil)
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondAPIError(w, http.StatusNotFound, api.NOTFOUND, "Not found.", nil)
	default:
		log.Error("service error occurred", sl.Err(err))
		s.respondAPIError(w, http.StatusInternalServerError, api.INTERNAL, "internal server error", nil)
	}
}
