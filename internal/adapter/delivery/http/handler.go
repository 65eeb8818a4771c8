package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shrimpli/internal/entity"
	"github.com/vadimbarashkov/shrimpli/pkg/response"
)

const urlNotFoundMessage = "URL not found"

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.PlainText(w, r, "OK")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error)
	ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
	baseURL  string
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, baseURL string) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(err))
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), req.URL)
	if err != nil {
		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toShortenResponse(url, h.baseURL))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			urlNotFound(w, r)
			return
		}

		serverError(w, r, err)
		return
	}

	// Location carries the stored URL verbatim, http.Redirect would rewrite
	// values without a scheme relative to the request path.
	w.Header().Set("Location", url.OriginalURL)
	w.WriteHeader(http.StatusFound)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			urlNotFound(w, r)
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLStatsResponse(url))
}

func urlNotFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.PlainText(w, r, urlNotFoundMessage)
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.ServerErrorResponse)
}
