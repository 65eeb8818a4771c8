package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/shrimpli/internal/entity"
	"github.com/vadimbarashkov/shrimpli/internal/metrics"
)

type urlRepository interface {
	CreateShortURL(ctx context.Context, originalURL string) (*entity.URL, error)
	FindByCode(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementClicksAndFetch(ctx context.Context, shortCode string) (*entity.URL, error)
}

type URLUseCase struct {
	urlRepo urlRepository
	metrics *metrics.Metrics
}

func NewURLUseCase(urlRepo urlRepository, m *metrics.Metrics) *URLUseCase {
	return &URLUseCase{
		urlRepo: urlRepo,
		metrics: m,
	}
}

func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	url, err := uc.urlRepo.CreateShortURL(ctx, originalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
	}

	uc.metrics.URLsShortened.Inc()

	return url, nil
}

// ResolveShortCode counts a visit and returns the URL to redirect to.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	url, err := uc.urlRepo.IncrementClicksAndFetch(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			uc.metrics.LookupsNotFound.WithLabelValues(metrics.OperationRedirect).Inc()
		}

		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	uc.metrics.Redirects.Inc()

	return url, nil
}

// GetURLStats reads the URL without counting a visit.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.FindByCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			uc.metrics.LookupsNotFound.WithLabelValues(metrics.OperationStats).Inc()
		}

		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}
