package http

import "github.com/vadimbarashkov/shrimpli/internal/entity"

type shortenRequest struct {
	URL string `json:"url" validate:"required"`
}

type shortenResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

func toShortenResponse(url *entity.URL, baseURL string) shortenResponse {
	return shortenResponse{
		ShortCode: url.ShortCode,
		ShortURL:  baseURL + "/" + url.ShortCode,
	}
}

type urlStatsResponse struct {
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
	Clicks      int64  `json:"clicks"`
}

func toURLStatsResponse(url *entity.URL) urlStatsResponse {
	return urlStatsResponse{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		Clicks:      url.Clicks,
	}
}
