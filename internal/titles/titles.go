// Package titles defines the capability contract for the external movie
// metadata sources (title search, rating aggregation, parental guides).
// Backends have changed interface over time (GraphQL endpoint vs. scraped
// HTML), so the rest of the application depends only on this interface and
// the selected backend is injected at startup.
package titles

import "context"

type Title struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	PosterURL string `json:"poster"`
}

type RatingSummary struct {
	Rating        string `json:"rating"`
	Plot          string `json:"plot"`
	CriticScore   *int   `json:"criticScore,omitempty"`
	AudienceScore *int   `json:"audienceScore,omitempty"`
}

type ParentsGuide struct {
	Categories map[string]string `json:"categories"`
}

type Client interface {
	SearchTitles(ctx context.Context, query string) ([]Title, error)
	FetchTitleRating(ctx context.Context, titleID string) (RatingSummary, error)
	FetchParentsGuide(ctx context.Context, titleID string) (ParentsGuide, error)
}
