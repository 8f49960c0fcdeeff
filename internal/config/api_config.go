package config

import "strconv"

const (
	apiBaseURLVar   = "API_BASE_URL"
	feedPageSizeVar = "FEED_PAGE_SIZE"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetFeedPageSize() int
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the base URL of the social backend
// (e.g. "https://api.example.com"). All REST paths are relative to it.
func (API) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:5000")
}

// GetFeedPageSize returns the number of posts requested per feed page.
// The backend caps limits at 100.
func (API) GetFeedPageSize() int {
	size, err := strconv.Atoi(GetEnv(feedPageSizeVar, "20"))
	if err != nil || size < 1 || size > 100 {
		return 20
	}
	return size
}
