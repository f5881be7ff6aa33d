package model

// URLMap is a short key pointing at a destination URL.
// Key doubles as the short path segment served by the redirect service.
type URLMap struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
