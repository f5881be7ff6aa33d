package forbiddencalls

import (
	"net/http"
	"net/url"
)

func FetchList() {
	_, _ = http.Get("http://localhost:8080/api/url_maps")                    // want "http.Get is forbidden outside the API client"
	_, _ = http.Post("http://localhost:8080/api/url_maps", "", nil)          // want "http.Post is forbidden outside the API client"
	_, _ = http.PostForm("http://localhost:8080/web/settings", url.Values{}) // want "http.PostForm is forbidden outside the API client"
	_ = http.DefaultClient                                                   // want "http.DefaultClient is forbidden outside the API client"
}

func WithOwnClient() {
	c := &http.Client{} // No want
	_, _ = c.Get("http://localhost:8080/api/url_maps")
}
