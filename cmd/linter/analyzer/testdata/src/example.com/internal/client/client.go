package client

import "net/http"

func List() (*http.Response, error) {
	return http.DefaultClient.Get("http://localhost:8080/api/url_maps") // No want
}

func Head() (*http.Response, error) {
	return http.Head("http://localhost:8080/api/url_maps") // No want
}

func Fail() {
	panic("still forbidden") // want "panic is forbidden"
}
