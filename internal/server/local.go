package server

import (
	"net/http"
	"net/http/httptest"
)

// LocalTransport answers requests by calling h in-process.
//
// It lets the CLI reach the exchange endpoint and playlist proxy without a listening server
// when no exchange_url is configured.
func LocalTransport(h http.Handler) http.RoundTripper {
	return localTransport{handler: h}
}

type localTransport struct {
	handler http.Handler
}

func (t localTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}

	r := req.Clone(req.Context())
	r.RequestURI = r.URL.RequestURI()
	if r.RemoteAddr == "" {
		r.RemoteAddr = "127.0.0.1:0"
	}

	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, r)

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
