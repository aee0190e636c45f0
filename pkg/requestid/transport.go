package requestid

import "net/http"

// Transport stamps outgoing requests with the id carried by their context,
// generating one when absent.
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(Header) != "" {
		return base.RoundTrip(req)
	}

	ctx, id := Ensure(req.Context())
	req = req.Clone(ctx)
	req.Header.Set(Header, id)
	return base.RoundTrip(req)
}
