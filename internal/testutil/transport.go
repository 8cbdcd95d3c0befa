package testutil

import (
	"context"
	"sync"

	"github.com/roach88/lnquery/internal/transport"
)

// FakeDoer is a transport.Doer that answers every request with a canned
// response and records what it was sent.
type FakeDoer struct {
	mu       sync.Mutex
	Response transport.Response
	Err      error
	requests []transport.Request
}

// NewFakeDoer answers with status and body.
func NewFakeDoer(status int, body, contentType string) *FakeDoer {
	return &FakeDoer{Response: transport.Response{Status: status, Body: body, ContentType: contentType}}
}

// Do records req and returns the canned response. A cancelled ctx wins
// over the canned answer, like a real client.
func (f *FakeDoer) Do(ctx context.Context, req transport.Request) (transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return transport.Response{}, err
	}
	if f.Err != nil {
		return transport.Response{}, f.Err
	}
	return f.Response, nil
}

// Requests returns every request received so far.
func (f *FakeDoer) Requests() []transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Request(nil), f.requests...)
}

// Last returns the most recent request.
func (f *FakeDoer) Last() (transport.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return transport.Request{}, false
	}
	return f.requests[len(f.requests)-1], true
}
