package ghl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// AccessTokenProvider yields the current service-managed access token,
// refreshing it if needed. Implemented by oauth.Service.
type AccessTokenProvider interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

// BoundClient is a client facade bound to one resolved token. It lives for
// a single tool invocation and is never persisted.
type BoundClient struct {
	client *Client
	token  string
}

// Get performs a GET request. Query parameters with empty values are
// dropped.
func (b *BoundClient) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if encoded := encodeQuery(query); encoded != "" {
		path = path + "?" + encoded
	}
	return b.client.Request(ctx, http.MethodGet, path, nil, b.token)
}

// Post performs a POST request with a JSON body.
func (b *BoundClient) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return b.client.Request(ctx, http.MethodPost, path, body, b.token)
}

// Put performs a PUT request with a JSON body.
func (b *BoundClient) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return b.client.Request(ctx, http.MethodPut, path, body, b.token)
}

// Delete performs a DELETE request.
func (b *BoundClient) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return b.client.Request(ctx, http.MethodDelete, path, nil, b.token)
}

// Resolver is the single chokepoint deciding which token a tool
// invocation uses: a caller-supplied override, or the shared
// service-managed credential.
type Resolver struct {
	client *Client
	tokens AccessTokenProvider
}

// NewResolver creates a resolver over the shared client facade and the
// token provider.
func NewResolver(client *Client, tokens AccessTokenProvider) *Resolver {
	return &Resolver{client: client, tokens: tokens}
}

// Resolve returns a client bound to the token this call should use.
//
// A non-empty overrideToken is used literally, bypassing the OAuth service
// entirely: a shared server process can then serve callers that each
// authenticate as a different account. Otherwise the shared credential is
// used, and ErrNotAuthorized / RefreshError from the service propagate to
// the caller untouched; the resolver adds no error kinds of its own.
func (r *Resolver) Resolve(ctx context.Context, overrideToken string) (*BoundClient, error) {
	if overrideToken != "" {
		return &BoundClient{client: r.client, token: overrideToken}, nil
	}

	token, err := r.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return &BoundClient{client: r.client, token: token}, nil
}

// encodeQuery renders query values, skipping empty ones so optional tool
// arguments don't produce noise parameters.
func encodeQuery(query url.Values) string {
	if query == nil {
		return ""
	}
	cleaned := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if v != "" {
				cleaned.Add(key, v)
			}
		}
	}
	return cleaned.Encode()
}
