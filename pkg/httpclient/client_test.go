package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

type tokenStub struct {
	access      string
	refreshed   string
	refreshErr  error
	refreshes   int32
	invalidated bool
}

func (t *tokenStub) AccessToken() string { return t.access }

func (t *tokenStub) Refresh(ctx context.Context) (string, error) {
	atomic.AddInt32(&t.refreshes, 1)
	if t.refreshErr != nil {
		return "", t.refreshErr
	}
	t.access = t.refreshed
	return t.refreshed, nil
}

func (t *tokenStub) Invalidate(ctx context.Context) { t.invalidated = true }

func newTestClient(t *testing.T, srv *httptest.Server, tokens TokenSource) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	if tokens != nil {
		client.SetTokenSource(tokens)
	}
	return client
}

func TestClientSendsAuthorizationScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "JWT abc", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"id": 7}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, &tokenStub{access: "abc"})
	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/result-system/courses/7/", nil, &out))
	assert.Equal(t, 7, out.ID)
}

func TestClientRefreshesOnceOn401(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "JWT fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &tokenStub{access: "stale", refreshed: "fresh"}
	client := newTestClient(t, srv, tokens)

	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/notification/", nil, nil))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokens.refreshes))
	assert.False(t, tokens.invalidated)
}

func TestClientDoesNotLoopWhenRetryStillUnauthorized(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Given token not valid"}`))
	}))
	defer srv.Close()

	tokens := &tokenStub{access: "stale", refreshed: "also-stale"}
	client := newTestClient(t, srv, tokens)

	err := client.Do(context.Background(), http.MethodGet, "/notification/", nil, nil)
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Given token not valid", apiErr.Detail)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokens.refreshes))
}

func TestClientInvalidatesSessionWhenRefreshFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &tokenStub{access: "stale", refreshErr: errors.New("refresh expired")}
	client := newTestClient(t, srv, tokens)

	err := client.Do(context.Background(), http.MethodGet, "/auth/users/me/", nil, nil)
	require.Error(t, err)
	assert.True(t, tokens.invalidated)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErrors.FromError(err).Code)
}

func TestClientGetAllFollowsNextLinks(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			_, _ = w.Write([]byte(`{"results":[{"id":1},{"id":2}],"next":"` + srv.URL + `/scores/?page=2"}`))
		case "2":
			_, _ = w.Write([]byte(`{"results":[{"id":3}],"next":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil)
	var ids []int
	err := client.GetAll(context.Background(), "/scores/", func(raw json.RawMessage) error {
		var item struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		ids = append(ids, item.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestDecodePageShapes(t *testing.T) {
	page, err := DecodePage(json.RawMessage(`[{"id":1}]`))
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = DecodePage(json.RawMessage(`{"assessments":[{"id":1},{"id":2}]}`))
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.Next)

	page, err = DecodePage(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestExtractDetail(t *testing.T) {
	assert.Equal(t, "Not allowed", ExtractDetail([]byte(`{"detail":"Not allowed"}`)))
	assert.Equal(t, "Already submitted", ExtractDetail([]byte(`{"non_field_errors":["Already submitted"]}`)))
	assert.Equal(t, "ca_slot1: too high; exam_mark: required", ExtractDetail([]byte(`{"exam_mark":["required"],"ca_slot1":["too high"]}`)))
	assert.Empty(t, ExtractDetail([]byte(`<html>`)))
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/result-system/courses/:id/results/:id/submit/", EndpointLabel("/result-system/courses/12/results/3/submit/"))
	assert.Equal(t, "/scores/", EndpointLabel("/scores/?page=2"))
}
