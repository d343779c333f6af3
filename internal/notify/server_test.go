package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/godilite/eval-server/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	status int
	err    error
	got    []Message
}

func (f *fakeSender) Send(ctx context.Context, m Message) (int, error) {
	f.got = append(f.got, m)
	return f.status, f.err
}

const testSecret = "relay-test-secret"

func signToken(t *testing.T, c auth.Claims) string {
	t.Helper()
	token, err := auth.NewTokenService(testSecret, 0).Sign(c)
	require.NoError(t, err)
	return token
}

func newRelay(t *testing.T, sender Sender) *Server {
	return NewServer(sender, auth.NewTokenService(testSecret, 0),
		WithAllowedHQs("hq-1"),
		WithAllowedOrigins("https://eval.example.com"),
		WithLogger(zaptest.NewLogger(t)),
	)
}

const validBody = `{"type":"campaign","title":"평가 시작","message":"마감 전 제출","targetUsers":["u1"]}`

func post(t *testing.T, h http.Handler, token, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestNotifyForwards(t *testing.T) {
	sender := &fakeSender{status: http.StatusOK}
	relay := newRelay(t, sender)
	token := signToken(t, auth.Claims{UID: "u1", Approved: true, HQID: "hq-1"})

	rec, resp := post(t, relay, token, validBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Response{Success: true, Status: http.StatusOK}, resp)
	require.Len(t, sender.got, 1)
	assert.Equal(t, []string{"u1"}, sender.got[0].TargetUsers)
}

func TestNotifyUpstreamRejection(t *testing.T) {
	sender := &fakeSender{status: http.StatusTooManyRequests, err: ErrUpstream}
	relay := newRelay(t, sender)
	token := signToken(t, auth.Claims{UID: "u1", Approved: true, HQID: "hq-1"})

	rec, resp := post(t, relay, token, validBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
}

func TestNotifyRejections(t *testing.T) {
	cases := []struct {
		name   string
		claims *auth.Claims
		raw    string
		body   string
		code   int
	}{
		{name: "missing token", body: validBody, code: http.StatusUnauthorized},
		{name: "garbage token", raw: "not-a-jwt", body: validBody, code: http.StatusUnauthorized},
		{name: "unapproved caller", claims: &auth.Claims{UID: "u1", HQID: "hq-1"}, body: validBody, code: http.StatusForbidden},
		{name: "headquarters not allowed", claims: &auth.Claims{UID: "u1", Approved: true, HQID: "hq-2"}, body: validBody, code: http.StatusForbidden},
		{name: "invalid json", claims: &auth.Claims{UID: "u1", Approved: true, HQID: "hq-1"}, body: `{"type":`, code: http.StatusBadRequest},
		{name: "missing title", claims: &auth.Claims{UID: "u1", Approved: true, HQID: "hq-1"}, body: `{"type":"x","message":"m"}`, code: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{status: http.StatusOK}
			relay := newRelay(t, sender)

			token := tc.raw
			if tc.claims != nil {
				token = signToken(t, *tc.claims)
			}
			rec, resp := post(t, relay, token, tc.body)

			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.code, resp.Status)
			assert.False(t, resp.Success)
			assert.Empty(t, sender.got)
		})
	}
}

func TestNotifyTransportFailure(t *testing.T) {
	relay := newRelay(t, &fakeSender{err: errors.New("connection refused")})
	token := signToken(t, auth.Claims{UID: "u1", Approved: true, HQID: "hq-1"})

	rec, resp := post(t, relay, token, validBody)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, resp.Success)
}

func TestCORSPreflight(t *testing.T) {
	relay := newRelay(t, &fakeSender{})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/notify", nil)
		req.Header.Set("Origin", "https://eval.example.com")
		rec := httptest.NewRecorder()
		relay.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://eval.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/notify", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		relay.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		open := NewServer(&fakeSender{}, auth.NewTokenService(testSecret, 0), WithAllowedOrigins("*"))
		req := httptest.NewRequest(http.MethodOptions, "/notify", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	relay := newRelay(t, &fakeSender{})
	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestNewServerPanicsOnNilDeps(t *testing.T) {
	assert.Panics(t, func() { NewServer(nil, auth.NewTokenService(testSecret, 0)) })
}
