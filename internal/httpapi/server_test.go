package httpapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/fcglabs/authd/internal/audit"
	"github.com/fcglabs/authd/internal/correlation"
	"github.com/fcglabs/authd/internal/events"
	"github.com/fcglabs/authd/internal/flows"
	"github.com/fcglabs/authd/internal/httpapi"
	"github.com/fcglabs/authd/internal/store"
	"github.com/fcglabs/authd/internal/token"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

// newTestServer wires the full stack against an in-memory database.
func newTestServer(t *testing.T) *httpapi.Server {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, store.EnsureSchema(context.Background(), db))
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})

	manager := store.NewManager(db, store.WithBcryptCost(4))

	bus := events.NewBus()
	audit.NewHandler(manager.Audit(), nil).Bind(bus)

	tokens, err := token.NewService(testSigningKey, 30*time.Minute, "authd-test", []string{"authd-test"})
	require.NoError(t, err)

	svc := flows.NewService(manager.Users(), manager, tokens, bus)

	return httpapi.NewServer(svc, manager.Audit(), tokens)
}

func postJSON(t *testing.T, srv *httpapi.Server, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func registerPayload() map[string]string {
	return map[string]string{
		"email":    "joaosilva1@x.com",
		"nome":     "Joao Silva",
		"password": "Abcdef@1",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", registerPayload(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, flows.MsgRegisterSuccess, body["message"])
}

func TestRegisterDuplicateEmailEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", registerPayload(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv, "/auth/register", registerPayload(), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "E-mail já está em uso.", body["error"])
}

func TestRegisterValidationEndpoint(t *testing.T) {
	srv := newTestServer(t)

	payload := registerPayload()
	payload["email"] = "short@x.com"

	resp := postJSON(t, srv, "/auth/register", payload, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", registerPayload(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	before := time.Now()
	resp = postJSON(t, srv, "/auth/login", map[string]string{
		"email":    "joaosilva1@x.com",
		"password": "Abcdef@1",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body flows.LoginResult
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "joaosilva1@x.com", body.User.Email)
	assert.Equal(t, "Joao Silva", body.User.Nome)
	assert.True(t, body.Expiration.After(before.Add(29*time.Minute)))
}

func TestLoginInvalidCredentialsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", registerPayload(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cases := []map[string]string{
		{"email": "joaosilva1@x.com", "password": "Wrong@123"},
		{"email": "unknown99@x.com", "password": "Abcdef@1"},
	}

	for _, payload := range cases {
		resp := postJSON(t, srv, "/auth/login", payload, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, flows.MsgInvalidCredentials, body["message"])
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", registerPayload(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv, "/auth/login", map[string]string{
		"email":    "joaosilva1@x.com",
		"password": "Abcdef@1",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login flows.LoginResult
	decodeBody(t, resp, &login)

	authHeader := map[string]string{"Authorization": "Bearer " + login.Token}

	// Wrong current password leaves the credential untouched.
	resp = postJSON(t, srv, "/auth/change-password", map[string]string{
		"senhaAtual":        "Wrong@123",
		"novaSenha":         "Novasenha@2",
		"confirmaNovaSenha": "Novasenha@2",
	}, authHeader)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, flows.MsgCurrentPasswordWrong, body["error"])

	resp = postJSON(t, srv, "/auth/change-password", map[string]string{
		"senhaAtual":        "Abcdef@1",
		"novaSenha":         "Novasenha@2",
		"confirmaNovaSenha": "Novasenha@2",
	}, authHeader)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password no longer works, the new one does.
	resp = postJSON(t, srv, "/auth/login", map[string]string{
		"email":    "joaosilva1@x.com",
		"password": "Abcdef@1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv, "/auth/login", map[string]string{
		"email":    "joaosilva1@x.com",
		"password": "Novasenha@2",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChangePasswordRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/change-password", map[string]string{
		"senhaAtual":        "Abcdef@1",
		"novaSenha":         "Novasenha@2",
		"confirmaNovaSenha": "Novasenha@2",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv, "/auth/change-password", map[string]string{}, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListEventsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", registerPayload(), map[string]string{
		correlation.HeaderName: "abc-123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv, "/auth/list-events", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []*audit.Record
	decodeBody(t, resp, &records)
	require.Len(t, records, 1)
	assert.Equal(t, string(events.KindRegistration), records[0].Nome)
	assert.Contains(t, records[0].Descricao, "Sucesso")
	assert.Equal(t, "abc-123", records[0].CorrelationID)
}

func TestCorrelationHeaderEcho(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/list-events", map[string]string{}, map[string]string{
		correlation.HeaderName: "abc-123",
	})
	assert.Equal(t, "abc-123", resp.Header.Get(correlation.HeaderName))

	resp = postJSON(t, srv, "/auth/list-events", map[string]string{}, nil)
	assert.NotEmpty(t, resp.Header.Get(correlation.HeaderName))
}
