package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-crm/gateway/internal/client"
	"github.com/jonesrussell/north-crm/gateway/internal/handlers"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) List(ctx context.Context, query url.Values) (*client.Response, error) {
	args := m.Called(ctx, query)
	return response(args)
}

func (m *mockClient) Get(ctx context.Context, id string) (*client.Response, error) {
	args := m.Called(ctx, id)
	return response(args)
}

func (m *mockClient) Create(ctx context.Context, body client.Payload) (*client.Response, error) {
	args := m.Called(ctx, body)
	return response(args)
}

func (m *mockClient) Update(ctx context.Context, id string, body client.Payload) (*client.Response, error) {
	args := m.Called(ctx, id, body)
	return response(args)
}

func (m *mockClient) Delete(ctx context.Context, id string) (*client.Response, error) {
	args := m.Called(ctx, id)
	return response(args)
}

func response(args mock.Arguments) (*client.Response, error) {
	resp, _ := args.Get(0).(*client.Response)
	return resp, args.Error(1)
}

func jsonResponse(status int, body string) *client.Response {
	return &client.Response{StatusCode: status, ContentType: "application/json; charset=utf-8", Body: client.Payload(body)}
}

func setupRouter(t *testing.T, mc *mockClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	handlers.NewResourceHandler("users", mc, infralogger.NewNop()).Register(router)
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestResourceHandler_RelaysSuccess(t *testing.T) {
	t.Helper()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		setup  func(mc *mockClient)
		status int
		want   string
	}{
		{
			name: "list forwards query", method: http.MethodGet, target: "/users?limit=2",
			setup: func(mc *mockClient) {
				mc.On("List", mock.Anything, url.Values{"limit": {"2"}}).Return(jsonResponse(http.StatusOK, `[{"id":"1"}]`), nil)
			},
			status: http.StatusOK, want: `[{"id":"1"}]`,
		},
		{
			name: "get", method: http.MethodGet, target: "/users/1",
			setup: func(mc *mockClient) {
				mc.On("Get", mock.Anything, "1").Return(jsonResponse(http.StatusOK, `{"id":"1","name":"A"}`), nil)
			},
			status: http.StatusOK, want: `{"id":"1","name":"A"}`,
		},
		{
			name: "create keeps 201", method: http.MethodPost, target: "/users", body: `{"name":"A"}`,
			setup: func(mc *mockClient) {
				mc.On("Create", mock.Anything, client.Payload(`{"name":"A"}`)).Return(jsonResponse(http.StatusCreated, `{"id":"2","name":"A"}`), nil)
			},
			status: http.StatusCreated, want: `{"id":"2","name":"A"}`,
		},
		{
			name: "update", method: http.MethodPut, target: "/users/2", body: `{"name":"B"}`,
			setup: func(mc *mockClient) {
				mc.On("Update", mock.Anything, "2", client.Payload(`{"name":"B"}`)).Return(jsonResponse(http.StatusOK, `{"id":"2","name":"B"}`), nil)
			},
			status: http.StatusOK, want: `{"id":"2","name":"B"}`,
		},
		{
			name: "delete", method: http.MethodDelete, target: "/users/2",
			setup: func(mc *mockClient) {
				mc.On("Delete", mock.Anything, "2").Return(jsonResponse(http.StatusOK, `{"id":"2","deleted":true}`), nil)
			},
			status: http.StatusOK, want: `{"id":"2","deleted":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := &mockClient{}
			tt.setup(mc)
			router := setupRouter(t, mc)

			w := serve(router, tt.method, tt.target, tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.want, w.Body.String(), "body must be byte-identical")
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			mc.AssertExpectations(t)
		})
	}
}

func TestResourceHandler_RelaysDownstreamErrorVerbatim(t *testing.T) {
	mc := &mockClient{}
	body := `{"statusCode":400,"error":"Bad Request","message":"validation failed","fields":["email"]}`
	mc.On("Create", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("users create: %w", &infraerrors.HTTPError{
		StatusCode:  http.StatusBadRequest,
		ContentType: "application/json; charset=utf-8",
		Body:        []byte(body),
	}))
	router := setupRouter(t, mc)

	w := serve(router, http.MethodPost, "/users", `{"name":"A","email":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, body, w.Body.String())
}

func TestResourceHandler_UnavailableIs502(t *testing.T) {
	t.Helper()

	ops := []struct {
		method, target, body, name string
		args                       []any
	}{
		{http.MethodGet, "/users", "", "List", []any{mock.Anything, mock.Anything}},
		{http.MethodGet, "/users/1", "", "Get", []any{mock.Anything, "1"}},
		{http.MethodPost, "/users", `{}`, "Create", []any{mock.Anything, mock.Anything}},
		{http.MethodPut, "/users/1", `{}`, "Update", []any{mock.Anything, "1", mock.Anything}},
		{http.MethodDelete, "/users/1", "", "Delete", []any{mock.Anything, "1"}},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			mc := &mockClient{}
			mc.On(op.name, op.args...).Return(nil, fmt.Errorf("users: %w: dial tcp: connection refused", client.ErrUnavailable))
			router := setupRouter(t, mc)

			w := serve(router, op.method, op.target, op.body)

			assert.Equal(t, http.StatusBadGateway, w.Code)
			var resp infraerrors.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "users service unavailable", resp.Message)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestResourceHandler_InvalidJSONNeverCallsDownstream(t *testing.T) {
	t.Helper()

	for _, body := range []string{"", "{", `{"name":`, "not json"} {
		t.Run(fmt.Sprintf("%q", body), func(t *testing.T) {
			mc := &mockClient{}
			router := setupRouter(t, mc)

			w := serve(router, http.MethodPost, "/users", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			w = serve(router, http.MethodPut, "/users/1", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			mc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
