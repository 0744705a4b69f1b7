package errors_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponse(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseHTTPError_SuccessIsNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, infraerrors.ParseHTTPError(newResponse(http.StatusOK, "application/json", `{}`)))
}

func TestParseHTTPError_KeepsRawBody(t *testing.T) {
	t.Parallel()

	body := `{"statusCode":400,"error":"Bad Request","message":"validation failed","fields":["email"]}`
	err := infraerrors.ParseHTTPError(newResponse(http.StatusBadRequest, "application/json; charset=utf-8", body))
	require.Error(t, err)

	httpErr, ok := infraerrors.AsHTTPError(fmt.Errorf("users get: %w", err))
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", httpErr.ContentType)
	assert.Equal(t, body, string(httpErr.Body))
	assert.Equal(t, "validation failed", httpErr.Message)
	assert.True(t, infraerrors.IsClientError(err))
}

func TestParseHTTPError_JSONAPIErrors(t *testing.T) {
	t.Parallel()

	body := `{"errors":[{"title":"Conflict","detail":"duplicate"},{"title":"Gone"}]}`
	err := infraerrors.ParseHTTPError(newResponse(http.StatusConflict, "application/json", body))

	httpErr, ok := infraerrors.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "Conflict: duplicate; Gone", httpErr.Message)
}

func TestParseHTTPError_PlainText(t *testing.T) {
	t.Parallel()

	err := infraerrors.ParseHTTPError(newResponse(http.StatusServiceUnavailable, "text/plain", "down\n"))

	code, ok := infraerrors.GetHTTPStatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, infraerrors.IsClientError(err))
	assert.Contains(t, err.Error(), "down")
}

func TestParseHTTPError_OversizedBodyIsDropped(t *testing.T) {
	t.Parallel()

	body := `{"message":"` + strings.Repeat("x", infraerrors.MaxErrorBodyBytes) + `"}`
	err := infraerrors.ParseHTTPError(newResponse(http.StatusBadGateway, "application/json", body))

	httpErr, ok := infraerrors.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Nil(t, httpErr.Body)
	assert.Contains(t, httpErr.Message, "too large")
}

func TestAbort_WritesEnvelope(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	infraerrors.AbortWithFields(c, http.StatusBadRequest, "validation failed", []string{"name"})

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp infraerrors.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, infraerrors.Response{
		StatusCode: http.StatusBadRequest,
		Error:      "Bad Request",
		Message:    "validation failed",
		Fields:     []string{"name"},
	}, resp)
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	assert.NoError(t, infraerrors.WrapWithContext(nil, "ignored"))

	base := io.EOF
	err := infraerrors.WrapWithContextf(base, "read %s", "users")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "read users: EOF", err.Error())
}
