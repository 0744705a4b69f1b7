// Package handlers binds each gateway resource path to its service client.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-crm/gateway/internal/client"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

const defaultContentType = "application/json; charset=utf-8"

// ServiceClient is the downstream surface a ResourceHandler needs.
//
//go:generate mockgen -destination=mocks/service_client.go -package=mocks . ServiceClient
type ServiceClient interface {
	List(ctx context.Context, query url.Values) (*client.Response, error)
	Get(ctx context.Context, id string) (*client.Response, error)
	Create(ctx context.Context, body client.Payload) (*client.Response, error)
	Update(ctx context.Context, id string, body client.Payload) (*client.Response, error)
	Delete(ctx context.Context, id string) (*client.Response, error)
}

// ResourceHandler relays /{resource} requests to one entity service.
type ResourceHandler struct {
	resource string
	client   ServiceClient
	logger   infralogger.Logger
}

func NewResourceHandler(resource string, c ServiceClient, log infralogger.Logger) *ResourceHandler {
	return &ResourceHandler{
		resource: resource,
		client:   c,
		logger:   log,
	}
}

// Resource returns the path segment this handler serves.
func (h *ResourceHandler) Resource() string {
	return h.resource
}

// Register mounts the five CRUD routes under /{resource}.
func (h *ResourceHandler) Register(rg gin.IRouter) {
	g := rg.Group("/" + h.resource)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *ResourceHandler) List(c *gin.Context) {
	resp, err := h.client.List(c.Request.Context(), c.Request.URL.Query())
	h.relay(c, resp, err)
}

func (h *ResourceHandler) Get(c *gin.Context) {
	resp, err := h.client.Get(c.Request.Context(), c.Param("id"))
	h.relay(c, resp, err)
}

func (h *ResourceHandler) Create(c *gin.Context) {
	body, ok := h.readJSONBody(c)
	if !ok {
		return
	}

	resp, err := h.client.Create(c.Request.Context(), body)
	h.relay(c, resp, err)
}

func (h *ResourceHandler) Update(c *gin.Context) {
	body, ok := h.readJSONBody(c)
	if !ok {
		return
	}

	resp, err := h.client.Update(c.Request.Context(), c.Param("id"), body)
	h.relay(c, resp, err)
}

func (h *ResourceHandler) Delete(c *gin.Context) {
	resp, err := h.client.Delete(c.Request.Context(), c.Param("id"))
	h.relay(c, resp, err)
}

// readJSONBody returns the raw request body. Anything that is not a single
// well-formed JSON value is rejected before any downstream call.
func (h *ResourceHandler) readJSONBody(c *gin.Context) (client.Payload, bool) {
	data, err := c.GetRawData()
	if err != nil || !json.Valid(data) {
		h.logger.Debug("Invalid request body",
			infralogger.String("resource", h.resource),
		)
		infraerrors.Abort(c, http.StatusBadRequest, "request body must be valid JSON")
		return nil, false
	}
	return client.Payload(data), true
}

// relay writes the downstream status and body unchanged. Downstream error
// responses are relayed verbatim; transport failures become 502.
func (h *ResourceHandler) relay(c *gin.Context, resp *client.Response, err error) {
	if err == nil {
		c.Data(resp.StatusCode, contentTypeOr(resp.ContentType), resp.Body)
		return
	}

	_ = c.Error(err)

	if httpErr, ok := infraerrors.AsHTTPError(err); ok {
		h.logger.Debug("Relaying downstream error",
			infralogger.String("resource", h.resource),
			infralogger.Int("status", httpErr.StatusCode),
		)
		if len(httpErr.Body) == 0 {
			infraerrors.Abort(c, httpErr.StatusCode, httpErr.Message)
			return
		}
		c.Data(httpErr.StatusCode, contentTypeOr(httpErr.ContentType), httpErr.Body)
		return
	}

	if errors.Is(err, client.ErrResponseTooLarge) {
		h.logger.Warn("Downstream response too large",
			infralogger.String("resource", h.resource),
			infralogger.Error(err),
		)
		infraerrors.Abort(c, http.StatusBadGateway, h.resource+" response too large")
		return
	}

	if !errors.Is(err, client.ErrUnavailable) {
		h.logger.Error("Unexpected downstream error",
			infralogger.String("resource", h.resource),
			infralogger.Error(err),
		)
	}

	infraerrors.Abort(c, http.StatusBadGateway, h.resource+" service unavailable")
}

func contentTypeOr(ct string) string {
	if ct == "" {
		return defaultContentType
	}
	return ct
}
