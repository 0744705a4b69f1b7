// Package handlers serves CRUD routes for one entity resource.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonesrussell/north-crm/entity-service/internal/models"
	"github.com/jonesrussell/north-crm/entity-service/internal/repository"
	infracontext "github.com/jonesrussell/north-crm/infrastructure/context"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	infraevents "github.com/jonesrussell/north-crm/infrastructure/events"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// Store persists entity records.
type Store interface {
	Create(ctx context.Context, data []byte) (*repository.Record, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Record, error)
	List(ctx context.Context, filter repository.ListFilter) ([]repository.Record, error)
	Update(ctx context.Context, id uuid.UUID, data []byte) (*repository.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher receives change events after successful writes.
type EventPublisher interface {
	PublishAsync(event infraevents.EntityEvent)
}

// DeleteResponse is the body returned by Delete.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// EntityHandler handles the CRUD routes of one resource.
type EntityHandler struct {
	schema    *models.Schema
	store     Store
	publisher EventPublisher
	logger    infralogger.Logger
}

// NewEntityHandler creates a handler. publisher may be nil.
func NewEntityHandler(schema *models.Schema, store Store, publisher EventPublisher, log infralogger.Logger) *EntityHandler {
	return &EntityHandler{
		schema:    schema,
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

// Register mounts the routes under /{resource}.
func (h *EntityHandler) Register(rg gin.IRouter) {
	g := rg.Group("/" + h.schema.Resource())
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *EntityHandler) List(c *gin.Context) {
	filter, field, ok := parseListFilter(c)
	if !ok {
		infraerrors.AbortWithFields(c, http.StatusBadRequest, field+" must be a non-negative integer", []string{field})
		return
	}

	records, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.storeFailure(c, "list", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *EntityHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	rec, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get", err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *EntityHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		infraerrors.Abort(c, http.StatusBadRequest, "unable to read request body")
		return
	}

	entity, err := h.schema.Decode(body)
	if err != nil {
		h.invalid(c, err)
		return
	}

	data, err := json.Marshal(entity)
	if err != nil {
		h.storeFailure(c, "encode", err)
		return
	}

	rec, err := h.store.Create(c.Request.Context(), data)
	if err != nil {
		h.writeError(c, "create", err)
		return
	}

	h.publish(c, infraevents.EntityCreated, rec.ID, nil)
	c.JSON(http.StatusCreated, rec)
}

// Update merges the request fields over the stored entity and validates the
// result as a whole. A null value removes the field.
func (h *EntityHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		infraerrors.Abort(c, http.StatusBadRequest, "unable to read request body")
		return
	}

	patch, err := models.DecodeObject(body)
	if err != nil {
		h.invalid(c, err)
		return
	}
	for _, f := range models.ManagedFields {
		delete(patch, f)
	}

	ctx := c.Request.Context()
	existing, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.writeError(c, "get", err)
		return
	}

	fields, err := existing.Fields()
	if err != nil {
		h.storeFailure(c, "decode", err)
		return
	}
	changed := mergeFields(fields, patch)

	entity, err := h.schema.FromFields(fields)
	if err != nil {
		h.invalid(c, err)
		return
	}

	data, err := json.Marshal(entity)
	if err != nil {
		h.storeFailure(c, "encode", err)
		return
	}

	rec, err := h.store.Update(ctx, id, data)
	if err != nil {
		h.writeError(c, "update", err)
		return
	}

	h.publish(c, infraevents.EntityUpdated, rec.ID, infraevents.UpdatedPayload{ChangedFields: changed})
	c.JSON(http.StatusOK, rec)
}

func (h *EntityHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, "delete", err)
		return
	}

	h.publish(c, infraevents.EntityDeleted, id, nil)
	c.JSON(http.StatusOK, DeleteResponse{ID: id.String(), Deleted: true})
}

// parseID answers 404 for ids that cannot exist.
func (h *EntityHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		infraerrors.Abort(c, http.StatusNotFound, h.schema.Resource()+" not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *EntityHandler) invalid(c *gin.Context, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		infraerrors.AbortWithFields(c, http.StatusBadRequest, vErr.Message, vErr.Fields)
		return
	}
	h.storeFailure(c, "validate", err)
}

func (h *EntityHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		infraerrors.Abort(c, http.StatusNotFound, h.schema.Resource()+" not found")
	case errors.Is(err, repository.ErrConflict):
		infraerrors.Abort(c, http.StatusConflict, "a matching "+h.schema.Resource()+" entry already exists")
	default:
		h.storeFailure(c, op, err)
	}
}

func (h *EntityHandler) storeFailure(c *gin.Context, op string, err error) {
	_ = c.Error(err)
	h.logger.Error("Entity operation failed",
		infralogger.String("resource", h.schema.Resource()),
		infralogger.String("operation", op),
		infralogger.Error(err),
	)
	infraerrors.Abort(c, http.StatusInternalServerError, "failed to "+op+" "+h.schema.Resource())
}

func (h *EntityHandler) publish(c *gin.Context, eventType infraevents.EventType, id uuid.UUID, payload any) {
	if h.publisher == nil {
		return
	}
	h.publisher.PublishAsync(infraevents.EntityEvent{
		EventType: eventType,
		Resource:  h.schema.Resource(),
		EntityID:  id,
		RequestID: infracontext.RequestID(c.Request.Context()),
		Payload:   payload,
	})
}

// mergeFields applies patch to fields and returns the sorted patched keys.
func mergeFields(fields, patch map[string]json.RawMessage) []string {
	changed := make([]string, 0, len(patch))
	for k, v := range patch {
		if string(v) == "null" {
			delete(fields, k)
		} else {
			fields[k] = v
		}
		changed = append(changed, k)
	}
	sort.Strings(changed)
	return changed
}

func parseListFilter(c *gin.Context) (repository.ListFilter, string, bool) {
	var filter repository.ListFilter
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		raw, present := c.GetQuery(p.name)
		if !present || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, p.name, false
		}
		*p.dst = n
	}
	return filter, "", true
}
