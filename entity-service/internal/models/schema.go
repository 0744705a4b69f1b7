package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonesrussell/north-crm/infrastructure/resources"
)

// ErrUnknownResource is returned by ForResource for names outside the catalog.
var ErrUnknownResource = errors.New("unknown resource")

// ManagedFields are assigned by the server and ignored in request bodies.
var ManagedFields = []string{"id", "created_at", "updated_at"}

// ValidationError lists the JSON fields that failed validation.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// Schema decodes and validates the request bodies of one resource.
type Schema struct {
	resource string
	newFn    func() Entity
	validate *validator.Validate
}

var constructors = map[string]func() Entity{
	resources.Users:    func() Entity { return &User{} },
	resources.Clients:  func() Entity { return &Client{} },
	resources.Notes:    func() Entity { return &Note{} },
	resources.Products: func() Entity { return &Product{} },
	resources.Quotes:   func() Entity { return &Quote{} },
	resources.Contacts: func() Entity { return &Contact{} },
}

// ForResource returns the schema for a catalog resource.
func ForResource(resource string) (*Schema, error) {
	newFn, ok := constructors[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	return &Schema{
		resource: resource,
		newFn:    newFn,
		validate: newValidator(),
	}, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Resource returns the resource name.
func (s *Schema) Resource() string {
	return s.resource
}

// Decode parses a JSON object into the resource entity, applies defaults and
// validates it. Unknown fields are rejected; managed fields are dropped.
func (s *Schema) Decode(body []byte) (Entity, error) {
	fields, err := DecodeObject(body)
	if err != nil {
		return nil, err
	}
	return s.FromFields(fields)
}

// FromFields builds a validated entity from a decoded JSON object.
func (s *Schema) FromFields(fields map[string]json.RawMessage) (Entity, error) {
	for _, f := range ManagedFields {
		delete(fields, f)
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	entity := s.newFn()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if decErr := dec.Decode(entity); decErr != nil {
		return nil, decodeError(decErr)
	}

	entity.Prepare()

	if valErr := s.validate.Struct(entity); valErr != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(valErr, &fieldErrs) {
			return nil, &ValidationError{Message: "validation failed", Fields: fieldNames(fieldErrs)}
		}
		return nil, fmt.Errorf("validate %s: %w", s.resource, valErr)
	}

	return entity, nil
}

// DecodeObject parses body as a single JSON object.
func DecodeObject(body []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, &ValidationError{Message: "request body must be a JSON object"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Message: "request body must be a single JSON object"}
	}
	return fields, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Message: "invalid field type", Fields: []string{typeErr.Field}}
	}

	// encoding/json reports unknown fields as: json: unknown field "x"
	if _, name, ok := strings.Cut(err.Error(), "unknown field "); ok {
		return &ValidationError{Message: "unknown field", Fields: []string{strings.Trim(name, `"`)}}
	}

	return &ValidationError{Message: "invalid request body"}
}

// fieldNames turns validator namespaces ("Quote.items[0].quantity") into
// JSON paths ("items[0].quantity").
func fieldNames(errs validator.ValidationErrors) []string {
	seen := make(map[string]struct{}, len(errs))
	names := make([]string, 0, len(errs))
	for _, fe := range errs {
		_, name, found := strings.Cut(fe.Namespace(), ".")
		if !found {
			name = fe.Field()
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
