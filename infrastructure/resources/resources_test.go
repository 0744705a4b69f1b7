package resources_test

import (
	"testing"

	"github.com/jonesrussell/north-crm/infrastructure/resources"
	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	r, ok := resources.Lookup("quotes")
	assert.True(t, ok)
	assert.Equal(t, 3005, r.Port)
	assert.Equal(t, "http://quotes-service:3005", r.DefaultURL())
	assert.Equal(t, "QUOTES_SERVICE_URL", r.URLEnv())

	_, ok = resources.Lookup("invoices")
	assert.False(t, ok)
}

func TestNamesOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"users", "clients", "notes", "products", "quotes", "contacts"},
		resources.Names(),
	)
}
