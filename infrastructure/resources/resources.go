// Package resources lists the CRM entity services and their default ports.
package resources

import (
	"fmt"
	"strings"
)

// Resource is one entity service.
type Resource struct {
	Name string
	Port int
}

const (
	Users    = "users"
	Clients  = "clients"
	Notes    = "notes"
	Products = "products"
	Quotes   = "quotes"
	Contacts = "contacts"
)

var all = []Resource{
	{Name: Users, Port: 3001},
	{Name: Clients, Port: 3002},
	{Name: Notes, Port: 3003},
	{Name: Products, Port: 3004},
	{Name: Quotes, Port: 3005},
	{Name: Contacts, Port: 3006},
}

// All returns every resource in a stable order.
func All() []Resource {
	return append([]Resource(nil), all...)
}

// Names returns the resource names in the same order as All.
func Names() []string {
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.Name
	}
	return names
}

// Lookup finds a resource by name.
func Lookup(name string) (Resource, bool) {
	for _, r := range all {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// DefaultURL is the Docker network address of the service.
func (r Resource) DefaultURL() string {
	return fmt.Sprintf("http://%s-service:%d", r.Name, r.Port)
}

// URLEnv is the environment variable overriding the service URL.
func (r Resource) URLEnv() string {
	return strings.ToUpper(r.Name) + "_SERVICE_URL"
}
