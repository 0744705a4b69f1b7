// Package models defines the entity schemas served by the entity service.
package models

import "math"

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Quote statuses.
const (
	QuoteDraft    = "draft"
	QuoteSent     = "sent"
	QuoteAccepted = "accepted"
	QuoteRejected = "rejected"
)

// Entity is a resource body. Prepare fills defaults and derived fields
// before validation.
type Entity interface {
	Prepare()
}

type User struct {
	Name  string `json:"name"           validate:"required,max=200"`
	Email string `json:"email"          validate:"required,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=admin member"`
}

func (u *User) Prepare() {
	if u.Role == "" {
		u.Role = RoleMember
	}
}

type Client struct {
	Name    string `json:"name"              validate:"required,max=200"`
	Email   string `json:"email,omitempty"   validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"   validate:"max=50"`
	Company string `json:"company,omitempty" validate:"max=200"`
	Address string `json:"address,omitempty" validate:"max=500"`
}

func (*Client) Prepare() {}

type Note struct {
	Title    string `json:"title"               validate:"required,max=200"`
	Content  string `json:"content"             validate:"required"`
	ClientID string `json:"client_id,omitempty" validate:"omitempty,uuid"`
}

func (*Note) Prepare() {}

// Product prices are pointers so that an explicit 0 passes "required".
type Product struct {
	Name        string   `json:"name"               validate:"required,max=200"`
	SKU         string   `json:"sku,omitempty"      validate:"max=100"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price"              validate:"required,gte=0"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

func (*Product) Prepare() {}

type QuoteItem struct {
	ProductID   string   `json:"product_id,omitempty" validate:"omitempty,uuid"`
	Description string   `json:"description,omitempty"`
	Quantity    int      `json:"quantity"             validate:"required,gte=1"`
	UnitPrice   *float64 `json:"unit_price"           validate:"required,gte=0"`
}

// Quote totals are always derived from the line items; a client-supplied
// total is overwritten.
type Quote struct {
	ClientID string      `json:"client_id"        validate:"required,uuid"`
	Title    string      `json:"title"            validate:"required,max=200"`
	Items    []QuoteItem `json:"items"            validate:"dive"`
	Status   string      `json:"status,omitempty" validate:"omitempty,oneof=draft sent accepted rejected"`
	Total    float64     `json:"total"`
}

func (q *Quote) Prepare() {
	if q.Status == "" {
		q.Status = QuoteDraft
	}
	if q.Items == nil {
		q.Items = []QuoteItem{}
	}
	q.Total = QuoteTotal(q.Items)
}

// QuoteTotal sums quantity * unit price, rounded to cents.
func QuoteTotal(items []QuoteItem) float64 {
	var total float64
	for _, item := range items {
		if item.UnitPrice == nil {
			continue
		}
		total += float64(item.Quantity) * *item.UnitPrice
	}
	return math.Round(total*100) / 100
}

type Contact struct {
	Name     string `json:"name"                validate:"required,max=200"`
	Email    string `json:"email"               validate:"required,email"`
	Phone    string `json:"phone,omitempty"     validate:"max=50"`
	ClientID string `json:"client_id,omitempty" validate:"omitempty,uuid"`
}

func (*Contact) Prepare() {}
