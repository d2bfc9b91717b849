package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PartyRole определяет, кем является участник заказа.
type PartyRole string

const (
	PartyRoleClient   PartyRole = "client"
	PartyRoleSeller   PartyRole = "seller"
	PartyRoleSupplier PartyRole = "supplier"
)

// Product описывает товар каталога.
type Product struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CategoryID  int64           `json:"category_id"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	SaleUnit    string          `json:"sale_unit"`
	Stock       decimal.Decimal `json:"stock"`
	Active      bool            `json:"active"`
}

// Person может быть клиентом или продавцом.
type Person struct {
	ID             int64     `json:"id"`
	Role           PartyRole `json:"role"`
	DocumentType   string    `json:"document_type,omitempty"`
	DocumentNumber string    `json:"document_number,omitempty"`
	Names          string    `json:"names"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Active         bool      `json:"active"`
}

// FullName склеивает имя и фамилию.
func (p Person) FullName() string {
	return joinName(p.Names, p.LastName)
}

type Supplier struct {
	ID          int64  `json:"id"`
	RUC         string `json:"ruc,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Names       string `json:"names"`
	LastName    string `json:"last_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Active      bool   `json:"active"`
}

// FullName склеивает имя и фамилию контактного лица поставщика.
func (s Supplier) FullName() string {
	return joinName(s.Names, s.LastName)
}

type PaymentMethod struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func joinName(names, lastName string) string {
	return strings.TrimSpace(names + " " + lastName)
}
