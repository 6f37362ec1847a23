package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAddressNotFound = errors.New("address not found")

// Address is a customer's saved shipping address
type Address struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	RecipientName string    `json:"recipient_name" db:"recipient_name"`
	Phone         string    `json:"phone" db:"phone"`
	AddressLine   string    `json:"address_line" db:"address_line"`
	ProvinceCode  string    `json:"province_code" db:"province_code"`
	ProvinceName  string    `json:"province_name" db:"province_name"`
	DistrictCode  string    `json:"district_code" db:"district_code"`
	DistrictName  string    `json:"district_name" db:"district_name"`
	WardCode      string    `json:"ward_code" db:"ward_code"`
	WardName      string    `json:"ward_name" db:"ward_name"`
	IsDefault     bool      `json:"is_default" db:"is_default"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
