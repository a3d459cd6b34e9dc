package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID               uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	UserName         string    `json:"userName" gorm:"size:64;not null;uniqueIndex"`
	Email            string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password         string    `json:"-" gorm:"size:255;not null"`
	Role             Role      `json:"role" gorm:"size:16;not null;default:'customer';index"`
	RefreshTokenHash string    `json:"-" gorm:"size:64"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

type Address struct {
	ID            uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        uint64    `json:"userId" gorm:"not null;index"`
	Name          string    `json:"name" gorm:"size:120;not null"`
	Mobile        string    `json:"mobile" gorm:"size:20;not null"`
	StreetAddress string    `json:"streetAddress" gorm:"size:255;not null"`
	Address       string    `json:"address" gorm:"size:255;not null"`
	City          string    `json:"city" gorm:"size:100;not null"`
	State         string    `json:"state" gorm:"size:100;not null"`
	Zip           string    `json:"zip" gorm:"size:20;not null"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Snapshot copies the address into the denormalized form stored on an order.
func (a *Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		Name:          a.Name,
		Mobile:        a.Mobile,
		StreetAddress: a.StreetAddress,
		Address:       a.Address,
		City:          a.City,
		State:         a.State,
		Zip:           a.Zip,
	}
}

func NewAddress(userID uint64, s ShippingAddress) *Address {
	a := &Address{UserID: userID}
	a.Apply(s)
	return a
}

// Apply overwrites the address fields from s.
func (a *Address) Apply(s ShippingAddress) {
	a.Name = s.Name
	a.Mobile = s.Mobile
	a.StreetAddress = s.StreetAddress
	a.Address = s.Address
	a.City = s.City
	a.State = s.State
	a.Zip = s.Zip
}
