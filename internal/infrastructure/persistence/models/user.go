package models

import (
	"time"

	"github.com/possale/backend/internal/domain/identity"
)

// UserModel is the persistence model for admin and cashier accounts
type UserModel struct {
	AggregateModel
	Username     string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_users_username"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Role         string     `gorm:"type:varchar(20);not null;index"`
	FirstName    string     `gorm:"type:varchar(100)"`
	LastName     string     `gorm:"type:varchar(100)"`
	Birthday     *time.Time `gorm:"type:date"`
	PhoneNumber  string     `gorm:"type:varchar(50)"`
	IsActive     bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		PasswordHash:      m.PasswordHash,
		Role:              identity.Role(m.Role),
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Birthday:          m.Birthday,
		PhoneNumber:       m.PhoneNumber,
		Active:            m.IsActive,
		LastLoginAt:       m.LastLoginAt,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.PasswordHash = u.PasswordHash
	m.Role = string(u.Role)
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.Birthday = u.Birthday
	m.PhoneNumber = u.PhoneNumber
	m.IsActive = u.Active
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
