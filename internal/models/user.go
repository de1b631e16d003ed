package models

import (
	"time"

	"ai-board-of-directors/backend/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Subscription tiers
const (
	TierFree    = "free"
	TierPremium = "premium"
	TierPro     = "pro"
)

// Subscription statuses
const (
	SubscriptionNone      = "none"
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// User represents an account and its subscription state
type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Name                 string     `json:"name"`
	Email                string     `gorm:"uniqueIndex" json:"email"`
	Password             string     `json:"-"`
	Role                 string     `gorm:"default:user" json:"role"`
	SubscriptionTier     string     `gorm:"default:free" json:"subscriptionTier"`
	SubscriptionStatus   string     `gorm:"default:none" json:"subscriptionStatus"`
	SubscriptionPlan     string     `json:"subscriptionPlan,omitempty"`
	SubscriptionAmount   int64      `json:"subscriptionAmount,omitempty"`
	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `json:"-"`
	CheckoutOrderID      string     `gorm:"index" json:"-"`
	LastPaymentStatus    string     `json:"-"`
	LastPaymentUpdate    *time.Time `json:"-"`
	LastLogin            *time.Time `json:"lastLogin,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// CreateUserRequest is the request structure for creating a new user
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the request structure for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the response structure for user data (without sensitive info)
type UserResponse struct {
	ID                 uint       `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	SubscriptionTier   string     `json:"subscriptionTier"`
	SubscriptionStatus string     `json:"subscriptionStatus"`
	LastLogin          *time.Time `json:"lastLogin,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BeforeCreate hashes the password and fills in account defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	hashed, err := HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed

	if u.Role == "" {
		u.Role = string(jwt.RoleUser)
	}
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = TierFree
	}
	if u.SubscriptionStatus == "" {
		u.SubscriptionStatus = SubscriptionNone
	}

	return nil
}

// IsPaid reports whether the user is on a paid tier
func (u *User) IsPaid() bool {
	return u.SubscriptionTier == TierPremium || u.SubscriptionTier == TierPro
}

// ToResponse converts a User model to a UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		SubscriptionTier:   u.SubscriptionTier,
		SubscriptionStatus: u.SubscriptionStatus,
		LastLogin:          u.LastLogin,
		CreatedAt:          u.CreatedAt,
	}
}
