package dto

import "github.com/llsilvas/user-gateway/internal/entity"

// CreateUserRequest is used by administrators to provision new users. The
// organization fields are only required for organizer roles.
type CreateUserRequest struct {
	Username         string `json:"username" validate:"required,notblank,max=255"`
	Email            string `json:"email" validate:"required,email"`
	FirstName        string `json:"firstName" validate:"required,notblank"`
	LastName         string `json:"lastName" validate:"required,notblank"`
	Password         string `json:"password" validate:"required"`
	Role             string `json:"role" validate:"required,notblank"`
	OrganizationName string `json:"organizationName,omitempty"`
	ContactEmail     string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone     string `json:"contactPhone,omitempty"`
	DocumentNumber   string `json:"documentNumber,omitempty"`
}

// UpdateUserRequest captures administrator-triggered partial updates. A nil
// field means "leave unchanged".
type UpdateUserRequest struct {
	Username  string  `json:"username" validate:"required,notblank"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,notblank"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,notblank"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=1"`
}

// UserQuery holds search and offset pagination parameters.
type UserQuery struct {
	Search string `query:"search"`
	First  int    `query:"first"`
	Max    int    `query:"max"`
}

// UserCreated is returned after a successful provisioning run.
type UserCreated struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	Role                string `json:"role"`
	OrganizerRegistered bool   `json:"organizerRegistered"`
	Warning             string `json:"warning,omitempty"`
}

// UserPage is one page of a user search.
type UserPage struct {
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Items    []entity.User `json:"items"`
}

// OrganizerRegistration is posted to the organizer service after an organizer
// account is created.
type OrganizerRegistration struct {
	UserID           string `json:"userId"`
	OrganizationName string `json:"organizationName"`
	ContactEmail     string `json:"contactEmail"`
	ContactPhone     string `json:"contactPhone"`
	DocumentNumber   string `json:"documentNumber"`
}

// ProfileResponse describes the authenticated caller.
type ProfileResponse struct {
	Subject  string   `json:"subject"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles"`
}
