package handler

import "github.com/mrms/resource-management/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type registerRequest struct {
	Username     string `json:"username"     validate:"required,min=3"`
	Password     string `json:"password"     validate:"required,min=8"`
	Email        string `json:"email"        validate:"omitempty,email"`
	FullName     string `json:"fullName"`
	Role         string `json:"role"         validate:"required,role"`
	AssignedBase string `json:"assignedBase"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type registerResponse struct {
	User *domain.User `json:"user"`
}
