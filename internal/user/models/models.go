package models

import (
	dErrors "usergate/pkg/domain-errors"
)

// User is a record of the sample user directory.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserRequest is the body accepted by create and update.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate requires both fields.
func (r *UserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	return nil
}
