package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "usergate/pkg/domain-errors"
)

func TestUserRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     *UserRequest
		wantErr string
	}{
		{name: "complete", req: &UserRequest{Name: "John Doe", Email: "john@example.com"}},
		{name: "nil", req: nil, wantErr: "request is required"},
		{name: "empty", req: &UserRequest{}, wantErr: "name is required"},
		{name: "missing email", req: &UserRequest{Name: "x"}, wantErr: "email is required"},
		{name: "missing name", req: &UserRequest{Email: "x@example.com"}, wantErr: "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
