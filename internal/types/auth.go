package types

import "github.com/go-playground/validator/v10"

// TokenPair holds the access/refresh credential pair returned by the token
// refresh endpoint.
type TokenPair struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshRequest is the body sent to the token refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Validate validates the TokenPair using the validator.
func (p *TokenPair) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// Validate validates the RefreshRequest using the validator.
func (r *RefreshRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
