package authapi

import validation "github.com/go-ozzo/ozzo-validation"

const (
	maxIdentityRunes = 256
	maxSecretBytes   = 1024
)

type loginRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// Validate expects Identity to be trimmed already. The secret cap keeps
// oversized inputs away from argon2.
func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identity, validation.Required, validation.RuneLength(1, maxIdentityRunes)),
		validation.Field(&r.Secret, validation.Required, validation.Length(1, maxSecretBytes)),
	)
}

type loginResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

const msgLoginOK = "User Logged-in Successfully."
