package bindings

import "github.com/google/uuid"

// --- Forms (request bodies) ---

// LoginForm authenticates a user with its private credentials.
type LoginForm struct {
	Email    string `json:"email"    validate:"required,email,min=3,max=128"`
	Password string `json:"password" validate:"required,min=2,max=1024"`
}

// RequestRegistrationForm asks for a new registration link.
type RequestRegistrationForm struct {
	Email string `json:"email" validate:"required,email,min=3,max=128"`
	Lang  Lang   `json:"lang"  validate:"required,oneof=en fr"`
}

// RequestEmailUpdateForm asks for a new email update link.
type RequestEmailUpdateForm struct {
	Email string `json:"email" validate:"required,email,min=3,max=128"`
	Lang  Lang   `json:"lang"  validate:"required,oneof=en fr"`
}

// RequestPasswordResetForm asks for a new password reset link.
type RequestPasswordResetForm struct {
	Email string `json:"email" validate:"required,email,min=3,max=128"`
	Lang  Lang   `json:"lang"  validate:"required,oneof=en fr"`
}

// RegisterForm creates a user. The short code must have been delivered to
// the email the form registers.
type RegisterForm struct {
	Email     string `json:"email"     validate:"required,email,min=3,max=128"`
	Password  string `json:"password"  validate:"required,min=2,max=1024"`
	ShortCode string `json:"shortCode" validate:"required,min=1,max=32"`
}

// UpdateEmailForm updates the email of a user, using the short code that was
// sent to the new address.
type UpdateEmailForm struct {
	UserID    uuid.UUID `json:"userID"    validate:"required"`
	ShortCode string    `json:"shortCode" validate:"required,min=1,max=32"`
}

// UpdatePasswordForm updates the password of a user. The current password is
// required for further verification of the caller identity.
type UpdatePasswordForm struct {
	Password        string `json:"password"        validate:"required,min=2,max=1024"`
	CurrentPassword string `json:"currentPassword" validate:"required,min=2,max=1024"`
}

// ResetPasswordForm resets the password of a user from an unauthenticated
// session, using the short code sent to the user's email.
type ResetPasswordForm struct {
	UserID    uuid.UUID `json:"userID"    validate:"required"`
	Password  string    `json:"password"  validate:"required,min=2,max=1024"`
	ShortCode string    `json:"shortCode" validate:"required,min=1,max=32"`
}

// UpdateRoleForm updates the role of a user.
//
// The server enforces a strict partial order on the actor's own role: a user
// cannot upgrade other users to a role higher than its own, and can only
// downgrade other users to a role lower than its own.
type UpdateRoleForm struct {
	UserID uuid.UUID       `json:"userID" validate:"required"`
	Role   CredentialsRole `json:"role"   validate:"required,oneof=user admin super_admin"`
}

// --- Params (query strings) ---

// RefreshAccessTokenParams exchanges a refresh token for a new access token.
// Both tokens travel as query parameters, not as headers.
type RefreshAccessTokenParams struct {
	AccessToken  string `validate:"required"`
	RefreshToken string `validate:"required"`
}

// EmailExistsParams checks the availability of an email.
type EmailExistsParams struct {
	Email string `validate:"required,email,min=3,max=128"`
}

// ListUsersParams pages through the user directory.
type ListUsersParams struct {
	Limit  int               `validate:"omitempty,min=1,max=1000"`
	Offset int               `validate:"min=0"`
	Roles  []CredentialsRole `validate:"omitempty,dive,oneof=user admin super_admin"`
}

// GetUserParams fetches a single user record.
type GetUserParams struct {
	UserID uuid.UUID `validate:"required"`
}
