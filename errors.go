package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeUserNotFound      = "USER_NOT_FOUND"
	TextCodeAccountDisabled   = "ACCOUNT_DISABLED"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeCurrentPwdInvalid = "CURRENT_PASSWORD_INVALID"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeSigningKeyMissing = "SIGNING_KEY_MISSING"
	TextCodeInvalidRole       = "INVALID_ROLE"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// GenericAuthFailureMessage is the only message the endpoint layer may surface
// for a failed login, whatever the internal reason. Keeping the wording
// identical across not-found, deactivated, and bad-password failures prevents
// account enumeration.
const GenericAuthFailureMessage = "the credentials provided are invalid"

// ErrIdentityNotFound is returned when no user matches the given identifier.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrAccountDeactivated is returned when the user exists but is soft-deactivated.
var ErrAccountDeactivated = errors.New("account is deactivated", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when a password does not match the stored hash.
var ErrMismatchedHashAndPassword = errors.New(GenericAuthFailureMessage, errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail is returned when registering with an email that is already in use.
var ErrDuplicateEmail = errors.New("a user with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrCurrentPasswordInvalid is returned by password changes when the supplied
// current password does not match. Unlike login failures this one is precise:
// the caller is already authenticated.
var ErrCurrentPasswordInvalid = errors.New("current password is incorrect", errors.CategoryValidation).
	WithTextCode(TextCodeCurrentPwdInvalid).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned when a token's expiry claim is in the past.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers every other verification failure: bad signature,
// wrong issuer or audience, garbled structure.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrSigningKeyMissing signals catastrophic misconfiguration: no signing
// secret in a context where one is mandatory.
var ErrSigningKeyMissing = errors.New("token signing key is not configured", errors.CategoryInternal).
	WithTextCode(TextCodeSigningKeyMissing).
	WithCode(errors.CodeInternal)

// ErrNoEmptyString rejects empty passwords before they reach the hasher.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsAuthFailure reports whether err belongs to the family of login failures
// that must be coalesced into GenericAuthFailureMessage at the boundary.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrIdentityNotFound) ||
		errors.Is(err, ErrAccountDeactivated) ||
		errors.Is(err, ErrMismatchedHashAndPassword)
}
