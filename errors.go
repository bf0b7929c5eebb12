package authgate

import "errors"

// ErrorCode classifies every way a callback can fail. Codes are internal;
// the redirect the user sees is built by errorRedirect, which collapses
// security-sensitive failures into a generic callback error.
type ErrorCode string

const (
	// Signed-payload (SSO) failures
	ErrCodeMissingParameters ErrorCode = "MissingParameters" // sso/sig query params absent
	ErrCodeBadSignature      ErrorCode = "BadSignature"      // HMAC mismatch on the signed payload
	ErrCodeNonceMismatch     ErrorCode = "NonceMismatch"     // nonce binding absent, empty or non-matching
	ErrCodeIncompleteProfile ErrorCode = "IncompleteProfile" // required identity fields missing after verification

	// OAuth failures
	ErrCodeProviderError ErrorCode = "ProviderError" // upstream transport failure
	ErrCodeNoProfile     ErrorCode = "NoProfile"     // ambiguous cancel/error - routed to signin, not the error page

	// Email magic-link failures
	ErrCodeVerificationFailed ErrorCode = "VerificationFailed" // expired or absent verification token

	// Credentials failures
	ErrCodeInvalidCredentials ErrorCode = "InvalidCredentials" // authorize returned no user

	// Cross-cutting failures
	ErrCodeConfigurationError ErrorCode = "ConfigurationError" // missing adapter/authorize, bad session mode, authorize raised
	ErrCodeAccessDenied       ErrorCode = "AccessDenied"       // SignIn hook rejected the verified identity
	ErrCodeAccountConflict    ErrorCode = "AccountConflict"    // account already linked to a different user
	ErrCodeUserCreationFailed ErrorCode = "UserCreationFailed" // persistence rejected user creation
	ErrCodeInternalError      ErrorCode = "InternalError"      // anything unclassified
)

// CallbackError carries an ErrorCode through the verification pipeline.
type CallbackError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *CallbackError) Error() string {
	if e.Message != "" {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code)
}

func (e *CallbackError) Unwrap() error { return e.Cause }

// NewCallbackError creates a coded error for the callback pipeline.
func NewCallbackError(code ErrorCode, message string) *CallbackError {
	return &CallbackError{Code: code, Message: message}
}

func wrapCallbackError(code ErrorCode, cause error) *CallbackError {
	return &CallbackError{Code: code, Cause: cause}
}

// codeOf extracts the ErrorCode from any error produced by the pipeline,
// defaulting to InternalError for unclassified failures.
func codeOf(err error) ErrorCode {
	var ce *CallbackError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrAccountAlreadyLinked):
		return ErrCodeAccountConflict
	case errors.Is(err, ErrUserCreateFailed):
		return ErrCodeUserCreationFailed
	}
	return ErrCodeInternalError
}

// Sentinel errors adapters should return (or wrap) so the session issuer
// can map persistence conditions onto the error taxonomy.
var (
	// ErrAccountAlreadyLinked means the external account is already linked
	// to a different user than the one signing in.
	ErrAccountAlreadyLinked = errors.New("account already linked to a different user")

	// ErrUserCreateFailed means the adapter could not create the user record.
	ErrUserCreateFailed = errors.New("could not create user")

	// ErrSessionNotFound means no session record exists for a token.
	ErrSessionNotFound = errors.New("session not found")
)
