package authgate

import (
	"context"
	"strconv"

	"golang.org/x/oauth2"
)

// ProviderKind selects which verification branch handles a callback.
// Adding a kind means adding a case to the dispatch in Complete - there is
// no duck typing here.
type ProviderKind string

const (
	KindSSO         ProviderKind = "sso"
	KindOAuth       ProviderKind = "oauth"
	KindEmail       ProviderKind = "email"
	KindCredentials ProviderKind = "credentials"
)

// AuthorizeFunc validates a set of credential fields and returns the
// matching user, or nil when the credentials are wrong. Any error return
// is treated as a bug in the authorize implementation, not as bad
// credentials.
type AuthorizeFunc func(ctx context.Context, credentials map[string]string) (*User, error)

// Exchanger performs the OAuth authorization-code exchange and profile
// fetch for an oauth-kind provider. Implementations live in the oauth2
// subpackage; tests supply fakes.
type Exchanger interface {
	// Exchange trades the callback code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// UserInfo fetches the raw provider profile for a token. A nil map
	// with a nil error means the provider yielded no profile (the
	// ambiguous cancel-vs-error case).
	UserInfo(ctx context.Context, token *oauth2.Token) (map[string]any, error)
}

// NormalizeFunc maps a raw provider profile onto the canonical Profile.
type NormalizeFunc func(raw map[string]any) Profile

// Provider is the immutable configuration for one authentication method.
// Constructed once at process configuration time, read-only afterwards.
type Provider struct {
	// ID is the provider identifier used in routes and account records.
	ID string

	// Name is display metadata only.
	Name string

	Kind ProviderKind

	// Secret is the symmetric key for sso-kind providers. Empty for other
	// kinds (the process-wide Config.Secret signs sessions).
	Secret string

	// RemoteURL is the base URL of the external SSO system that the
	// initiation redirect points at (sso kind only).
	RemoteURL string

	// Exchanger performs code exchange + profile fetch (oauth kind only).
	Exchanger Exchanger

	// Normalize maps the raw OAuth profile to a Profile. Defaults to
	// DefaultNormalize when nil.
	Normalize NormalizeFunc

	// Authorize validates submitted credentials (credentials kind only).
	Authorize AuthorizeFunc
}

// DefaultNormalize picks the common id/email/name/picture fields out of a
// raw OAuth profile. Google and Github both fit this shape.
func DefaultNormalize(raw map[string]any) Profile {
	p := Profile{}
	switch id := raw["id"].(type) {
	case string:
		p.ID = id
	case float64:
		p.ID = formatFloatID(id)
	}
	if email, ok := raw["email"].(string); ok {
		p.Email = email
	}
	if name, ok := raw["name"].(string); ok {
		p.Name = name
	}
	if pic, ok := raw["picture"].(string); ok {
		p.Image = pic
	} else if pic, ok := raw["avatar_url"].(string); ok {
		p.Image = pic
	}
	if login, ok := raw["login"].(string); ok {
		p.Username = login
	}
	return p
}

// JSON numbers decode as float64; provider IDs are integral in practice.
func formatFloatID(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}
