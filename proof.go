package authgate

// Profile is the canonical identity extracted from any proof kind.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	Admin     bool   `json:"admin,omitempty"`
	Moderator bool   `json:"moderator,omitempty"`
}

// Account identifies the external account a profile came from.
type Account struct {
	ID         string       `json:"id"`
	ProviderID string       `json:"provider_id"`
	Kind       ProviderKind `json:"kind"`
}

// AuthProof is the normalized result of a successful protocol
// verification. RawProfile carries the provider's original payload (OAuth
// only) and is forwarded to hooks, never persisted.
type AuthProof struct {
	Profile    Profile
	Account    Account
	RawProfile map[string]any
}
