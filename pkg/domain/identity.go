package domain

// IdentitySource records which guard admitted the caller. Handlers must not
// branch on it: every admitted identity is equally authorized.
type IdentitySource string

const (
	IdentitySourceBearer  IdentitySource = "bearer"
	IdentitySourceSession IdentitySource = "session"
)

// Identity is the authenticated principal handed to downstream handlers.
type Identity struct {
	Subject   string         `json:"subject,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Email     string         `json:"email,omitempty"`
	Name      string         `json:"name,omitempty"`
	Source    IdentitySource `json:"source"`
}

// IsZero reports whether no guard populated the identity.
func (i Identity) IsZero() bool {
	return i.Source == ""
}
