package openstack

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
)

// AuthState is the lifecycle position of the current authentication.
type AuthState int

const (
	// AuthUnset means there is no token.
	AuthUnset AuthState = iota
	// AuthExpired means the token expiry has passed.
	AuthExpired
	// AuthAboutToExpire means the token expires within the look-ahead window.
	AuthAboutToExpire
	// AuthValid means the token is usable.
	AuthValid
)

func (s AuthState) String() string {
	switch s {
	case AuthUnset:
		return "unset"
	case AuthExpired:
		return "expired"
	case AuthAboutToExpire:
		return "about to expire"
	case AuthValid:
		return "valid"
	default:
		return "unknown"
	}
}

// AuthInfo is what Keystone reported about a token.
type AuthInfo struct {
	ExpiresAt time.Time `json:"expires_at"          yaml:"expires_at"`
	IssuedAt  time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	Methods   []string  `json:"methods,omitempty"   yaml:"methods,omitempty"`

	User    *ScopeRef  `json:"user,omitempty"    yaml:"user,omitempty"`
	Project *ScopeRef  `json:"project,omitempty" yaml:"project,omitempty"`
	Domain  *ScopeRef  `json:"domain,omitempty"  yaml:"domain,omitempty"`
	System  bool       `json:"system,omitempty"  yaml:"system,omitempty"`
	Roles   []ScopeRef `json:"roles,omitempty"   yaml:"roles,omitempty"`

	Catalog Catalog `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

// UnmarshalJSON accepts Keystone's {"system": {"all": true}} scope as well
// as a plain boolean.
func (i *AuthInfo) UnmarshalJSON(data []byte) error {
	type plain AuthInfo

	var wire struct {
		plain

		System json.RawMessage `json:"system,omitempty"`
	}

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return err
	}

	*i = AuthInfo(wire.plain)
	i.System = systemScoped(wire.System)

	return nil
}

func systemScoped(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var flag bool
	if json.Unmarshal(raw, &flag) == nil {
		return flag
	}

	var scope map[string]bool

	return json.Unmarshal(raw, &scope) == nil && scope["all"]
}

// ScopeRef names a Keystone user, project, domain or role.
type ScopeRef struct {
	ID     string    `json:"id"               yaml:"id"`
	Name   string    `json:"name,omitempty"   yaml:"name,omitempty"`
	Domain *ScopeRef `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// AuthToken is an issued token and, when known, its details.
type AuthToken struct {
	Token string    `json:"token"          yaml:"token"`
	Info  *AuthInfo `json:"info,omitempty" yaml:"info,omitempty"`
}

// Auth is either a token or nothing. Values are immutable; replace the
// whole Auth to change it.
type Auth struct {
	token *AuthToken
}

// NoAuth returns the empty Auth.
func NoAuth() Auth {
	return Auth{}
}

// NewTokenAuth wraps a token. An empty token is a programming error and
// panics.
func NewTokenAuth(token string, info *AuthInfo) Auth {
	if token == "" {
		panic("openstack: NewTokenAuth called with an empty token")
	}

	return Auth{token: &AuthToken{Token: token, Info: info}}
}

// Token returns the token variant, or nil.
func (a Auth) Token() *AuthToken {
	return a.token
}

// IsSet reports whether a token is held.
func (a Auth) IsSet() bool {
	return a.token != nil
}

// Info returns the token details, or nil.
func (a Auth) Info() *AuthInfo {
	if a.token == nil {
		return nil
	}

	return a.token.Info
}

// ExpiresAt returns the token expiry and whether it is known.
func (a Auth) ExpiresAt() (time.Time, bool) {
	info := a.Info()
	if info == nil || info.ExpiresAt.IsZero() {
		return time.Time{}, false
	}

	return info.ExpiresAt, true
}

// State classifies the Auth at now. A token expiring within lookAhead is
// AboutToExpire; a token with unknown expiry is Valid.
func (a Auth) State(now time.Time, lookAhead time.Duration) AuthState {
	if a.token == nil {
		return AuthUnset
	}

	expiresAt, ok := a.ExpiresAt()
	if !ok {
		return AuthValid
	}

	if !now.Before(expiresAt) {
		return AuthExpired
	}

	if lookAhead > 0 && !now.Add(lookAhead).Before(expiresAt) {
		return AuthAboutToExpire
	}

	return AuthValid
}

// SetHeaders adds the token header to headers. It does nothing for an
// empty Auth.
func (a Auth) SetHeaders(headers http.Header) {
	if a.token == nil {
		return
	}

	headers.Set(constants.AuthTokenHeader, a.token.Token)
}
