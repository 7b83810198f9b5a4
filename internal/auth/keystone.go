package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/constants"
	oshttp "github.com/fivetwenty-io/ostack/internal/http"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Method is a Keystone v3 identity method.
type Method string

const (
	MethodPassword              Method = "password"
	MethodApplicationCredential Method = "application_credential"
	MethodToken                 Method = "token"
)

// Issuer obtains a new token.
type Issuer interface {
	Authenticate(ctx context.Context) (openstack.Auth, error)
}

// KeystoneIssuer issues tokens by POSTing credentials to
// <auth URL>/auth/tokens.
type KeystoneIssuer struct {
	tokensURL string
	config    *openstack.Config
	http      *oshttp.Client
}

var _ Issuer = (*KeystoneIssuer)(nil)

// NewKeystoneIssuer validates config and prepares an issuer. httpClient must
// not inject tokens itself.
func NewKeystoneIssuer(config *openstack.Config, httpClient *oshttp.Client) (*KeystoneIssuer, error) {
	authURL, err := NormalizeAuthURL(config.AuthURL)
	if err != nil {
		return nil, err
	}

	_, err = MethodFor(config)
	if err != nil {
		return nil, err
	}

	return &KeystoneIssuer{
		tokensURL: authURL + "/auth/tokens",
		config:    config,
		http:      httpClient,
	}, nil
}

// NormalizeAuthURL returns the Keystone v3 root for raw, appending /v3 when
// the URL names the unversioned endpoint.
func NormalizeAuthURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", constants.ErrAuthURLRequired
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: invalid auth URL %q", constants.ErrAuthURLRequired, raw)
	}

	if strings.HasSuffix(parsed.Path, "/v2.0") {
		trimmed = strings.TrimSuffix(trimmed, "/v2.0")
	}

	if !strings.HasSuffix(trimmed, "/v3") {
		trimmed += "/v3"
	}

	return trimmed, nil
}

// MethodFor picks the identity method: an explicit token wins, then an
// application credential, then a password.
func MethodFor(config *openstack.Config) (Method, error) {
	switch {
	case config.Token != "":
		return MethodToken, nil
	case config.ApplicationCredentialID != "" || config.ApplicationCredentialName != "":
		if config.ApplicationCredentialSecret == "" {
			return "", fmt.Errorf("%w: application credential secret is missing", constants.ErrNoCredentials)
		}

		return MethodApplicationCredential, nil
	case config.Password != "" && (config.Username != "" || config.UserID != ""):
		return MethodPassword, nil
	default:
		return "", constants.ErrNoCredentials
	}
}

// Authenticate issues a token. An existing token without a requested scope
// is validated and used as-is instead of being exchanged.
func (k *KeystoneIssuer) Authenticate(ctx context.Context) (openstack.Auth, error) {
	method, err := MethodFor(k.config)
	if err != nil {
		return openstack.NoAuth(), err
	}

	if method == MethodToken && scopeFor(k.config) == nil {
		return k.send(ctx, &openstack.Request{
			Method:  http.MethodGet,
			URL:     k.tokensURL,
			Service: openstack.ServiceIdentity,
			Headers: http.Header{
				constants.HeaderAccept:       []string{constants.MediaTypeJSON},
				constants.AuthTokenHeader:    []string{k.config.Token},
				constants.SubjectTokenHeader: []string{k.config.Token},
			},
		})
	}

	body, err := BuildAuthRequest(k.config)
	if err != nil {
		return openstack.NoAuth(), err
	}

	return k.send(ctx, &openstack.Request{
		Method:  http.MethodPost,
		URL:     k.tokensURL,
		Service: openstack.ServiceIdentity,
		Headers: http.Header{
			constants.HeaderContentType: []string{constants.MediaTypeJSON},
			constants.HeaderAccept:      []string{constants.MediaTypeJSON},
		},
		Body: body,
	})
}

func (k *KeystoneIssuer) send(ctx context.Context, req *openstack.Request) (openstack.Auth, error) {
	resp, err := k.http.Do(ctx, req)
	if err != nil {
		return openstack.NoAuth(), fmt.Errorf("%w: %w", constants.ErrAuthenticationFail, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return openstack.NoAuth(), fmt.Errorf("%w: %w", constants.ErrAuthenticationFail,
			openstack.ParseErrorResponse(resp.StatusCode, resp.Body))
	}

	return ParseTokenResponse(resp.Headers, resp.Body)
}

// ParseTokenResponse reads the token from X-Subject-Token and its details
// from the {"token": ...} body.
func ParseTokenResponse(headers http.Header, body []byte) (openstack.Auth, error) {
	token := headers.Get(constants.SubjectTokenHeader)
	if token == "" {
		return openstack.NoAuth(), constants.ErrNoSubjectToken
	}

	var wire struct {
		Token *openstack.AuthInfo `json:"token"`
	}

	err := json.Unmarshal(body, &wire)
	if err != nil {
		return openstack.NoAuth(), &openstack.DecodeError{Key: "token", Err: err}
	}

	return openstack.NewTokenAuth(token, wire.Token), nil
}

type ref struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Domain *ref   `json:"domain,omitempty"`
}

type passwordUser struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
	Domain   *ref   `json:"domain,omitempty"`
}

type passwordMethod struct {
	User passwordUser `json:"user"`
}

type applicationCredential struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Secret string `json:"secret"`
	User   *ref   `json:"user,omitempty"`
}

type identity struct {
	Methods               []Method               `json:"methods"`
	Password              *passwordMethod        `json:"password,omitempty"`
	Token                 *ref                   `json:"token,omitempty"`
	ApplicationCredential *applicationCredential `json:"application_credential,omitempty"`
}

type systemScope struct {
	All bool `json:"all"`
}

type scope struct {
	Project *ref         `json:"project,omitempty"`
	Domain  *ref         `json:"domain,omitempty"`
	System  *systemScope `json:"system,omitempty"`
}

type authRequest struct {
	Auth struct {
		Identity identity `json:"identity"`
		Scope    *scope   `json:"scope,omitempty"`
	} `json:"auth"`
}

// BuildAuthRequest encodes the POST /auth/tokens body for config.
// Application credentials carry their own scope and are sent unscoped.
func BuildAuthRequest(config *openstack.Config) ([]byte, error) {
	method, err := MethodFor(config)
	if err != nil {
		return nil, err
	}

	var request authRequest

	request.Auth.Identity.Methods = []Method{method}

	switch method {
	case MethodToken:
		request.Auth.Identity.Token = &ref{ID: config.Token}
		request.Auth.Scope = scopeFor(config)
	case MethodApplicationCredential:
		credential := &applicationCredential{
			ID:     config.ApplicationCredentialID,
			Secret: config.ApplicationCredentialSecret,
		}
		if credential.ID == "" {
			credential.Name = config.ApplicationCredentialName
			credential.User = userRef(config)
		}

		request.Auth.Identity.ApplicationCredential = credential
	case MethodPassword:
		user := passwordUser{Password: config.Password}
		if config.UserID != "" {
			user.ID = config.UserID
		} else {
			named := userRef(config)
			user.Name = named.Name
			user.Domain = named.Domain
		}

		request.Auth.Identity.Password = &passwordMethod{User: user}
		request.Auth.Scope = scopeFor(config)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, &openstack.BodyError{Err: err}
	}

	return body, nil
}

func userRef(config *openstack.Config) *ref {
	if config.UserID != "" {
		return &ref{ID: config.UserID}
	}

	return &ref{Name: config.Username, Domain: domainRef(config.UserDomainID, config.UserDomainName)}
}

// scopeFor applies the precedence system, project ID, project name, domain.
func scopeFor(config *openstack.Config) *scope {
	switch {
	case config.SystemScope:
		return &scope{System: &systemScope{All: true}}
	case config.ProjectID != "":
		return &scope{Project: &ref{ID: config.ProjectID}}
	case config.ProjectName != "":
		domain := domainRef(config.ProjectDomainID, config.ProjectDomainName)
		if config.ProjectDomainID == "" && config.ProjectDomainName == "" {
			domain = domainRef(config.UserDomainID, config.UserDomainName)
		}

		return &scope{Project: &ref{Name: config.ProjectName, Domain: domain}}
	case config.DomainID != "":
		return &scope{Domain: &ref{ID: config.DomainID}}
	case config.DomainName != "":
		return &scope{Domain: &ref{Name: config.DomainName}}
	default:
		return nil
	}
}

// domainRef prefers id and falls back to the Default domain by name.
func domainRef(id, name string) *ref {
	switch {
	case id != "":
		return &ref{ID: id}
	case name != "":
		return &ref{Name: name}
	default:
		return &ref{Name: constants.DefaultDomain}
	}
}
