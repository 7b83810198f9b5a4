package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/spf13/viper"
)

// Static errors for err113 compliance.
var (
	ErrCloudNotInConfig  = errors.New("cloud not found in clouds.yaml")
	ErrInvalidCloudEntry = errors.New("invalid cloud entry")
)

const endpointOverrideSuffix = "_endpoint_override"

// CloudAuth is the auth section of a clouds.yaml entry.
type CloudAuth struct {
	AuthURL                     string `mapstructure:"auth_url"                      yaml:"auth_url,omitempty"`
	Username                    string `mapstructure:"username"                      yaml:"username,omitempty"`
	UserID                      string `mapstructure:"user_id"                       yaml:"user_id,omitempty"`
	Password                    string `mapstructure:"password"                      yaml:"password,omitempty"`
	UserDomainName              string `mapstructure:"user_domain_name"              yaml:"user_domain_name,omitempty"`
	UserDomainID                string `mapstructure:"user_domain_id"                yaml:"user_domain_id,omitempty"`
	ProjectName                 string `mapstructure:"project_name"                  yaml:"project_name,omitempty"`
	ProjectID                   string `mapstructure:"project_id"                    yaml:"project_id,omitempty"`
	ProjectDomainName           string `mapstructure:"project_domain_name"           yaml:"project_domain_name,omitempty"`
	ProjectDomainID             string `mapstructure:"project_domain_id"             yaml:"project_domain_id,omitempty"`
	DomainName                  string `mapstructure:"domain_name"                   yaml:"domain_name,omitempty"`
	DomainID                    string `mapstructure:"domain_id"                     yaml:"domain_id,omitempty"`
	SystemScope                 string `mapstructure:"system_scope"                  yaml:"system_scope,omitempty"`
	ApplicationCredentialID     string `mapstructure:"application_credential_id"     yaml:"application_credential_id,omitempty"`
	ApplicationCredentialName   string `mapstructure:"application_credential_name"   yaml:"application_credential_name,omitempty"`
	ApplicationCredentialSecret string `mapstructure:"application_credential_secret" yaml:"application_credential_secret,omitempty"`
	Token                       string `mapstructure:"token"                         yaml:"token,omitempty"`
}

// Cloud is one entry under "clouds" in clouds.yaml.
type Cloud struct {
	Auth       CloudAuth `mapstructure:"auth"        yaml:"auth"`
	AuthType   string    `mapstructure:"auth_type"   yaml:"auth_type,omitempty"`
	RegionName string    `mapstructure:"region_name" yaml:"region_name,omitempty"`
	Interface  string    `mapstructure:"interface"   yaml:"interface,omitempty"`
	Verify     *bool     `mapstructure:"verify"      yaml:"verify,omitempty"`

	// EndpointOverrides collects the <service>_endpoint_override keys.
	EndpointOverrides map[openstack.ServiceType]string `mapstructure:"-" yaml:"-"`
}

// loadCloud reads clouds.<name> from the loaded clouds.yaml. An empty name
// returns an empty entry so that OS_* variables alone can configure the CLI.
func loadCloud(name string) (*Cloud, error) {
	cloud := &Cloud{EndpointOverrides: map[openstack.ServiceType]string{}}
	if name == "" {
		return cloud, nil
	}

	key := "clouds." + name
	if !viper.IsSet(key) {
		return nil, fmt.Errorf("%w: %s", ErrCloudNotInConfig, name)
	}

	err := viper.UnmarshalKey(key, cloud)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidCloudEntry, name, err)
	}

	for setting, value := range viper.GetStringMapString(key) {
		if service, ok := strings.CutSuffix(setting, endpointOverrideSuffix); ok && value != "" {
			cloud.EndpointOverrides[openstack.ParseServiceType(service)] = value
		}
	}

	return cloud, nil
}

// applyEnvironment lets OS_* variables override the clouds.yaml entry, as
// the other OpenStack clients do.
func applyEnvironment(cloud *Cloud) {
	overrides := map[string]*string{
		"auth_url":                      &cloud.Auth.AuthURL,
		"username":                      &cloud.Auth.Username,
		"user_id":                       &cloud.Auth.UserID,
		"password":                      &cloud.Auth.Password,
		"user_domain_name":              &cloud.Auth.UserDomainName,
		"user_domain_id":                &cloud.Auth.UserDomainID,
		"project_name":                  &cloud.Auth.ProjectName,
		"project_id":                    &cloud.Auth.ProjectID,
		"project_domain_name":           &cloud.Auth.ProjectDomainName,
		"project_domain_id":             &cloud.Auth.ProjectDomainID,
		"domain_name":                   &cloud.Auth.DomainName,
		"domain_id":                     &cloud.Auth.DomainID,
		"system_scope":                  &cloud.Auth.SystemScope,
		"application_credential_id":     &cloud.Auth.ApplicationCredentialID,
		"application_credential_name":   &cloud.Auth.ApplicationCredentialName,
		"application_credential_secret": &cloud.Auth.ApplicationCredentialSecret,
		"token":                         &cloud.Auth.Token,
		"region_name":                   &cloud.RegionName,
		"interface":                     &cloud.Interface,
	}

	for key, field := range overrides {
		if value := viper.GetString(key); value != "" {
			*field = value
		}
	}

	// OS_TENANT_NAME predates OS_PROJECT_NAME.
	if cloud.Auth.ProjectName == "" && cloud.Auth.ProjectID == "" {
		cloud.Auth.ProjectName = viper.GetString("tenant_name")
	}
}

// toConfig maps the entry onto the library configuration.
func (c *Cloud) toConfig() *openstack.Config {
	config := &openstack.Config{
		AuthURL:                     c.Auth.AuthURL,
		Username:                    c.Auth.Username,
		UserID:                      c.Auth.UserID,
		Password:                    c.Auth.Password,
		UserDomainName:              c.Auth.UserDomainName,
		UserDomainID:                c.Auth.UserDomainID,
		ProjectName:                 c.Auth.ProjectName,
		ProjectID:                   c.Auth.ProjectID,
		ProjectDomainName:           c.Auth.ProjectDomainName,
		ProjectDomainID:             c.Auth.ProjectDomainID,
		DomainName:                  c.Auth.DomainName,
		DomainID:                    c.Auth.DomainID,
		SystemScope:                 c.Auth.SystemScope != "",
		ApplicationCredentialID:     c.Auth.ApplicationCredentialID,
		ApplicationCredentialName:   c.Auth.ApplicationCredentialName,
		ApplicationCredentialSecret: c.Auth.ApplicationCredentialSecret,
		Token:                       c.Auth.Token,
		Region:                      c.RegionName,
		Interface:                   c.Interface,
		EndpointOverrides:           c.EndpointOverrides,
	}

	if c.Verify != nil && !*c.Verify {
		config.SkipTLSVerify = true
	}

	return config
}

// buildConfig assembles the library configuration for the selected cloud
// from clouds.yaml, the environment and the global flags.
func buildConfig() (*openstack.Config, string, error) {
	name := viper.GetString("cloud")

	cloud, err := loadCloud(name)
	if err != nil {
		return nil, "", err
	}

	applyEnvironment(cloud)

	if region := viper.GetString("region"); region != "" {
		cloud.RegionName = region
	}

	config := cloud.toConfig()
	config.Logger = newLogger()
	config.Debug = viper.GetBool("debug")
	config.UserAgent = userAgent()
	config.DiscoverVersions = true
	config.ExpiryLookAhead = constants.TokenExpirationBuffer
	config.HTTPTimeout = viper.GetDuration("timeout")
	config.RetryMax = viper.GetInt("retries")

	if viper.GetBool("insecure") {
		config.SkipTLSVerify = true
	}

	if natsURL := viper.GetString("nats_url"); natsURL != "" {
		config.Cache = &openstack.CacheConfig{
			Type: openstack.CacheTypeNATS,
			NATS: &openstack.NATSKVConfig{URL: natsURL, TTL: constants.DefaultVersionCacheTTL, KeyPrefix: name},
		}
	}

	return config, name, nil
}

// stateKey names the saved token of a configuration.
func stateKey(cloud string, config *openstack.Config) string {
	if cloud != "" {
		return cloud
	}

	user := config.Username
	if user == "" {
		user = config.UserID
	}

	return strings.Join([]string{config.AuthURL, user, config.ProjectName + config.ProjectID}, "|")
}

func tokenTTL(expires time.Time) string {
	if expires.IsZero() {
		return constants.NotAvailable
	}

	return time.Until(expires).Round(time.Second).String()
}
