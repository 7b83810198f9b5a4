//go:build integration

package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

// KeystoneIntegrationTestSuite exercises login, token inspection and logout
// against a real Keystone.
type KeystoneIntegrationTestSuite struct {
	suite.Suite
	config *TestConfig
	runner *CommandRunner
}

// SetupSuite initializes the test environment
func (s *KeystoneIntegrationTestSuite) SetupSuite() {
	s.config = LoadTestConfig()
	s.config.SkipIfMissingConfig(s.T())
}

// SetupTest gives every test a fresh state directory
func (s *KeystoneIntegrationTestSuite) SetupTest() {
	s.runner = NewCommandRunner(s.config, s.T())
}

func (s *KeystoneIntegrationTestSuite) TestLoginSavesToken() {
	stdout, stderr, err := s.runner.Run("login")
	s.Require().NoError(err, "login failed: %s", stderr)
	s.Contains(stdout, "Logged in to")

	stdout, stderr, err = s.runner.Run("token", "show", "--output", "json")
	s.Require().NoError(err, "token show failed: %s", stderr)

	var status struct {
		State string `json:"state"`
		Token string `json:"token"`
	}

	s.Require().NoError(json.Unmarshal([]byte(stdout), &status))
	s.Equal("valid", status.State)
	s.Equal("***", status.Token)
}

func (s *KeystoneIntegrationTestSuite) TestTokenShowWithoutLogin() {
	stdout, stderr, err := s.runner.Run("token", "show", "--output", "json")
	s.Require().NoError(err, "token show failed: %s", stderr)
	s.Contains(stdout, `"state": "unset"`)
}

func (s *KeystoneIntegrationTestSuite) TestValidateCurrentToken() {
	s.Require().NoError(s.runner.Login())

	stdout, stderr, err := s.runner.Run("token", "validate", "--output", "json")
	s.Require().NoError(err, "token validate failed: %s", stderr)
	AssertJSONOutput(s.T(), stdout)
	s.Contains(stdout, "expires_at")
}

func (s *KeystoneIntegrationTestSuite) TestCatalogHasIdentity() {
	s.Require().NoError(s.runner.Login())

	stdout, stderr, err := s.runner.Run("catalog", "list", "--service", "identity", "--interface", "public")
	s.Require().NoError(err, "catalog list failed: %s", stderr)
	s.Contains(stdout, "identity")
}

func (s *KeystoneIntegrationTestSuite) TestLogoutRevokesToken() {
	s.Require().NoError(s.runner.Login())

	stdout, _, err := s.runner.Run("token", "show", "--reveal", "--output", "json")
	s.Require().NoError(err)

	var status struct {
		Token string `json:"token"`
	}

	s.Require().NoError(json.Unmarshal([]byte(stdout), &status))
	s.Require().NotEmpty(status.Token)

	stdout, stderr, err := s.runner.Run("logout", "--revoke")
	s.Require().NoError(err, "logout failed: %s", stderr)
	s.Contains(stdout, "Successfully logged out")

	stdout, _, err = s.runner.Run("logout")
	s.Require().NoError(err)
	s.Contains(stdout, "No saved token")

	// A fresh session can no longer validate the revoked token.
	_, _, err = s.runner.Run("token", "validate", status.Token)
	s.Error(err)
}

func TestKeystoneIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(KeystoneIntegrationTestSuite))
}
