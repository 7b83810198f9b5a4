package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/osclient"
	"gopkg.in/yaml.v3"
)

const (
	stateDirName  = ".ostack"
	stateFileName = "state.yml"
	stateDirMode  = constants.ConfigDirPerm
	stateFileMode = constants.ConfigFilePerm
)

// State is what the CLI remembers between runs.
type State struct {
	Clouds map[string]*CloudState `yaml:"clouds,omitempty"`
}

// CloudState is the last token issued for one cloud.
type CloudState struct {
	Token   *openstack.AuthToken `yaml:"token"`
	SavedAt time.Time            `yaml:"saved_at"`
}

// StateFile keeps issued tokens on disk so that later runs skip Keystone.
type StateFile struct {
	mutex sync.Mutex
	path  string
}

var _ osclient.StatePersister = (*StateFile)(nil)

// NewStateFile uses $OSTACK_CONFIG_DIR/state.yml, or ~/.ostack/state.yml.
func NewStateFile() (*StateFile, error) {
	dir := os.Getenv(constants.EnvConfigDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %w", err)
		}

		dir = filepath.Join(home, stateDirName)
	}

	return NewStateFileAt(filepath.Join(dir, stateFileName)), nil
}

// NewStateFileAt uses the state file at path.
func NewStateFileAt(path string) *StateFile {
	return &StateFile{path: path}
}

// Path returns the location of the state file.
func (s *StateFile) Path() string {
	return s.path
}

// SaveToken implements osclient.StatePersister.
func (s *StateFile) SaveToken(cloud string, token *openstack.AuthToken) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	state, err := s.read()
	if err != nil {
		return err
	}

	state.Clouds[cloud] = &CloudState{Token: token, SavedAt: time.Now().UTC()}

	return s.write(state)
}

// Saved returns what is stored for cloud, expired or not.
func (s *StateFile) Saved(cloud string) (*CloudState, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	state, err := s.read()
	if err != nil {
		return nil, false
	}

	saved, ok := state.Clouds[cloud]
	if !ok || saved.Token == nil || saved.Token.Token == "" {
		return nil, false
	}

	return saved, true
}

// Auth returns the saved token as an openstack.Auth.
func (c *CloudState) Auth() openstack.Auth {
	if c == nil || c.Token == nil || c.Token.Token == "" {
		return openstack.NoAuth()
	}

	return openstack.NewTokenAuth(c.Token.Token, c.Token.Info)
}

// Load returns the saved token of cloud. Tokens that are expired or about
// to expire are not returned.
func (s *StateFile) Load(cloud string) (openstack.Auth, bool) {
	saved, ok := s.Saved(cloud)
	if !ok {
		return openstack.NoAuth(), false
	}

	auth := saved.Auth()
	if auth.State(time.Now(), constants.TokenExpirationBuffer) != openstack.AuthValid {
		return openstack.NoAuth(), false
	}

	return auth, true
}

// Clear forgets the token of cloud and reports whether one was saved.
func (s *StateFile) Clear(cloud string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	state, err := s.read()
	if err != nil {
		return false, err
	}

	if _, ok := state.Clouds[cloud]; !ok {
		return false, nil
	}

	delete(state.Clouds, cloud)

	return true, s.write(state)
}

func (s *StateFile) read() (*State, error) {
	state := &State{}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read state file: %w", err)
	default:
		err = yaml.Unmarshal(data, state)
		if err != nil {
			return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
		}
	}

	if state.Clouds == nil {
		state.Clouds = make(map[string]*CloudState)
	}

	return state, nil
}

func (s *StateFile) write(state *State) error {
	err := os.MkdirAll(filepath.Dir(s.path), stateDirMode)
	if err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	err = os.WriteFile(s.path, data, stateFileMode)
	if err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}
