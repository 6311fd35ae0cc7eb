package adapter

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// LocalStore is durable key-value storage on this machine
type LocalStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// FileStore implements LocalStore as a YAML map file. Writes go through a
// temp file and rename so a crash never leaves a truncated file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// DefaultLocalStorePath returns $XDG_CONFIG_HOME/juntas/local.yaml
func DefaultLocalStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(dir, "juntas", "local.yaml"), nil
}

// NewFileStore opens the store at path. The file is created on first Set.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultLocalStorePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, goerr.Wrap(err, "failed to read local store", goerr.V("path", s.path))
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, goerr.Wrap(err, "failed to parse local store", goerr.V("path", s.path))
	}
	return values, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := yaml.Marshal(values)
	if err != nil {
		return goerr.Wrap(err, "failed to encode local store")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return goerr.Wrap(err, "failed to create local store directory", goerr.V("path", s.path))
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write local store", goerr.V("path", tmp))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return goerr.Wrap(err, "failed to replace local store", goerr.V("path", s.path))
	}
	return nil
}
