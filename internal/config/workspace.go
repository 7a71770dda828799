package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tomcat-devloop/internal/env"
)

// Workspace setting keys. They double as the environment variable names handed to child processes.
const (
	KeyProjectPath    = "PROJECT_PATH"
	KeyJavaHome       = "JAVA_HOME"
	KeyMavenHome      = "MAVEN_HOME"
	KeyTomcatHome     = "TOMCAT_HOME"
	KeySpringProfiles = "SPRING_PROFILES_ACTIVE"
	KeyJpdaAddress    = "JPDA_ADDRESS"
	KeyAppContext     = "APP_CONTEXT"
)

// Keys lists every workspace setting in display order.
var Keys = []string{
	KeyProjectPath,
	KeyJavaHome,
	KeyMavenHome,
	KeyTomcatHome,
	KeySpringProfiles,
	KeyJpdaAddress,
	KeyAppContext,
}

const DefaultDebugPort = "8000"

/**
 * Workspace is the configuration record shared by every component
 * @property {string} ProjectPath - Root of the Maven project
 * @property {string} JavaHome - Java installation
 * @property {string} MavenHome - Maven installation
 * @property {string} TomcatHome - Tomcat installation
 * @property {string} SpringProfilesActive - Active runtime profile
 * @property {string} JpdaAddress - Debug attach address, host:port or bare port
 * @property {string} AppContext - Web module name, also the deployed context name
 */
type Workspace struct {
	ProjectPath          string `mapstructure:"PROJECT_PATH" yaml:"PROJECT_PATH"`
	JavaHome             string `mapstructure:"JAVA_HOME" yaml:"JAVA_HOME"`
	MavenHome            string `mapstructure:"MAVEN_HOME" yaml:"MAVEN_HOME"`
	TomcatHome           string `mapstructure:"TOMCAT_HOME" yaml:"TOMCAT_HOME"`
	SpringProfilesActive string `mapstructure:"SPRING_PROFILES_ACTIVE" yaml:"SPRING_PROFILES_ACTIVE"`
	JpdaAddress          string `mapstructure:"JPDA_ADDRESS" yaml:"JPDA_ADDRESS"`
	AppContext           string `mapstructure:"APP_CONTEXT" yaml:"APP_CONTEXT"`

	mu sync.RWMutex
}

func (w *Workspace) Value(key string) string {
	switch key {
	case KeyProjectPath:
		return w.ProjectPath
	case KeyJavaHome:
		return w.JavaHome
	case KeyMavenHome:
		return w.MavenHome
	case KeyTomcatHome:
		return w.TomcatHome
	case KeySpringProfiles:
		return w.SpringProfilesActive
	case KeyJpdaAddress:
		return w.JpdaAddress
	case KeyAppContext:
		return w.AppContext
	}
	return ""
}

func (w *Workspace) setValue(key, value string) {
	switch key {
	case KeyProjectPath:
		w.ProjectPath = value
	case KeyJavaHome:
		w.JavaHome = value
	case KeyMavenHome:
		w.MavenHome = value
	case KeyTomcatHome:
		w.TomcatHome = value
	case KeySpringProfiles:
		w.SpringProfilesActive = value
	case KeyJpdaAddress:
		w.JpdaAddress = value
	case KeyAppContext:
		w.AppContext = value
	}
}

// Missing returns the subset of keys whose value is empty, in the given order.
func (w *Workspace) Missing(keys ...string) []string {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(w.Value(key)) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// EnvVars returns the non-empty settings as environment variables.
func (w *Workspace) EnvVars() map[string]string {
	vars := make(map[string]string, len(Keys))
	for _, key := range Keys {
		if v := w.Value(key); v != "" {
			vars[key] = v
		}
	}
	return vars
}

// DebugAddress is the configured JPDA address or the default port.
func (w *Workspace) DebugAddress() string {
	if addr := strings.TrimSpace(w.JpdaAddress); addr != "" {
		return addr
	}
	return DefaultDebugPort
}

// DebugPort extracts the port from "host:port", "*:port" or a bare port.
func (w *Workspace) DebugPort() string {
	addr := w.DebugAddress()
	if _, port, err := net.SplitHostPort(addr); err == nil && port != "" {
		return port
	}
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i+1:]
	}
	return addr
}

// CopyFrom replaces every field; used to reload the shared record between operations.
func (w *Workspace) CopyFrom(other *Workspace) {
	snap := other.Snapshot()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, key := range Keys {
		w.setValue(key, snap.Value(key))
	}
}

// Snapshot returns a detached copy, safe to read while CopyFrom runs.
func (w *Workspace) Snapshot() *Workspace {
	w.mu.RLock()
	defer w.mu.RUnlock()
	snap := &Workspace{}
	for _, key := range Keys {
		snap.setValue(key, w.Value(key))
	}
	return snap
}

type Scope string

const (
	ScopeWorkspace Scope = "workspace"
	ScopeSession   Scope = "session"
)

var ErrUnknownKey = errors.New("unknown setting key")

/**
 * Store is the workspace configuration store
 * @description
 * - Process environment provides the lowest precedence values
 * - The env file (.devloop/devloop.env) overrides the environment
 * - The settings file (.devloop/settings.yaml) overrides both
 */
type Store struct {
	v            *viper.Viper
	settingsFile string
	envFile      string
}

/**
 * Open the workspace store rooted at workspaceDir
 * @param {string} workspaceDir - Directory holding the .devloop settings directory
 * @returns {*Store} Loaded store
 * @returns {error} Error when an existing settings or env file cannot be parsed
 */
func OpenStore(workspaceDir string) (*Store, error) {
	dir := env.WorkspaceSettingsDir(workspaceDir)
	s := &Store{
		v:            viper.New(),
		settingsFile: filepath.Join(dir, "settings.yaml"),
		envFile:      filepath.Join(dir, "devloop.env"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.v.SetConfigFile(s.settingsFile)
	s.v.SetConfigType("yaml")

	defaults := environmentDefaults()
	if vars, err := godotenv.Read(s.envFile); err == nil {
		for key, value := range vars {
			defaults[strings.ToUpper(key)] = value
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read env file '%s' failed: %w", s.envFile, err)
	}
	for key, value := range defaults {
		s.v.SetDefault(key, value)
	}

	if _, err := os.Stat(s.settingsFile); err != nil {
		return nil
	}
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings '%s' failed: %w", s.settingsFile, err)
	}
	return nil
}

func environmentDefaults() map[string]string {
	defaults := make(map[string]string)
	if home := os.Getenv("CATALINA_HOME"); home != "" {
		defaults[KeyTomcatHome] = home
	}
	for _, key := range Keys {
		if v := os.Getenv(key); v != "" {
			defaults[key] = v
		}
	}
	return defaults
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

func (s *Store) Get(key, def string) string {
	if v := s.v.GetString(key); v != "" {
		return v
	}
	return def
}

/**
 * Set a setting value
 * @param {string} key - One of Keys
 * @param {string} value - New value
 * @param {Scope} scope - ScopeWorkspace persists to settings.yaml, ScopeSession keeps it in memory
 * @returns {error} ErrUnknownKey or a write error
 */
func (s *Store) Set(key, value string, scope Scope) error {
	key = strings.ToUpper(strings.TrimSpace(key))
	if !isKnownKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.v.Set(key, value)
	if scope != ScopeWorkspace {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.settingsFile), 0755); err != nil {
		return err
	}
	// Only the seven keys are persisted, never the env-derived defaults
	persisted := viper.New()
	persisted.SetConfigType("yaml")
	if _, err := os.Stat(s.settingsFile); err == nil {
		persisted.SetConfigFile(s.settingsFile)
		if err := persisted.ReadInConfig(); err != nil {
			return err
		}
	}
	persisted.Set(key, value)
	return persisted.WriteConfigAs(s.settingsFile)
}

// Workspace builds a fresh configuration record from the store.
func (s *Store) Workspace() *Workspace {
	ws := &Workspace{}
	for _, key := range Keys {
		ws.setValue(key, strings.TrimSpace(s.Get(key, "")))
	}
	return ws
}

func (s *Store) SettingsFile() string {
	return s.settingsFile
}
