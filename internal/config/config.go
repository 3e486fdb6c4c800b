package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greenpi/watering-deploy/internal/domain/deploy"
)

// Config holds deployment parameters shared by the install and update binaries.
type Config struct {
	// ProjectDir is the directory containing the service source tree.
	ProjectDir string `yaml:"project_dir"`
	// ServiceName is the systemd unit name the service runs under.
	ServiceName string `yaml:"service_name"`
	// RuntimeUser is the OS user the service runs as.
	RuntimeUser string `yaml:"runtime_user"`
	// Binary is the built artifact path relative to ProjectDir.
	Binary string `yaml:"binary"`
	// HardwareGroup is the OS group granting access to the GPIO devices.
	HardwareGroup string `yaml:"hardware_group"`
	// Packages are the system prerequisites installed before building.
	Packages []string `yaml:"packages"`
	// BuildFeatures are the cargo features enabled for release builds.
	BuildFeatures []string `yaml:"build_features"`
	// SettleDelay is the fixed wait between starting the service and querying status.
	SettleDelay time.Duration `yaml:"settle_delay"`
	// LogLines is how many recent journal lines the final report shows.
	LogLines int `yaml:"log_lines"`
	// RestartDelay is the supervisor backoff between automatic restarts.
	RestartDelay time.Duration `yaml:"restart_delay"`
	// ReadinessPoll switches the settle step from a fixed delay to a bounded
	// poll of the supervisor status. The fixed delay is the default.
	ReadinessPoll bool `yaml:"readiness_poll"`
	// ReadinessTimeout bounds the poll when ReadinessPoll is enabled.
	ReadinessTimeout time.Duration `yaml:"readiness_timeout"`
	// HealthURL is the optional status endpoint probed after a deploy.
	HealthURL string `yaml:"health_url"`
	// HealthAPIKey is sent as the X-API-Key header to the status endpoint.
	HealthAPIKey string `yaml:"health_api_key"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "watering-deploy.yaml"

	// DefaultProjectDir is where the service source tree lives by convention.
	DefaultProjectDir = "/opt/watering-server"

	// DefaultServiceName is the systemd unit name of the watering service.
	DefaultServiceName = "watering-server"

	// DefaultRuntimeUser is the account the service runs as on a stock Pi image.
	DefaultRuntimeUser = "pi"

	// DefaultBinary is the release artifact path relative to the project directory.
	DefaultBinary = "target/release/watering-server"

	// DefaultHardwareGroup grants access to /dev/gpiomem on Raspberry Pi OS.
	DefaultHardwareGroup = "gpio"

	// DefaultSettleDelay gives the service time to come up before status is queried.
	DefaultSettleDelay = 5 * time.Second

	// DefaultLogLines is how many journal lines the report fetches.
	DefaultLogLines = 10

	// DefaultRestartDelay is the supervisor backoff between automatic restarts.
	DefaultRestartDelay = 10 * time.Second

	// DefaultReadinessTimeout bounds the optional readiness poll.
	DefaultReadinessTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServiceNameRequired is returned when the service name is missing.
	errServiceNameRequired = errors.New("service name must be provided")
	// errRuntimeUserRequired is returned when the runtime user is missing.
	errRuntimeUserRequired = errors.New("runtime user must be provided")
	// errProjectDirNotAbsolute is returned when the project directory is relative.
	errProjectDirNotAbsolute = errors.New("project directory must be an absolute path")
	// errBinaryNotRelative is returned when the binary path escapes the project directory.
	errBinaryNotRelative = errors.New("binary path must be relative to the project directory")
)

// defaultPackages are the build prerequisites of the service source tree.
func defaultPackages() []string {
	return []string{"build-essential", "pkg-config", "libssl-dev"}
}

// defaultBuildFeatures gate the hardware-access code paths into the artifact.
func defaultBuildFeatures() []string {
	return []string{"gpio"}
}

// Default returns the configuration implied by the fixed project-directory
// convention. Used when no configuration file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file at the default path is not an error: the built-in defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate applies defaults to unset fields and checks the rest for sanity.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if cfg.ServiceName == "" {
		return errServiceNameRequired
	}

	if cfg.RuntimeUser == "" {
		return errRuntimeUserRequired
	}

	if !filepath.IsAbs(cfg.ProjectDir) {
		return fmt.Errorf("%w: %s", errProjectDirNotAbsolute, cfg.ProjectDir)
	}

	if filepath.IsAbs(cfg.Binary) {
		return fmt.Errorf("%w: %s", errBinaryNotRelative, cfg.Binary)
	}

	return nil
}

// Target produces the immutable deployment target for this run.
func (c *Config) Target() deploy.Target {
	return deploy.Target{
		ProjectDir:  c.ProjectDir,
		ServiceName: c.ServiceName,
		RuntimeUser: c.RuntimeUser,
		BinaryPath:  c.Binary,
	}
}

// applyDefaults fills unset fields with the fixed deployment convention.
func applyDefaults(cfg *Config) {
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = DefaultProjectDir
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	if cfg.RuntimeUser == "" {
		cfg.RuntimeUser = DefaultRuntimeUser
	}

	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}

	if cfg.HardwareGroup == "" {
		cfg.HardwareGroup = DefaultHardwareGroup
	}

	if len(cfg.Packages) == 0 {
		cfg.Packages = defaultPackages()
	}

	if len(cfg.BuildFeatures) == 0 {
		cfg.BuildFeatures = defaultBuildFeatures()
	}

	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	if cfg.LogLines <= 0 {
		cfg.LogLines = DefaultLogLines
	}

	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = DefaultRestartDelay
	}

	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = DefaultReadinessTimeout
	}
}
