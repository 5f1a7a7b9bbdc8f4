package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by every cyber-dojo subcommand.
type Config struct {
	// Runtime is the container runtime CLI binary.
	Runtime string `yaml:"runtime"`
	// HelperImage is the image used to read a start-point volume's contents.
	HelperImage string `yaml:"helper_image"`
	// Hub is the namespace of the first-party server images.
	Hub string `yaml:"hub"`
	// LanguageNamespace is the namespace of the language-runtime images.
	LanguageNamespace string `yaml:"language_namespace"`
	// ServiceImages are the server images refreshed by `update`, without namespace or tag.
	ServiceImages []string `yaml:"service_images"`
	// ComposeFile is the compose file used by `up` and `down`.
	ComposeFile string `yaml:"compose_file"`
	// ContainerPrefix turns a service name into its container name.
	ContainerPrefix string `yaml:"container_prefix"`
	// SelfUpdateURL is where `update` downloads a new CLI binary from. Empty disables self-update.
	SelfUpdateURL string `yaml:"self_update_url,omitempty"`
	// SelfUpdateChecksum is the optional hex SHA-256 of the binary at SelfUpdateURL.
	SelfUpdateChecksum string `yaml:"self_update_checksum,omitempty"`
	// LogLevel is the minimum level of supplementary log lines.
	LogLevel string `yaml:"log_level,omitempty"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the working directory.
	DefaultConfigFilename = "cyber-dojo-settings.yaml"

	// SettingsEnv names the environment variable holding an explicit settings path.
	SettingsEnv = "CYBER_DOJO_SETTINGS"

	// LogLevelEnv names the environment variable overriding LogLevel.
	LogLevelEnv = "CYBER_DOJO_LOG_LEVEL"

	// DefaultRuntime is the container runtime CLI.
	DefaultRuntime = "docker"

	// DefaultHelperImage can read and write any mounted volume with plain shell commands.
	DefaultHelperImage = "cyberdojo/commander"

	// DefaultHub is the namespace of the server images.
	DefaultHub = "cyberdojo"

	// DefaultLanguageNamespace is the namespace of the language images.
	DefaultLanguageNamespace = "cyberdojofoundation"

	// DefaultComposeFile is the compose file describing the server.
	DefaultComposeFile = "docker-compose.yml"

	// DefaultContainerPrefix is prepended to a service name to get its container name.
	DefaultContainerPrefix = "cyber-dojo-"

	// DefaultFilePermissions is the permission used when saving settings.
	DefaultFilePermissions = 0o600

	// sha256Size is the length in bytes of a SHA-256 digest.
	sha256Size = 32
)

// DefaultServiceImages returns the server images pulled by `update`, in pull order.
func DefaultServiceImages() []string {
	return []string{
		"nginx",
		"web",
		"runner-stateless",
		"starter",
		"saver",
		"mapper",
		"differ",
		"zipper",
		"prometheus",
		"grafana",
	}
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEmptyServiceImage is returned when service_images contains a blank entry.
	errEmptyServiceImage = errors.New("service image name must not be empty")
	// errDuplicateServiceImage is returned when service_images lists a name twice.
	errDuplicateServiceImage = errors.New("duplicate service image")
	// errBadChecksum is returned when self_update_checksum is not a hex SHA-256 digest.
	errBadChecksum = errors.New("self update checksum must be a hex encoded SHA-256 digest")
)

// Default returns a validated configuration built only from defaults.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from path.
// An empty path means DefaultConfigFilename, and a missing default file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
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

// Save writes cfg to path.
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

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the fields that cannot be defaulted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	setDefault(&cfg.Runtime, DefaultRuntime)
	setDefault(&cfg.HelperImage, DefaultHelperImage)
	setDefault(&cfg.Hub, DefaultHub)
	setDefault(&cfg.LanguageNamespace, DefaultLanguageNamespace)
	setDefault(&cfg.ComposeFile, DefaultComposeFile)
	setDefault(&cfg.ContainerPrefix, DefaultContainerPrefix)

	if len(cfg.ServiceImages) == 0 {
		cfg.ServiceImages = DefaultServiceImages()
	}

	seen := make(map[string]struct{}, len(cfg.ServiceImages))
	for _, name := range cfg.ServiceImages {
		if strings.TrimSpace(name) == "" {
			return errEmptyServiceImage
		}

		if _, ok := seen[name]; ok {
			return fmt.Errorf("%s: %w", name, errDuplicateServiceImage)
		}

		seen[name] = struct{}{}
	}

	if cfg.SelfUpdateURL != "" {
		if _, err := url.ParseRequestURI(cfg.SelfUpdateURL); err != nil {
			return fmt.Errorf("invalid self update URL: %w", err)
		}
	}

	if cfg.SelfUpdateChecksum != "" {
		if _, err := cfg.Checksum(); err != nil {
			return err
		}
	}

	return nil
}

// Checksum decodes SelfUpdateChecksum. It returns nil when no checksum is configured.
func (c *Config) Checksum() ([]byte, error) {
	if c.SelfUpdateChecksum == "" {
		return nil, nil
	}

	sum, err := hex.DecodeString(strings.TrimSpace(c.SelfUpdateChecksum))
	if err != nil || len(sum) != sha256Size {
		return nil, errBadChecksum
	}

	return sum, nil
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
