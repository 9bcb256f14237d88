// Package config loads tag browser settings from flags, environment, .env
// files and an optional YAML file, and resolves the root directory.
package config

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"tagbrowser/internal/errors"
	"tagbrowser/internal/logging"
	"tagbrowser/internal/stats"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/tree"
)

// Configuration keys.
const (
	KeyAddressFile       = "address_file"
	KeyRoot              = "root"
	KeyTagFile           = "tag_file"
	KeyPublisherPrefixes = "publisher_prefixes"
	KeyTopN              = "top_n"
	KeyStateFile         = "state_file"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyLogOutput         = "log.output"
)

// EnvPrefix namespaces environment variables, e.g. TAGBROWSER_ROOT.
const EnvPrefix = "TAGBROWSER"

// DefaultAddressFile is the root pointer file looked up relative to the
// working directory.
var DefaultAddressFile = filepath.Join("resources", "address.csv")

// Config holds the resolved settings.
type Config struct {
	AddressFile       string
	Root              string
	TagFile           string
	PublisherPrefixes []string
	TopN              int
	StateFile         string
	Log               logging.Config
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddressFile, DefaultAddressFile)
	v.SetDefault(KeyTagFile, tags.DefaultFileName)
	v.SetDefault(KeyPublisherPrefixes, tree.DefaultPrefixes)
	v.SetDefault(KeyTopN, stats.DefaultTopN)
	v.SetDefault(KeyStateFile, DefaultStatePath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyLogOutput, "stderr")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// ReadFile reads configFile, or searches for .tagbrowser.yaml in the home
// and working directories. A missing file is not an error.
func ReadFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.NewConfigError("config", "cannot read "+configFile, err)
		}
		return nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetConfigName(".tagbrowser")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.NewConfigError("config", "cannot parse config file", err)
	}
	return nil
}

// LoadEnvFiles loads .env then .env.local; missing files are ignored.
func LoadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// Load builds a Config from v.
func Load(v *viper.Viper) *Config {
	cfg := &Config{
		AddressFile:       v.GetString(KeyAddressFile),
		Root:              v.GetString(KeyRoot),
		TagFile:           v.GetString(KeyTagFile),
		PublisherPrefixes: v.GetStringSlice(KeyPublisherPrefixes),
		TopN:              v.GetInt(KeyTopN),
		StateFile:         v.GetString(KeyStateFile),
		Log: logging.Config{
			Level:   v.GetString(KeyLogLevel),
			Format:  v.GetString(KeyLogFormat),
			Output:  v.GetString(KeyLogOutput),
			NoColor: os.Getenv("NO_COLOR") != "",
		},
	}
	if cfg.TagFile == "" {
		cfg.TagFile = tags.DefaultFileName
	}
	if len(cfg.PublisherPrefixes) == 0 {
		cfg.PublisherPrefixes = tree.DefaultPrefixes
	}
	if cfg.TopN < 0 {
		cfg.TopN = 0
	}
	return cfg
}

// ResolveRoot returns the configured root, or the first existing directory
// listed in the address file.
func (c *Config) ResolveRoot(fsys afero.Fs) (string, error) {
	if c.Root != "" {
		if ok, err := afero.IsDir(fsys, c.Root); err != nil || !ok {
			return "", errors.NewConfigError("root", c.Root+" is not a directory", err)
		}
		return c.Root, nil
	}
	return ReadRootPointer(fsys, c.AddressFile)
}

// ReadRootPointer scans a CSV pointer file and returns the first value in
// the first column that names an existing directory.
func ReadRootPointer(fsys afero.Fs, file string) (string, error) {
	f, err := fsys.Open(file)
	if err != nil {
		return "", errors.NewConfigError("address", file+" not found", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewConfigError("address", "cannot parse "+file, err)
		}
		if len(record) == 0 {
			continue
		}
		candidate := strings.TrimSpace(record[0])
		if candidate == "" {
			continue
		}
		if ok, err := afero.IsDir(fsys, candidate); err == nil && ok {
			return candidate, nil
		}
	}
	return "", errors.NewConfigError("address", "no valid folder path in "+file, errors.ErrNotFound)
}
