// Package config loads userdb configuration from defaults, a YAML file,
// USERDB_ environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/userdb"
	"github.com/syssam/userdb/credential"
	"github.com/syssam/userdb/dialect"
)

// Default configuration values.
const (
	DefaultFile          = "userdb.yaml"
	DefaultDialect       = dialect.SQLite
	DefaultDSN           = "file:userdb.db"
	DefaultSlowThreshold = 200 * time.Millisecond
	EnvPrefix            = "USERDB_"
)

// Config holds all userdb configuration.
type Config struct {
	Dialect       string            `koanf:"dialect"`
	DSN           string            `koanf:"dsn"`
	Debug         bool              `koanf:"debug"`
	SlowThreshold time.Duration     `koanf:"slow_threshold"`
	CacheTTL      time.Duration     `koanf:"cache_ttl"`
	SessionVars   map[string]string `koanf:"session_vars"` // MySQL only
	Hasher        credential.Config `koanf:"hasher"`
	Tables        Tables            `koanf:"tables"`
}

// Tables configures the table names and row mappings.
type Tables struct {
	Users              Table `koanf:"users"`
	Types              Table `koanf:"types"`
	UserGroups         Table `koanf:"user_groups"`
	UserGroupsRelation Table `koanf:"user_groups_relation"`
	UserEmails         Table `koanf:"user_emails"`
}

// Table is one configured table. Mapping is an ordered list of
// {from, to} pairs; an empty list disables mapping.
type Table struct {
	Name    string         `koanf:"name"`
	Mapping []userdb.Field `koanf:"mapping"`
}

var defaults = map[string]any{
	"dialect":                          DefaultDialect,
	"dsn":                              DefaultDSN,
	"debug":                            false,
	"slow_threshold":                   DefaultSlowThreshold.String(),
	"cache_ttl":                        "0s",
	"hasher.salt_len":                  credential.DefaultSaltLen,
	"hasher.iterations":                credential.DefaultIterations,
	"hasher.key_len":                   credential.DefaultKeyLen,
	"hasher.algorithm":                 credential.DefaultAlgorithm,
	"tables.users.name":                "users",
	"tables.types.name":                "user_types",
	"tables.user_groups.name":          "user_groups",
	"tables.user_groups_relation.name": "user_groups_relation",
	"tables.user_emails.name":          "user_emails",
}

// Load reads the configuration. path may be empty, in which case
// DefaultFile is read when it exists. flags may be nil; only flags that were
// explicitly set override other sources, with kebab-case names mapped to
// snake_case keys.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// USERDB_SLOW_THRESHOLD -> slow_threshold, USERDB_HASHER__ITERATIONS -> hasher.iterations
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// BuildTables resolves the configured mappings into userdb.Tables.
func (c *Config) BuildTables() (userdb.Tables, error) {
	var (
		out userdb.Tables
		err error
	)
	for _, t := range []struct {
		key string
		in  Table
		out *userdb.TableConfig
	}{
		{"users", c.Tables.Users, &out.Users},
		{"types", c.Tables.Types, &out.Types},
		{"user_groups", c.Tables.UserGroups, &out.UserGroups},
		{"user_groups_relation", c.Tables.UserGroupsRelation, &out.UserGroupsRelation},
		{"user_emails", c.Tables.UserEmails, &out.UserEmails},
	} {
		t.out.Name = t.in.Name
		if len(t.in.Mapping) == 0 {
			continue
		}
		if t.out.Mapping, err = userdb.NewMapping(t.in.Mapping...); err != nil {
			return userdb.Tables{}, fmt.Errorf("tables.%s.mapping: %w", t.key, err)
		}
	}
	return out, nil
}
