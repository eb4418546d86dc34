package config

// Configuration comes from, in increasing order of priority:
// built-in defaults, the ini file (d2sedit.ini unless told otherwise), D2SEDIT_* environment variables.
// Command line flags beat all of these, but that's the command line's business.

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"d2sedit/tables"
	"d2sedit/utils"
	"d2sedit/writers"
)

const DEFAULT_FILE = "d2sedit.ini"

type Logging struct {
	Level  string `env:"D2SEDIT_LOG_LEVEL"`
	Format string `env:"D2SEDIT_LOG_FORMAT"` // "json" or "console"
}

type Config struct {
	// Dir is where savefiles live.  Relative filenames are looked up here.
	Dir string `env:"D2SEDIT_DIR"`

	// Stash is the temporary file that holds a loaded save between commands
	Stash string `env:"D2SEDIT_STASH"`

	// Backup the old file to .old before overwriting it
	Backup bool `env:"D2SEDIT_BACKUP"`

	Log Logging

	// Overrides is the raw [overrides] section, attribute name -> value
	Overrides map[string]string
}

func defaults() *Config {
	wd, _ := os.Getwd()
	return &Config{
		Dir:       wd,
		Stash:     "d2sedit.tmp",
		Backup:    true,
		Log:       Logging{Level: "info", Format: "console"},
		Overrides: map[string]string{},
	}
}

// Load reads the config.  A missing ini file is not an error; a broken one is.
func Load(path string) (*Config, error) {
	cfg := defaults()

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		// fine, defaults it is
		return with_env(cfg)
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// default section can be represented as empty string
	sec := file.Section("")
	if dir := sec.Key("dir").String(); dir != "" {
		cfg.Dir = dir
	}
	if stash := sec.Key("stash").String(); stash != "" {
		cfg.Stash = stash
	}
	if sec.HasKey("backup") {
		cfg.Backup, err = sec.Key("backup").Bool()
		if err != nil {
			return nil, fmt.Errorf("config %s: backup: %w", path, err)
		}
	}

	log := file.Section("log")
	cfg.Log.Level = log.Key("level").MustString(cfg.Log.Level)
	cfg.Log.Format = log.Key("format").MustString(cfg.Log.Format)

	for _, key := range file.Section("overrides").Keys() {
		cfg.Overrides[key.Name()] = key.String()
	}

	return with_env(cfg)
}

func with_env(cfg *Config) (*Config, error) {
	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Resolve turns a savefile name into a full path: relative names are in the save dir.
func (c *Config) Resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(c.Dir, filename)
}

// Load_overrides reads an overrides file: attribute name = value, one per attribute.
// ini, toml and yaml are all understood, going by the extension.
// For ini, keys go in an [overrides] section, or failing that, at the top of the file.
func Load_overrides(path string) (writers.Overrides, error) {
	raw := map[string]any{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return nil, fmt.Errorf("overrides %s: %w", path, err)
		}

	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("overrides %s: %w", path, err)
		}
		err = yaml.Unmarshal(data, &raw)
		if err != nil {
			return nil, fmt.Errorf("overrides %s: %w", path, err)
		}

	default:
		file, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("overrides %s: %w", path, err)
		}
		sec := file.Section("")
		if file.HasSection("overrides") {
			sec = file.Section("overrides")
		}
		for _, key := range sec.Keys() {
			raw[key.Name()] = key.String()
		}
	}

	out, err := Parse_overrides(raw)
	if err != nil {
		return nil, fmt.Errorf("overrides %s: %w", path, err)
	}
	return out, nil
}

// Parse_overrides converts name -> value pairs into attribute overrides.
// Names are fuzzy-matched against attribute names.  An empty value means "no override".
func Parse_overrides(raw map[string]any) (writers.Overrides, error) {
	names := tables.Attrib_names()
	out := writers.Overrides{}

	for name, v := range raw {
		value, present, err := to_uint32(v)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}
		if !present {
			continue
		}

		id, matched, err := utils.Fuzzy_reverse_lookup(names, name, "attribute")
		if err != nil {
			return nil, err
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("%v is overridden more than once", matched)
		}
		out[id] = value
	}

	return out, nil
}

// to_uint32 copes with whatever the various file formats decided a number was
func to_uint32(v any) (uint32, bool, error) {
	var n int64
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		u, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, false, err
		}
		return uint32(u), true, nil
	case int:
		n = int64(t)
	case int64:
		n = t
	case uint64:
		if t > math.MaxUint32 {
			return 0, false, fmt.Errorf("%v is too big", t)
		}
		n = int64(t)
	case float64:
		if t != math.Trunc(t) {
			return 0, false, fmt.Errorf("%v is not a whole number", t)
		}
		n = int64(t)
	default:
		return 0, false, fmt.Errorf("don't know what to do with %v (%T)", v, v)
	}

	if n < 0 {
		return 0, false, errors.New("negative values are not allowed")
	}
	if n > math.MaxUint32 {
		return 0, false, fmt.Errorf("%v is too big", n)
	}
	return uint32(n), true, nil
}

// Parsed_overrides is the [overrides] section of the config file, as overrides
func (c *Config) Parsed_overrides() (writers.Overrides, error) {
	raw := map[string]any{}
	for k, v := range c.Overrides {
		raw[k] = v
	}
	return Parse_overrides(raw)
}
