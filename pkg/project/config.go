package project

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/gocssmods/pkg/adapter"
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are looked up in order in the project root.
var ConfigFileNames = []string{"gocssmods.yaml", "gocssmods.yml", "gocssmods.hcl"}

// 📝 Config file structure
type Config struct {
	// 🔍 doublestar patterns relative to the project root
	Include []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`

	// 🎨 file name suffixes projected as stylesheet modules
	ForeignSuffixes []string `json:"foreign_suffixes,omitempty" yaml:"foreign_suffixes,omitempty" hcl:"foreign_suffixes,optional"`

	Extractor      string `json:"extractor,omitempty" yaml:"extractor,omitempty" hcl:"extractor,optional"`
	OffsetEncoding string `json:"offset_encoding,omitempty" yaml:"offset_encoding,omitempty" hcl:"offset_encoding,optional"`
	LogLevel       string `json:"log_level,omitempty" yaml:"log_level,omitempty" hcl:"log_level,optional"`
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (me *Config) applyDefaults() {
	if len(me.Include) == 0 {
		me.Include = []string{"**/*.ts", "**/*.tsx", "**/*" + adapter.DefaultSuffix}
	}
	if len(me.Exclude) == 0 {
		me.Exclude = []string{"**/node_modules/**"}
	}
	if len(me.ForeignSuffixes) == 0 {
		me.ForeignSuffixes = []string{adapter.DefaultSuffix}
	}
	if me.Extractor == "" {
		me.Extractor = string(extract.KindRegex)
	}
	if me.OffsetEncoding == "" {
		me.OffsetEncoding = string(position.EncodingUTF8)
	}
	if me.LogLevel == "" {
		me.LogLevel = zerolog.InfoLevel.String()
	}
}

// Validate checks every enumerated key.
func (me *Config) Validate() error {
	if _, err := extract.New(extract.Kind(me.Extractor)); err != nil {
		return errors.Errorf("extractor: %w", err)
	}
	if _, err := position.ParseEncoding(me.OffsetEncoding); err != nil {
		return errors.Errorf("offset_encoding: %w", err)
	}
	if _, err := zerolog.ParseLevel(me.LogLevel); err != nil {
		return errors.Errorf("log_level: %w", err)
	}
	return nil
}

func (me *Config) Encoding() position.Encoding {
	enc, err := position.ParseEncoding(me.OffsetEncoding)
	if err != nil {
		return position.EncodingUTF8
	}
	return enc
}

func (me *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(me.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// 📝 Load config from file (supports YAML and HCL)
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// an empty file decodes to nothing
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	} else {
		parser := hclparse.NewParser()
		hclFile, diags := parser.ParseHCL(data, path)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}

		ctx := &hcl.EvalContext{
			Variables: map[string]cty.Value{},
		}

		diags = gohcl.DecodeBody(hclFile.Body, ctx, &cfg)
		if diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating %s: %w", path, err)
	}
	return &cfg, nil
}

// FindConfig loads the first config file present in dir. The returned path is empty and the
// defaults apply when there is none.
func FindConfig(fs afero.Fs, dir string) (*Config, string, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := fs.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, "", errors.Errorf("checking %s: %w", path, err)
		}
		cfg, err := LoadConfig(fs, path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	return DefaultConfig(), "", nil
}
