package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	yaml "gopkg.in/yaml.v3"

	"ttx/page"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TTIConfig struct {
		HeaderTag string `yaml:"header_tag" validate:"max=16"`
		// IANA character set names, empty means UTF-8
		InputCharset  string `yaml:"input_charset"`
		OutputCharset string `yaml:"output_charset"`
	}

	LayoutConfig struct {
		MaxWidth      int               `yaml:"max_width" validate:"min=20,max=40"`
		StartRow      int               `yaml:"start_row" validate:"min=1,max=25"`
		Substitutions map[string]string `yaml:"substitutions" validate:"dive,keys,required,endkeys"`
	}

	NumberingConfig struct {
		Row          int        `yaml:"row" validate:"min=1,max=25"`
		Offset       int        `yaml:"offset" validate:"min=0,max=36"`
		PrefixColour string     `yaml:"prefix_colour" validate:"omitempty,oneof=black red green yellow blue magenta cyan white"`
		Align        page.Align `yaml:"align" validate:"oneof=0 1"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		TTI       TTIConfig       `yaml:"tti"`
		Layout    LayoutConfig    `yaml:"layout"`
		Numbering NumberingConfig `yaml:"numbering"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

// checkCharsets makes sure character set names could be resolved later.
func checkCharsets(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	for field, name := range map[string]string{
		"InputCharset":  cfg.TTI.InputCharset,
		"OutputCharset": cfg.TTI.OutputCharset,
	} {
		if len(name) == 0 {
			continue
		}
		if _, err := Charset(name); err != nil {
			sl.ReportError(name, field, field, "charset", "")
		}
	}
}

// Charset returns encoding for IANA name, nil for empty name (UTF-8).
func Charset(name string) (encoding.Encoding, error) {
	if len(name) == 0 {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		// known name without implementation
		return nil, fmt.Errorf("character set %q is not supported", name)
	}
	return enc, nil
}

// decode superimposes YAML data on cfg. Unknown fields are errors. Result
// is sanitized and validated when check is set, partial data (template
// before file values are applied) is not.
func decode(data []byte, cfg *Config, check bool) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if !check {
		return cfg, nil
	}
	if err := gencfg.Sanitize(cfg); err != nil {
		return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
	}
	if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkCharsets)); err != nil {
		return nil, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration expands embedded template into defaults and applies
// values from file at path on top, empty path means defaults only.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	defaults, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	withFile := len(path) > 0

	cfg, err := decode(defaults, &Config{}, !withFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !withFile {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg, err = decode(data, cfg, true); err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns expanded default configuration.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

// Dump returns cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
