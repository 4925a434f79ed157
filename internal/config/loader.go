package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/cinfetch/internal/browser"
	"github.com/nao1215/cinfetch/internal/portal"
	"github.com/nao1215/cinfetch/internal/workflow"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".cinfetch"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .cinfetch configuration file.
type File struct {
	// Portal overrides the selectors of the portal controls. Empty fields
	// keep their defaults.
	Portal portal.Selectors `yaml:"portal,omitempty"`

	// Timeouts overrides bounded waits and pauses. Zero fields keep their
	// defaults.
	Timeouts TimeoutConfig `yaml:"timeouts,omitempty"`
}

// TimeoutConfig holds durations written as "30s" or "1m30s".
type TimeoutConfig struct {
	FirstCaptcha  time.Duration `yaml:"first_captcha,omitempty"`
	SecondCaptcha time.Duration `yaml:"second_captcha,omitempty"`
	Results       time.Duration `yaml:"results,omitempty"`
	Navigation    time.Duration `yaml:"navigation,omitempty"`
	Element       time.Duration `yaml:"element,omitempty"`
	Export        time.Duration `yaml:"export,omitempty"`
	ExportSettle  time.Duration `yaml:"export_settle,omitempty"`
	Delay         time.Duration `yaml:"delay,omitempty"`
}

// Validate checks the file for values that would break every attempt.
func (f *File) Validate() error {
	if f.Portal.LinkXPath != "" && strings.Count(f.Portal.LinkXPath, "%s") != 1 {
		return ErrInvalidLinkXPath
	}
	t := f.Timeouts
	for _, d := range []time.Duration{
		t.FirstCaptcha, t.SecondCaptcha, t.Results, t.Navigation, t.Element, t.Export, t.ExportSettle, t.Delay,
	} {
		if d < 0 {
			return ErrInvalidTimeout
		}
	}
	return nil
}

func (t TimeoutConfig) applyWorkflow(tm *workflow.Timings) {
	set(&tm.FirstCaptcha, t.FirstCaptcha)
	set(&tm.SecondCaptcha, t.SecondCaptcha)
	set(&tm.Results, t.Results)
	set(&tm.ExportSettle, t.ExportSettle)
}

func (t TimeoutConfig) applyBrowser(o *browser.Options) {
	set(&o.NavigationTimeout, t.Navigation)
	set(&o.ElementTimeout, t.Element)
	set(&o.ExportTimeout, t.Export)
}

func set(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// LoadConfigFile loads the configuration file at path.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .cinfetch in the current directory
// 3. Look for .cinfetch in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// ReadIdentifierList reads one identifier per line. Blank lines and lines
// starting with '#' are skipped; surrounding whitespace is trimmed.
func ReadIdentifierList(r io.Reader) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read identifier list: %w", err)
	}
	return ids, nil
}

// LoadIdentifierList reads the identifier list file at path.
func LoadIdentifierList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open identifier list: %w", err)
	}
	defer f.Close()
	return ReadIdentifierList(f)
}
