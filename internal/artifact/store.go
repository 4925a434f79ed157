package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/cinfetch/internal/imaging"
	"github.com/nao1215/cinfetch/internal/model"
	"github.com/nao1215/cinfetch/internal/workflow"
)

// Store writes debug artifacts into a directory. It implements
// workflow.Recorder.
//
// File names:
//   - captcha_<identifier>_<gate>_<fingerprint>.png
//   - <identifier>_<name>.html
//   - <identifier>_<name>.png
//
// Captcha names carry the image fingerprint, so every captcha of every
// attempt is kept while a page of the same name is overwritten by the
// next attempt.
type Store struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store writing into dir. The directory is created on first
// write.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

var _ workflow.Recorder = (*Store)(nil)

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// CaptchaPath returns the path a captcha image is stored at.
func (s *Store) CaptchaPath(identifier string, gate workflow.Gate, image []byte) string {
	name := fmt.Sprintf("captcha_%s_%s_%s.png", model.FileStem(identifier), gate, imaging.Fingerprint(image))
	return filepath.Join(s.dir, name)
}

// RecordCaptcha stores a captcha image.
func (s *Store) RecordCaptcha(identifier string, gate workflow.Gate, image []byte) error {
	return s.write(s.CaptchaPath(identifier, gate, image), image)
}

// RecordPage stores page HTML.
func (s *Store) RecordPage(identifier, name, html string) error {
	return s.write(filepath.Join(s.dir, model.FileStem(identifier)+"_"+model.FileStem(name)+".html"), []byte(html))
}

// RecordScreenshot stores a PNG screenshot.
func (s *Store) RecordScreenshot(identifier, name string, png []byte) error {
	return s.write(filepath.Join(s.dir, model.FileStem(identifier)+"_"+model.FileStem(name)+".png"), png)
}

func (s *Store) write(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	s.logger.Debug("artifact stored", "path", path, "bytes", len(data))
	return nil
}
