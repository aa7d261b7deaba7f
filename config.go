package pptparse

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Force1ess/PPTParse/pml"
)

// Config holds the per-run settings a load uses: where extracted media
// goes, how malformed shapes are treated, and where degradations are
// logged. A Config is immutable; the With methods return modified copies.
type Config struct {
	scratchDir string
	sessionID  string
	strictness pml.Strictness
	logger     *zap.Logger
}

// NewConfig creates a config with an explicit scratch directory and session
// id. An empty scratch directory disables media extraction. An empty
// session id gets a fresh UUID.
func NewConfig(scratchDir, sessionID string) Config {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return Config{scratchDir: scratchDir, sessionID: sessionID}
}

// NewSessionConfig creates a config whose scratch directory is a fresh
// UUID-named directory under baseDir, the usual layout for batch runs:
// baseDir/<session-id>/images holds the extracted media.
func NewSessionConfig(baseDir string) Config {
	id := uuid.NewString()
	return Config{scratchDir: filepath.Join(baseDir, id), sessionID: id}
}

// WithStrictness returns a copy with the malformed-shape policy set.
func (c Config) WithStrictness(s pml.Strictness) Config {
	c.strictness = s
	return c
}

// WithLogger returns a copy that logs degradations to the given logger.
func (c Config) WithLogger(l *zap.Logger) Config {
	c.logger = l
	return c
}

// ScratchDir returns the per-run scratch directory, or "".
func (c Config) ScratchDir() string { return c.scratchDir }

// SessionID returns the session identifier.
func (c Config) SessionID() string { return c.sessionID }

// Strictness returns the malformed-shape policy.
func (c Config) Strictness() pml.Strictness { return c.strictness }

// Logger returns the degradation logger, or nil.
func (c Config) Logger() *zap.Logger { return c.logger }

// ImageDir returns the directory extracted media is written to, or "" when
// extraction is disabled.
func (c Config) ImageDir() string {
	if c.scratchDir == "" {
		return ""
	}
	return filepath.Join(c.scratchDir, "images")
}

// RemoveAll deletes the scratch directory and everything under it. Safe to
// call when extraction was disabled.
func (c Config) RemoveAll() error {
	if c.scratchDir == "" {
		return nil
	}
	return os.RemoveAll(c.scratchDir)
}
