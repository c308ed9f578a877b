package app

import (
	"context"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/sirupsen/logrus"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Logger is the diagnostics sink handed to every decoder
	Logger logrus.FieldLogger

	// Opener replaces OpenVolume when set
	Opener func(ctx *Context, src VolumeSource) (*OpenedVolume, error)

	// Progress reporting
	ProgressCallback func(message string, percent int)
}

// NewContext creates a new application context
func NewContext() *Context {
	return &Context{
		Context:      context.Background(),
		OutputFormat: FormatTable,
		Logger:       diagnostics.Discard(),
	}
}

// WithCancel creates a cancellable context
func (c *Context) WithCancel() (*Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(string, int)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(message string, percent int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(message, percent)
	}
}

// Log records a message at info level when verbose output is enabled
func (c *Context) Log(message string) {
	if !c.Quiet && c.Verbose {
		c.Diagnostics().Info(message)
	}
}

// Canceled returns a CANCELED error once the context is done
func (c *Context) Canceled() error {
	if err := c.Err(); err != nil {
		return NewError(ErrCodeCanceled, "operation canceled", err)
	}
	return nil
}

// Open opens the volume named by src through Opener, or OpenVolume when none is set
func (c *Context) Open(src VolumeSource) (*OpenedVolume, error) {
	if c.Opener != nil {
		return c.Opener(c, src)
	}
	return OpenVolume(c, src)
}

// Diagnostics returns the logger, or a discarding logger when none is set
func (c *Context) Diagnostics() logrus.FieldLogger {
	return diagnostics.OrDiscard(c.Logger)
}
