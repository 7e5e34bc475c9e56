package pass

import "go.uber.org/zap"

// Context carries shared runtime dependencies into every pass run.
type Context struct {
	Logger *zap.Logger
	// Path is the notebook location, attached to pass log lines.
	Path string
}

// NewContext builds a Context; a nil logger is replaced by a no-op logger.
func NewContext(logger *zap.Logger, path string) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{Logger: logger, Path: path}
}

// PassLog returns the context logger tagged with the pass id and notebook.
func (ctx *Context) PassLog(id string) *zap.Logger {
	log := ctx.Log().With(zap.String("pass", id))
	if ctx != nil && ctx.Path != "" {
		log = log.With(zap.String("notebook", ctx.Path))
	}
	return log
}

// Log returns the context logger, or a no-op logger for a nil context.
func (ctx *Context) Log() *zap.Logger {
	if ctx == nil || ctx.Logger == nil {
		return zap.NewNop()
	}
	return ctx.Logger
}
