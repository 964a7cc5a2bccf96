package notebase

// Command represents one application operation with its specific options.
// Commands are produced by Parse and dispatched by Main to the matching
// App method.
type Command interface {
	// Name returns the CLI sub-command this command is routed from.
	Name() string
}

// MigrateCommand creates or updates the database schema to match the
// current data model. Safe to run repeatedly; it only adds what is
// missing.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string { return "migrate" }

// RunCommand starts the HTTP server and blocks until the context is
// cancelled.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }
