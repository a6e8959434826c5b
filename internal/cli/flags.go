package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (.yaml or .toml)" default:""`
	DBPath  string `long:"db-path" description:"Override the SQLite database path"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ListCommand renders the activity panel for a filter state.
type ListCommand struct {
	Search   string `long:"search" short:"s" description:"Case-insensitive match on filename or URL"`
	Status   string `long:"status" description:"all | completed | paused | failed" default:"all"`
	Category string `long:"category" description:"all | documents | images | media" default:"all"`
	View     string `long:"view" description:"recent | history" default:"recent"`
	Limit    int    `long:"limit" description:"Maximum rows in the recent view (0 = no limit)" default:"0"`

	base
}

// RemoveCommand deletes one record from the activity store.
type RemoveCommand struct {
	ID string `long:"id" description:"Record ID (required)"`

	base
}

// AddCommand manually records a visit or a download.
type AddCommand struct {
	URL      string `long:"url" description:"URL to record (required)"`
	Title    string `long:"title" description:"Page title"`
	Download bool   `long:"download" description:"Record a completed download instead of a visit"`
	Path     string `long:"path" description:"Download target path"`
	Size     int64  `long:"size" description:"Download size in bytes"`

	base
}

// StatusCommand shows database statistics and configuration summary.
type StatusCommand struct {
	base
}

// PruneCommand deletes activity older than the retention period.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d, 2w)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`
	Force     bool   `long:"force" description:"Skip confirmation prompt"`

	base
}

// PurgeCommand deletes ALL activity with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	base
}

// ServeCommand runs the panel HTTP API.
type ServeCommand struct {
	Host string `long:"host" description:"Override daemon host"`
	Port int    `long:"port" description:"Override daemon port"`

	base
}
