package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/lecternhq/lectern/internal/diagnostics"
	"github.com/lecternhq/lectern/internal/remote"
	"github.com/lecternhq/lectern/internal/repositories"
	"github.com/lecternhq/lectern/internal/retry"
	"github.com/lecternhq/lectern/internal/shared"
	"github.com/lecternhq/lectern/internal/syncer"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The local store is opened lazily via openStore so commands like setup can run
// before a database exists.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db         *sql.DB
	series     *repositories.SeriesRepository
	sermons    *repositories.SermonRepository
	conflicts  *repositories.ConflictRepository
	oplog      *repositories.OperationLog
	watermarks *repositories.WatermarkStore
	auth       *repositories.AuthStateRepository
	adapter    remote.Adapter
	retries    *retry.Queue
	engine     *syncer.Engine
	diag       *diagnostics.Service
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client

	// DB and Adapter are injection points for tests; when nil the runner opens
	// the configured database and talks to the configured backend.
	DB      *sql.DB
	Adapter remote.Adapter
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		adapter:    opts.Adapter,
	}

	if opts.DB != nil {
		r.initStore(opts.DB)
	}

	return r
}

// openStore opens the configured database, runs migrations, and wires the
// repositories and sync engine. Safe to call more than once.
func (r *Runner) openStore() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.initStore(db)
	return nil
}

func (r *Runner) initStore(db *sql.DB) {
	r.db = db
	r.series = repositories.NewSeriesRepository(db)
	r.sermons = repositories.NewSermonRepository(db)
	r.conflicts = repositories.NewConflictRepository(db)
	r.oplog = repositories.NewOperationLog(db)
	r.watermarks = repositories.NewWatermarkStore(db)
	r.auth = repositories.NewAuthStateRepository(db)

	if r.adapter == nil {
		adapter := remote.NewHTTPAdapter(r.config.Remote, r.httpClient)
		if token := os.Getenv("LECTERN_TOKEN"); token != "" {
			adapter.SetToken(token)
		}
		r.adapter = adapter
	}

	r.retries = retry.NewQueue(r.config.Retry, r.logger)
	r.engine = syncer.NewEngine(syncer.Deps{
		Series:     r.series,
		Sermons:    r.sermons,
		Conflicts:  r.conflicts,
		Oplog:      r.oplog,
		Watermarks: r.watermarks,
		Adapter:    r.adapter,
		Retries:    r.retries,
		Logger:     r.logger,
		BatchSize:  r.config.Sync.BatchSize,
	})
	r.diag = diagnostics.NewService(db, r.logger)
}

// SetLogger swaps the runner's logger. Call before openStore so the engine
// and retry queue pick it up too.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// userID returns the account every command operates on.
func (r *Runner) userID() string {
	if r.config.User.ID != "" {
		return r.config.User.ID
	}
	return "local"
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, seriesCommand, sermonCommand, syncCommand, statusCommand, resetCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
