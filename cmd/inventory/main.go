package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/history"
	"github.com/erazemk/inventar/internal/photos"
	"github.com/erazemk/inventar/internal/store"
	"github.com/erazemk/inventar/internal/web"
)

const usage = `Usage: inventory [flags]
       inventory hash-password [-password <value>]

Flags:
  -h, -host <host>        listen host (required)
  -p, -port <port>        listen port (required)
  -c, -cache <dir>        cache directory for items, photos and history (required)
  -config <path>          optional YAML/TOML/JSON config file
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -help                   show this help and exit

Every setting can also come from INVENTORY_* environment variables or a .env
file, e.g. INVENTORY_AUTH_SECRET. Flags take precedence.
`

// options are the command-line flags. set records which flags were given
// so only those override the loaded configuration.
type options struct {
	host       string
	port       int
	cache      string
	configFile string
	logPath    string
	set        map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("inventory", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{set: make(map[string]bool)}
	fs.StringVar(&opts.host, "host", "", "")
	fs.StringVar(&opts.host, "h", "", "")
	fs.IntVar(&opts.port, "port", 0, "")
	fs.IntVar(&opts.port, "p", 0, "")
	fs.StringVar(&opts.cache, "cache", "", "")
	fs.StringVar(&opts.cache, "c", "", "")
	fs.StringVar(&opts.configFile, "config", "", "")
	fs.StringVar(&opts.logPath, "log", "", "")
	fs.StringVar(&opts.logPath, "l", "", "")

	fs.Usage = func() { fmt.Fprint(output, usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	aliases := map[string]string{"h": "host", "p": "port", "c": "cache", "l": "log"}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		opts.set[name] = true
	})

	return opts, nil
}

// apply overrides configuration values with explicitly given flags.
func (o *options) apply(cfg *config.Config) {
	if o.set["host"] {
		cfg.Server.Host = o.host
	}
	if o.set["port"] {
		cfg.Server.Port = o.port
	}
	if o.set["cache"] {
		cfg.Cache.Dir = o.cache
	}
	if o.set["log"] {
		cfg.Log.File = o.logPath
	}
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := cmdHashPassword(os.Args[2:], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts, err := parseFlags(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n%s", err, usage)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

// prepareCache creates the cache directory layout.
func prepareCache(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Cache.Dir); errors.Is(err, os.ErrNotExist) {
		slog.Info("creating cache directory", "path", cfg.Cache.Dir)
	}
	for _, dir := range []string{cfg.Cache.Dir, cfg.UploadsDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

func run(cfg *config.Config) error {
	if err := prepareCache(cfg); err != nil {
		return err
	}

	assets, err := photos.New(cfg.PhotosDir(),
		photos.WithRequireImage(cfg.Photos.RequireImage),
		photos.WithMaxDimension(cfg.Photos.MaxDimension),
		photos.WithMaxPixels(cfg.Photos.MaxPixels),
	)
	if err != nil {
		return fmt.Errorf("preparing photo directory: %w", err)
	}

	journal, err := db.OpenJournal(cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer journal.Close()

	inventory, err := store.Open(cfg.CollectionPath(), assets,
		store.WithRecorder(&history.Journal{DB: journal}),
	)
	if err != nil {
		return fmt.Errorf("opening inventory: %w", err)
	}
	slog.Info("inventory ready", "path", cfg.CollectionPath(), "photos", assets.Dir())

	deps := api.Deps{
		Store:          inventory,
		History:        journal,
		UploadDir:      cfg.UploadsDir(),
		MaxUploadBytes: cfg.Photos.MaxUploadBytes,
	}
	if cfg.AuthEnabled() {
		secret := cfg.Auth.Secret
		if secret == "" {
			// Load the signing secret from the database (auto-generated on first run).
			secret, err = db.JWTSecret(context.Background(), journal)
			if err != nil {
				return fmt.Errorf("loading jwt secret: %w", err)
			}
		}
		deps.JWTSecret = secret
		deps.Authenticator = &auth.Authenticator{
			Username:     cfg.Auth.AdminUser,
			PasswordHash: cfg.Auth.AdminPasswordHash,
		}
		deps.TokenTTL = cfg.Auth.TokenTTL
		slog.Info("bearer token auth enabled for writes", "user", cfg.Auth.AdminUser)
	}
	if cfg.Server.UploadRate > 0 {
		deps.UploadLimiter = rate.NewLimiter(rate.Limit(cfg.Server.UploadRate), cfg.Server.UploadBurst)
	}

	// API and pages share one mux; every pattern is method-qualified.
	mux := api.NewRouter(deps)
	pages, err := web.NewServer(inventory)
	if err != nil {
		return fmt.Errorf("setting up web pages: %w", err)
	}
	pages.Register(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped, closing history database")
	return nil
}

// cmdHashPassword prints a bcrypt hash for auth.admin_password_hash. The
// password comes from -password or the first line of input.
func cmdHashPassword(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(out)
	password := fs.String("password", "", "password to hash (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}
	if *password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}
