package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/vecdash/internal/config"
	"github.com/xxxsen/vecdash/internal/db"
	"github.com/xxxsen/vecdash/internal/handler"
	"github.com/xxxsen/vecdash/internal/middleware"
	"github.com/xxxsen/vecdash/internal/repo"
	"github.com/xxxsen/vecdash/internal/service"
	"github.com/xxxsen/vecdash/internal/source"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "vecdash",
		Short:         "pgvector demo: seeder and dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with DB_* settings, ignored when missing")

	rootCmd.AddCommand(
		newRunCmd(&envFile),
		newSeedCmd(&envFile),
		newLoadCmd(&envFile),
		newUserCmd(&envFile),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

// bootstrap loads config, initialises logging and connects to the database.
func bootstrap(envFile string) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
		zap.String("sslmode", cfg.Database.SSLMode),
	)
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	return cfg, conn, nil
}

func bindSourceFlags(cmd *cobra.Command, opts *source.Options) {
	cmd.Flags().StringVar(&opts.S3Endpoint, "s3-endpoint", "", "custom S3 endpoint for s3:// sources")
	cmd.Flags().StringVar(&opts.S3Region, "s3-region", "", "S3 region for s3:// sources")
	cmd.Flags().StringVar(&opts.S3AccessKey, "s3-access-key", "", "S3 access key, default credential chain when empty")
	cmd.Flags().StringVar(&opts.S3SecretKey, "s3-secret-key", "", "S3 secret key")
	cmd.Flags().BoolVar(&opts.S3UsePathStyle, "s3-path-style", false, "use path-style S3 addressing")
}

func newSeedCmd(envFile *string) *cobra.Command {
	var (
		reset      bool
		csvFlags   []string
		noDefaults bool
		sourceOpts source.Options
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "create the schema and insert sample rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := parseCSVFlags(csvFlags)
			if err != nil {
				return err
			}
			if len(sources) == 0 && !noDefaults {
				sources = service.DefaultCSVSources
			}
			cfg, conn, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			ctx := cmd.Context()
			kind, err := db.EnsureSchema(ctx, conn, cfg.Dimension)
			if err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			seeder := service.NewSeedService(conn, kind, cfg.Dimension, sourceOpts)
			if _, err := seeder.Seed(ctx, service.SeedOptions{Reset: reset, Sources: sources}); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			logutil.GetLogger(ctx).Info("successfully seeded the database")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "truncate all tables before seeding")
	cmd.Flags().StringArrayVar(&csvFlags, "csv", nil, "bulk-load source as uri=doc_id, repeatable")
	cmd.Flags().BoolVar(&noDefaults, "no-default-csv", false, "skip the default csv files when no --csv is given")
	bindSourceFlags(cmd, &sourceOpts)
	return cmd
}

func newLoadCmd(envFile *string) *cobra.Command {
	var (
		docID      int64
		sourceOpts source.Options
	)
	cmd := &cobra.Command{
		Use:   "load <uri>",
		Short: "bulk-load embeddings from a csv source into a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if docID <= 0 {
				return fmt.Errorf("--doc is required")
			}
			cfg, conn, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			ctx := cmd.Context()
			kind, err := db.LoadVectorKind(ctx, conn)
			if err != nil {
				return err
			}
			seeder := service.NewSeedService(conn, kind, cfg.Dimension, sourceOpts)
			report, err := seeder.LoadCSV(ctx, service.CSVSource{URI: args[0], DocumentID: docID})
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			logutil.GetLogger(ctx).Info("bulk load finished",
				zap.Int("rows", report.EmbeddingsInserted),
				zap.Int("skipped", report.RowsSkipped),
			)
			return nil
		},
	}
	cmd.Flags().Int64Var(&docID, "doc", 0, "document id the rows belong to")
	bindSourceFlags(cmd, &sourceOpts)
	return cmd
}

func newUserCmd(envFile *string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "manage demo users",
	}
	userCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "delete a user with its documents and embeddings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			_, conn, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			users := service.NewUserService(repo.NewUserRepo(conn), repo.NewDocumentRepo(conn))
			return users.Delete(cmd.Context(), id)
		},
	})
	return userCmd
}

func newRunCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the dashboard and search service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			kind, err := db.LoadVectorKind(cmd.Context(), conn)
			if err != nil {
				return err
			}
			return runServer(cfg, conn, kind)
		},
	}
}

func runServer(cfg *config.Config, conn *sql.DB, kind db.VectorKind) error {
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.HTTPPort)
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.String("addr", addr),
		zap.String("vector_kind", string(kind)),
		zap.Int("dimension", cfg.Dimension),
	)

	embeddings := repo.NewEmbeddingRepo(conn, kind, cfg.Dimension)
	dashboard := service.NewDashboardService(
		conn,
		repo.NewUserRepo(conn),
		repo.NewDocumentRepo(conn),
		embeddings,
		repo.NewStatsRepo(conn),
	)
	search := service.NewSearchService(embeddings, cfg.Dimension, cfg.SearchLimit)

	deps := handler.RouterDeps{
		Pages: handler.NewPageHandler(dashboard, search, cfg.Dimension),
		API:   handler.NewAPIHandler(dashboard, search),
	}
	engine, err := webapi.NewEngine(
		"/",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	return serve(ctx, &http.Server{Handler: engine, ReadHeaderTimeout: 10 * time.Second}, ln, shutdownTimeout)
}

// serve runs srv on ln until ctx is cancelled, then stops accepting
// connections and waits up to grace for in-flight requests.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// parseCSVFlags turns "uri=doc_id" flags into sources.
func parseCSVFlags(values []string) ([]service.CSVSource, error) {
	sources := make([]service.CSVSource, 0, len(values))
	for _, entry := range values {
		idx := strings.LastIndex(entry, "=")
		if idx <= 0 || idx == len(entry)-1 {
			return nil, fmt.Errorf("invalid --csv %q, want uri=doc_id", entry)
		}
		docID, err := strconv.ParseInt(entry[idx+1:], 10, 64)
		if err != nil || docID <= 0 {
			return nil, fmt.Errorf("invalid document id in --csv %q", entry)
		}
		sources = append(sources, service.CSVSource{URI: entry[:idx], DocumentID: docID})
	}
	return sources, nil
}
