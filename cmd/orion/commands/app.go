package commands

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/teranos/orion/agent"
	"github.com/teranos/orion/am"
	"github.com/teranos/orion/db"
	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/logger"
	"github.com/teranos/orion/pulse/heartbeat"
	"github.com/teranos/orion/pulse/journal"
)

// app wires a heartbeat to its configured stores and the core agent tasks
type app struct {
	cfg      *am.Config
	hb       *heartbeat.Heartbeat
	fileLog  *journal.FileLog
	sqlStore *journal.SQLStore
	database *sql.DB
	state    heartbeat.StateStore
	proofs   *agent.ProofJournal
	registry *prometheus.Registry
	logger   *zap.SugaredLogger
}

// stores holds the persistence backends chosen by config
type stores struct {
	log      heartbeat.PulseLog
	state    heartbeat.StateStore
	fileLog  *journal.FileLog
	sqlStore *journal.SQLStore
	database *sql.DB
}

func openStores(cfg *am.Config, log *zap.SugaredLogger) (*stores, error) {
	switch cfg.Heartbeat.Store {
	case am.StoreSQLite:
		database, err := db.OpenWithMigrations(cfg.GetDatabasePath(), log)
		if err != nil {
			return nil, err
		}
		s := journal.NewSQLStore(database)
		return &stores{log: s, state: s, sqlStore: s, database: database}, nil

	case am.StoreFile, "":
		fileLog, err := journal.OpenFileLog(cfg.Heartbeat.LogPath)
		if err != nil {
			return nil, err
		}
		return &stores{
			log:     fileLog,
			state:   journal.NewFileState(cfg.Heartbeat.StatePath),
			fileLog: fileLog,
		}, nil

	default:
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "unknown heartbeat store %q", cfg.Heartbeat.Store)
	}
}

// newApp builds a heartbeat with the core tasks registered.
// withMetrics registers Prometheus instruments on a private registry.
func newApp(ctx context.Context, cfg *am.Config, withMetrics bool) (*app, error) {
	log := logger.ComponentLogger("heartbeat")

	s, err := openStores(cfg, log)
	if err != nil {
		return nil, err
	}

	r := &app{
		cfg:      cfg,
		fileLog:  s.fileLog,
		sqlStore: s.sqlStore,
		database: s.database,
		state:    s.state,
		proofs:   agent.NewProofJournal(cfg.Agent.ProofPath, log),
		logger:   log,
	}

	opts := []heartbeat.Option{heartbeat.WithLogger(log)}
	if withMetrics {
		r.registry = prometheus.NewRegistry()
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, heartbeat.WithMetrics(heartbeat.NewMetrics(r.registry)))
	}

	hb, err := heartbeat.New(ctx, heartbeat.Config{TaskTimeout: cfg.TaskTimeout()}, s.log, s.state, opts...)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.hb = hb

	if _, err := agent.RegisterCoreTasks(hb, agent.Capabilities{Proofs: r.proofs}, cfg.Tasks); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// recent returns the last n pulses from whichever log is configured
func (r *app) recent(ctx context.Context, n int) ([]*heartbeat.Pulse, error) {
	if r.sqlStore != nil {
		return r.sqlStore.Recent(ctx, n)
	}
	return r.fileLog.Tail(ctx, n)
}

// serveMetrics exposes /metrics on addr until ctx is cancelled
// ensureIdle fails when the state snapshot says another process is running
// the heartbeat loop against the same stores.
func (r *app) ensureIdle(ctx context.Context) error {
	snap, err := r.state.Load(ctx)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read state snapshot")
	}
	if snap == nil || !snap.Running {
		return nil
	}
	return errors.WithHint(
		errors.Newf("heartbeat run %s is already running against this state", snap.RunID),
		"stop it first, or pass --force to tick anyway")
}

func (r *app) serveMetrics(ctx context.Context, addr string) error {
	if r.registry == nil {
		return errors.New("metrics are not enabled for this process")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		r.logger.Infow("Serving metrics", logger.FieldAddress, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Errorw("Metrics server failed", logger.FieldAddress, addr, logger.FieldError, err)
		}
	}()
	return nil
}

// Close releases stores
func (r *app) Close() error {
	var err error
	if r.fileLog != nil {
		err = errors.CombineErrors(err, r.fileLog.Close())
	}
	if r.database != nil {
		err = errors.CombineErrors(err, r.database.Close())
	}
	return err
}
