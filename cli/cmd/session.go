package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/omakasem/draftstream/adapter"
	archiveadapter "github.com/omakasem/draftstream/adapter/archive"
	redisadapter "github.com/omakasem/draftstream/adapter/redis"
	"github.com/omakasem/draftstream/adapter/webhook"
	"github.com/omakasem/draftstream/cli/config"
	"github.com/omakasem/draftstream/cli/render"
	"github.com/omakasem/draftstream/cli/tui"
	"github.com/omakasem/draftstream/draft"
	"github.com/omakasem/draftstream/log"
	"github.com/omakasem/draftstream/lode"
	"github.com/omakasem/draftstream/metrics"
	"github.com/omakasem/draftstream/progress"
	"github.com/omakasem/draftstream/types"
)

// Exit codes for commands that consume a stream.
const (
	exitCompleted = 0
	exitParse     = 1
	exitStream    = 2
	exitPersist   = 3
	exitCanceled  = 130
)

// outcomeExitCode maps a session outcome onto the process exit code.
func outcomeExitCode(out types.Outcome) int {
	switch out.Status {
	case types.OutcomeCompleted:
		return exitCompleted
	case types.OutcomeCancelled:
		return exitCanceled
	}
	switch out.Kind {
	case types.ErrorKindParse:
		return exitParse
	case types.ErrorKindPersist:
		return exitPersist
	case types.ErrorKindCanceled:
		return exitCanceled
	default:
		return exitStream
	}
}

// sessionRuntime holds everything one session command wires together.
type sessionRuntime struct {
	cfg       *config.Config
	meta      log.SessionMeta
	logger    *log.Logger
	collector *metrics.Collector
	updater   adapter.Updater
	archive   *lode.Archive
	publisher *progress.Publisher
	logFile   *os.File
}

// newSessionRuntime builds logger, collector, updaters, archive and progress
// publisher from cfg. The caller must Close it.
func newSessionRuntime(c *cli.Context, cfg *config.Config, meta log.SessionMeta) (*sessionRuntime, error) {
	rt := &sessionRuntime{cfg: cfg, meta: meta}

	if err := rt.initLogger(c); err != nil {
		return nil, err
	}

	archive, err := buildArchive(c.Context, cfg.Archive)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.archive = archive

	updater, backend, err := buildUpdater(cfg.Persist, archive)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.updater = updater
	rt.collector = metrics.NewCollector(string(meta.Mode), backend, meta.SessionID)
	if archive != nil {
		archive.WithCollector(rt.collector)
	}

	if cfg.Progress.RedisURL != "" {
		pub, err := progress.NewPublisher(progress.Config{
			URL:     cfg.Progress.RedisURL,
			Channel: cfg.Progress.Channel,
			Codec:   cfg.Progress.Codec,
		}, progress.WithLogger(rt.logger), progress.WithCollector(rt.collector))
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to create progress publisher: %w", err)
		}
		rt.publisher = pub
	}

	rt.logger.Debug("session runtime ready", map[string]any{
		"persist_backend": backend,
		"archive":         archive != nil,
		"progress":        rt.publisher != nil,
	})
	return rt, nil
}

// initLogger writes to --log-file when given. The live view owns the
// terminal, so without a log file only errors reach stderr there.
func (rt *sessionRuntime) initLogger(c *cli.Context) error {
	level := log.ParseLevel(rt.cfg.Log.Level)
	var w io.Writer = os.Stderr
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		rt.logFile = f
		w = f
	} else if c.Bool("tui") {
		w = io.Discard
		level = zapcore.ErrorLevel
	}
	rt.logger = log.NewLoggerWithWriter(rt.meta, w, level)
	return nil
}

// buildArchive opens the Lode archive when archive.path is configured.
func buildArchive(ctx context.Context, ac config.ArchiveConfig) (*lode.Archive, error) {
	if ac.Path == "" {
		return nil, nil
	}
	cfg := lode.Config{Dataset: ac.Dataset, Source: ac.Source}

	var (
		archive *lode.Archive
		err     error
	)
	switch ac.Backend {
	case config.BackendFS, "":
		archive, err = lode.NewArchive(cfg, ac.Path)
	case config.BackendS3:
		bucket, prefix := lode.ParseS3Path(ac.Path)
		archive, err = lode.NewArchiveS3(ctx, cfg, lode.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       ac.Region,
			Endpoint:     ac.Endpoint,
			UsePathStyle: ac.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown archive backend: %s (must be fs or s3)", ac.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	return archive, nil
}

// buildUpdater fans the update-session call out to the configured backend
// and the archive. It also returns the backend label used in metrics.
func buildUpdater(pc config.PersistConfig, archive *lode.Archive) (adapter.Updater, string, error) {
	retries := 0
	if pc.Retries != nil {
		retries = *pc.Retries
	}

	fanout := adapter.NewFanout()
	var names []string

	switch pc.Type {
	case config.PersistWebhook:
		wh, err := webhook.New(webhook.Config{
			URL:     pc.URL,
			Headers: pc.Headers,
			Timeout: pc.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create webhook adapter: %w", err)
		}
		fanout.Add(config.PersistWebhook, wh)
		names = append(names, config.PersistWebhook)
	case config.PersistRedis:
		rd, err := redisadapter.New(redisadapter.Config{
			URL:       pc.URL,
			KeyPrefix: pc.KeyPrefix,
			Channel:   pc.Channel,
			TTL:       pc.TTL.Duration,
			Timeout:   pc.Timeout.Duration,
			Retries:   retries,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create redis adapter: %w", err)
		}
		fanout.Add(config.PersistRedis, rd)
		names = append(names, config.PersistRedis)
	}

	if archive != nil {
		ar, err := archiveadapter.New(archive)
		if err != nil {
			_ = fanout.Close()
			return nil, "", err
		}
		fanout.Add("archive", ar)
		names = append(names, "archive")
	}

	if fanout.Len() == 0 {
		return adapter.Nop{}, config.PersistNone, nil
	}
	return fanout, strings.Join(names, "+"), nil
}

// stallTimeout resolves the configured stall timeout; unset selects the
// session default.
func (rt *sessionRuntime) stallTimeout() time.Duration {
	if rt.cfg.Stream.StallTimeout == nil {
		return -1
	}
	return rt.cfg.Stream.StallTimeout.Duration
}

// newSession creates a session wired to the runtime's collaborators.
func (rt *sessionRuntime) newSession(extra ...draft.Option) *draft.Session {
	opts := []draft.Option{
		draft.WithLogger(rt.logger),
		draft.WithCollector(rt.collector),
	}
	if rt.publisher != nil {
		opts = append(opts, draft.WithObserver(rt.publisher))
	}
	opts = append(opts, extra...)
	return draft.NewSession(draft.Config{
		SessionID:        rt.meta.SessionID,
		PlannerSessionID: rt.meta.PlannerSessionID,
		Mode:             rt.meta.Mode,
		StallTimeout:     rt.stallTimeout(),
	}, rt.updater, opts...)
}

// recordMetrics archives the session's counters. Failures are logged only;
// the outcome is already decided.
func (rt *sessionRuntime) recordMetrics(out types.Outcome) {
	if rt.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.archive.WriteMetrics(ctx, rt.collector.Snapshot(), out.Status, time.Now()); err != nil {
		rt.logger.Warn("failed to archive metrics", map[string]any{"error": err.Error()})
	}
}

// Close releases every collaborator.
func (rt *sessionRuntime) Close() error {
	var errs []error
	if rt.publisher != nil {
		errs = append(errs, rt.publisher.Close())
	}
	if rt.updater != nil {
		errs = append(errs, rt.updater.Close())
	} else if rt.archive != nil {
		errs = append(errs, rt.archive.Close())
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
	if rt.logFile != nil {
		errs = append(errs, rt.logFile.Close())
	}
	return errors.Join(errs...)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// startFunc starts a session over a stream it obtains itself.
type startFunc func(ctx context.Context, s *draft.Session) types.Outcome

// runSession executes start either headless or inside the live view, then
// archives metrics, prints the outcome and maps it to an exit code.
func runSession(c *cli.Context, rt *sessionRuntime, title string, start startFunc) error {
	ctx, stop := signalContext(c.Context)
	defer stop()

	var (
		out types.Outcome
		err error
	)
	if c.Bool("tui") {
		out, err = tui.RunLive(ctx, title, func(ctx context.Context, obs tui.ProgramObserver) <-chan types.Outcome {
			s := rt.newSession(draft.WithObserver(obs))
			ch := make(chan types.Outcome, 1)
			go func() {
				defer close(ch)
				ch <- start(ctx, s)
			}()
			return ch
		})
		if err != nil {
			rt.logger.Error("live view failed", map[string]any{"error": err.Error()})
		}
	} else {
		out = start(ctx, rt.newSession())
	}

	rt.recordMetrics(out)

	if !c.Bool("quiet") {
		if rerr := printOutcome(c, out); rerr != nil {
			return rerr
		}
	}

	code := outcomeExitCode(out)
	if code == exitCompleted {
		return nil
	}
	msg := out.Message
	if out.Err != nil {
		msg = fmt.Sprintf("%s: %v", out.Message, out.Err)
	}
	return cli.Exit(msg, code)
}

// printOutcome renders the plan of a completed outcome, or the outcome itself.
func printOutcome(c *cli.Context, out types.Outcome) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if out.Status == types.OutcomeCompleted && r.Format() == render.FormatTable {
		return r.RenderPlan(out.Plan)
	}
	return r.Render(out)
}
