package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/clinia/topicbridge/bridge"
	"github.com/clinia/topicbridge/configx"
	"github.com/clinia/topicbridge/httpx"
	"github.com/clinia/topicbridge/internal/config"
	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/otelx"
	"github.com/clinia/topicbridge/pubsubx"
	"github.com/clinia/topicbridge/pubsubx/setup"
	"github.com/clinia/topicbridge/retryx"
	"github.com/clinia/topicbridge/slogx"
	"github.com/clinia/topicbridge/topicapi"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	flagConfig        = "config"
	flagServeAddress  = "serve.address"
	flagKafkaBrokers  = "kafka.brokers"
	flagBridgeTimeout = "bridge.timeout"
	flagLogLevel      = "log.level"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func Serve() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the topic administration API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Configuration file (yaml, json or toml)",
				Sources: cli.EnvVars(config.EnvPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:  flagServeAddress,
				Usage: "Address the API listens on",
			},
			&cli.StringSliceFlag{
				Name:  flagKafkaBrokers,
				Usage: "Kafka seed brokers",
			},
			&cli.DurationFlag{
				Name:  flagBridgeTimeout,
				Usage: "Timeout of a broker operation",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: runServe,
	}
}

// configModifiers turns the flags set on the command line into configuration values.
func configModifiers(c *cli.Command) []configx.OptionModifier {
	var modifiers []configx.OptionModifier
	if f := c.String(flagConfig); f != "" {
		modifiers = append(modifiers, configx.WithConfigFiles(f))
	}
	if c.IsSet(flagServeAddress) {
		modifiers = append(modifiers, configx.WithValue(config.KeyServeAddress, c.String(flagServeAddress)))
	}
	if c.IsSet(flagKafkaBrokers) {
		modifiers = append(modifiers, configx.WithValue(config.KeyKafkaBrokers, c.StringSlice(flagKafkaBrokers)))
	}
	if c.IsSet(flagBridgeTimeout) {
		modifiers = append(modifiers, configx.WithValue(config.KeyBridgeTimeout, c.Duration(flagBridgeTimeout).String()))
	}
	if c.IsSet(flagLogLevel) {
		modifiers = append(modifiers, configx.WithValue(config.KeyLogLevel, c.String(flagLogLevel)))
	}
	return modifiers
}

func runServe(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var watcherLogger atomic.Pointer[loggerx.Logger]
	modifiers := append(configModifiers(c),
		configx.WithStderrValidationReporter(),
		configx.AttachWatcher(func(f string, err error) {
			if l := watcherLogger.Load(); l != nil {
				configx.LoggerWatcher(l)(f, err)
			}
		}),
	)

	conf, err := config.New(ctx, modifiers...)
	if err != nil {
		return err
	}

	l, err := loggerx.New(conf.Log(),
		loggerx.WithWriter(c.Root().ErrWriter),
		loggerx.WithLevelVar(conf.LevelVar()),
		loggerx.WithExtractors(slogx.NewRequestIDExtractor(httpx.RequestIDContextKey, "request_id")),
		loggerx.WithAttrs(slog.String("service", config.ServiceName), slog.String("version", Version)),
	)
	if err != nil {
		return err
	}
	watcherLogger.Store(l)

	svc, err := newService(ctx, conf, l)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           svc.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	ln, err := net.Listen("tcp", conf.ServeAddress())
	if err != nil {
		return errors.Join(err, svc.close(context.WithoutCancel(ctx)))
	}

	return svc.serve(ctx, srv, ln, conf.BridgeTimeout())
}

// serve runs srv on ln until ctx is done. The broker readiness wait runs next to
// the listener so the liveness probe answers immediately.
func (s *service) serve(ctx context.Context, srv *http.Server, ln net.Listener, readyTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.l.Info(gctx, "topic bridge listening", attribute.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.awaitBroker(gctx, readyTimeout)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.l.Info(gctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), s.close(shutdownCtx))
	})

	return g.Wait()
}

type service struct {
	l       *loggerx.Logger
	otel    *otelx.Otel
	bridge  *bridge.Bridge
	handler http.Handler
}

// newService wires the admin client, the bridge and the HTTP handler from conf.
func newService(ctx context.Context, conf *config.Config, l *loggerx.Logger) (*service, error) {
	tc, err := conf.Tracer()
	if err != nil {
		return nil, err
	}
	mc, err := conf.Meter()
	if err != nil {
		return nil, err
	}

	tel, err := otelx.New(ctx, l, otelx.WithTracer(tc), otelx.WithMeter(mc))
	if err != nil {
		return nil, err
	}

	psConf, err := conf.PubSub()
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}
	entries, err := conf.TopicConfigEntries()
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	client, err := setup.NewAdminClient(l, psConf,
		pubsubx.WithTracerProvider(tel.Tracer().Provider()),
		pubsubx.WithPropagator(tel.Tracer().TextMapPropagator()),
		pubsubx.WithMeterProvider(tel.Meter().Provider()),
		pubsubx.WithDefaultCreateTopicConfigEntries(entries),
	)
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	b, err := bridge.New(client,
		bridge.WithLogger(l),
		bridge.WithTracer(tel.Tracer()),
		bridge.WithMeterProvider(tel.Meter().Provider()),
		bridge.WithDefaultTimeout(conf.BridgeTimeout()),
	)
	if err != nil {
		client.Close()
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	h, err := topicapi.NewHandler(b,
		topicapi.WithLogger(l),
		topicapi.WithTopicDefaults(conf.TopicDefaults()),
		topicapi.WithMetricsHandler(tel.Meter().Handler()),
		topicapi.WithCORS(conf.CORS()),
	)
	if err != nil {
		return nil, errors.Join(err, b.Close(ctx), tel.Shutdown(ctx))
	}

	return &service{l: l, otel: tel, bridge: b, handler: h.Routes()}, nil
}

// awaitBroker retries the broker health check with an exponential backoff. The API is served either way,
// /health/ready reports the broker state.
func (s *service) awaitBroker(ctx context.Context, timeout time.Duration) {
	err := retryx.ExponentialRetry(func() error {
		return s.bridge.HealthCheck(ctx, timeout)
	},
		retryx.WithContext(ctx),
		retryx.WithRetryCount(5),
		retryx.WithNotify(func(err error, next time.Duration) {
			s.l.WithError(err).Warn(ctx, "broker is not ready", attribute.String("retry_in", next.String()))
		}),
	)
	if err != nil {
		s.l.WithError(err).Error(ctx, "broker is still not ready, serving anyway")
		return
	}
	s.l.Info(ctx, "broker is ready")
}

func (s *service) close(ctx context.Context) error {
	return errors.Join(s.bridge.Close(ctx), s.otel.Shutdown(ctx))
}
