package loggerx

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/slogx"
	"github.com/clinia/topicbridge/stringsx"
	slogctx "github.com/veqryn/slog-context"
)

type Config struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type options struct {
	writer     io.Writer
	level      *slog.LevelVar
	extractors []slogctx.AttrExtractor
	attrs      []slog.Attr
}

type Option func(*options)

// WithWriter sets the destination of the log records. Defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithLevelVar lets the caller change the level after the logger is built.
func WithLevelVar(level *slog.LevelVar) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithExtractors appends context extractors to every record.
func WithExtractors(extractors ...slogctx.AttrExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithAttrs adds static attributes (service name, version...) to every record.
func WithAttrs(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// New builds a logger writing JSON (default) or text records.
// Records always carry the trace and span ids of the span found in their context.
func New(c *Config, opts ...Option) (*Logger, error) {
	o := &options{
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.level == nil {
		o.level = new(slog.LevelVar)
	}
	if err := SetLevel(o.level, c.Level); err != nil {
		return nil, err
	}

	hOpts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	switch f := stringsx.SwitchExact(strings.ToLower(c.Format)); {
	case f.AddCase(""), f.AddCase("json"):
		h = slog.NewJSONHandler(o.writer, hOpts)
	case f.AddCase("text"):
		h = slog.NewTextHandler(o.writer, hOpts)
	default:
		return nil, errorx.InvalidArgumentErrorf("invalid log format: %v", f.ToUnknownCaseErr())
	}

	h = slogctx.NewHandler(h, &slogctx.HandlerOptions{
		Prependers: []slogctx.AttrExtractor{slogctx.ExtractPrepended},
		Appenders:  append([]slogctx.AttrExtractor{slogctx.ExtractAppended, slogx.NewTraceExtractor()}, o.extractors...),
	})

	l := slog.New(h)
	if len(o.attrs) > 0 {
		l = l.With(attrsToArgs(o.attrs)...)
	}

	return &Logger{l}, nil
}

// SetLevel parses level and applies it to lv. An empty level means info.
func SetLevel(lv *slog.LevelVar, level string) error {
	if level == "" {
		lv.Set(slog.LevelInfo)
		return nil
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return errorx.InvalidArgumentErrorf("invalid log level %q", level)
	}
	lv.Set(parsed)
	return nil
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return args
}
