package gologger

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/internal/runtimeconfig"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

// Config selects the go-logger level, output format and focus modules.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	// Focus limits output to the named modules, e.g. "bulk.executor".
	Focus []string
}

// FromLoggingConfig maps the runtime logging section onto Config.
func FromLoggingConfig(cfg runtimeconfig.LoggingConfig) Config {
	return Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
		Focus:     cfg.Focus,
	}
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

var formats = map[string]func() glog.Option{
	"":        func() glog.Option { return glog.WithLoggerTypeJSON() },
	"json":    func() glog.Option { return glog.WithLoggerTypeJSON() },
	"console": func() glog.Option { return glog.WithLoggerTypeConsole() },
	"pretty":  func() glog.Option { return glog.WithLoggerTypePretty() },
}

// Provider serves go-logger children per module name. Children are built
// once and reused.
type Provider struct {
	root     *glog.BaseLogger
	mu       sync.Mutex
	children map[string]interfaces.Logger
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

func NewProvider(cfg Config) (*Provider, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(cfg.Format))]
	if !ok {
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	options := []glog.Option{format()}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		options = append(options, glog.WithLevel(level))
	}
	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	focus := make([]string, 0, len(cfg.Focus))
	for _, name := range cfg.Focus {
		if name = strings.TrimSpace(name); name != "" {
			focus = append(focus, name)
		}
	}
	if len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root, children: map[string]interfaces.Logger{}}, nil
}

func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return newAdapter(p.root)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if child, ok := p.children[name]; ok {
		return child
	}
	child := newAdapter(p.root.GetLogger(name))
	p.children[name] = child
	return child
}

// adapter carries fields itself when the go-logger child cannot, appending
// them as sorted key/value pairs to each entry.
type adapter struct {
	inner glog.Logger
	extra []any
}

func newAdapter(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

func (l *adapter) emit(fn func(string, ...any), msg string, args []any) {
	if len(l.extra) > 0 {
		args = append(slices.Clone(l.extra), args...)
	}
	fn(msg, args...)
}

func (l *adapter) Trace(msg string, args ...any) { l.emit(l.inner.Trace, msg, args) }
func (l *adapter) Debug(msg string, args ...any) { l.emit(l.inner.Debug, msg, args) }
func (l *adapter) Info(msg string, args ...any)  { l.emit(l.inner.Info, msg, args) }
func (l *adapter) Warn(msg string, args ...any)  { l.emit(l.inner.Warn, msg, args) }
func (l *adapter) Error(msg string, args ...any) { l.emit(l.inner.Error, msg, args) }
func (l *adapter) Fatal(msg string, args ...any) { l.emit(l.inner.Fatal, msg, args) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	if with, ok := l.inner.(glog.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		for key, value := range fields {
			copied[key] = value
		}
		return &adapter{inner: with.WithFields(copied), extra: l.extra}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	extra := slices.Clone(l.extra)
	for _, key := range keys {
		extra = append(extra, key, fields[key])
	}
	return &adapter{inner: l.inner, extra: extra}
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return &adapter{inner: l.inner.WithContext(ctx), extra: l.extra}
}
