// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/clinia/topicbridge/loggerx"
	"github.com/inhies/go-bytesize"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/ory/jsonschema/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
)

const Delimiter = "."

type (
	Provider struct {
		l sync.RWMutex
		k *koanf.Koanf

		schema    []byte
		validator *jsonschema.Schema

		files        []string
		flags        *pflag.FlagSet
		envPrefix    string
		baseValues   map[string]interface{}
		forcedValues map[string]interface{}
		immutables   []string

		skipValidation      bool
		disableEnvLoading   bool
		disableFileWatching bool

		logger            *loggerx.Logger
		onChanges         []ChangeWatcher
		onValidationError func(k *koanf.Koanf, err error)
	}

	ImmutableError struct {
		Key  string
		From interface{}
		To   interface{}
	}
)

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("immutable configuration key %q was changed from %v to %v", e.Key, e.From, e.To)
}

// New creates a configuration provider validated against schema. Sources are merged in this
// order, later ones winning: base values, config files, user providers, environment, changed flags, forced values.
func New(ctx context.Context, schema []byte, modifiers ...OptionModifier) (*Provider, error) {
	p := &Provider{
		schema:            schema,
		onValidationError: func(*koanf.Koanf, error) {},
	}
	for _, m := range modifiers {
		m(p)
	}

	if !p.skipValidation {
		validator, err := compileSchema(ctx, schema)
		if err != nil {
			return nil, err
		}
		p.validator = validator
	}

	k, err := p.newKoanf()
	if err != nil {
		return nil, err
	}
	p.k = k

	if !p.disableFileWatching {
		if err := p.watchFiles(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Provider) newKoanf() (*koanf.Koanf, error) {
	k := koanf.New(Delimiter)

	if len(p.baseValues) > 0 {
		if err := k.Load(confmap.Provider(p.baseValues, Delimiter), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	for _, f := range p.files {
		parser, err := parserFor(f)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(f), parser); err != nil {
			return nil, errors.Wrapf(err, "unable to load config file %s", f)
		}
	}

	if !p.disableEnvLoading && p.envPrefix != "" {
		if err := k.Load(env.ProviderWithValue(p.envPrefix, Delimiter, p.envKeyValue), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if p.flags != nil {
		if err := k.Load(posflag.Provider(p.flags, Delimiter, k), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if len(p.forcedValues) > 0 {
		if err := k.Load(confmap.Provider(p.forcedValues, Delimiter), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if p.validator != nil {
		if err := validate(p.validator, k); err != nil {
			p.onValidationError(k, err)
			return nil, err
		}
	}

	return k, nil
}

func parserFor(f string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(f)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, errors.Errorf("unsupported config file extension %q in %s", filepath.Ext(f), f)
	}
}

// envKeyValue maps TOPICBRIDGE_SERVE__ADDRESS to serve.address and coerces the value
// to the type the schema declares for that key.
func (p *Provider) envKeyValue(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, p.envPrefix)), "__", Delimiter)
	if key == "" {
		return "", nil
	}

	switch schemaType(p.schema, key) {
	case "array":
		items := strings.Split(value, ",")
		for i := range items {
			items[i] = strings.TrimSpace(items[i])
		}
		return key, items
	case "integer":
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return key, i
		}
	case "number":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return key, f
		}
	case "boolean":
		if b, err := strconv.ParseBool(value); err == nil {
			return key, b
		}
	}
	return key, value
}

func (p *Provider) watchFiles() error {
	for _, f := range p.files {
		if err := file.Provider(f).Watch(func(_ interface{}, err error) {
			p.reload(f, err)
		}); err != nil {
			return errors.Wrapf(err, "unable to watch config file %s", f)
		}
	}
	return nil
}

func (p *Provider) reload(f string, watchErr error) {
	if watchErr != nil {
		p.notify(f, watchErr)
		return
	}

	k, err := p.newKoanf()
	if err != nil {
		p.notify(f, err)
		return
	}

	p.l.Lock()
	for _, key := range p.immutables {
		if from, to := p.k.Get(key), k.Get(key); !reflect.DeepEqual(from, to) {
			p.l.Unlock()
			p.notify(f, &ImmutableError{Key: key, From: from, To: to})
			return
		}
	}
	p.k = k
	p.l.Unlock()

	p.notify(f, nil)
}

func (p *Provider) notify(f string, err error) {
	if p.logger != nil && err != nil {
		p.logger.WithError(err).Debug(context.Background(), "configuration reload rejected", attribute.String("file", f))
	}
	for _, w := range p.onChanges {
		w(f, err)
	}
}

func (p *Provider) get(key string) interface{} {
	p.l.RLock()
	defer p.l.RUnlock()
	return p.k.Get(key)
}

// Exists reports whether key is set by any source.
func (p *Provider) Exists(key string) bool {
	p.l.RLock()
	defer p.l.RUnlock()
	return p.k.Exists(key)
}

// All returns a flat copy of every key.
func (p *Provider) All() map[string]interface{} {
	p.l.RLock()
	defer p.l.RUnlock()
	return p.k.All()
}

func (p *Provider) Get(key string) interface{} {
	return p.get(key)
}

func (p *Provider) String(key string) string {
	return cast.ToString(p.get(key))
}

func (p *Provider) StringF(key, fallback string) string {
	if !p.Exists(key) {
		return fallback
	}
	return p.String(key)
}

// Strings accepts lists as well as comma separated strings.
func (p *Provider) Strings(key string) []string {
	v := p.get(key)
	if s, ok := v.(string); ok {
		if s == "" {
			return []string{}
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return cast.ToStringSlice(v)
}

func (p *Provider) Int(key string) int {
	return cast.ToInt(p.get(key))
}

func (p *Provider) IntF(key string, fallback int) int {
	if !p.Exists(key) {
		return fallback
	}
	return p.Int(key)
}

func (p *Provider) Float64(key string) float64 {
	return cast.ToFloat64(p.get(key))
}

func (p *Provider) Bool(key string) bool {
	return cast.ToBool(p.get(key))
}

// Duration parses Go duration strings ("5s"). Plain numbers are nanoseconds.
func (p *Provider) Duration(key string) time.Duration {
	return cast.ToDuration(p.get(key))
}

func (p *Provider) DurationF(key string, fallback time.Duration) time.Duration {
	if !p.Exists(key) {
		return fallback
	}
	return p.Duration(key)
}

// ByteSize parses human readable sizes ("1MB", "512KB"). Plain numbers are bytes.
func (p *Provider) ByteSize(key string) (bytesize.ByteSize, error) {
	switch v := p.get(key).(type) {
	case nil:
		return 0, nil
	case string:
		b, err := bytesize.Parse(v)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid byte size for key %s", key)
		}
		return b, nil
	default:
		n, err := cast.ToUint64E(v)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid byte size for key %s", key)
		}
		return bytesize.ByteSize(n), nil
	}
}

// Unmarshal decodes the subtree at path (the whole tree for "") into out using its `json` tags.
func (p *Provider) Unmarshal(path string, out interface{}) error {
	p.l.RLock()
	defer p.l.RUnlock()
	return errors.WithStack(p.k.UnmarshalWithConf(path, out, koanf.UnmarshalConf{Tag: "json"}))
}
