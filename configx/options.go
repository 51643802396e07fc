// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/clinia/topicbridge/loggerx"
	"github.com/knadh/koanf"
	"github.com/ory/jsonschema/v3"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
)

type (
	OptionModifier func(p *Provider)

	// ChangeWatcher runs after every reload attempt of a watched file.
	// err is set when the reload was rejected.
	ChangeWatcher func(file string, err error)
)

// Sources, from lowest to highest precedence: base values, files, env, flags, forced values.

func WithBaseValues(values map[string]interface{}) OptionModifier {
	return func(p *Provider) {
		p.baseValues = mergeValues(p.baseValues, values)
	}
}

func WithConfigFiles(files ...string) OptionModifier {
	return func(p *Provider) {
		p.files = append(p.files, files...)
	}
}

// WithEnvPrefix loads PREFIX_A__B as a.b.
func WithEnvPrefix(prefix string) OptionModifier {
	return func(p *Provider) {
		p.envPrefix = prefix
	}
}

func DisableEnvLoading() OptionModifier {
	return func(p *Provider) {
		p.disableEnvLoading = true
	}
}

func WithFlags(flags *pflag.FlagSet) OptionModifier {
	return func(p *Provider) {
		p.flags = flags
	}
}

func WithValue(key string, value interface{}) OptionModifier {
	return WithValues(map[string]interface{}{key: value})
}

func WithValues(values map[string]interface{}) OptionModifier {
	return func(p *Provider) {
		p.forcedValues = mergeValues(p.forcedValues, values)
	}
}

func mergeValues(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// WithImmutables rejects reloads that change any of keys.
func WithImmutables(keys ...string) OptionModifier {
	return func(p *Provider) {
		p.immutables = append(p.immutables, keys...)
	}
}

func SkipValidation() OptionModifier {
	return func(p *Provider) {
		p.skipValidation = true
	}
}

func DisableFileWatching() OptionModifier {
	return func(p *Provider) {
		p.disableFileWatching = true
	}
}

func WithLogger(l *loggerx.Logger) OptionModifier {
	return func(p *Provider) {
		p.logger = l
	}
}

func AttachWatcher(watcher ChangeWatcher) OptionModifier {
	return func(p *Provider) {
		p.onChanges = append(p.onChanges, watcher)
	}
}

// LoggerWatcher reports reload outcomes through l.
func LoggerWatcher(l *loggerx.Logger) ChangeWatcher {
	return func(file string, err error) {
		ctx := context.Background()
		fileAttr := attribute.String("file", file)

		var (
			validationErr *jsonschema.ValidationError
			immutableErr  *ImmutableError
		)
		switch {
		case err == nil:
			l.Info(ctx, "configuration reloaded", fileAttr)
		case errors.As(err, &validationErr):
			l.Error(ctx, "reloaded configuration is invalid, keeping the previous revision",
				fileAttr, attribute.String("reason", validationErr.Error()))
		case errors.As(err, &immutableErr):
			l.WithError(err).Error(ctx, "immutable configuration key changed, keeping the previous revision until restart",
				fileAttr,
				attribute.String("key", immutableErr.Key),
				attribute.String("old_value", fmt.Sprint(immutableErr.From)),
				attribute.String("new_value", fmt.Sprint(immutableErr.To)))
		default:
			l.WithError(err).Error(ctx, "configuration reload failed", fileAttr)
		}
	}
}

func WithStderrValidationReporter() OptionModifier {
	return WithStandardValidationReporter(os.Stderr)
}

// WithStandardValidationReporter prints validation errors with the offending values to w.
func WithStandardValidationReporter(w io.Writer) OptionModifier {
	return func(p *Provider) {
		p.onValidationError = func(k *koanf.Koanf, err error) {
			p.printHumanReadableValidationErrors(k, w, err)
		}
	}
}
