// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/clinia/topicbridge/otelx"
	"github.com/clinia/topicbridge/pubsubx"
	"github.com/google/uuid"
	"github.com/knadh/koanf"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/ory/jsonschema/v3"
)

// embeddedSchemas can be referenced with "$ref" from any configuration schema.
var embeddedSchemas = map[string]string{
	otelx.TracerConfigSchemaID: otelx.TracerConfigSchema,
	otelx.MeterConfigSchemaID:  otelx.MeterConfigSchema,
	pubsubx.ConfigSchemaID:     pubsubx.ConfigSchema,
}

// schemaType returns the type the schema declares for key, following references to embedded schemas.
func schemaType(schema []byte, key string) string {
	node := gjson.ParseBytes(schema)
	for _, segment := range strings.Split(key, Delimiter) {
		node = resolveRef(node).Get("properties." + segment)
		if !node.Exists() {
			return ""
		}
	}
	return resolveRef(node).Get("type").String()
}

func resolveRef(node gjson.Result) gjson.Result {
	if embedded, ok := embeddedSchemas[node.Get("$ref").String()]; ok {
		return gjson.Parse(embedded)
	}
	return node
}

func newCompiler(schema []byte) (string, *jsonschema.Compiler, error) {
	id := gjson.GetBytes(schema, "$id").String()
	if id == "" {
		id = fmt.Sprintf("%s.json", uuid.Must(uuid.NewRandom()).String())
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewBuffer(schema)); err != nil {
		return "", nil, errors.WithStack(err)
	}

	// DO NOT REMOVE THIS
	compiler.ExtractAnnotations = true

	for ref, embedded := range embeddedSchemas {
		if err := compiler.AddResource(ref, bytes.NewBufferString(embedded)); err != nil {
			return "", nil, errors.WithStack(err)
		}
	}

	return id, compiler, nil
}

func compileSchema(ctx context.Context, schema []byte) (*jsonschema.Schema, error) {
	id, compiler, err := newCompiler(schema)
	if err != nil {
		return nil, err
	}

	s, err := compiler.Compile(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return s, nil
}

func validate(s *jsonschema.Schema, k *koanf.Koanf) error {
	raw, err := json.Marshal(k.Raw())
	if err != nil {
		return errors.WithStack(err)
	}
	return s.Validate(bytes.NewReader(raw))
}

func (p *Provider) printHumanReadableValidationErrors(k *koanf.Koanf, w io.Writer, err error) {
	if err == nil {
		return
	}

	_, _ = fmt.Fprintln(w, "")
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		_, _ = fmt.Fprintf(w, "The configuration contains an error: %s\n", err)
		return
	}

	_, _ = fmt.Fprintln(w, "The configuration contains values or keys which are invalid:")
	printValidationError(k, w, ve)
	_, _ = fmt.Fprintln(w, "")
}

func printValidationError(k *koanf.Koanf, w io.Writer, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		path := strings.ReplaceAll(strings.TrimPrefix(ve.InstancePtr, "#/"), "/", ".")
		if path == "" || path == "#" {
			_, _ = fmt.Fprintf(w, "(root): %s\n", ve.Message)
			return
		}
		_, _ = fmt.Fprintf(w, "%s: %v\n", path, k.Get(path))
		_, _ = fmt.Fprintf(w, "%s^-- %s\n", strings.Repeat(" ", len(path)+2), ve.Message)
		return
	}

	for _, cause := range ve.Causes {
		printValidationError(k, w, cause)
	}
}
