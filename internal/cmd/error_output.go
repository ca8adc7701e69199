package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/csvpeek/internal/dataset"
	"github.com/salmonumbrella/csvpeek/internal/output"
	"github.com/salmonumbrella/csvpeek/internal/secrets"
	"github.com/salmonumbrella/csvpeek/internal/source"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(errorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), err)
}

func buildErrorEnvelope(err error) map[string]interface{} {
	payload := map[string]interface{}{
		"error": map[string]interface{}{
			"message": err.Error(),
		},
	}

	errMap := payload["error"].(map[string]interface{})
	errMap["category"] = "system"
	errMap["type"] = "error"

	var parseErr dataset.ParseError
	if errors.As(err, &parseErr) {
		errMap["type"] = "parse"
		errMap["category"] = "data"
		errMap["line"] = parseErr.Line
	}

	var decodeErr dataset.DecodeError
	if errors.As(err, &decodeErr) {
		errMap["type"] = "decode"
		errMap["category"] = "data"
		errMap["line"] = decodeErr.Line
	}

	if errors.Is(err, dataset.ErrNoColumns) {
		errMap["type"] = "empty_data"
		errMap["category"] = "data"
	}

	var authErr source.AuthenticationError
	if errors.As(err, &authErr) {
		errMap["type"] = "auth"
		errMap["category"] = "user"
	}

	var statusErr source.StatusError
	if errors.As(err, &statusErr) {
		errMap["type"] = "http_status"
		errMap["status"] = statusErr.StatusCode
	}

	if errors.Is(err, fs.ErrPermission) {
		errMap["type"] = "permission"
		errMap["category"] = "user"
	}

	if errors.Is(err, secrets.ErrNotFound) {
		errMap["type"] = "not_found"
		errMap["category"] = "user"
	}

	return payload
}
