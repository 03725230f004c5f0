// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package accesslog

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"
)

// Middleware wraps an http.Handler with access logging.
type Middleware func(http.Handler) http.Handler

// New creates access log middleware from the given options. The format
// string is compiled here, once; custom fields registered with
// WithCustomField are bound into the compiled format before the first
// request is served, and must not be registered afterwards.
//
// The logger must be provided via WithLogger. Without one the middleware is
// a plain passthrough.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	mw := accesslog.New(
//		accesslog.WithLogger(logger),
//		accesslog.WithFormat(`%{r}a "%r" %s %b %T`),
//		accesslog.WithExcludePaths("/health"),
//		accesslog.WithExcludePatterns(`^/debug/`),
//	)
//	handler := mw(mux)
func New(opts ...Option) Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	tmpl := compileFormat(cfg.formatStr)
	bindFields(tmpl, cfg.fields, cfg.logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.logger == nil || cfg.shouldSkip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			// Request-phase resolution happens before the handler can
			// consume or mutate the request.
			resolved := tmpl.clone()
			resolved.resolveRequest(start, r, cfg.env)

			rw := &responseWriter{ResponseWriter: w}

			// The deferred emit is the one guaranteed exit point: it runs
			// on normal completion, on handler panic (the panic continues
			// to propagate), and when the client has gone away. One line
			// per request, always.
			defer emit(cfg.logger, resolved, rw, r, start)

			next.ServeHTTP(rw, r)
		})
	}
}

// emit performs response-phase resolution, renders the line, and hands it
// to the logger at info level.
func emit(logger *slog.Logger, resolved format, rw *responseWriter, r *http.Request, start time.Time) {
	// Snapshot status and response headers now; nothing may mutate them
	// between here and the write to the sink.
	resolved.resolveResponse(rw.StatusCode(), rw.Header())

	ctx := r.Context()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		// Sink is off for info; skip rendering, not an error.
		return
	}

	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	resolved.render(b, rw.Size(), start)
	logger.LogAttrs(ctx, slog.LevelInfo, b.String())
	bufPool.Put(b)
}

// bindFields binds registered custom field functions into the compiled
// format, rebinding on repeat labels so the latest registration wins, and
// reports labels that never line up with a directive. It runs once at
// construction; per-request clones share the bound functions.
func bindFields(tmpl format, fields map[string]FieldFunc, logger *slog.Logger) {
	for label, fn := range fields {
		bound := false
		for i := range tmpl {
			if tmpl[i].kind == kindCustom && tmpl[i].arg == label {
				tmpl[i].fn = fn
				bound = true
			}
		}
		if !bound && logger != nil {
			logger.Debug("accesslog: custom field has no matching directive", "label", label)
		}
	}

	// Build-time sanity check: a %{label}xi directive with no function will
	// only ever print "-".
	if logger == nil {
		return
	}
	for i := range tmpl {
		if tmpl[i].kind == kindCustom && tmpl[i].fn == nil {
			logger.Warn("accesslog: no function registered for custom field", "label", tmpl[i].arg)
		}
	}
}
