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

// Package accesslog provides net/http middleware that renders one access log
// line per request from a compact format mini-language.
//
// The format string is compiled once when the middleware is constructed.
// Request-side directives are resolved before the handler runs, response-side
// directives right after it returns, and size/time directives at the moment
// the line is rendered. The rendered line is emitted through a slog.Logger at
// info level, exactly once per request, on every exit path including handler
// panics and aborted responses.
//
// # Basic Usage
//
//	import (
//	    "log/slog"
//	    "net/http"
//	    "os"
//
//	    "rivaas.dev/middleware/accesslog"
//	)
//
//	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
//	mw := accesslog.New(
//	    accesslog.WithLogger(logger),
//	    accesslog.WithExcludePaths("/health", "/metrics"),
//	)
//	http.ListenAndServe(":8080", mw(mux))
//
// # Format
//
// A directive starts with a percent sign. Anything else is copied to the log
// line verbatim.
//
//	%%          literal percent sign
//	%a          peer address (host:port of the connection)
//	%{r}a       proxy-aware client address (Forwarded, X-Forwarded-For, X-Real-IP)
//	%t          request start time, YYYY-MM-DDTHH:MM:SS
//	%r          first line of the request: METHOD PATH[?QUERY] VERSION
//	%U          request path only
//	%s          response status code
//	%b          response size in bytes
//	%T          time taken to serve the request, in seconds to 6 decimal places
//	%D          time taken to serve the request, in milliseconds to 6 decimal places
//	%{NAME}i    request header NAME, "-" if absent
//	%{NAME}o    response header NAME, "-" if absent
//	%{NAME}e    environment variable NAME, "-" if unset
//	%{NAME}xi   custom field NAME, see WithCustomField, "-" if unbound
//
// The default format is
//
//	%a "%r" %s %b "%{Referer}i" "%{User-Agent}i" %T
//
// producing lines such as
//
//	127.0.0.1:54278 "GET /test HTTP/1.1" 404 20 "-" "HTTPie/2.2.0" 0.001074
//
// Compilation never fails: an unrecognized directive, a trailing percent sign,
// or an unterminated brace form is kept in the output verbatim. Brace forms
// with the a suffix are reserved; only %{r}a is defined, any other label
// degrades to literal text.
//
// # Security
//
// The %{r}a value is taken from forwarding headers and is trivial for a
// client to forge. Only use it when every request arrives through a trusted
// proxy that overwrites those headers.
package accesslog
