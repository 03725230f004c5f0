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
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// FieldFunc produces the value of a %{LABEL}xi directive for one request.
// It runs during request-phase resolution, before the handler, and must not
// retain the request. By convention it returns "-" when it has no value.
//
// A single FieldFunc is shared by every request served by the middleware,
// so it must be safe for concurrent use.
type FieldFunc func(r *http.Request) string

// TraceIDField returns a FieldFunc that resolves to the OpenTelemetry trace
// ID of the request's active span, for correlating access lines with traces.
//
// Example:
//
//	accesslog.New(
//	    accesslog.WithFormat(`%a "%r" %s %b %{trace}xi`),
//	    accesslog.WithCustomField("trace", accesslog.TraceIDField()),
//	)
func TraceIDField() FieldFunc {
	return func(r *http.Request) string {
		if sc := trace.SpanFromContext(r.Context()).SpanContext(); sc.IsValid() {
			return sc.TraceID().String()
		}
		return sentinel
	}
}

// RequestIDField returns a FieldFunc that resolves to the correlation ID
// carried in the given request header. An empty header name selects
// X-Request-ID.
//
// Example:
//
//	accesslog.New(
//	    accesslog.WithFormat(`%a "%r" %s %{rid}xi`),
//	    accesslog.WithCustomField("rid", accesslog.RequestIDField("")),
//	)
func RequestIDField(header string) FieldFunc {
	if header == "" {
		header = "X-Request-ID"
	}
	return func(r *http.Request) string {
		return headerOr(r.Header, header)
	}
}
