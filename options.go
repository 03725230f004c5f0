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
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Option defines functional options for access log middleware.
type Option func(*config)

// config holds access log configuration.
type config struct {
	// logger is the structured logger the rendered lines go to
	logger *slog.Logger

	// formatStr is the mini-language format string, compiled once in New
	formatStr string

	// excludePaths are exact paths to skip
	excludePaths map[string]bool

	// excludePrefixes are path prefixes to skip (e.g., "/metrics")
	excludePrefixes []string

	// excludePatterns are compiled path patterns to skip
	excludePatterns []*regexp.Regexp

	// fields maps custom field labels to their functions
	fields map[string]FieldFunc

	// env resolves %{NAME}e directives
	env EnvFunc
}

func defaultConfig() *config {
	return &config{
		formatStr:    DefaultFormat,
		excludePaths: make(map[string]bool),
		fields:       make(map[string]FieldFunc),
		env:          os.LookupEnv,
	}
}

// shouldSkip reports whether a request path is excluded from logging.
func (c *config) shouldSkip(path string) bool {
	if c.excludePaths[path] {
		return true
	}
	for _, prefix := range c.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, re := range c.excludePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// WithFormat sets the format string. See the package documentation for the
// directive table. Compilation is total; a malformed directive is kept in
// the output as literal text instead of failing.
//
// Example:
//
//	accesslog.New(
//		accesslog.WithFormat(`%t %a "%r" %s %b %Dms`),
//	)
func WithFormat(format string) Option {
	return func(c *config) {
		c.formatStr = format
	}
}

// WithLogger sets the slog.Logger the access lines are emitted to, at info
// level. If no logger is configured, the middleware does no formatting work
// and skips logging entirely.
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	accesslog.New(accesslog.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithExcludePaths skips logging for exact path matches.
// Paths are compared verbatim, with no normalization.
//
// Example:
//
//	accesslog.New(
//		accesslog.WithExcludePaths("/health", "/metrics"),
//	)
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, path := range paths {
			c.excludePaths[path] = true
		}
	}
}

// WithExcludePrefixes skips logging for paths with given prefixes.
//
// Example:
//
//	accesslog.New(
//		accesslog.WithExcludePrefixes("/metrics", "/debug"),
//	)
func WithExcludePrefixes(prefixes ...string) Option {
	return func(c *config) {
		c.excludePrefixes = append(c.excludePrefixes, prefixes...)
	}
}

// WithExcludePatterns skips logging for paths matching the given regular
// expressions. Invalid patterns panic; exclusion rules are static
// configuration and a rule that cannot match anything is a programming
// error, not a runtime condition.
//
// Example:
//
//	accesslog.New(
//		accesslog.WithExcludePatterns(`^/internal/`, `\.ico$`),
//	)
func WithExcludePatterns(patterns ...string) Option {
	return func(c *config) {
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				panic(fmt.Sprintf("accesslog: invalid exclude pattern %q: %v", p, err))
			}
			c.excludePatterns = append(c.excludePatterns, re)
		}
	}
}

// WithCustomField binds fn to every %{label}xi directive in the format.
// Binding happens when New compiles the format, so option order does not
// matter. Registering the same label twice keeps the latest function.
// A label with no matching directive is reported on the logger at debug
// level and otherwise ignored; a directive left without a function logs
// the sentinel "-" and is reported once at warn level when New returns.
//
// Example:
//
//	accesslog.New(
//		accesslog.WithFormat(`%a "%r" %s %{user}xi`),
//		accesslog.WithCustomField("user", func(r *http.Request) string {
//			return userFromToken(r.Header.Get("Authorization"))
//		}),
//	)
func WithCustomField(label string, fn FieldFunc) Option {
	return func(c *config) {
		c.fields[label] = fn
	}
}

// WithEnvFunc sets the lookup used for %{NAME}e directives. The default is
// os.LookupEnv; tests inject a fake to avoid mutating process state.
func WithEnvFunc(env EnvFunc) Option {
	return func(c *config) {
		if env != nil {
			c.env = env
		}
	}
}
