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

// Demonstrates the accesslog middleware on a chi router: custom format,
// excluded health endpoint, and a custom field fed from a request header.
//
// Run with:
//
//	go run main.go
//
// Then:
//
//	curl localhost:8080/users/42
//	curl -H 'X-User: alice' localhost:8080/users/42
//	curl localhost:8080/health   # not logged
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"rivaas.dev/middleware/accesslog"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	mw := accesslog.New(
		accesslog.WithLogger(logger),
		accesslog.WithFormat(`%t %{r}a "%r" %s %b %{user}xi %Dms`),
		accesslog.WithExcludePaths("/health"),
		accesslog.WithExcludePatterns(`\.ico$`),
		accesslog.WithCustomField("user", func(r *http.Request) string {
			if u := r.Header.Get("X-User"); u != "" {
				return u
			}
			return "-"
		}),
	)

	r := chi.NewRouter()
	r.Use(mw)

	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		//nolint:errcheck // Example handler
		w.Write([]byte("user " + chi.URLParam(r, "id") + "\n"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info("listening", "addr", ":8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
