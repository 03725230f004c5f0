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

// This file contains integration tests that run the middleware in a real
// net/http server, covering streamed responses and clients that abandon the
// response mid-stream.

//go:build integration

package accesslog_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/middleware/accesslog"
)

// captureHandler collects rendered access lines.
type captureHandler struct {
	mu    sync.Mutex
	lines []string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, r.Message)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

var _ = Describe("AccessLog over a live server", func() {
	var (
		capture *captureHandler
		server  *http.Server
		addr    string
	)

	startServer := func(mw accesslog.Middleware, inner http.Handler) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		addr = listener.Addr().String()
		server = &http.Server{Handler: mw(inner)}
		go func() {
			//nolint:errcheck // Shutdown error is expected at teardown
			server.Serve(listener)
		}()
	}

	BeforeEach(func() {
		capture = &captureHandler{}
	})

	AfterEach(func() {
		if server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			Expect(server.Shutdown(ctx)).To(Succeed())
			server = nil
		}
	})

	It("logs one line per streamed response with the full byte count", func() {
		mw := accesslog.New(
			accesslog.WithLogger(slog.New(capture)),
			accesslog.WithFormat("%s %b"),
		)
		startServer(mw, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			f := w.(http.Flusher)
			for i := 0; i < 4; i++ {
				fmt.Fprint(w, strings.Repeat("x", 256))
				f.Flush()
			}
		}))

		resp, err := http.Get("http://" + addr + "/stream")
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Body.Close()).To(Succeed())
		Expect(body).To(HaveLen(1024))

		Eventually(capture.snapshot).Should(ConsistOf("200 1024"))
	})

	It("still logs when the client abandons the response", func() {
		mw := accesslog.New(
			accesslog.WithLogger(slog.New(capture)),
			accesslog.WithFormat("%s"),
		)
		blocked := make(chan struct{})
		startServer(mw, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-blocked:
			}
		}))

		ctx, cancel := context.WithCancel(context.Background())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/slow", nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		cancel()
		//nolint:errcheck // The aborted read error is the point
		io.ReadAll(resp.Body)
		resp.Body.Close()

		Eventually(capture.snapshot).Should(HaveLen(1))
		close(blocked)
	})

	It("keeps excluded paths silent end to end", func() {
		mw := accesslog.New(
			accesslog.WithLogger(slog.New(capture)),
			accesslog.WithExcludePaths("/health"),
		)
		startServer(mw, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "ok")
		}))

		resp, err := http.Get("http://" + addr + "/health")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Body.Close()).To(Succeed())

		Consistently(capture.snapshot, 200*time.Millisecond).Should(BeEmpty())
	})
})
