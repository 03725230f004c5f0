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
	"strings"
)

// Headers consulted for the proxy-aware %{r}a directive, in order.
const (
	headerForwarded = "Forwarded"
	headerXFF       = "X-Forwarded-For"
	headerXRealIP   = "X-Real-IP"
)

// peerAddr returns the transport peer for %a.
func peerAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return sentinel
	}
	return r.RemoteAddr
}

// realIP returns the proxy-aware client address for %{r}a: the first hop of
// the RFC 7239 Forwarded header, then X-Forwarded-For, then X-Real-IP, and
// finally the transport peer when no forwarding header is present.
func realIP(r *http.Request) string {
	if v := r.Header.Get(headerForwarded); v != "" {
		if addr := forwardedFor(v); addr != "" {
			return addr
		}
	}
	if v := r.Header.Get(headerXFF); v != "" {
		if addr, _, _ := strings.Cut(v, ","); strings.TrimSpace(addr) != "" {
			return strings.TrimSpace(addr)
		}
	}
	if v := r.Header.Get(headerXRealIP); v != "" {
		return v
	}
	return peerAddr(r)
}

// forwardedFor extracts the for= value of the first element of an RFC 7239
// Forwarded header, e.g. "192.0.2.60" from
// "for=192.0.2.60;proto=http;by=203.0.113.43".
func forwardedFor(v string) string {
	first, _, _ := strings.Cut(v, ",")
	for _, param := range strings.Split(first, ";") {
		name, val, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(name, "for") {
			continue
		}
		return strings.Trim(val, `"`)
	}
	return ""
}
