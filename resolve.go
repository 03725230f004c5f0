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
	"net/http"
	"strconv"
	"sync"
	"time"
)

// sentinel is written whenever a value is absent or unresolvable: a missing
// header, an unset environment variable, an unbound custom field.
const sentinel = "-"

// requestTimeLayout is the %t timestamp layout.
const requestTimeLayout = "2006-01-02T15:04:05"

// EnvFunc looks up an environment variable for the %{NAME}e directive.
// It has the shape of os.LookupEnv.
type EnvFunc func(name string) (string, bool)

// resolveRequest collapses every token whose value is available from the
// request alone. Values are snapshotted now because the handler may consume
// or mutate the request; nothing here holds a reference to r afterwards.
func (f format) resolveRequest(now time.Time, r *http.Request, env EnvFunc) {
	for i := range f {
		t := &f[i]
		switch t.kind {
		case kindRequestLine:
			t.collapse(requestLine(r))
		case kindPath:
			t.collapse(r.URL.Path)
		case kindRequestTime:
			t.collapse(now.UTC().Format(requestTimeLayout))
		case kindRemoteAddr:
			t.collapse(peerAddr(r))
		case kindRealIP:
			t.collapse(realIP(r))
		case kindRequestHeader:
			t.collapse(headerOr(r.Header, t.arg))
		case kindEnv:
			if v, ok := env(t.arg); ok {
				t.collapse(v)
			} else {
				t.collapse(sentinel)
			}
		case kindCustom:
			if t.fn != nil {
				t.collapse(t.fn(r))
			} else {
				t.collapse(sentinel)
			}
		}
	}
}

// resolveResponse collapses the tokens that depend on response data. Response
// headers are snapshotted here, not at render time, so later mutation of the
// header map cannot leak into the log line.
func (f format) resolveResponse(status int, header http.Header) {
	for i := range f {
		t := &f[i]
		if t.resolved {
			continue
		}
		switch t.kind {
		case kindStatus:
			t.collapse(strconv.Itoa(status))
		case kindResponseHeader:
			t.collapse(headerOr(header, t.arg))
		}
	}
}

// render writes the log line: collapsed tokens emit their stored value,
// the size token the final byte count, and the two elapsed-time tokens the
// wall-clock time from start to this call. Tokens that were never collapsed
// write nothing. Rendering cannot fail.
func (f format) render(b *bytes.Buffer, size int64, start time.Time) {
	for i := range f {
		t := &f[i]
		if t.resolved {
			b.WriteString(t.text)
			continue
		}
		switch t.kind {
		case kindPercent:
			b.WriteByte('%')
		case kindSize:
			b.WriteString(strconv.FormatInt(size, 10))
		case kindSeconds:
			appendFixed(b, time.Since(start).Seconds())
		case kindMillis:
			appendFixed(b, float64(time.Since(start).Nanoseconds())/1e6)
		}
	}
}

func (t *token) collapse(v string) {
	t.text = v
	t.resolved = true
}

// appendFixed writes v with 6 decimal places.
func appendFixed(b *bytes.Buffer, v float64) {
	b.Write(strconv.AppendFloat(b.AvailableBuffer(), v, 'f', 6, 64))
}

// requestLine reconstructs the first line of the request,
// e.g. "GET /test?limit=5 HTTP/1.1".
func requestLine(r *http.Request) string {
	var b bytes.Buffer
	b.WriteString(r.Method)
	b.WriteByte(' ')
	b.WriteString(r.URL.Path)
	if r.URL.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(r.URL.RawQuery)
	}
	b.WriteByte(' ')
	b.WriteString(r.Proto)
	return b.String()
}

func headerOr(h http.Header, name string) string {
	if v := h.Get(name); v != "" {
		return v
	}
	return sentinel
}

// bufSize is the initial capacity of pooled render buffers.
const bufSize = 1024

// bufPool provides reusable render buffers so a log line costs no
// allocation on the steady-state path.
var bufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, bufSize))
	},
}
