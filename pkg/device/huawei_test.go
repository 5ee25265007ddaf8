/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package device

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHiLink is a minimal router that requires a login before serving data.
type fakeHiLink struct {
	t          *testing.T
	address    string
	loggedIn   atomic.Bool
	logins     atomic.Int32
	rejectPLMN bool
	failLogin  bool
	plmnCalls  atomic.Int32
}

func (f *fakeHiLink) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(pathSessionToken, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><response><SesInfo>SessionID=abc</SesInfo><TokInfo>tok123</TokInfo></response>`)
	})

	mux.HandleFunc(pathLogin, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "tok123", r.Header.Get(headerToken))

		cookie, err := r.Cookie("SessionID")
		if assert.NoError(f.t, err) {
			assert.Equal(f.t, "abc", cookie.Value)
		}

		body, _ := io.ReadAll(r.Body)

		var req loginRequest
		assert.NoError(f.t, xml.Unmarshal(body, &req))

		if f.failLogin || req.Password != encodePassword("admin", "admin", "tok123") {
			fmt.Fprint(w, `<error><code>108006</code><message></message></error>`)
			return
		}

		f.logins.Add(1)
		f.loggedIn.Store(true)
		fmt.Fprint(w, `<response>OK</response>`)
	})

	mux.HandleFunc(pathInformation, func(w http.ResponseWriter, _ *http.Request) {
		if !f.loggedIn.Load() {
			fmt.Fprint(w, `<error><code>100003</code><message></message></error>`)
			return
		}

		fmt.Fprintf(w, `<response><DeviceName>B535-232</DeviceName><WanIPAddress>%s</WanIPAddress></response>`, f.address)
	})

	mux.HandleFunc(pathPLMNList, func(w http.ResponseWriter, _ *http.Request) {
		f.plmnCalls.Add(1)

		if f.rejectPLMN {
			fmt.Fprint(w, `<error><code>112001</code><message></message></error>`)
			return
		}

		fmt.Fprint(w, `<response><Networks></Networks></response>`)
	})

	mux.HandleFunc(pathLogout, func(w http.ResponseWriter, _ *http.Request) {
		f.loggedIn.Store(false)
		fmt.Fprint(w, `<response>OK</response>`)
	})

	return mux
}

func newFakeRouter(t *testing.T, f *fakeHiLink) *HuaweiClient {
	t.Helper()

	f.t = t
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	client, err := NewHuaweiClient(HuaweiConfig{
		Host:     srv.URL,
		Username: "admin",
		Password: "admin",
		Timeout:  5 * time.Second,
	}, logger.NewTestLogger())
	require.NoError(t, err)

	return client
}

func TestEncodePassword(t *testing.T) {
	assert.Equal(t,
		"M2ViNTNkMWVhMmE1NmU3MzEzY2I0ZjU3Zjg2MDQzODQzYWFkNmFmNjZhOGJmYjJhYWJkNGViNWE4YjFkNzM0MQ==",
		encodePassword("admin", "admin", "tok123"))
}

func TestHuaweiSnapshot(t *testing.T) {
	router := &fakeHiLink{address: "100.70.1.2"}
	client := newFakeRouter(t, router)

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "100.70.1.2", snapshot.Address)
	assert.Equal(t, "B535-232", snapshot.DeviceName)
	assert.Equal(t, int32(1), router.logins.Load())

	_, err = client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), router.logins.Load(), "session is reused")
}

func TestHuaweiSnapshotWithoutAddress(t *testing.T) {
	client := newFakeRouter(t, &fakeHiLink{})

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snapshot.HasAddress())
}

func TestHuaweiReLoginAfterSessionExpiry(t *testing.T) {
	router := &fakeHiLink{address: "100.70.1.2"}
	client := newFakeRouter(t, router)

	_, err := client.Snapshot(context.Background())
	require.NoError(t, err)

	router.loggedIn.Store(false)

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100.70.1.2", snapshot.Address)
	assert.Equal(t, int32(2), router.logins.Load())
}

func TestHuaweiLoginFailureIsSessionError(t *testing.T) {
	client := newFakeRouter(t, &fakeHiLink{failLogin: true})

	_, err := client.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSession)

	err = client.Rotate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSession)
	assert.NotErrorIs(t, err, ErrRotationRejected)
}

func TestHuaweiRotate(t *testing.T) {
	router := &fakeHiLink{address: "100.70.1.2"}
	client := newFakeRouter(t, router)

	require.NoError(t, client.Rotate(context.Background()))
	assert.Equal(t, int32(1), router.plmnCalls.Load())
}

func TestHuaweiRotateRejected(t *testing.T) {
	client := newFakeRouter(t, &fakeHiLink{rejectPLMN: true})

	err := client.Rotate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRotationRejected)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 112001, apiErr.Code)
}

func TestHuaweiUnreachable(t *testing.T) {
	client, err := NewHuaweiClient(HuaweiConfig{Host: "127.0.0.1:1", Timeout: time.Second}, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = client.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSession)
}

func TestHuaweiContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client, err := NewHuaweiClient(HuaweiConfig{Host: srv.URL}, logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Snapshot(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHuaweiCloseLogsOut(t *testing.T) {
	router := &fakeHiLink{address: "100.70.1.2"}
	client := newFakeRouter(t, router)

	_, err := client.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.False(t, router.loggedIn.Load())
	assert.NoError(t, client.Close())
}
