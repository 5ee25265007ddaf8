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
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/carverauto/wanwatch/pkg/version"
	"golang.org/x/net/publicsuffix"
)

const (
	pathSessionToken = "/api/webserver/SesTokInfo"
	pathLogin        = "/api/user/login"
	pathLogout       = "/api/user/logout"
	pathInformation  = "/api/device/information"
	pathPLMNList     = "/api/net/plmn-list"

	headerToken      = "__RequestVerificationToken"
	passwordTypeSHA  = "4"
	maxResponseBytes = 1 << 20
)

// HuaweiConfig holds what is needed to open a HiLink session.
type HuaweiConfig struct {
	Host     string
	Username string
	Password string
	Timeout  time.Duration
}

// HuaweiClient drives a Huawei LTE router through its HiLink web API. Logins
// are lazy and repeated once when the router reports an expired session.
type HuaweiClient struct {
	cfg     HuaweiConfig
	baseURL *url.URL
	http    *http.Client
	logger  logger.Logger

	mu       sync.Mutex
	loggedIn bool
}

type sessionTokenResponse struct {
	XMLName xml.Name `xml:"response"`
	SesInfo string   `xml:"SesInfo"`
	TokInfo string   `xml:"TokInfo"`
}

type loginRequest struct {
	XMLName      xml.Name `xml:"request"`
	Username     string   `xml:"Username"`
	Password     string   `xml:"Password"`
	PasswordType string   `xml:"password_type"`
}

type logoutRequest struct {
	XMLName xml.Name `xml:"request"`
	Logout  int      `xml:"Logout"`
}

type informationResponse struct {
	XMLName      xml.Name `xml:"response"`
	DeviceName   string   `xml:"DeviceName"`
	WanIPAddress string   `xml:"WanIPAddress"`
}

type errorResponse struct {
	XMLName xml.Name `xml:"error"`
	Code    int      `xml:"code"`
	Message string   `xml:"message"`
}

// NewHuaweiClient prepares a client; no request is made until first use.
func NewHuaweiClient(cfg HuaweiConfig, log logger.Logger) (*HuaweiClient, error) {
	host := cfg.Host
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	baseURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid router address %q: %w", ErrSession, cfg.Host, err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSession, err)
	}

	return &HuaweiClient{
		cfg:     cfg,
		baseURL: baseURL,
		http:    &http.Client{Jar: jar, Timeout: cfg.Timeout},
		logger:  log,
	}, nil
}

// Snapshot implements Client.
func (h *HuaweiClient) Snapshot(ctx context.Context) (models.DeviceSnapshot, error) {
	var info informationResponse

	if err := h.getWithLogin(ctx, pathInformation, &info); err != nil {
		return models.DeviceSnapshot{}, err
	}

	return models.DeviceSnapshot{
		Address:    strings.TrimSpace(info.WanIPAddress),
		DeviceName: strings.TrimSpace(info.DeviceName),
	}, nil
}

// Rotate implements Client. Requesting the PLMN list makes the modem scan
// networks and re-register, which in practice hands out a new address.
func (h *HuaweiClient) Rotate(ctx context.Context) error {
	err := h.getWithLogin(ctx, pathPLMNList, nil)

	var apiErr *APIError
	if err != nil && !errors.Is(err, errLoginFailed) && errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrRotationRejected, apiErr)
	}

	return err
}

// Close implements Client by logging out when a session is open.
func (h *HuaweiClient) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loggedIn {
		return nil
	}

	h.loggedIn = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := h.sessionToken(ctx)
	if err != nil {
		return err
	}

	return h.post(ctx, pathLogout, token, logoutRequest{Logout: 1}, nil)
}

// getWithLogin performs a GET, logging in first when needed and once more if
// the router reports that the session expired.
func (h *HuaweiClient) getWithLogin(ctx context.Context, path string, dst interface{}) error {
	if err := h.ensureLogin(ctx, false); err != nil {
		return err
	}

	err := h.get(ctx, path, dst)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.sessionExpired() {
		h.logger.Debug().Int("code", apiErr.Code).Msg("HiLink session expired, logging in again")

		if err := h.ensureLogin(ctx, true); err != nil {
			return err
		}

		err = h.get(ctx, path, dst)
	}

	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrSession, apiErr)
	}

	return err
}

func (h *HuaweiClient) ensureLogin(ctx context.Context, force bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.loggedIn && !force {
		return nil
	}

	token, err := h.sessionToken(ctx)
	if err != nil {
		return err
	}

	// Routers with login disabled only need the session cookie.
	if h.cfg.Username == "" {
		h.loggedIn = true

		return nil
	}

	req := loginRequest{
		Username:     h.cfg.Username,
		Password:     encodePassword(h.cfg.Username, h.cfg.Password, token),
		PasswordType: passwordTypeSHA,
	}

	if err := h.post(ctx, pathLogin, token, req, nil); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrSession, errLoginFailed, err)
	}

	h.loggedIn = true

	h.logger.Debug().Str("router", h.baseURL.Host).Msg("HiLink login succeeded")

	return nil
}

// sessionToken fetches a fresh SessionID cookie and CSRF token.
func (h *HuaweiClient) sessionToken(ctx context.Context) (string, error) {
	var tok sessionTokenResponse

	if err := h.get(ctx, pathSessionToken, &tok); err != nil {
		return "", err
	}

	if tok.TokInfo == "" {
		return "", fmt.Errorf("%w: %w", ErrSession, errNoSessionToken)
	}

	if name, value, ok := strings.Cut(tok.SesInfo, "="); ok {
		h.http.Jar.SetCookies(h.baseURL, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	}

	return tok.TokInfo, nil
}

func (h *HuaweiClient) get(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL.JoinPath(path).String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSession, err)
	}

	return h.do(req, dst)
}

func (h *HuaweiClient) post(ctx context.Context, path, token string, body, dst interface{}) error {
	payload, err := xml.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", ErrSession, err)
	}

	payload = append([]byte(xml.Header), payload...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL.JoinPath(path).String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSession, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set(headerToken, token)

	return h.do(req, dst)
}

// do executes req and decodes either the <response> document into dst or
// the <error> document into an *APIError.
func (h *HuaweiClient) do(req *http.Request, dst interface{}) error {
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := h.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrSession, ctxErr)
		}

		return fmt.Errorf("%w: %w", ErrSession, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			h.logger.Debug().Err(err).Msg("Failed to close HiLink response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w: %d", ErrSession, errUnexpectedStatusCode, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrSession, err)
	}

	if bytes.Contains(data, []byte("<error>")) {
		var apiErr errorResponse
		if err := xml.Unmarshal(data, &apiErr); err != nil {
			return fmt.Errorf("%w: decode error response: %w", ErrSession, err)
		}

		return &APIError{Code: apiErr.Code, Message: apiErr.Message}
	}

	if dst == nil {
		return nil
	}

	if err := xml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrSession, err)
	}

	return nil
}

// encodePassword implements HiLink password_type 4:
// b64(sha256hex(user + b64(sha256hex(password)) + token)).
func encodePassword(username, password, token string) string {
	inner := sha256.Sum256([]byte(password))
	innerB64 := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(inner[:])))

	outer := sha256.Sum256([]byte(username + innerB64 + token))

	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(outer[:])))
}

var _ Client = (*HuaweiClient)(nil)
