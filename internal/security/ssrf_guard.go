// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// ErrResponseTooLarge はレスポンスボディが上限サイズを超えた場合のエラー。
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// SSRFGuardService は外部URLから安全にデータを取得する機能のインターフェース。
// 食材カタログのインポート元URLの取得に使用される。
type SSRFGuardService interface {
	// ValidateURL はURLの安全性をDNS解決前に静的に検証する。
	ValidateURL(rawURL string) error

	// Open はURLを検証した上でGETし、サイズ上限付きのレスポンスボディを返す。
	// 呼び出し側はCloseする必要がある。
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

var allowedSchemes = []string{"http", "https"}

// blockedNetworks はValidateURLで拒否するネットワーク範囲。
// 接続時のIP検証はsafeurlのDialerが行う。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		// クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

type ssrfGuard struct {
	client  *http.Client
	maxSize int64
}

// NewSSRFGuard はSSRFGuardServiceの新しいインスタンスを生成する。
// timeoutはリクエスト全体、maxSizeはレスポンスボディの上限バイト数。
func NewSSRFGuard(timeout time.Duration, maxSize int64) *ssrfGuard {
	return &ssrfGuard{
		client:  NewSafeClient(timeout),
		maxSize: maxSize,
	}
}

// NewSafeClient はプライベートIP・ループバック・リンクローカル宛ての接続を
// DNS解決後に拒否するHTTPクライアントを生成する。
func NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はURLの安全性を事前に検証する。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

// Open はURLを検証した上でGETし、サイズ上限付きのレスポンスボディを返す。
func (g *ssrfGuard) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := g.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status fetching %s: %d", rawURL, resp.StatusCode)
	}
	if g.maxSize > 0 && resp.ContentLength > g.maxSize {
		resp.Body.Close()
		return nil, ErrResponseTooLarge
	}

	if g.maxSize <= 0 {
		return resp.Body, nil
	}
	return &limitedBody{body: resp.Body, remaining: g.maxSize}, nil
}

// limitedBody は上限を超えて読み込もうとした時点でErrResponseTooLargeを返す。
type limitedBody struct {
	body      io.ReadCloser
	remaining int64
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrResponseTooLarge
	}
	// 上限+1バイトまで読み、超過を検出する
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.body.Read(p)
	if int64(n) > l.remaining {
		n = int(l.remaining)
		l.remaining = -1
		return n, ErrResponseTooLarge
	}
	l.remaining -= int64(n)
	return n, err
}

func (l *limitedBody) Close() error {
	return l.body.Close()
}

func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
