package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService は企業が登録するWebhook URLへの送信を安全に行うためのインターフェース。
// 設定登録時の検証とダイジェスト送信時のクライアント生成で使用される。
type SSRFGuardService interface {
	// NewSafeClient は内部ネットワーク宛ての接続を拒否するHTTPクライアントを生成する。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はWebhook URLを静的に検証し、危険なURLの場合はエラーを返す。
	ValidateURL(rawURL string) error
}

// webhookSchemes と webhookPorts はWebhook送信先として許可するスキームとポート。
var (
	webhookSchemes = []string{"http", "https"}
	webhookPorts   = []int{80, 443}
)

// deniedPrefixes はWebhook送信先として拒否するアドレス範囲。
// クラウドメタデータ (169.254.169.254) はリンクローカルに含まれる。
var deniedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// deniedHosts は名前解決前に拒否するホスト名。サブドメインも対象。
var deniedHosts = []string{
	"localhost",
	"metadata.google.internal",
}

var errEmptyWebhookURL = errors.New("empty URL")

// SSRFGuard はsafeurlを用いたSSRFGuardServiceの実装。
type SSRFGuard struct {
	schemes []string
	ports   []int
}

// NewSSRFGuard はhttp/httpsの80/443番ポートのみを許可するSSRFGuardを生成する。
func NewSSRFGuard() *SSRFGuard {
	return &SSRFGuard{schemes: webhookSchemes, ports: webhookPorts}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを返す。
// 接続時にDNS解決後のIPアドレスを検証するため、登録後に名前解決先を
// 内部アドレスへ変えられた場合も送信されない。
func (g *SSRFGuard) NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(g.schemes...).
		SetAllowedPorts(g.ports...).
		Build()

	return safeurl.Client(cfg).Client
}

// ValidateURL はWebhook URLを名前解決せずに検証する。
// 設定の保存時に呼ばれ、認証情報を含むURLも拒否する。
func (g *SSRFGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errEmptyWebhookURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if !slices.Contains(g.schemes, scheme) {
		return fmt.Errorf("disallowed scheme %q", u.Scheme)
	}
	if u.User != nil {
		return errors.New("credentials in URL are not allowed")
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("no host in URL %q", rawURL)
	}

	if err := g.checkPort(scheme, u.Port()); err != nil {
		return err
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if deniedAddr(addr) {
			return fmt.Errorf("address %s is not reachable from webhooks", addr)
		}
		return nil
	}

	if deniedHost(host) {
		return fmt.Errorf("host %s is not reachable from webhooks", host)
	}
	return nil
}

func (g *SSRFGuard) checkPort(scheme, port string) error {
	if port == "" {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	if !slices.Contains(g.ports, n) {
		return fmt.Errorf("port %d is not allowed for %s webhooks", n, scheme)
	}
	return nil
}

func deniedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range deniedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func deniedHost(host string) bool {
	h := strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range deniedHosts {
		if h == d || strings.HasSuffix(h, "."+d) {
			return true
		}
	}
	return false
}
