package fetcher

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Remote downloads lead export files from HTTP(S) and FTP URLs into a local
// directory so they can be parsed with ReadTable.
type Remote struct {
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewRemote creates a Remote fetcher.
func NewRemote() *Remote {
	return &Remote{
		http:    &http.Client{Timeout: 2 * time.Minute},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retry:   resilience.DefaultRetryConfig(),
		timeout: 30 * time.Second,
	}
}

// Fetch downloads rawURL into destDir and returns the local file path. The
// file keeps the URL's base name.
func (r *Remote) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: parse url %s", rawURL)
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", eris.Errorf("fetcher: url %s has no file name", rawURL)
	}
	dest := filepath.Join(destDir, name)

	switch u.Scheme {
	case "http", "https":
		err = r.fetchHTTP(ctx, rawURL, dest)
	case "ftp":
		err = r.fetchFTP(ctx, u, dest)
	default:
		return "", eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return "", err
	}

	zap.L().Info("fetcher: downloaded export",
		zap.String("url", rawURL),
		zap.String("path", dest),
	)
	return dest, nil
}

func (r *Remote) fetchHTTP(ctx context.Context, rawURL, dest string) error {
	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger("fetcher", "download")
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return eris.Wrap(err, "fetcher: create request")
		}

		resp, err := r.http.Do(req)
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(eris.Errorf("fetcher: status %d", resp.StatusCode), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("fetcher: status %d for %s", resp.StatusCode, rawURL)
		}

		return writeFile(dest, resp.Body)
	})
}

func (r *Remote) fetchFTP(ctx context.Context, u *url.URL, dest string) error {
	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(r.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrapf(err, "fetcher: ftp dial %s", host)
	}
	defer conn.Quit() //nolint:errcheck

	user, pass := "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return eris.Wrap(err, "fetcher: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return eris.Wrapf(err, "fetcher: ftp retrieve %s", u.Path)
	}
	defer resp.Close() //nolint:errcheck

	return writeFile(dest, resp)
}

func writeFile(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "fetcher: create %s", dest)
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, r); err != nil {
		return eris.Wrapf(err, "fetcher: write %s", dest)
	}
	return nil
}
