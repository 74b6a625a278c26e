package yahoo

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/okutan/trackfolio"
)

// diskCache caches HTTP responses on disk with a key that embeds the current
// day, so the cache expires daily: one history fetch per ticker per day is
// enough for a daily-close series.
type diskCache struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := fmt.Sprintf("%s %s %s", trackfolio.Today(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	if resp, err := c.get(key, req); err == nil {
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug("history fetch",
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.String("status", resp.Status))
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.log.Warn("cache write failed", zap.Error(err))
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(os.TempDir(), key))
	if err != nil {
		return err
	}
	_, err = f.Write(content)
	f.Close()
	return err
}

// cached returns a client whose responses expire daily.
func cached(log *zap.Logger) *http.Client {
	return &http.Client{Transport: &diskCache{base: http.DefaultTransport, log: log}}
}
