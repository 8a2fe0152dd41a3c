package ingest

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPMirror fetches feed documents from an anonymous FTP mirror. The surge
// model publisher exposes one alongside its HTTP host; when configured it is
// preferred for the combined water level document so a stale CDN cache
// cannot mask a fresh model run.
type FTPMirror struct {
	host string
	dir  string
}

// NewFTPMirror returns a mirror client for host (host:port) rooted at dir.
func NewFTPMirror(host, dir string) *FTPMirror {
	return &FTPMirror{host: host, dir: dir}
}

// Fetch retrieves one document from the mirror. A fresh connection is dialed
// per fetch; the surge cadence is hours apart, so keeping one open buys
// nothing.
func (m *FTPMirror) Fetch(name string) ([]byte, error) {
	conn, err := ftp.Dial(m.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(path.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", name, err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
