package boundary

import (
	"archive/zip"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SyncArchive downloads a zipped boundary shapefile bundle and extracts it
// into destDir, which a ShapefileSource can then serve from. Both http(s)
// and ftp URLs are accepted; several public GIS mirrors still only speak
// FTP. Returns the extracted file names.
func SyncArchive(ctx context.Context, rawURL, destDir string) ([]string, error) {
	log := zap.L().With(
		zap.String("component", "boundary.mirror"),
		zap.String("url", rawURL),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "boundary: create mirror dir")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: parse archive url")
	}

	zipName := filepath.Base(u.Path)
	if zipName == "" || zipName == "." || zipName == "/" {
		zipName = "boundaries.zip"
	}
	zipPath := filepath.Join(destDir, zipName)

	if info, statErr := os.Stat(zipPath); statErr == nil && info.Size() > 0 {
		log.Debug("archive already downloaded", zap.String("path", zipPath))
	} else {
		log.Info("downloading boundary archive")
		switch u.Scheme {
		case "http", "https":
			err = downloadHTTP(ctx, rawURL, zipPath)
		case "ftp":
			err = downloadFTP(ctx, u, zipPath)
		default:
			err = eris.Errorf("boundary: unsupported archive scheme %q", u.Scheme)
		}
		if err != nil {
			return nil, err
		}
	}

	names, err := extractZIP(zipPath, destDir)
	if err != nil {
		return nil, err
	}
	log.Info("boundary archive extracted", zap.Int("files", len(names)))
	return names, nil
}

func downloadHTTP(ctx context.Context, rawURL, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "boundary: build archive request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "boundary: download archive")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("boundary: archive download returned status %d", resp.StatusCode)
	}

	return writeFile(dest, resp.Body)
}

func downloadFTP(ctx context.Context, u *url.URL, dest string) error {
	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	if u.Path == "" {
		return eris.New("boundary: empty path in ftp url")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(time.Minute), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "boundary: ftp dial")
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return eris.Wrap(err, "boundary: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return eris.Wrap(err, "boundary: ftp retrieve")
	}
	defer func() { _ = resp.Close() }()

	return writeFile(dest, resp)
}

func writeFile(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "boundary: create archive file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, r); err != nil {
		return eris.Wrap(err, "boundary: write archive file")
	}
	return nil
}

// extractZIP flattens the archive into destDir and returns the extracted
// file names. Entry paths are flattened to their base name, which also
// neutralizes hostile ../ entries.
func extractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: open archive")
	}
	defer r.Close() //nolint:errcheck

	var names []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		if name == "." || strings.HasPrefix(name, "..") {
			continue
		}
		destPath := filepath.Join(destDir, name)

		rc, err := f.Open()
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: open archive entry %s", f.Name)
		}
		if err := writeFile(destPath, rc); err != nil {
			_ = rc.Close()
			return nil, err
		}
		_ = rc.Close()
		names = append(names, name)
	}
	return names, nil
}
