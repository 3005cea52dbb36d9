package saucerest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// UploadResult is the storage acknowledgement for an upload.
type UploadResult struct {
	Username string `json:"username,omitempty"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
	MD5      string `json:"md5"`
	ETag     string `json:"etag,omitempty"`
}

type uploadOptions struct {
	overwrite *bool
}

// UploadOption customizes Upload.
type UploadOption func(*uploadOptions)

// WithOverwrite sends overwrite=true|false. Without it the flag is omitted
// and the server default applies.
func WithOverwrite(overwrite bool) UploadOption {
	return func(o *uploadOptions) { o.overwrite = &overwrite }
}

// Upload streams r into the account's temporary storage under name. The
// upload only succeeds when the server acknowledges it with a checksum.
func (c *Client) Upload(ctx context.Context, r io.Reader, name string, opts ...UploadOption) (UploadResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return UploadResult{}, errors.New("upload: file name is required")
	}
	var o uploadOptions
	for _, opt := range opts {
		opt(&o)
	}

	ep := c.endpoints.Upload(name, o.overwrite, r)
	req, err := c.BuildConnection(c.URLFor(ep), ep.Method)
	if err != nil {
		return UploadResult{}, err
	}
	res, err := ExecuteJSON[UploadResult](ctx, c, req, ep.Body)
	if err != nil {
		return UploadResult{}, err
	}
	if strings.TrimSpace(res.MD5) == "" {
		return UploadResult{}, &DecodeError{Method: req.Method, Path: requestPath(req.URL), Err: errors.New("acknowledgement has no md5")}
	}
	return res, nil
}

// UploadFile uploads r as name and always sends the overwrite flag.
func (c *Client) UploadFile(ctx context.Context, r io.Reader, name string, overwrite bool) (UploadResult, error) {
	return c.Upload(ctx, r, name, WithOverwrite(overwrite))
}

// UploadLocalFile uploads the file at path under its base name.
func (c *Client) UploadLocalFile(ctx context.Context, path string, opts ...UploadOption) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	return c.Upload(ctx, f, filepath.Base(path), opts...)
}

// DownloadTo streams the resource at sourcePath (below the base URL, query
// allowed) into w and returns the number of bytes copied.
func (c *Client) DownloadTo(ctx context.Context, sourcePath string, w io.Writer) (int64, error) {
	var n int64
	err := c.download(ctx, sourcePath, func() (io.Writer, func() error, error) {
		return w, func() error { return nil }, nil
	}, &n)
	return n, err
}

// Download streams the resource at sourcePath into the local file dest.
// dest is only created once the server has answered 2xx. If the copy fails
// part way a partial file may remain; callers must validate or remove it.
func (c *Client) Download(ctx context.Context, sourcePath, dest string) error {
	var n int64
	return c.download(ctx, sourcePath, func() (io.Writer, func() error, error) {
		f, err := os.Create(dest)
		if err != nil {
			return nil, nil, fmt.Errorf("create download destination: %w", err)
		}
		return f, f.Close, nil
	}, &n)
}

// download opens the destination lazily through open and guarantees both the
// destination and the response body are closed.
func (c *Client) download(ctx context.Context, sourcePath string, open func() (io.Writer, func() error, error), copied *int64) error {
	ep, err := sourceEndpoint(sourcePath)
	if err != nil {
		return err
	}
	req, err := c.BuildConnection(c.URLFor(ep), ep.Method)
	if err != nil {
		return err
	}

	return c.roundTrip(ctx, req, nil, func(body io.Reader) (err error) {
		w, closeDest, err := open()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeDest(); cerr != nil && err == nil {
				err = fmt.Errorf("close download destination: %w", cerr)
			}
		}()

		src := &readTracker{r: body}
		n, err := io.Copy(w, src)
		*copied = n
		if err == nil {
			return nil
		}
		if src.err != nil {
			return &TransportError{Method: req.Method, Path: requestPath(req.URL), Err: src.err}
		}
		return fmt.Errorf("write download destination: %w", err)
	})
}

// sourceEndpoint turns "/rest/v1/x?y=z" into a GET Endpoint.
func sourceEndpoint(sourcePath string) (Endpoint, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return Endpoint{}, errors.New("download: source path is required")
	}
	if !strings.HasPrefix(sourcePath, "/") {
		sourcePath = "/" + sourcePath
	}
	ep := Endpoint{Method: http.MethodGet, Path: sourcePath}
	if path, rawQuery, ok := strings.Cut(sourcePath, "?"); ok {
		ep.Path = path
		for _, pair := range strings.Split(rawQuery, "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			ep.Query = ep.Query.With(unescapeQuery(k), unescapeQuery(v))
		}
	}
	return ep, nil
}

// readTracker remembers read failures so they can be told apart from write failures.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}

// AssetDestination returns the file a job asset download writes to: dest
// itself, or <jobID><ext> inside dest when dest is a directory.
func AssetDestination(dest, jobID, ext string) string {
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return filepath.Join(dest, jobID+ext)
	}
	return dest
}
