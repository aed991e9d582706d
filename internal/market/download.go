package market

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// DefaultPause separates consecutive blob downloads.
const DefaultPause = time.Second

// DownloadAPI is the part of the backend a download talks to.
type DownloadAPI interface {
	RequestDownload(ctx context.Context, slug string, r model.DownloadRequest) (model.DownloadGrant, error)
	FetchBlob(ctx context.Context, target string) (api.Blob, error)
}

// Sink receives downloaded files and returns where each one went.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// DownloadForm is the buyer's download form.
type DownloadForm struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
	Phone string `json:"phone" form:"phone"`
}

func (f DownloadForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&f.Email, is.EmailFormat),
		validation.Field(&f.Phone, validation.Required, forms.Phone),
	)
}

func (f DownloadForm) Request() model.DownloadRequest {
	return model.DownloadRequest{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.TrimSpace(f.Email),
		Phone: strings.TrimSpace(f.Phone),
	}
}

// DownloadResult reports what a download did.
type DownloadResult struct {
	Grant model.DownloadGrant `json:"grant"`
	Saved []string            `json:"saved"`
}

// Downloader submits the download form and, when the product allows it,
// fetches every granted file one at a time with a pause between them.
type Downloader struct {
	api   DownloadAPI
	sink  Sink
	pause time.Duration
	sleep func(ctx context.Context, d time.Duration) error
	log   logging.Logger
}

type DownloaderOption func(*Downloader)

func WithPause(d time.Duration) DownloaderOption {
	return func(dl *Downloader) { dl.pause = d }
}

// WithSleeper replaces the wait between files.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) DownloaderOption {
	return func(dl *Downloader) { dl.sleep = fn }
}

func WithDownloadLogger(l logging.Logger) DownloaderOption {
	return func(dl *Downloader) { dl.log = logging.OrNoOp(l) }
}

func NewDownloader(a DownloadAPI, sink Sink, opts ...DownloaderOption) *Downloader {
	d := &Downloader{api: a, sink: sink, pause: DefaultPause, sleep: sleep, log: logging.NoOp()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download validates f, requests a grant for slug and saves every granted
// file.  When the product has downloads disabled the request is recorded by
// the backend and nothing is fetched.  A failing file stops the sequence;
// files already saved are reported alongside the error.
func (d *Downloader) Download(ctx context.Context, slug string, f DownloadForm) (DownloadResult, error) {
	var res DownloadResult
	if err := forms.Check(f, "DOWNLOAD_FORM_INVALID"); err != nil {
		return res, err
	}
	grant, err := d.api.RequestDownload(ctx, slug, f.Request())
	if err != nil {
		return res, err
	}
	res.Grant = grant
	if !grant.EnableDownload || len(grant.DownloadURLs) == 0 {
		d.log.Info("market: download recorded without files", "slug", slug)
		return res, nil
	}
	for i, u := range grant.DownloadURLs {
		if i > 0 {
			if err := d.sleep(ctx, d.pause); err != nil {
				return res, err
			}
		}
		blob, err := d.api.FetchBlob(ctx, u)
		if err != nil {
			return res, fmt.Errorf("market: fetch %d of %d: %w", i+1, len(grant.DownloadURLs), err)
		}
		where, err := d.sink.Save(ctx, FileName(blob, slug, i), blob.Data)
		if err != nil {
			return res, fmt.Errorf("market: save %d of %d: %w", i+1, len(grant.DownloadURLs), err)
		}
		d.log.Debug("market: file saved", "slug", slug, "path", where)
		res.Saved = append(res.Saved, where)
	}
	return res, nil
}

// FileName picks a safe local name for blob: the server's name when given,
// otherwise slug plus index, with an extension sniffed from the content
// when the name has none.
func FileName(blob api.Blob, slug string, i int) string {
	name := path.Base(strings.ReplaceAll(blob.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = slug + "-" + strconv.Itoa(i+1)
	}
	if filepath.Ext(name) == "" && len(blob.Data) > 0 {
		name += mimetype.Detect(blob.Data).Extension()
	}
	return name
}

// DirSink writes files into a directory, never overwriting an existing file.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = base + "-" + strconv.Itoa(n) + ext
		}
		p := filepath.Join(s.Dir, candidate)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(p)
			return "", err
		}
		return p, f.Close()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
