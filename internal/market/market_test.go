package market

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/model"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fakeStore struct {
	grant    model.DownloadGrant
	blobs    map[string]api.Blob
	fetchErr error
	events   []string
	requests []model.DownloadRequest
}

func (f *fakeStore) RequestDownload(_ context.Context, slug string, r model.DownloadRequest) (model.DownloadGrant, error) {
	f.events = append(f.events, "request:"+slug)
	f.requests = append(f.requests, r)
	return f.grant, nil
}

func (f *fakeStore) FetchBlob(_ context.Context, target string) (api.Blob, error) {
	f.events = append(f.events, "fetch:"+target)
	if f.fetchErr != nil {
		return api.Blob{}, f.fetchErr
	}
	return f.blobs[target], nil
}

type memSink struct {
	files map[string][]byte
	log   *[]string
}

func (s *memSink) Save(_ context.Context, name string, data []byte) (string, error) {
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = data
	*s.log = append(*s.log, "save:"+name)
	return "mem://" + name, nil
}

var buyer = DownloadForm{Name: "Rahim", Email: "rahim@example.com", Phone: "01712345678"}

func TestTwoSequentialDownloadsWithPause(t *testing.T) {
	store := &fakeStore{
		grant: model.DownloadGrant{EnableDownload: true, DownloadURLs: []string{"/files/a", "/files/b"}},
		blobs: map[string]api.Blob{
			"/files/a": {Data: pngHeader, Filename: "poster"},
			"/files/b": {Data: []byte("%PDF-1.4\n"), Filename: "guide.pdf"},
		},
	}
	sink := &memSink{log: &store.events}
	var pauses []time.Duration
	d := NewDownloader(store, sink,
		WithPause(1500*time.Millisecond),
		WithSleeper(func(_ context.Context, p time.Duration) error {
			pauses = append(pauses, p)
			store.events = append(store.events, "pause")
			return nil
		}))

	res, err := d.Download(context.Background(), "banner", buyer)
	if err != nil {
		t.Fatal(err)
	}
	want := "request:banner,fetch:/files/a,save:poster.png,pause,fetch:/files/b,save:guide.pdf"
	if got := strings.Join(store.events, ","); got != want {
		t.Fatalf("events = %s", got)
	}
	if len(pauses) != 1 || pauses[0] != 1500*time.Millisecond {
		t.Fatalf("pauses = %v", pauses)
	}
	if len(res.Saved) != 2 || res.Saved[1] != "mem://guide.pdf" {
		t.Fatalf("saved = %v", res.Saved)
	}
}

func TestDownloadDisabledFetchesNothing(t *testing.T) {
	store := &fakeStore{grant: model.DownloadGrant{EnableDownload: false, DownloadURLs: []string{"/files/a"}, Message: "অনুরোধ গ্রহণ করা হয়েছে"}}
	d := NewDownloader(store, &memSink{log: &store.events})
	res, err := d.Download(context.Background(), "banner", buyer)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.events) != 1 || len(res.Saved) != 0 || res.Grant.Message == "" {
		t.Fatalf("events = %v result = %+v", store.events, res)
	}
}

func TestDownloadFormRejectedLocally(t *testing.T) {
	store := &fakeStore{}
	d := NewDownloader(store, &memSink{log: &store.events})
	_, err := d.Download(context.Background(), "banner", DownloadForm{Name: "R", Phone: "12345"})
	if !forms.IsInvalid(err) {
		t.Fatalf("err = %v", err)
	}
	if len(store.requests) != 0 {
		t.Fatal("backend called")
	}
}

func TestDownloadStopsAtFailingFile(t *testing.T) {
	store := &fakeStore{
		grant:    model.DownloadGrant{EnableDownload: true, DownloadURLs: []string{"/a", "/b"}},
		fetchErr: errors.New("gone"),
	}
	d := NewDownloader(store, &memSink{log: &store.events}, WithPause(0))
	if _, err := d.Download(context.Background(), "x", buyer); err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Join(store.events, ","); got != "request:x,fetch:/a" {
		t.Fatalf("events = %s", got)
	}
}

func TestDirSinkNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := DirSink{Dir: filepath.Join(dir, "out")}
	first, err := s.Save(context.Background(), "poster.png", []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save(context.Background(), "poster.png", []byte("two"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(second) != "poster-1.png" {
		t.Fatalf("second = %s", second)
	}
	if b, _ := os.ReadFile(first); string(b) != "one" {
		t.Fatalf("first overwritten: %q", b)
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		blob api.Blob
		want string
	}{
		{api.Blob{Filename: "../../etc/passwd"}, "passwd"},
		{api.Blob{Data: pngHeader}, "slug-3.png"},
		{api.Blob{Filename: "kit.zip", Data: pngHeader}, "kit.zip"},
	}
	for _, tc := range cases {
		if got := FileName(tc.blob, "slug", 2); got != tc.want {
			t.Errorf("FileName(%+v) = %q, want %q", tc.blob.Filename, got, tc.want)
		}
	}
}

func TestCard(t *testing.T) {
	c := Card(model.Product{
		Slug:           "flag",
		Price:          1200,
		DownloadsCount: 12345,
		PreviewImages:  []model.PreviewImage{{URL: "products/flag.png"}},
		Files:          []model.ProductFile{{Name: "flag.ai", Size: 1500000}},
	}, "https://cdn.example.com")
	if c.Price != "৳ 1,200" || c.Downloads != "12,345" || c.Files[0].Size != "1.5 MB" {
		t.Fatalf("card = %+v", c)
	}
	if c.Cover != "https://cdn.example.com/storage/products/flag.png" || c.Href != "/market/products/flag" {
		t.Fatalf("card = %+v", c)
	}
	if Price(model.Product{IsFree: true, Price: 50}) != "বিনামূল্যে" {
		t.Fatal("free product priced")
	}
}

type fakeCatalog struct{ catErr error }

func (fakeCatalog) Products(context.Context, api.ProductQuery) (model.Page[model.Product], error) {
	return model.Page[model.Product]{Items: []model.Product{{Slug: "a"}, {Slug: "b"}}, Pagination: model.Pagination{Total: 2, LastPage: 1}}, nil
}

func (f fakeCatalog) Categories(context.Context) ([]model.Category, error) {
	if f.catErr != nil {
		return nil, f.catErr
	}
	return []model.Category{{Name: "Posters"}}, nil
}

func TestLoadCatalogDegradesCategories(t *testing.T) {
	v, err := LoadCatalog(context.Background(), fakeCatalog{catErr: errors.New("down")}, api.ProductQuery{}, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Products) != 2 || len(v.Categories) != 0 || v.Pagination.Total != 2 {
		t.Fatalf("view = %+v", v)
	}
}

func TestCustomOrderValidation(t *testing.T) {
	if err := (CustomOrderForm{ProductID: 1, Name: "Rahim", Description: "short"}).Validate(); err == nil {
		t.Fatal("missing contact and short description accepted")
	}
	ok := CustomOrderForm{ProductID: 1, Name: "Rahim", Phone: "8801712345678", Description: "নাম পরিবর্তন করে দিন প্লিজ"}
	if err := ok.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestProductFormMultipart(t *testing.T) {
	f := ProductForm{
		Title:                 "Election banner",
		CategoryID:            3,
		Price:                 99.5,
		EnableDownload:        true,
		PreviewImages:         []api.Upload{{Filename: "p1.png", Data: pngHeader}, {Filename: "p2.png", Data: pngHeader}},
		RemovePreviewImageIDs: []int64{7, 9},
		File:                  &api.Upload{Filename: "banner.zip", Data: []byte("PK\x03\x04zip")},
	}
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := f.EncodeMultipart(w); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r := multipart.NewReader(&buf, w.Boundary())
	got := map[string]string{}
	files := map[string]string{}
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(p)
		if p.FileName() != "" {
			files[p.FormName()] = p.Header.Get("Content-Type")
			continue
		}
		got[p.FormName()] = string(b)
	}
	if got["remove_preview_images[0]"] != "7" || got["remove_preview_images[1]"] != "9" || got["price"] != "99.5" || got["enable_download"] != "1" {
		t.Fatalf("fields = %v", got)
	}
	if files["preview_images[0]"] != "image/png" || files["preview_images[1]"] != "image/png" || files["file"] == "" {
		t.Fatalf("files = %v", files)
	}
}

func TestProductFormRules(t *testing.T) {
	base := ProductForm{Title: "Banner", CategoryID: 1, File: &api.Upload{Data: []byte("x")}}
	free := base
	free.IsFree, free.Price = true, 10
	if err := free.Validate(); err == nil {
		t.Fatal("priced free product accepted")
	}
	noFile := base
	noFile.File = nil
	if err := noFile.Validate(); err == nil {
		t.Fatal("new product without a file accepted")
	}
	noFile.Existing = true
	if err := noFile.Validate(); err != nil {
		t.Fatal(err)
	}
	badPreview := base
	badPreview.PreviewImages = []api.Upload{{Data: []byte("not an image")}}
	if err := badPreview.Validate(); err == nil {
		t.Fatal("text preview accepted")
	}
}
