package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/votemamu/web/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api")
}

func TestCandidateQueryMostSpecificLocationWins(t *testing.T) {
	v := CandidateQuery{DivisionID: 1, DistrictID: 2, SeatID: 3, Page: 2}.Values()
	if v.Get("seat_id") != "3" {
		t.Fatalf("seat_id = %q, want 3", v.Get("seat_id"))
	}
	if v.Has("district_id") || v.Has("division_id") {
		t.Fatalf("broader location ids must be omitted: %v", v)
	}
	if v.Get("page") != "2" {
		t.Fatalf("page = %q", v.Get("page"))
	}

	v = CandidateQuery{DivisionID: 1}.Values()
	if v.Get("division_id") != "1" || v.Get("page") != "1" {
		t.Fatalf("unexpected query %v", v)
	}
}

func TestCandidateQueryIndependentSentinel(t *testing.T) {
	v := CandidateQuery{Independent: true, PartyID: 9}.Values()
	if got := v.Get("party_id"); got != PartyNull {
		t.Fatalf("party_id = %q, want %q", got, PartyNull)
	}
	v = CandidateQuery{PartyID: 9, PerPage: 12}.Values()
	if v.Get("party_id") != "9" || v.Get("per_page") != "12" {
		t.Fatalf("unexpected query %v", v)
	}
}

func TestCandidatesDecodesPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/candidates" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("seat_id") != "5" {
			t.Errorf("seat_id = %s", r.URL.Query().Get("seat_id"))
		}
		io.WriteString(w, `{"success":true,"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}],
			"pagination":{"total":30,"per_page":12,"current_page":1,"last_page":3}}`)
	})
	page, err := c.Candidates(context.Background(), CandidateQuery{SeatID: 5})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(page.Items) != 2 || page.Pagination.LastPage != 3 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestErrorStatusMapsToSentinels(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusUnprocessableEntity, ErrValidation},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			io.WriteString(w, `{"success":false,"message":"nope"}`)
		})
		_, err := c.Divisions(context.Background())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
		if Message(err, "") != "nope" {
			t.Errorf("status %d: message = %q", tc.status, Message(err, ""))
		}
	}
}

func TestSuccessFalseEnvelopeIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"errors":{"phone":["ফোন নম্বর সঠিক নয়"]}}`)
	})
	_, err := c.SendOTP(context.Background(), "017")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if got := Message(err, ""); got != "ফোন নম্বর সঠিক নয়" {
		t.Fatalf("message = %q", got)
	}
}

func TestMessageFallsBackToGeneric(t *testing.T) {
	if got := Message(errors.New("dial tcp: refused"), ""); got != GenericMessage {
		t.Fatalf("message = %q", got)
	}
	if got := Message(&Error{Status: 500}, "custom"); got != "custom" {
		t.Fatalf("message = %q", got)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		io.WriteString(w, `{"success":true,"data":{"id":1,"role":"admin"}}`)
	})
	if _, err := c.AdminMe(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth != "" {
		t.Fatalf("anonymous request carried %q", auth)
	}
	if _, err := c.WithToken("abc").AdminMe(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer abc" {
		t.Fatalf("Authorization = %q", auth)
	}
}

type testUpload struct {
	Name  string
	Image *Upload
}

func (u testUpload) EncodeMultipart(w *multipart.Writer) error {
	f := &Fields{}
	f.Set("name", u.Name).SetIndexed("options", []string{"a", "b"}).SetBool("active", true)
	if err := f.Write(w); err != nil {
		return err
	}
	if !u.Image.Empty() {
		return WriteFile(w, "image", *u.Image)
	}
	return nil
}

func TestMultipartUpdateUsesMethodOverride(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("_method"); got != http.MethodPut {
			t.Errorf("_method = %q", got)
		}
		if r.FormValue("options[1]") != "b" || r.FormValue("active") != "1" {
			t.Errorf("fields = %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "p.png" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		io.WriteString(w, `{"success":true,"data":{"id":7,"name":"x"}}`)
	})
	body := testUpload{Name: "x", Image: &Upload{Filename: "p.png", ContentType: "image/png", Data: []byte("png")}}
	got, err := c.AdminDivisions().Update(context.Background(), 7, body)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("id = %d", got.ID)
	}
}

func TestJSONBodyAndDelete(t *testing.T) {
	var methods []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPost {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}
			raw, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(raw), `"option_id":3`) {
				t.Errorf("body = %s", raw)
			}
			io.WriteString(w, `{"success":true,"data":{"id":1,"question":"q"}}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if _, err := c.Vote(context.Background(), 1, 3, "01700000000"); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if err := c.AdminPolls().Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []string{"POST /api/v1/polls/1/vote", "DELETE /api/admin/polls/1"}
	if strings.Join(methods, ",") != strings.Join(want, ",") {
		t.Fatalf("requests = %v", methods)
	}
}

func TestFetchBlobFilename(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/files/a.zip" {
			w.Header().Set("Content-Disposition", `attachment; filename="design.zip"`)
		}
		w.Write([]byte("data"))
	})
	b, err := c.FetchBlob(context.Background(), "files/a.zip")
	if err != nil {
		t.Fatal(err)
	}
	if b.Filename != "design.zip" || string(b.Data) != "data" {
		t.Fatalf("blob = %+v", b)
	}
	b, err = c.FetchBlob(context.Background(), c.BaseURL()+"/files/b.psd")
	if err != nil {
		t.Fatal(err)
	}
	if b.Filename != "b.psd" {
		t.Fatalf("filename = %q", b.Filename)
	}
}

func TestRequestDownloadGrant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"message":"ধন্যবাদ","data":{"enable_download":true,"download_urls":["u1","u2"]}}`)
	})
	g, err := c.RequestDownload(context.Background(), "poster-1", model.DownloadRequest{Name: "n"})
	if err != nil {
		t.Fatal(err)
	}
	if !g.EnableDownload || len(g.DownloadURLs) != 2 || g.Message != "ধন্যবাদ" {
		t.Fatalf("grant = %+v", g)
	}
}
