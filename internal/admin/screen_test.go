package admin

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/model"
)

type fakeBackend[T any] struct {
	items     []T
	lists     int
	created   []any
	updated   map[int64]any
	deleted   []int64
	createErr error
	listErr   error
}

func (f *fakeBackend[T]) List(context.Context, url.Values) (model.Page[T], error) {
	f.lists++
	if f.listErr != nil {
		return model.Page[T]{}, f.listErr
	}
	return model.Page[T]{Items: f.items, Pagination: model.Pagination{CurrentPage: 1, LastPage: 1, Total: len(f.items)}}, nil
}

func (f *fakeBackend[T]) Create(_ context.Context, body any) (T, error) {
	var zero T
	if f.createErr != nil {
		return zero, f.createErr
	}
	f.created = append(f.created, body)
	return zero, nil
}

func (f *fakeBackend[T]) Update(_ context.Context, id int64, body any) (T, error) {
	var zero T
	if f.updated == nil {
		f.updated = map[int64]any{}
	}
	f.updated[id] = body
	return zero, nil
}

func (f *fakeBackend[T]) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func candidateScreen(b *fakeBackend[model.Candidate]) *Screen[model.Candidate, CandidateForm] {
	return NewScreen(Candidates, b, nil)
}

func TestCandidatePartyAndSymbolRejectedLocally(t *testing.T) {
	cases := []struct {
		name string
		form CandidateForm
	}{
		{"both", CandidateForm{Name: "Rahim", SeatID: 1, PartyID: 2, SymbolID: 30}},
		{"neither", CandidateForm{Name: "Rahim", SeatID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &fakeBackend[model.Candidate]{}
			s := candidateScreen(b)
			s.OpenCreate()

			_, err := s.Submit(context.Background(), tc.form)
			if !forms.IsInvalid(err) {
				t.Fatalf("err = %v", err)
			}
			if _, ok := forms.Fields(err)["party_id"]; !ok {
				t.Fatalf("fields = %v", forms.Fields(err))
			}
			if len(b.created) != 0 {
				t.Fatal("backend called")
			}
			if s.Modal == nil || s.Modal.Form != tc.form {
				t.Fatalf("modal = %+v", s.Modal)
			}
			if toasts := s.DrainToasts(); len(toasts) != 1 || toasts[0].Kind != ToastError {
				t.Fatalf("toasts = %+v", toasts)
			}
		})
	}
}

func TestSubmitSuccessClosesModalAndRefetches(t *testing.T) {
	b := &fakeBackend[model.Candidate]{items: []model.Candidate{{ID: 7, Name: "Karim"}}}
	s := candidateScreen(b)
	if err := s.Load(context.Background(), url.Values{"page": {"2"}}); err != nil {
		t.Fatal(err)
	}
	s.OpenCreate()
	if _, err := s.Submit(context.Background(), CandidateForm{Name: "Rahim", SeatID: 1, SymbolID: 30}); err != nil {
		t.Fatal(err)
	}
	if s.Modal != nil {
		t.Fatal("modal left open")
	}
	if b.lists != 2 || s.Query.Get("page") != "2" {
		t.Fatalf("lists = %d query = %v", b.lists, s.Query)
	}
	p, ok := b.created[0].(candidatePayload)
	if !ok {
		t.Fatalf("payload = %T", b.created[0])
	}
	if p.PartyID != nil || p.SymbolID == nil || *p.SymbolID != 30 || !p.IsIndependent {
		t.Fatalf("payload = %+v", p)
	}
	if toasts := s.DrainToasts(); len(toasts) != 1 || toasts[0].Kind != ToastSuccess {
		t.Fatalf("toasts = %+v", toasts)
	}
}

func TestSubmitBackendFailureKeepsInput(t *testing.T) {
	b := &fakeBackend[model.Candidate]{createErr: &api.Error{Status: 422, Message: "seat is full"}}
	s := candidateScreen(b)
	s.OpenCreate()
	f := CandidateForm{Name: "Rahim", SeatID: 1, PartyID: 2}
	if _, err := s.Submit(context.Background(), f); err == nil {
		t.Fatal("expected error")
	}
	if s.Modal == nil || s.Modal.Form != f {
		t.Fatalf("modal = %+v", s.Modal)
	}
	if toasts := s.DrainToasts(); len(toasts) != 1 || toasts[0].Message != "seat is full" {
		t.Fatalf("toasts = %+v", toasts)
	}
}

func TestEditUpdatesByID(t *testing.T) {
	b := &fakeBackend[model.Party]{}
	s := NewScreen(Parties, b, nil)
	sym := int64(10)
	s.OpenEdit(model.Party{ID: 4, Name: "Alpha", BnName: "আলফা", Color: "#0a0", SymbolID: &sym})
	if s.Modal.Mode != ModeEdit || s.Modal.Form.SymbolID != 10 {
		t.Fatalf("modal = %+v", s.Modal)
	}
	if _, err := s.Submit(context.Background(), s.Modal.Form); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.updated[4]; !ok {
		t.Fatalf("updated = %v", b.updated)
	}
}

func TestSubmitWithoutModal(t *testing.T) {
	s := NewScreen(Divisions, &fakeBackend[model.Division]{}, nil)
	if _, err := s.Submit(context.Background(), DivisionForm{Name: "Dhaka", BnName: "ঢাকা"}); !errors.Is(err, ErrNoModal) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	b := &fakeBackend[model.Seat]{}
	s := NewScreen(Seats, b, nil)

	if err := s.ConfirmDelete(context.Background()); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v", err)
	}
	s.RequestDelete(9)
	s.CancelDelete()
	if err := s.ConfirmDelete(context.Background()); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v", err)
	}
	if len(b.deleted) != 0 {
		t.Fatalf("deleted = %v", b.deleted)
	}

	s.RequestDelete(9)
	if err := s.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(b.deleted) != 1 || b.deleted[0] != 9 || s.PendingDelete != 0 || b.lists != 1 {
		t.Fatalf("deleted = %v pending = %d lists = %d", b.deleted, s.PendingDelete, b.lists)
	}
}

func TestLoadFailureEmptiesList(t *testing.T) {
	b := &fakeBackend[model.News]{listErr: errors.New("down")}
	s := NewScreen(NewsArticles, b, nil)
	s.Items = []model.News{{ID: 1}}
	if err := s.Load(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if s.Items != nil || len(s.DrainToasts()) != 1 {
		t.Fatalf("items = %v", s.Items)
	}
}

func TestPollOptionFloor(t *testing.T) {
	f := NewPollForm()
	if err := f.RemoveOption(0); !errors.Is(err, ErrOptionFloor) {
		t.Fatalf("err = %v", err)
	}
	f.AddOption()
	if err := f.RemoveOption(5); !errors.Is(err, ErrOptionOutOfRange) {
		t.Fatalf("err = %v", err)
	}
	if err := f.RemoveOption(2); err != nil || len(f.Options) != 2 {
		t.Fatalf("err = %v options = %v", err, f.Options)
	}

	f.Question = "কে জিতবে?"
	f.Options = []string{"A", "  ", ""}
	if err := f.Validate(); err == nil {
		t.Fatal("one filled option accepted")
	}
	f.Options[1] = " B "
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}
	p := f.Payload()
	if !strings.Contains(strings.Join(f.FilledOptions(), ","), "A,B") || p == nil {
		t.Fatalf("options = %v", f.FilledOptions())
	}
}

func TestPollFormFromPadsOptions(t *testing.T) {
	f := PollFormFrom(model.Poll{Question: "q", Options: []model.PollOption{{Text: "only"}}})
	if len(f.Options) != MinPollOptions || f.Options[0] != "only" {
		t.Fatalf("options = %v", f.Options)
	}
}

func TestImageUploads(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	f := SymbolForm{Name: "নৌকা", Image: &api.Upload{Data: []byte("just text")}}
	if err := f.Validate(); err == nil {
		t.Fatal("text accepted as image")
	}

	f.Image = &api.Upload{Data: png}
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}
	Sniff(f.Image)
	if f.Image.ContentType != "image/png" || f.Image.Filename != "upload.png" {
		t.Fatalf("upload = %+v", f.Image)
	}
	if _, ok := f.Payload().(api.MultipartEncoder); !ok {
		t.Fatalf("payload = %T", f.Payload())
	}
	f.Image = nil
	if _, ok := f.Payload().(api.MultipartEncoder); ok {
		t.Fatal("multipart without file")
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# শিরোনাম\n\n**bold** <script>alert(1)</script>")
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "<h1") || !strings.Contains(s, "<strong>bold</strong>") {
		t.Fatalf("html = %s", s)
	}
	if strings.Contains(s, "<script>") {
		t.Fatalf("raw html kept: %s", s)
	}
}
