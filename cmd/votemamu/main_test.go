package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/explorer"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

func noLogs() *logging.GoLogger { return nil }

func run(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.Execute()
}

func TestPosterRequiresPhotoAndName(t *testing.T) {
	if err := run(t, "poster"); err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("err = %v", err)
	}
	if err := run(t, "poster", "--photo", "x.png"); err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("err = %v", err)
	}
}

func TestEmitNeedsConversationAndBody(t *testing.T) {
	if err := run(t, "emit", "hello"); err == nil || !strings.Contains(err.Error(), "conversation") {
		t.Fatalf("err = %v", err)
	}
	if err := run(t, "emit", "--conversation", "c1"); err == nil || !strings.Contains(err.Error(), "body") {
		t.Fatalf("err = %v", err)
	}
}

func TestDownloadNeedsSlug(t *testing.T) {
	if err := run(t, "download"); err == nil {
		t.Fatal("download without a slug succeeded")
	}
}

func TestDurationFlagsDefaultFromEnv(t *testing.T) {
	t.Setenv("DOWNLOAD_PAUSE", "2s")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")

	if got := newDownloadCmd(noLogs).Flags().Lookup("pause").DefValue; got != "2s" {
		t.Fatalf("pause default = %s", got)
	}
	if got := newExploreCmd(noLogs).Flags().Lookup("debounce").DefValue; got != "150ms" {
		t.Fatalf("debounce default = %s", got)
	}
}

type stubBackend struct {
	mu      sync.Mutex
	queries []api.CandidateQuery
}

func (b *stubBackend) Parties(context.Context) ([]model.Party, error) {
	sym := int64(10)
	return []model.Party{{ID: 1, Name: "Alpha", SymbolID: &sym}}, nil
}

func (b *stubBackend) Symbols(context.Context) ([]model.Symbol, error) {
	return []model.Symbol{{ID: 10, Name: "Boat"}}, nil
}

func (b *stubBackend) Divisions(context.Context) ([]model.Division, error) {
	return []model.Division{{ID: 7, Name: "Dhaka"}}, nil
}

func (b *stubBackend) Districts(context.Context, int64) ([]model.District, error) { return nil, nil }
func (b *stubBackend) Seats(context.Context, int64) ([]model.Seat, error)         { return nil, nil }

func (b *stubBackend) Candidates(_ context.Context, q api.CandidateQuery) (model.Page[model.Candidate], error) {
	b.mu.Lock()
	b.queries = append(b.queries, q)
	b.mu.Unlock()
	return model.Page[model.Candidate]{
		Items:      []model.Candidate{{ID: 99, Name: "Rahim", Party: &model.Party{ID: 1, Name: "Alpha"}}},
		Pagination: model.Pagination{Total: 1, PerPage: 12, CurrentPage: 1, LastPage: 1},
	}, nil
}

func (b *stubBackend) last() api.CandidateQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[len(b.queries)-1]
}

func TestRunExploreCommitsTypedSearch(t *testing.T) {
	b := &stubBackend{}
	var out bytes.Buffer
	w := &syncWriter{w: &out}
	// a long quiet period: only the explicit flushes commit
	ctl := explorer.NewController(b,
		explorer.WithDebounce(explorer.SystemClock, time.Hour),
		explorer.WithURLSink(printSink(w)),
	)
	in := strings.NewReader("rah\nrahim\n:party 1\n:list\n:bogus\n:seat x\n")

	if err := runExplore(context.Background(), ctl, nil, in, w); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{
		"?party=1&symbol=10\n",
		"?party=1&q=rahim&symbol=10\n",
		"99\tRahim\tAlpha\n",
		`! unknown command "bogus"`,
		"! seat needs a number",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "q=rah&") {
		t.Errorf("intermediate text was searched:\n%s", got)
	}
	if q := b.last(); q.Search != "rahim" || q.PartyID != 1 || q.SymbolID != 10 {
		t.Fatalf("last query = %+v", q)
	}
}

func TestRunExploreStartsFromQuery(t *testing.T) {
	b := &stubBackend{}
	var out bytes.Buffer
	ctl := explorer.NewController(b, explorer.WithDebounce(explorer.SystemClock, time.Hour))
	initial := map[string][]string{"division": {"7"}, "page": {"2"}}

	if err := runExplore(context.Background(), ctl, initial, strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}
	if q := b.last(); q.DivisionID != 7 || q.Page != 2 {
		t.Fatalf("query = %+v", q)
	}
	if !strings.Contains(out.String(), "page 1/1, 1 candidates") {
		t.Fatalf("output = %s", out.String())
	}
}
