package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/votemamu/web/internal/model"
)

// PartyNull is the query value the backend reads as "no party", i.e.
// independent candidates.
const PartyNull = "null"

// CandidateQuery filters the public candidate list.  Only the most specific
// location id should be set; Page and PerPage are always sent.
type CandidateQuery struct {
	DivisionID  int64
	DistrictID  int64
	SeatID      int64
	Search      string
	PartyID     int64
	Independent bool
	SymbolID    int64
	Page        int
	PerPage     int
}

// Values encodes q as query parameters.
func (q CandidateQuery) Values() url.Values {
	v := url.Values{}
	switch {
	case q.SeatID > 0:
		v.Set("seat_id", itoa(q.SeatID))
	case q.DistrictID > 0:
		v.Set("district_id", itoa(q.DistrictID))
	case q.DivisionID > 0:
		v.Set("division_id", itoa(q.DivisionID))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Independent {
		v.Set("party_id", PartyNull)
	} else if q.PartyID > 0 {
		v.Set("party_id", itoa(q.PartyID))
	}
	if q.SymbolID > 0 {
		v.Set("symbol_id", itoa(q.SymbolID))
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// NewsQuery filters the public news list.
type NewsQuery struct {
	Category string
	Search   string
	Page     int
	PerPage  int
}

func (q NewsQuery) Values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// Divisions lists all divisions with their district counts.
func (c *Client) Divisions(ctx context.Context) ([]model.Division, error) {
	env, err := get[[]model.Division](ctx, c, "v1/divisions", nil)
	return env.Data, err
}

// Districts lists the districts of a division.
func (c *Client) Districts(ctx context.Context, divisionID int64) ([]model.District, error) {
	env, err := get[[]model.District](ctx, c, "v1/divisions/"+itoa(divisionID)+"/districts", nil)
	return env.Data, err
}

// Seats lists the seats of a district.
func (c *Client) Seats(ctx context.Context, districtID int64) ([]model.Seat, error) {
	env, err := get[[]model.Seat](ctx, c, "v1/districts/"+itoa(districtID)+"/seats", nil)
	return env.Data, err
}

// Candidates returns one page of candidates matching q.
func (c *Client) Candidates(ctx context.Context, q CandidateQuery) (model.Page[model.Candidate], error) {
	env, err := get[[]model.Candidate](ctx, c, "v1/candidates", q.Values())
	return pageOf(env), err
}

// Candidate returns a single candidate with party, symbol and seat embedded.
func (c *Client) Candidate(ctx context.Context, id int64) (model.Candidate, error) {
	env, err := get[model.Candidate](ctx, c, "v1/candidates/"+itoa(id), nil)
	return env.Data, err
}

// Parties lists all parties.
func (c *Client) Parties(ctx context.Context) ([]model.Party, error) {
	env, err := get[[]model.Party](ctx, c, "v1/parties", nil)
	return env.Data, err
}

// Symbols lists all symbols, party-owned and standalone.
func (c *Client) Symbols(ctx context.Context) ([]model.Symbol, error) {
	env, err := get[[]model.Symbol](ctx, c, "v1/symbols", nil)
	return env.Data, err
}

// Polls lists active polls.
func (c *Client) Polls(ctx context.Context) ([]model.Poll, error) {
	env, err := get[[]model.Poll](ctx, c, "v1/polls", nil)
	return env.Data, err
}

// Poll returns one poll with vote counts.
func (c *Client) Poll(ctx context.Context, id int64) (model.Poll, error) {
	env, err := get[model.Poll](ctx, c, "v1/polls/"+itoa(id), nil)
	return env.Data, err
}

// Vote casts a vote.  The phone must have been verified with VerifyOTP.
func (c *Client) Vote(ctx context.Context, pollID, optionID int64, phone string) (model.Poll, error) {
	body := map[string]any{"option_id": optionID, "phone": phone}
	env, err := send[model.Poll](ctx, c, http.MethodPost, "v1/polls/"+itoa(pollID)+"/vote", body)
	return env.Data, err
}

// News returns a page of published articles.
func (c *Client) News(ctx context.Context, q NewsQuery) (model.Page[model.News], error) {
	env, err := get[[]model.News](ctx, c, "v1/news", q.Values())
	return pageOf(env), err
}

// NewsItem returns a single article.
func (c *Client) NewsItem(ctx context.Context, id int64) (model.News, error) {
	env, err := get[model.News](ctx, c, "v1/news/"+itoa(id), nil)
	return env.Data, err
}

// SendOTP asks the backend to text a one-time code to phone.
func (c *Client) SendOTP(ctx context.Context, phone string) (string, error) {
	env, err := send[struct{}](ctx, c, http.MethodPost, "v1/otp/send", map[string]string{"phone": phone})
	return env.Message, err
}

// VerifyOTP checks a one-time code.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (bool, error) {
	env, err := send[struct {
		Verified bool `json:"verified"`
	}](ctx, c, http.MethodPost, "v1/otp/verify", map[string]string{"phone": phone, "otp": code})
	if err != nil {
		return false, err
	}
	return env.Data.Verified, nil
}

func pageOf[T any](env model.Envelope[[]T]) model.Page[T] {
	p := model.Page[T]{Items: env.Data}
	if env.Pagination != nil {
		p.Pagination = *env.Pagination
	}
	return p
}
