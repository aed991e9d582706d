package admin

import (
	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/model"
)

func bind[T any](r func(*api.Client) api.Resource[T]) func(*api.Client) Backend[T] {
	return func(c *api.Client) Backend[T] { return r(c) }
}

func blank[F Form]() F {
	var f F
	return f
}

var Candidates = Spec[model.Candidate, CandidateForm]{
	Name:   "candidates",
	Title:  "প্রার্থী",
	IDOf:   func(c model.Candidate) int64 { return c.ID },
	FormOf: CandidateFormFrom,
	Blank:  blank[CandidateForm],
	Bind:   bind((*api.Client).AdminCandidates),

	FileField: "photo",
	Attach:    func(f *CandidateForm, u *api.Upload) { f.Photo = u },
}

var Divisions = Spec[model.Division, DivisionForm]{
	Name:   "divisions",
	Title:  "বিভাগ",
	IDOf:   func(d model.Division) int64 { return d.ID },
	FormOf: DivisionFormFrom,
	Blank:  blank[DivisionForm],
	Bind:   bind((*api.Client).AdminDivisions),
}

var Districts = Spec[model.District, DistrictForm]{
	Name:   "districts",
	Title:  "জেলা",
	IDOf:   func(d model.District) int64 { return d.ID },
	FormOf: DistrictFormFrom,
	Blank:  blank[DistrictForm],
	Bind:   bind((*api.Client).AdminDistricts),
}

var Seats = Spec[model.Seat, SeatForm]{
	Name:   "seats",
	Title:  "আসন",
	IDOf:   func(s model.Seat) int64 { return s.ID },
	FormOf: SeatFormFrom,
	Blank:  blank[SeatForm],
	Bind:   bind((*api.Client).AdminSeats),
}

var Parties = Spec[model.Party, PartyForm]{
	Name:   "parties",
	Title:  "দল",
	IDOf:   func(p model.Party) int64 { return p.ID },
	FormOf: PartyFormFrom,
	Blank:  blank[PartyForm],
	Bind:   bind((*api.Client).AdminParties),

	FileField: "logo",
	Attach:    func(f *PartyForm, u *api.Upload) { f.Logo = u },
	Reference: true,
}

var Symbols = Spec[model.Symbol, SymbolForm]{
	Name:   "symbols",
	Title:  "প্রতীক",
	IDOf:   func(s model.Symbol) int64 { return s.ID },
	FormOf: SymbolFormFrom,
	Blank:  blank[SymbolForm],
	Bind:   bind((*api.Client).AdminSymbols),

	FileField: "image",
	Attach:    func(f *SymbolForm, u *api.Upload) { f.Image = u },
	Reference: true,
}

var NewsArticles = Spec[model.News, NewsForm]{
	Name:   "news",
	Title:  "সংবাদ",
	IDOf:   func(n model.News) int64 { return n.ID },
	FormOf: NewsFormFrom,
	Blank:  blank[NewsForm],
	Bind:   bind((*api.Client).AdminNews),

	FileField: "image",
	Attach:    func(f *NewsForm, u *api.Upload) { f.Image = u },
}

var Polls = Spec[model.Poll, PollForm]{
	Name:   "polls",
	Title:  "জরিপ",
	IDOf:   func(p model.Poll) int64 { return p.ID },
	FormOf: PollFormFrom,
	Blank:  NewPollForm,
	Bind:   bind((*api.Client).AdminPolls),
}
