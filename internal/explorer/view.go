package explorer

import (
	"strconv"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/model"
)

// PageLink is one control of the paginator.
type PageLink struct {
	Number int    `json:"number"`
	Active bool   `json:"active"`
	Href   string `json:"href"`
}

// Paginator is rendered from the server's pagination block alone.
type Paginator struct {
	Current int        `json:"current"`
	Last    int        `json:"last"`
	Total   int        `json:"total"`
	Prev    string     `json:"prev,omitempty"`
	Next    string     `json:"next,omitempty"`
	Pages   []PageLink `json:"pages"`
}

// NewPaginator builds page links for s under path.  It renders nothing when
// the server reports a single page.
func NewPaginator(p model.Pagination, s State, path string) Paginator {
	pg := Paginator{Current: p.CurrentPage, Last: p.LastPage, Total: p.Total}
	if p.LastPage <= 1 {
		return pg
	}
	for n := 1; n <= p.LastPage; n++ {
		pg.Pages = append(pg.Pages, PageLink{
			Number: n,
			Active: n == p.CurrentPage,
			Href:   Href(path, s.SetPage(n)),
		})
	}
	if p.CurrentPage > 1 {
		pg.Prev = Href(path, s.SetPage(p.CurrentPage-1))
	}
	if p.CurrentPage < p.LastPage {
		pg.Next = Href(path, s.SetPage(p.CurrentPage+1))
	}
	return pg
}

// LocationCard is a division, district or seat tile of the drill-down grid.
type LocationCard struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Count    int    `json:"count"`
	Href     string `json:"href"`
	Active   bool   `json:"active"`
}

// CandidateCard is one tile of the candidate grid.
type CandidateCard struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Photo       string `json:"photo,omitempty"`
	Seat        string `json:"seat,omitempty"`
	Party       string `json:"party"`
	PartyColor  string `json:"party_color,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	SymbolImage string `json:"symbol_image,omitempty"`
	Independent bool   `json:"independent"`
	Href        string `json:"href"`
}

// Option is a choice of the party or symbol dropdown.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// View is the presentation model of one explorer page.
type View struct {
	State      State           `json:"-"`
	Level      string          `json:"level"`
	Search     string          `json:"search"`
	Divisions  []LocationCard  `json:"divisions"`
	Districts  []LocationCard  `json:"districts"`
	Seats      []LocationCard  `json:"seats"`
	Candidates []CandidateCard `json:"candidates"`
	Parties    []Option        `json:"parties"`
	Symbols    []Option        `json:"symbols"`
	Paginator  Paginator       `json:"paginator"`
	Empty      bool            `json:"empty"`
	ResetHref  string          `json:"reset_href"`
	Hidden     []Field         `json:"hidden"`
}

const independentLabel = "স্বতন্ত্র"

// Render turns loaded data into a View.  path is the explorer's own route;
// assetBase prefixes relative image paths.
func Render(s State, d Data, path, assetBase string) View {
	v := View{
		State:     s,
		Level:     s.Level(),
		Search:    s.Search,
		Paginator: NewPaginator(d.Pagination, s, path),
		Empty:     len(d.Candidates) == 0,
		ResetHref: path,
		Hidden:    FormFields(s),
	}
	for _, div := range d.Divisions {
		v.Divisions = append(v.Divisions, LocationCard{
			ID:       div.ID,
			Title:    model.Label(div.Name, div.BnName),
			Subtitle: div.Name,
			Count:    div.DistrictsCount,
			Href:     Href(path, s.SelectDivision(div.ID)),
			Active:   div.ID == s.DivisionID,
		})
	}
	for _, dist := range d.Districts {
		v.Districts = append(v.Districts, LocationCard{
			ID:       dist.ID,
			Title:    model.Label(dist.Name, dist.BnName),
			Subtitle: dist.Name,
			Count:    dist.SeatsCount,
			Href:     Href(path, s.SelectDistrict(dist.ID)),
			Active:   dist.ID == s.DistrictID,
		})
	}
	for _, seat := range d.Seats {
		v.Seats = append(v.Seats, LocationCard{
			ID:       seat.ID,
			Title:    model.Label(seat.Name, seat.BnName),
			Subtitle: seat.Name,
			Count:    seat.CandidatesCount,
			Href:     Href(path, s.SelectSeat(seat.ID)),
			Active:   seat.ID == s.SeatID,
		})
	}
	for _, c := range d.Candidates {
		v.Candidates = append(v.Candidates, candidateCard(c, assetBase))
	}
	v.Parties = append(v.Parties, Option{Value: Independent, Label: independentLabel, Selected: s.Party == Independent})
	for _, p := range d.Taxonomy.Parties {
		id := formatID(p.ID)
		v.Parties = append(v.Parties, Option{Value: id, Label: model.Label(p.Name, p.BnName), Selected: s.Party == id})
	}
	v.Symbols = append(v.Symbols, Option{Value: Independent, Label: independentLabel, Selected: s.Symbol == Independent})
	for _, sym := range d.Taxonomy.Symbols {
		id := formatID(sym.ID)
		v.Symbols = append(v.Symbols, Option{Value: id, Label: model.Label(sym.Name, sym.BnName), Selected: s.Symbol == id})
	}
	return v
}

func candidateCard(c model.Candidate, assetBase string) CandidateCard {
	card := CandidateCard{
		ID:          c.ID,
		Name:        model.Label(c.Name, c.BnName),
		Photo:       api.AssetURL(assetBase, c.Photo),
		Independent: c.IsIndependent || c.Party == nil,
		Href:        "/candidates/" + strconv.FormatInt(c.ID, 10),
	}
	if c.Seat != nil {
		card.Seat = model.Label(c.Seat.Name, c.Seat.BnName)
	}
	if c.Party != nil && !c.Party.IsIndependent {
		card.Party = model.Label(c.Party.Name, c.Party.BnName)
		card.PartyColor = c.Party.Color
	} else {
		card.Party = independentLabel
	}
	if sym := c.DisplaySymbol(); sym != nil {
		card.Symbol = model.Label(sym.Name, sym.BnName)
		card.SymbolImage = api.AssetURL(assetBase, sym.Image)
	}
	return card
}
