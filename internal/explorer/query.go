package explorer

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/votemamu/web/internal/api"
)

// DefaultPerPage is the candidate grid size.
const DefaultPerPage = 12

// BuildQuery derives the candidate request for s.  Only the most specific
// location is sent; Independent on either filter becomes the party_id=null
// sentinel.
func BuildQuery(s State, perPage int) api.CandidateQuery {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	q := api.CandidateQuery{
		Search:  strings.TrimSpace(s.Search),
		Page:    s.Page,
		PerPage: perPage,
	}
	switch {
	case s.SeatID > 0:
		q.SeatID = s.SeatID
	case s.DistrictID > 0:
		q.DistrictID = s.DistrictID
	case s.DivisionID > 0:
		q.DivisionID = s.DivisionID
	}
	if s.Party == Independent || s.Symbol == Independent {
		q.Independent = true
	} else if id, ok := parseID(s.Party); ok {
		q.PartyID = id
	}
	if id, ok := parseID(s.Symbol); ok {
		q.SymbolID = id
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// URL parameter names.
const (
	ParamDivision = "division"
	ParamDistrict = "district"
	ParamSeat     = "seat"
	ParamPage     = "page"
	ParamSearch   = "q"
	ParamParty    = "party"
	ParamSymbol   = "symbol"

	// The filter form echoes the pair it was rendered with so the next
	// request can tell which side changed.
	ParamPrevParty  = "prev_party"
	ParamPrevSymbol = "prev_symbol"
)

// Encode mirrors s into URL query parameters.  Defaults (no selection,
// empty text, page 1) are omitted so the URL stays canonical.
func Encode(s State) url.Values {
	v := url.Values{}
	setID := func(key string, id int64) {
		if id > 0 {
			v.Set(key, strconv.FormatInt(id, 10))
		}
	}
	setID(ParamDivision, s.DivisionID)
	setID(ParamDistrict, s.DistrictID)
	setID(ParamSeat, s.SeatID)
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if q := strings.TrimSpace(s.Search); q != "" {
		v.Set(ParamSearch, q)
	}
	if s.Party != "" {
		v.Set(ParamParty, s.Party)
	}
	if s.Symbol != "" {
		v.Set(ParamSymbol, s.Symbol)
	}
	return v
}

// Decode rebuilds a State from URL query parameters.  Malformed values are
// treated as absent.
func Decode(v url.Values) State {
	s := NewState()
	s.DivisionID = decodeID(v.Get(ParamDivision))
	s.DistrictID = decodeID(v.Get(ParamDistrict))
	s.SeatID = decodeID(v.Get(ParamSeat))
	if p, err := strconv.Atoi(v.Get(ParamPage)); err == nil && p > 1 {
		s.Page = p
	}
	s.Search = strings.TrimSpace(v.Get(ParamSearch))
	s.Party = decodeFilter(v.Get(ParamParty))
	s.Symbol = decodeFilter(v.Get(ParamSymbol))
	return s
}

// DecodePrev returns the previous party/symbol pair carried by a form
// submission.  ok is false when the request has neither field.
func DecodePrev(v url.Values) (prev Selection, ok bool) {
	_, hasParty := v[ParamPrevParty]
	_, hasSymbol := v[ParamPrevSymbol]
	if !hasParty && !hasSymbol {
		return Selection{}, false
	}
	return Selection{
		Party:  decodeFilter(v.Get(ParamPrevParty)),
		Symbol: decodeFilter(v.Get(ParamPrevSymbol)),
	}, true
}

// FormFields lists the hidden inputs the filter form must carry: the
// location selection, which a search or filter change keeps, and the
// current party/symbol pair.
func FormFields(s State) []Field {
	var out []Field
	add := func(name string, id int64) {
		if id > 0 {
			out = append(out, Field{Name: name, Value: strconv.FormatInt(id, 10)})
		}
	}
	add(ParamDivision, s.DivisionID)
	add(ParamDistrict, s.DistrictID)
	add(ParamSeat, s.SeatID)
	out = append(out,
		Field{Name: ParamPrevParty, Value: s.Party},
		Field{Name: ParamPrevSymbol, Value: s.Symbol},
	)
	return out
}

// Field is one hidden form input.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func decodeID(raw string) int64 {
	id, _ := parseID(raw)
	return id
}

func decodeFilter(raw string) string {
	if raw == Independent {
		return raw
	}
	if id, ok := parseID(raw); ok {
		return formatID(id)
	}
	return ""
}

// Href returns path with s encoded as its query string.
func Href(path string, s State) string {
	if q := Encode(s).Encode(); q != "" {
		return path + "?" + q
	}
	return path
}

// URLSink receives the canonical query of every state change.  It has
// history-replace semantics: each call supersedes the previous one.
type URLSink interface {
	Replace(v url.Values)
}

// URLSinkFunc adapts a function to URLSink.
type URLSinkFunc func(url.Values)

func (f URLSinkFunc) Replace(v url.Values) { f(v) }
