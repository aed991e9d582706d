// Package explorer drives the public candidate explorer: the cascading
// division → district → seat selection, free-text search, the cross-linked
// party and symbol filters and the server-driven pagination.
//
// State transitions are pure.  The Controller owns one State, refetches the
// lists a transition affects and mirrors every change into the URL.
package explorer

import "strings"

// Independent is the pseudo filter value for candidates without a party.
const Independent = "independent"

// State is the filter state of one explorer view.  Zero ids mean "not
// selected".  Party and Symbol hold a numeric id, Independent, or "".
type State struct {
	DivisionID int64
	DistrictID int64
	SeatID     int64
	Search     string
	Party      string
	Symbol     string
	Page       int
}

// NewState returns the initial state: nothing selected, page 1.
func NewState() State { return State{Page: 1} }

// SelectDivision selects a division and clears everything below it.
func (s State) SelectDivision(id int64) State {
	s.DivisionID = id
	s.DistrictID = 0
	s.SeatID = 0
	s.Page = 1
	return s
}

// SelectDistrict selects a district and clears the seat.
func (s State) SelectDistrict(id int64) State {
	s.DistrictID = id
	s.SeatID = 0
	s.Page = 1
	return s
}

func (s State) SelectSeat(id int64) State {
	s.SeatID = id
	s.Page = 1
	return s
}

// SetSearch commits search text.  The page only resets when the trimmed
// text actually changes.
func (s State) SetSearch(text string) State {
	text = strings.TrimSpace(text)
	if text == s.Search {
		return s
	}
	s.Search = text
	s.Page = 1
	return s
}

// SetParty changes the party filter and reconciles the symbol filter
// against tax.
func (s State) SetParty(party string, tax Taxonomy) State {
	sel := Reconcile(Selection{Party: party, Symbol: s.Symbol}, PartyChanged, tax)
	return s.withSelection(sel)
}

// SetSymbol changes the symbol filter and reconciles the party filter.
func (s State) SetSymbol(symbol string, tax Taxonomy) State {
	sel := Reconcile(Selection{Party: s.Party, Symbol: symbol}, SymbolChanged, tax)
	return s.withSelection(sel)
}

func (s State) withSelection(sel Selection) State {
	if sel.Party == s.Party && sel.Symbol == s.Symbol {
		return s
	}
	s.Party, s.Symbol = sel.Party, sel.Symbol
	s.Page = 1
	return s
}

func (s State) SetPage(page int) State {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// Reset clears every filter.
func (s State) Reset() State { return NewState() }

// Level names the deepest selected location level.
func (s State) Level() string {
	switch {
	case s.SeatID > 0:
		return "seat"
	case s.DistrictID > 0:
		return "district"
	case s.DivisionID > 0:
		return "division"
	}
	return "country"
}

// Selection returns the party/symbol pair.
func (s State) Selection() Selection { return Selection{Party: s.Party, Symbol: s.Symbol} }

// Submit applies a party/symbol pair posted by the filter form.  prev is
// the pair the form was rendered with; the side that differs from it is
// the one the user changed.  When both differ the party wins.
func (s State) Submit(sel, prev Selection, tax Taxonomy) State {
	s.Party, s.Symbol = prev.Party, prev.Symbol
	partyChanged := sel.Party != prev.Party
	symbolChanged := sel.Symbol != prev.Symbol
	switch {
	case partyChanged && symbolChanged:
		s.Symbol = sel.Symbol
		s.Page = 1
		return s.SetParty(sel.Party, tax)
	case partyChanged:
		return s.SetParty(sel.Party, tax)
	case symbolChanged:
		return s.SetSymbol(sel.Symbol, tax)
	}
	return s
}

// Normalize settles a pair that arrived without its previous value, as in
// a shared link.  A filter chosen alone pulls in its counterpart and a
// contradictory pair follows the party.
func (s State) Normalize(tax Taxonomy) State {
	switch {
	case s.Party != "":
		return s.SetParty(s.Party, tax)
	case s.Symbol != "":
		return s.SetSymbol(s.Symbol, tax)
	}
	return s
}
