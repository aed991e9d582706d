package explorer

import (
	"net/url"
	"testing"
)

func TestShallowerSelectionClearsDeeperLevels(t *testing.T) {
	s := NewState().SelectDivision(3).SelectDistrict(12).SelectSeat(45).SetPage(4)

	got := s.SelectDistrict(13)
	if got.SeatID != 0 || got.Page != 1 || got.DivisionID != 3 || got.DistrictID != 13 {
		t.Fatalf("SelectDistrict: %+v", got)
	}

	got = s.SelectDivision(5)
	if got.DistrictID != 0 || got.SeatID != 0 || got.Page != 1 || got.DivisionID != 5 {
		t.Fatalf("SelectDivision: %+v", got)
	}

	got = s.SelectSeat(46)
	if got.Page != 1 || got.DistrictID != 12 || got.DivisionID != 3 {
		t.Fatalf("SelectSeat: %+v", got)
	}
}

func TestCascadeOverSequences(t *testing.T) {
	type step func(State) State
	steps := []step{
		func(s State) State { return s.SelectDivision(1) },
		func(s State) State { return s.SelectDistrict(2) },
		func(s State) State { return s.SelectSeat(3) },
		func(s State) State { return s.SetPage(5) },
	}
	// every prefix of the drill-down followed by a reselect at each level
	for n := 1; n <= len(steps); n++ {
		s := NewState()
		for _, f := range steps[:n] {
			s = f(s)
		}
		if d := s.SelectDivision(9); d.DistrictID != 0 || d.SeatID != 0 || d.Page != 1 {
			t.Fatalf("prefix %d: division reselect kept deeper state %+v", n, d)
		}
		if d := s.SelectDistrict(9); d.SeatID != 0 || d.Page != 1 {
			t.Fatalf("prefix %d: district reselect kept seat %+v", n, d)
		}
	}
}

func TestFilterChangesResetPage(t *testing.T) {
	tax := testTaxonomy()
	s := NewState().SetPage(3)

	if got := s.SetSearch("  ঢাকা "); got.Page != 1 || got.Search != "ঢাকা" {
		t.Fatalf("SetSearch: %+v", got)
	}
	if got := s.SetParty("1", tax); got.Page != 1 {
		t.Fatalf("SetParty: %+v", got)
	}
	if got := s.SetSymbol(Independent, tax); got.Page != 1 {
		t.Fatalf("SetSymbol: %+v", got)
	}
	if got := s.SetSearch(""); got.Page != 3 {
		t.Fatalf("unchanged search must keep the page, got %+v", got)
	}
}

func TestURLRoundTrip(t *testing.T) {
	s := State{DivisionID: 3, DistrictID: 12, SeatID: 45, Page: 2}
	v := Encode(s)
	if v.Get("division") != "3" || v.Get("district") != "12" || v.Get("seat") != "45" || v.Get("page") != "2" {
		t.Fatalf("encoded %v", v)
	}
	parsed, err := url.ParseQuery(v.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if got := Decode(parsed); got != s {
		t.Fatalf("round trip = %+v, want %+v", got, s)
	}

	full := State{DivisionID: 1, Search: "abc", Party: Independent, Symbol: Independent, Page: 7}
	if got := Decode(Encode(full)); got != full {
		t.Fatalf("round trip = %+v, want %+v", got, full)
	}
}

func TestEncodeOmitsDefaults(t *testing.T) {
	v := Encode(NewState().SelectDivision(3))
	if v.Has("page") {
		t.Fatalf("page 1 must be omitted: %v", v)
	}
	if v.Encode() != "division=3" {
		t.Fatalf("encoded %q", v.Encode())
	}
	if got := Encode(NewState()).Encode(); got != "" {
		t.Fatalf("initial state encoded %q", got)
	}
}

func TestDecodeIgnoresGarbage(t *testing.T) {
	v := url.Values{"division": {"x"}, "page": {"-2"}, "party": {"drop table"}, "symbol": {"0"}}
	if got := Decode(v); got != NewState() {
		t.Fatalf("Decode = %+v", got)
	}
}

func TestBuildQuery(t *testing.T) {
	s := State{DivisionID: 1, DistrictID: 2, Search: "  রহিম  ", Party: Independent, Symbol: Independent, Page: 0}
	q := BuildQuery(s, 0)
	if q.DistrictID != 2 || q.DivisionID != 0 || q.SeatID != 0 {
		t.Fatalf("location: %+v", q)
	}
	if q.Search != "রহিম" || !q.Independent || q.Page != 1 || q.PerPage != DefaultPerPage {
		t.Fatalf("query: %+v", q)
	}
	v := q.Values()
	if v.Get("party_id") != "null" {
		t.Fatalf("party_id = %q", v.Get("party_id"))
	}

	q = BuildQuery(State{Party: "4", Symbol: "7", Page: 2}, 24)
	if q.PartyID != 4 || q.SymbolID != 7 || q.Independent || q.PerPage != 24 {
		t.Fatalf("query: %+v", q)
	}
	if BuildQuery(State{Search: "   "}, 12).Values().Has("search") {
		t.Fatal("blank search must not be sent")
	}
}

func TestSubmitFollowsChangedSide(t *testing.T) {
	tax := testTaxonomy()
	prev := Selection{Party: "1", Symbol: "10"}
	cases := []struct {
		name string
		sel  Selection
		want Selection
	}{
		{"party changed", Selection{"2", "10"}, Selection{"2", "20"}},
		{"symbol changed", Selection{"1", "30"}, Selection{"", "30"}},
		{"both changed, party wins", Selection{"2", "30"}, Selection{"2", "20"}},
		{"unchanged", Selection{"1", "10"}, Selection{"1", "10"}},
		{"cleared", Selection{"", ""}, Selection{"", ""}},
	}
	for _, tc := range cases {
		s := NewState().SelectDivision(4).SetPage(3)
		got := s.Submit(tc.sel, prev, tax)
		if got.Selection() != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got.Selection(), tc.want)
		}
		if got.DivisionID != 4 {
			t.Errorf("%s: lost division: %+v", tc.name, got)
		}
		if tc.sel != prev && got.Page != 1 {
			t.Errorf("%s: page = %d", tc.name, got.Page)
		}
	}
}

func TestNormalizeSettlesSharedLinks(t *testing.T) {
	tax := testTaxonomy()

	s := NewState().SetPage(3)
	s.Party, s.Symbol = "2", "10"
	if got := s.Normalize(tax).Selection(); got != (Selection{"2", "20"}) {
		t.Fatalf("contradictory pair: %+v", got)
	}

	s.Party, s.Symbol = "1", "10"
	if got := s.Normalize(tax); got.Page != 3 || got.Selection() != (Selection{"1", "10"}) {
		t.Fatalf("consistent pair changed: %+v", got)
	}
}

func TestFormFieldsKeepLocation(t *testing.T) {
	s := NewState().SelectDivision(7).SelectDistrict(3)
	s.Party = "1"
	got := map[string]string{}
	for _, f := range FormFields(s) {
		got[f.Name] = f.Value
	}
	want := map[string]string{"division": "7", "district": "3", "prev_party": "1", "prev_symbol": ""}
	if len(got) != len(want) {
		t.Fatalf("fields = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("fields = %v", got)
		}
	}

	prev, ok := DecodePrev(url.Values{"prev_party": {"1"}, "prev_symbol": {""}})
	if !ok || prev != (Selection{Party: "1"}) {
		t.Fatalf("DecodePrev = %+v %v", prev, ok)
	}
	if _, ok := DecodePrev(url.Values{"party": {"1"}}); ok {
		t.Fatal("DecodePrev without fields reported ok")
	}
}
