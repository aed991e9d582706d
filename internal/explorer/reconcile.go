package explorer

import (
	"strconv"

	"github.com/votemamu/web/internal/model"
)

// Taxonomy is a snapshot of the parties and symbols the filters choose from.
type Taxonomy struct {
	Parties []model.Party
	Symbols []model.Symbol
}

// Empty reports whether the snapshot holds no reference data.
func (t Taxonomy) Empty() bool { return len(t.Parties) == 0 && len(t.Symbols) == 0 }

// symbolOf returns the symbol owned by party id.
func (t Taxonomy) symbolOf(partyID int64) (int64, bool) {
	for _, p := range t.Parties {
		if p.ID == partyID {
			if sid, ok := p.OwnSymbolID(); ok {
				return sid, true
			}
			break
		}
	}
	for _, s := range t.Symbols {
		if s.PartyID != nil && *s.PartyID == partyID {
			return s.ID, true
		}
	}
	return 0, false
}

// ownerOf returns the party owning symbol id.  known is false when the
// symbol is not in the snapshot at all.
func (t Taxonomy) ownerOf(symbolID int64) (partyID int64, owned, known bool) {
	for _, s := range t.Symbols {
		if s.ID != symbolID {
			continue
		}
		known = true
		if s.PartyID != nil && t.hasParty(*s.PartyID) {
			return *s.PartyID, true, true
		}
	}
	for _, p := range t.Parties {
		if sid, ok := p.OwnSymbolID(); ok && sid == symbolID {
			return p.ID, true, true
		}
	}
	return 0, false, known
}

func (t Taxonomy) hasParty(id int64) bool {
	for _, p := range t.Parties {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Selection is the party/symbol filter pair.
type Selection struct {
	Party  string
	Symbol string
}

// Side says which half of a Selection the user just changed.
type Side int

const (
	PartyChanged Side = iota
	SymbolChanged
)

// Reconcile makes sel self-consistent after the side named by changed was
// set.  The changed side is never altered; the other side follows it:
//
//   - Independent on either side selects Independent on both.
//   - A party owning a symbol selects that symbol; a party without one
//     clears the symbol filter.
//   - A symbol with a known owning party selects that party; a standalone
//     symbol keeps an Independent party filter and clears any other.
//   - Clearing a side clears the other when it was linked to it.
//
// Ids missing from tax leave the other side untouched.
func Reconcile(sel Selection, changed Side, tax Taxonomy) Selection {
	if changed == PartyChanged {
		sel.Symbol = followParty(sel, tax)
	} else {
		sel.Party = followSymbol(sel, tax)
	}
	return sel
}

func followParty(sel Selection, tax Taxonomy) string {
	switch sel.Party {
	case Independent:
		return Independent
	case "":
		if sel.Symbol == Independent {
			return ""
		}
		if id, ok := parseID(sel.Symbol); ok {
			if _, owned, _ := tax.ownerOf(id); owned {
				return ""
			}
		}
		return sel.Symbol
	}
	pid, ok := parseID(sel.Party)
	if !ok || !tax.hasParty(pid) {
		return sel.Symbol
	}
	if sid, ok := tax.symbolOf(pid); ok {
		return formatID(sid)
	}
	return ""
}

func followSymbol(sel Selection, tax Taxonomy) string {
	switch sel.Symbol {
	case Independent:
		return Independent
	case "":
		if sel.Party == Independent {
			return ""
		}
		if pid, ok := parseID(sel.Party); ok {
			if _, owns := tax.symbolOf(pid); owns {
				return ""
			}
		}
		return sel.Party
	}
	sid, ok := parseID(sel.Symbol)
	if !ok {
		return sel.Party
	}
	pid, owned, known := tax.ownerOf(sid)
	switch {
	case owned:
		return formatID(pid)
	case !known:
		return sel.Party
	case sel.Party == Independent:
		return Independent
	}
	return ""
}

func parseID(v string) (int64, bool) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
