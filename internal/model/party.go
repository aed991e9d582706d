package model

// Party is a political party.  A party is either flagged independent or may
// own a Symbol; SymbolID mirrors Symbol.ID when the backend embeds it.
type Party struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	BnName        string  `json:"bn_name"`
	Color         string  `json:"color"`
	Logo          string  `json:"logo,omitempty"`
	IsIndependent bool    `json:"is_independent"`
	SymbolID      *int64  `json:"symbol_id,omitempty"`
	Symbol        *Symbol `json:"symbol,omitempty"`
}

// OwnSymbolID returns the id of the party's symbol, if any.
func (p Party) OwnSymbolID() (int64, bool) {
	if p.SymbolID != nil {
		return *p.SymbolID, true
	}
	if p.Symbol != nil {
		return p.Symbol.ID, true
	}
	return 0, false
}

// Symbol is the ballot mark.  Standalone symbols (PartyID nil) represent
// independent candidates.
type Symbol struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	BnName  string `json:"bn_name"`
	Image   string `json:"image,omitempty"`
	PartyID *int64 `json:"party_id,omitempty"`
}
