package model

// Candidate is a person contesting a Seat.  A candidate carries either a
// Party or a standalone Symbol, never both; IsIndependent is true when no
// party is set.
type Candidate struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	BnName        string  `json:"bn_name"`
	Photo         string  `json:"photo,omitempty"`
	SeatID        int64   `json:"seat_id"`
	Seat          *Seat   `json:"seat,omitempty"`
	PartyID       *int64  `json:"party_id"`
	Party         *Party  `json:"party,omitempty"`
	SymbolID      *int64  `json:"symbol_id"`
	Symbol        *Symbol `json:"symbol,omitempty"`
	IsIndependent bool    `json:"is_independent"`
	Age           int     `json:"age,omitempty"`
	Education     string  `json:"education,omitempty"`
	Profession    string  `json:"profession,omitempty"`
	Bio           string  `json:"bio,omitempty"`
}

// DisplaySymbol returns the mark shown on the candidate card: the party's
// symbol when affiliated, the standalone symbol otherwise.
func (c Candidate) DisplaySymbol() *Symbol {
	if c.Party != nil && c.Party.Symbol != nil {
		return c.Party.Symbol
	}
	return c.Symbol
}
