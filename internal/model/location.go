package model

// Division is the top level of the administrative hierarchy.  Each
// division contains districts; DistrictsCount is computed by the
// backend and only present on list responses.
//
// Fields:
//
//	ID             – backend identifier.
//	Name           – English name.
//	BnName         – Bangla name.
//	DistrictsCount – number of districts in the division.
type Division struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	BnName         string `json:"bn_name"`
	DistrictsCount int    `json:"districts_count"`
}

// District belongs to exactly one Division and contains seats.
type District struct {
	ID         int64     `json:"id"`
	DivisionID int64     `json:"division_id"`
	Name       string    `json:"name"`
	BnName     string    `json:"bn_name"`
	SeatsCount int       `json:"seats_count"`
	Division   *Division `json:"division,omitempty"`
}

// Seat is an electoral constituency.  It belongs to exactly one District.
type Seat struct {
	ID              int64     `json:"id"`
	DistrictID      int64     `json:"district_id"`
	Name            string    `json:"name"`
	BnName          string    `json:"bn_name"`
	Number          int       `json:"seat_number,omitempty"`
	CandidatesCount int       `json:"candidates_count,omitempty"`
	District        *District `json:"district,omitempty"`
}

// Label returns the Bangla name when present, the English one otherwise.
func Label(name, bnName string) string {
	if bnName != "" {
		return bnName
	}
	return name
}
