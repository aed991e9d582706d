package admin

import (
	"errors"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/model"
)

// MinPollOptions is the fewest options a poll may have.
const MinPollOptions = 2

var (
	ErrPartyOrSymbol    = errors.New("দল অথবা প্রতীক নির্বাচন করুন")
	ErrPartyAndSymbol   = errors.New("দল ও প্রতীক একসাথে নির্বাচন করা যাবে না")
	ErrTooFewOptions    = errors.New("কমপক্ষে ২টি অপশন দিন")
	ErrOptionFloor      = errors.New("কমপক্ষে ২টি অপশন থাকতে হবে")
	ErrOptionOutOfRange = errors.New("অপশন পাওয়া যায়নি")
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// CandidateForm creates or edits a candidate.  Zero ids mean "none".  A
// candidate runs either for a party or with a standalone symbol.
type CandidateForm struct {
	Name       string      `json:"name" form:"name"`
	BnName     string      `json:"bn_name" form:"bn_name"`
	SeatID     int64       `json:"seat_id" form:"seat_id"`
	PartyID    int64       `json:"party_id" form:"party_id"`
	SymbolID   int64       `json:"symbol_id" form:"symbol_id"`
	Age        int         `json:"age" form:"age"`
	Education  string      `json:"education" form:"education"`
	Profession string      `json:"profession" form:"profession"`
	Bio        string      `json:"bio" form:"bio"`
	Photo      *api.Upload `json:"-" form:"-"`
}

func (f CandidateForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.SeatID, validation.Required),
		validation.Field(&f.PartyID, validation.By(func(interface{}) error {
			switch {
			case f.PartyID == 0 && f.SymbolID == 0:
				return ErrPartyOrSymbol
			case f.PartyID > 0 && f.SymbolID > 0:
				return ErrPartyAndSymbol
			}
			return nil
		})),
		validation.Field(&f.Age, validation.Min(0), validation.Max(150)),
		validation.Field(&f.Photo, imageRule),
	)
}

type candidatePayload struct {
	Name          string `json:"name"`
	BnName        string `json:"bn_name"`
	SeatID        int64  `json:"seat_id"`
	PartyID       *int64 `json:"party_id"`
	SymbolID      *int64 `json:"symbol_id"`
	IsIndependent bool   `json:"is_independent"`
	Age           int    `json:"age,omitempty"`
	Education     string `json:"education,omitempty"`
	Profession    string `json:"profession,omitempty"`
	Bio           string `json:"bio,omitempty"`
}

func (f CandidateForm) Payload() any {
	if !f.Photo.Empty() {
		return f
	}
	return candidatePayload{
		Name: f.Name, BnName: f.BnName, SeatID: f.SeatID,
		PartyID: optID(f.PartyID), SymbolID: optID(f.SymbolID), IsIndependent: f.PartyID == 0,
		Age: f.Age, Education: f.Education, Profession: f.Profession, Bio: f.Bio,
	}
}

func (f CandidateForm) EncodeMultipart(w *multipart.Writer) error {
	fields := &api.Fields{}
	fields.Set("name", f.Name).Set("bn_name", f.BnName).SetInt("seat_id", f.SeatID).
		SetOptInt("party_id", optID(f.PartyID)).SetOptInt("symbol_id", optID(f.SymbolID)).
		SetBool("is_independent", f.PartyID == 0).
		SetInt("age", int64(f.Age)).Set("education", f.Education).
		Set("profession", f.Profession).Set("bio", f.Bio)
	if err := fields.Write(w); err != nil {
		return err
	}
	return api.WriteFile(w, "photo", *f.Photo)
}

// CandidateFormFrom pre-fills a form from c.
func CandidateFormFrom(c model.Candidate) CandidateForm {
	f := CandidateForm{
		Name: c.Name, BnName: c.BnName, SeatID: c.SeatID,
		PartyID: idOf(c.PartyID), SymbolID: idOf(c.SymbolID),
		Age: c.Age, Education: c.Education, Profession: c.Profession, Bio: c.Bio,
	}
	if f.PartyID == 0 && c.Party != nil {
		f.PartyID = c.Party.ID
	}
	// the party's own symbol is implied, not chosen
	if f.PartyID > 0 {
		f.SymbolID = 0
	} else if f.SymbolID == 0 && c.Symbol != nil {
		f.SymbolID = c.Symbol.ID
	}
	return f
}

// PollForm creates or edits a poll.
type PollForm struct {
	Question string     `json:"question" form:"question"`
	Options  []string   `json:"options" form:"options"`
	IsActive bool       `json:"is_active" form:"is_active"`
	EndsAt   *time.Time `json:"ends_at,omitempty" form:"-"`
}

// NewPollForm returns a blank poll with the minimum number of empty options.
func NewPollForm() PollForm {
	return PollForm{Options: make([]string, MinPollOptions), IsActive: true}
}

// AddOption appends an empty option.
func (f *PollForm) AddOption() { f.Options = append(f.Options, "") }

// RemoveOption drops option i.  It is refused when only the minimum remain.
func (f *PollForm) RemoveOption(i int) error {
	if len(f.Options) <= MinPollOptions {
		return ErrOptionFloor
	}
	if i < 0 || i >= len(f.Options) {
		return ErrOptionOutOfRange
	}
	f.Options = append(f.Options[:i], f.Options[i+1:]...)
	return nil
}

// FilledOptions returns the trimmed non-empty options.
func (f PollForm) FilledOptions() []string {
	out := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (f PollForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Question, validation.Required, validation.Length(1, 500)),
		validation.Field(&f.Options, validation.By(func(interface{}) error {
			if len(f.FilledOptions()) < MinPollOptions {
				return ErrTooFewOptions
			}
			return nil
		})),
	)
}

func (f PollForm) Payload() any {
	return struct {
		Question string     `json:"question"`
		Options  []string   `json:"options"`
		IsActive bool       `json:"is_active"`
		EndsAt   *time.Time `json:"ends_at,omitempty"`
	}{strings.TrimSpace(f.Question), f.FilledOptions(), f.IsActive, f.EndsAt}
}

func PollFormFrom(p model.Poll) PollForm {
	f := PollForm{Question: p.Question, IsActive: p.IsActive, EndsAt: p.EndsAt}
	for _, o := range p.Options {
		f.Options = append(f.Options, o.Text)
	}
	for len(f.Options) < MinPollOptions {
		f.Options = append(f.Options, "")
	}
	return f
}

// NewsForm creates or edits an article.  Content is Markdown.
type NewsForm struct {
	Title       string      `json:"title" form:"title"`
	Summary     string      `json:"summary" form:"summary"`
	Content     string      `json:"content" form:"content"`
	Category    string      `json:"category" form:"category"`
	IsPublished bool        `json:"is_published" form:"is_published"`
	Image       *api.Upload `json:"-" form:"-"`
}

func (f NewsForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.Summary, validation.Length(0, 500)),
		validation.Field(&f.Content, validation.Required),
		validation.Field(&f.Image, imageRule),
	)
}

func (f NewsForm) Payload() any {
	if !f.Image.Empty() {
		return f
	}
	return struct {
		Title       string `json:"title"`
		Summary     string `json:"summary,omitempty"`
		Content     string `json:"content"`
		Category    string `json:"category,omitempty"`
		IsPublished bool   `json:"is_published"`
	}{f.Title, f.Summary, f.Content, f.Category, f.IsPublished}
}

func (f NewsForm) EncodeMultipart(w *multipart.Writer) error {
	fields := &api.Fields{}
	fields.Set("title", f.Title).Set("summary", f.Summary).Set("content", f.Content).
		Set("category", f.Category).SetBool("is_published", f.IsPublished)
	if err := fields.Write(w); err != nil {
		return err
	}
	return api.WriteFile(w, "image", *f.Image)
}

func NewsFormFrom(n model.News) NewsForm {
	return NewsForm{Title: n.Title, Summary: n.Summary, Content: n.Content, Category: n.Category, IsPublished: n.IsPublished}
}

// DivisionForm creates or edits a division.
type DivisionForm struct {
	Name   string `json:"name" form:"name"`
	BnName string `json:"bn_name" form:"bn_name"`
}

func (f DivisionForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&f.BnName, validation.Required, validation.Length(1, 100)),
	)
}

func (f DivisionForm) Payload() any { return f }

func DivisionFormFrom(d model.Division) DivisionForm {
	return DivisionForm{Name: d.Name, BnName: d.BnName}
}

// DistrictForm creates or edits a district.
type DistrictForm struct {
	DivisionID int64  `json:"division_id" form:"division_id"`
	Name       string `json:"name" form:"name"`
	BnName     string `json:"bn_name" form:"bn_name"`
}

func (f DistrictForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.DivisionID, validation.Required),
		validation.Field(&f.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&f.BnName, validation.Required, validation.Length(1, 100)),
	)
}

func (f DistrictForm) Payload() any { return f }

func DistrictFormFrom(d model.District) DistrictForm {
	return DistrictForm{DivisionID: d.DivisionID, Name: d.Name, BnName: d.BnName}
}

// SeatForm creates or edits a seat.
type SeatForm struct {
	DistrictID int64  `json:"district_id" form:"district_id"`
	Name       string `json:"name" form:"name"`
	BnName     string `json:"bn_name" form:"bn_name"`
	Number     int    `json:"seat_number" form:"seat_number"`
}

func (f SeatForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.DistrictID, validation.Required),
		validation.Field(&f.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&f.BnName, validation.Required, validation.Length(1, 100)),
		validation.Field(&f.Number, validation.Min(0)),
	)
}

func (f SeatForm) Payload() any { return f }

func SeatFormFrom(s model.Seat) SeatForm {
	return SeatForm{DistrictID: s.DistrictID, Name: s.Name, BnName: s.BnName, Number: s.Number}
}

// PartyForm creates or edits a party.
type PartyForm struct {
	Name          string      `json:"name" form:"name"`
	BnName        string      `json:"bn_name" form:"bn_name"`
	Color         string      `json:"color" form:"color"`
	IsIndependent bool        `json:"is_independent" form:"is_independent"`
	SymbolID      int64       `json:"symbol_id" form:"symbol_id"`
	Logo          *api.Upload `json:"-" form:"-"`
}

func (f PartyForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.BnName, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.Color, validation.Match(hexColor)),
		validation.Field(&f.SymbolID, validation.When(f.IsIndependent, validation.In(int64(0)).Error("স্বতন্ত্র দলের প্রতীক থাকে না"))),
		validation.Field(&f.Logo, imageRule),
	)
}

func (f PartyForm) Payload() any {
	if !f.Logo.Empty() {
		return f
	}
	return struct {
		Name          string `json:"name"`
		BnName        string `json:"bn_name"`
		Color         string `json:"color,omitempty"`
		IsIndependent bool   `json:"is_independent"`
		SymbolID      *int64 `json:"symbol_id"`
	}{f.Name, f.BnName, f.Color, f.IsIndependent, optID(f.SymbolID)}
}

func (f PartyForm) EncodeMultipart(w *multipart.Writer) error {
	fields := &api.Fields{}
	fields.Set("name", f.Name).Set("bn_name", f.BnName).Set("color", f.Color).
		SetBool("is_independent", f.IsIndependent).SetOptInt("symbol_id", optID(f.SymbolID))
	if err := fields.Write(w); err != nil {
		return err
	}
	return api.WriteFile(w, "logo", *f.Logo)
}

func PartyFormFrom(p model.Party) PartyForm {
	f := PartyForm{Name: p.Name, BnName: p.BnName, Color: p.Color, IsIndependent: p.IsIndependent}
	if id, ok := p.OwnSymbolID(); ok {
		f.SymbolID = id
	}
	return f
}

// SymbolForm creates or edits a symbol.  PartyID zero makes it standalone.
type SymbolForm struct {
	Name    string      `json:"name" form:"name"`
	BnName  string      `json:"bn_name" form:"bn_name"`
	PartyID int64       `json:"party_id" form:"party_id"`
	Image   *api.Upload `json:"-" form:"-"`
}

func (f SymbolForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.BnName, validation.Length(0, 255)),
		validation.Field(&f.Image, imageRule),
	)
}

func (f SymbolForm) Payload() any {
	if !f.Image.Empty() {
		return f
	}
	return struct {
		Name    string `json:"name"`
		BnName  string `json:"bn_name,omitempty"`
		PartyID *int64 `json:"party_id"`
	}{f.Name, f.BnName, optID(f.PartyID)}
}

func (f SymbolForm) EncodeMultipart(w *multipart.Writer) error {
	fields := &api.Fields{}
	fields.Set("name", f.Name).Set("bn_name", f.BnName).SetOptInt("party_id", optID(f.PartyID))
	if err := fields.Write(w); err != nil {
		return err
	}
	return api.WriteFile(w, "image", *f.Image)
}

func SymbolFormFrom(s model.Symbol) SymbolForm {
	return SymbolForm{Name: s.Name, BnName: s.BnName, PartyID: idOf(s.PartyID)}
}
