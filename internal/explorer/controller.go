package explorer

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// Backend is the slice of the REST client the explorer reads from.
type Backend interface {
	TaxonomyBackend
	Divisions(ctx context.Context) ([]model.Division, error)
	Districts(ctx context.Context, divisionID int64) ([]model.District, error)
	Seats(ctx context.Context, districtID int64) ([]model.Seat, error)
	Candidates(ctx context.Context, q api.CandidateQuery) (model.Page[model.Candidate], error)
}

// Data is everything one explorer render shows.  A list that failed to load
// is empty, never an error.
type Data struct {
	Divisions  []model.Division
	Districts  []model.District
	Seats      []model.Seat
	Candidates []model.Candidate
	Pagination model.Pagination
	Taxonomy   Taxonomy
}

// LoadPage fetches every list s needs concurrently.  Each branch logs and
// degrades to an empty list on failure.
func LoadPage(ctx context.Context, b Backend, tax TaxonomySource, s State, perPage int, log logging.Logger) Data {
	log = logging.OrNoOp(log)
	if tax == nil {
		tax = uncachedTaxonomy{backend: b, log: log}
	}
	var (
		d Data
		g errgroup.Group
	)
	g.Go(func() error {
		divs, err := b.Divisions(ctx)
		if err != nil {
			log.Warn("explorer: divisions unavailable", "error", err)
			return nil
		}
		d.Divisions = divs
		return nil
	})
	if s.DivisionID > 0 {
		g.Go(func() error {
			ds, err := b.Districts(ctx, s.DivisionID)
			if err != nil {
				log.Warn("explorer: districts unavailable", "division", s.DivisionID, "error", err)
				return nil
			}
			d.Districts = ds
			return nil
		})
	}
	if s.DistrictID > 0 {
		g.Go(func() error {
			seats, err := b.Seats(ctx, s.DistrictID)
			if err != nil {
				log.Warn("explorer: seats unavailable", "district", s.DistrictID, "error", err)
				return nil
			}
			d.Seats = seats
			return nil
		})
	}
	g.Go(func() error {
		page, err := b.Candidates(ctx, BuildQuery(s, perPage))
		if err != nil {
			log.Warn("explorer: candidates unavailable", "error", err)
			return nil
		}
		d.Candidates, d.Pagination = page.Items, page.Pagination
		return nil
	})
	g.Go(func() error {
		d.Taxonomy = tax.Taxonomy(ctx)
		return nil
	})
	_ = g.Wait()
	return d
}

type list int

const (
	listDistricts list = iota
	listSeats
	listCandidates
	listCount
)

// Controller owns one explorer's State and its lists.  Every transition
// writes the canonical URL to the sink and refetches only the lists it
// affects.  Each fetch is tagged with a per-list sequence number; a response
// whose number is no longer the latest is dropped, so a slow answer to an
// old filter never overwrites a newer one.
type Controller struct {
	backend Backend
	tax     TaxonomySource
	sink    URLSink
	log     logging.Logger
	perPage int

	clock    Clock
	delay    time.Duration
	search   *Debouncer
	commitTo context.Context

	mu    sync.Mutex
	state State
	data  Data
	seq   [listCount]uint64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

func WithURLSink(s URLSink) ControllerOption { return func(c *Controller) { c.sink = s } }

func WithTaxonomy(t TaxonomySource) ControllerOption { return func(c *Controller) { c.tax = t } }

func WithLogger(l logging.Logger) ControllerOption {
	return func(c *Controller) { c.log = logging.OrNoOp(l) }
}

func WithPerPage(n int) ControllerOption { return func(c *Controller) { c.perPage = n } }

// WithDebounce sets the clock and quiet period of the search box.
func WithDebounce(clock Clock, delay time.Duration) ControllerOption {
	return func(c *Controller) { c.clock, c.delay = clock, delay }
}

// NewController returns a controller in the initial state.  Call Init to
// load it.
func NewController(b Backend, opts ...ControllerOption) *Controller {
	c := &Controller{
		backend:  b,
		log:      logging.NoOp(),
		perPage:  DefaultPerPage,
		delay:    DefaultDebounce,
		state:    NewState(),
		commitTo: context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tax == nil {
		c.tax = uncachedTaxonomy{backend: b, log: c.log}
	}
	c.search = NewDebouncer(c.clock, c.delay, c.commitSearch)
	return c
}

// Init restores state from URL parameters and loads every list.  ctx also
// scopes the fetches triggered later by debounced search commits.
func (c *Controller) Init(ctx context.Context, v url.Values) {
	s := Decode(v)
	c.mu.Lock()
	c.commitTo = ctx
	c.state = s
	for i := range c.seq {
		c.seq[i]++
	}
	c.mu.Unlock()

	d := LoadPage(ctx, c.backend, c.tax, s, c.perPage, c.log)

	c.mu.Lock()
	c.data = d
	c.mu.Unlock()
}

// State returns the current filter state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Data returns a copy of the loaded lists.
func (c *Controller) Data() Data {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

func (c *Controller) SelectDivision(ctx context.Context, id int64) {
	if c.transition(func(s State) State { return s.SelectDivision(id) }) {
		c.refreshDistricts(ctx)
		c.refreshCandidates(ctx)
	}
}

func (c *Controller) SelectDistrict(ctx context.Context, id int64) {
	if c.transition(func(s State) State { return s.SelectDistrict(id) }) {
		c.refreshSeats(ctx)
		c.refreshCandidates(ctx)
	}
}

func (c *Controller) SelectSeat(ctx context.Context, id int64) {
	if c.transition(func(s State) State { return s.SelectSeat(id) }) {
		c.refreshCandidates(ctx)
	}
}

func (c *Controller) SetParty(ctx context.Context, party string) {
	tax := c.taxonomy(ctx)
	if c.transition(func(s State) State { return s.SetParty(party, tax) }) {
		c.refreshCandidates(ctx)
	}
}

func (c *Controller) SetSymbol(ctx context.Context, symbol string) {
	tax := c.taxonomy(ctx)
	if c.transition(func(s State) State { return s.SetSymbol(symbol, tax) }) {
		c.refreshCandidates(ctx)
	}
}

func (c *Controller) SetPage(ctx context.Context, page int) {
	if c.transition(func(s State) State { return s.SetPage(page) }) {
		c.refreshCandidates(ctx)
	}
}

// Reset clears every filter and reloads.
func (c *Controller) Reset(ctx context.Context) {
	c.search.Stop()
	if c.transition(func(s State) State { return s.Reset() }) {
		c.refreshDistricts(ctx)
		c.refreshSeats(ctx)
		c.refreshCandidates(ctx)
	}
}

// Type buffers search input.  Only the value standing after a quiet period
// is committed.
func (c *Controller) Type(text string) { c.search.Push(text) }

// SubmitSearch commits text immediately, as on an explicit form submit.
func (c *Controller) SubmitSearch(ctx context.Context, text string) {
	c.search.Stop()
	if c.transition(func(s State) State { return s.SetSearch(text) }) {
		c.refreshCandidates(ctx)
	}
}

func (c *Controller) commitSearch(text string) {
	c.mu.Lock()
	ctx := c.commitTo
	c.mu.Unlock()
	if c.transition(func(s State) State { return s.SetSearch(text) }) {
		c.refreshCandidates(ctx)
	}
}

// Flush commits pending search input without waiting for the quiet period.
func (c *Controller) Flush() { c.search.Flush() }

// Close drops any pending search input.
func (c *Controller) Close() { c.search.Stop() }

func (c *Controller) taxonomy(ctx context.Context) Taxonomy {
	c.mu.Lock()
	t := c.data.Taxonomy
	c.mu.Unlock()
	if !t.Empty() {
		return t
	}
	t = c.tax.Taxonomy(ctx)
	c.mu.Lock()
	c.data.Taxonomy = t
	c.mu.Unlock()
	return t
}

// transition applies f, clears lists below a changed location and publishes
// the new URL.  It reports whether the state changed.
func (c *Controller) transition(f func(State) State) bool {
	c.mu.Lock()
	prev := c.state
	next := f(prev)
	if next == prev {
		c.mu.Unlock()
		return false
	}
	c.state = next
	if next.DivisionID != prev.DivisionID {
		c.data.Districts = nil
		c.seq[listDistricts]++
	}
	if next.DistrictID != prev.DistrictID {
		c.data.Seats = nil
		c.seq[listSeats]++
	}
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.Replace(Encode(next))
	}
	return true
}

func (c *Controller) begin(l list) (uint64, State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[l]++
	return c.seq[l], c.state
}

// latest reports whether seq is still the newest request for l.  The caller
// holds c.mu.
func (c *Controller) latest(l list, seq uint64) bool {
	if c.seq[l] != seq {
		c.log.Debug("explorer: stale response dropped", "list", int(l), "seq", seq, "latest", c.seq[l])
		return false
	}
	return true
}

func (c *Controller) refreshDistricts(ctx context.Context) {
	seq, s := c.begin(listDistricts)
	if s.DivisionID == 0 {
		return
	}
	ds, err := c.backend.Districts(ctx, s.DivisionID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.latest(listDistricts, seq) {
		return
	}
	if err != nil {
		c.log.Warn("explorer: districts unavailable", "division", s.DivisionID, "error", err)
		ds = nil
	}
	c.data.Districts = ds
}

func (c *Controller) refreshSeats(ctx context.Context) {
	seq, s := c.begin(listSeats)
	if s.DistrictID == 0 {
		return
	}
	seats, err := c.backend.Seats(ctx, s.DistrictID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.latest(listSeats, seq) {
		return
	}
	if err != nil {
		c.log.Warn("explorer: seats unavailable", "district", s.DistrictID, "error", err)
		seats = nil
	}
	c.data.Seats = seats
}

func (c *Controller) refreshCandidates(ctx context.Context) {
	seq, s := c.begin(listCandidates)
	page, err := c.backend.Candidates(ctx, BuildQuery(s, c.perPage))
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.latest(listCandidates, seq) {
		return
	}
	if err != nil {
		c.log.Warn("explorer: candidates unavailable", "error", err)
		page = model.Page[model.Candidate]{}
	}
	c.data.Candidates, c.data.Pagination = page.Items, page.Pagination
}
