// Package admin implements the back-office CRUD screens.  Every screen
// follows one contract: list, open a create or edit modal, submit, refetch
// on success, keep the modal and its input on failure, and never delete
// without an explicit confirmation.
package admin

import (
	"context"
	"errors"
	"net/url"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// Form is the editable input of a screen.  Payload returns the request body:
// an api.MultipartEncoder when a file is attached, a JSON value otherwise.
type Form interface {
	Validate() error
	Payload() any
}

// Backend is the CRUD collection a screen edits.  api.Resource satisfies it.
type Backend[T any] interface {
	List(ctx context.Context, q url.Values) (model.Page[T], error)
	Create(ctx context.Context, body any) (T, error)
	Update(ctx context.Context, id int64, body any) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Mode says whether the modal creates or edits.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Modal is the open create/edit dialog.
type Modal[F Form] struct {
	Mode Mode  `json:"mode"`
	ID   int64 `json:"id,omitempty"`
	Form F     `json:"form"`
}

// Toast is a transient notice.
type Toast struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// ErrNotConfirmed is returned by ConfirmDelete when no delete was requested.
var ErrNotConfirmed = errors.New("admin: delete not confirmed")

// ErrNoModal is returned by Submit when no modal is open.
var ErrNoModal = errors.New("admin: no open form")

// Spec describes one screen: its name, how items map onto forms and which
// collection of the admin API it edits.
type Spec[T any, F Form] struct {
	Name   string
	Title  string
	IDOf   func(T) int64
	FormOf func(T) F
	Blank  func() F
	Bind   func(*api.Client) Backend[T]

	// FileField names the upload part a form accepts, if any.
	FileField string
	Attach    func(f *F, u *api.Upload)

	// Reference marks screens whose writes change the explorer's filter
	// choices.
	Reference bool
}

// Screen is the state of one CRUD screen.  It is not safe for concurrent
// use; handlers build one per request.
type Screen[T any, F Form] struct {
	spec    Spec[T, F]
	backend Backend[T]
	log     logging.Logger

	Items         []T              `json:"items"`
	Pagination    model.Pagination `json:"pagination"`
	Query         url.Values       `json:"-"`
	Modal         *Modal[F]        `json:"modal,omitempty"`
	PendingDelete int64            `json:"pending_delete,omitempty"`
	Toasts        []Toast          `json:"toasts,omitempty"`
}

func NewScreen[T any, F Form](spec Spec[T, F], b Backend[T], log logging.Logger) *Screen[T, F] {
	return &Screen[T, F]{spec: spec, backend: b, log: logging.OrNoOp(log)}
}

// Open builds a screen over the collection spec binds to on c.
func Open[T any, F Form](spec Spec[T, F], c *api.Client, log logging.Logger) *Screen[T, F] {
	return NewScreen(spec, spec.Bind(c), log)
}

func (s *Screen[T, F]) Name() string  { return s.spec.Name }
func (s *Screen[T, F]) Title() string { return s.spec.Title }

// Load fetches one page of the list.  A failure empties the list and raises
// a toast.
func (s *Screen[T, F]) Load(ctx context.Context, q url.Values) error {
	s.Query = q
	page, err := s.backend.List(ctx, q)
	if err != nil {
		s.log.Warn("admin: list failed", "screen", s.spec.Name, "error", err)
		s.Items, s.Pagination = nil, model.Pagination{}
		s.toast(ToastError, api.Message(err, ""))
		return err
	}
	s.Items, s.Pagination = page.Items, page.Pagination
	return nil
}

// OpenCreate opens an empty form.
func (s *Screen[T, F]) OpenCreate() {
	s.Modal = &Modal[F]{Mode: ModeCreate, Form: s.spec.Blank()}
}

// OpenEdit opens a form pre-filled from item.
func (s *Screen[T, F]) OpenEdit(item T) {
	s.Modal = &Modal[F]{Mode: ModeEdit, ID: s.spec.IDOf(item), Form: s.spec.FormOf(item)}
}

// OpenEditID opens an edit form for an item known only by id.
func (s *Screen[T, F]) OpenEditID(id int64) {
	s.Modal = &Modal[F]{Mode: ModeEdit, ID: id, Form: s.spec.Blank()}
}

func (s *Screen[T, F]) CloseModal() { s.Modal = nil }

// Submit validates f locally, then creates or updates.  On success the list
// is refetched and the modal closed; on any failure the modal stays open
// holding f and a toast explains why.
func (s *Screen[T, F]) Submit(ctx context.Context, f F) (T, error) {
	var zero T
	if s.Modal == nil {
		return zero, ErrNoModal
	}
	s.Modal.Form = f
	if err := forms.Wrap(f.Validate(), "ADMIN_FORM_INVALID"); err != nil {
		s.toast(ToastError, forms.Message(err))
		return zero, err
	}
	var (
		item T
		err  error
	)
	if s.Modal.Mode == ModeEdit {
		item, err = s.backend.Update(ctx, s.Modal.ID, f.Payload())
	} else {
		item, err = s.backend.Create(ctx, f.Payload())
	}
	if err != nil {
		s.log.Warn("admin: save failed", "screen", s.spec.Name, "mode", s.Modal.Mode, "error", err)
		s.toast(ToastError, api.Message(err, ""))
		return zero, err
	}
	msg := "সফলভাবে তৈরি হয়েছে"
	if s.Modal.Mode == ModeEdit {
		msg = "সফলভাবে হালনাগাদ হয়েছে"
	}
	s.Modal = nil
	s.toast(ToastSuccess, msg)
	s.reload(ctx)
	return item, nil
}

// RequestDelete asks for confirmation; nothing is sent yet.
func (s *Screen[T, F]) RequestDelete(id int64) { s.PendingDelete = id }

func (s *Screen[T, F]) CancelDelete() { s.PendingDelete = 0 }

// ConfirmDelete performs the requested delete and refetches the list.
func (s *Screen[T, F]) ConfirmDelete(ctx context.Context) error {
	id := s.PendingDelete
	if id == 0 {
		return ErrNotConfirmed
	}
	s.PendingDelete = 0
	if err := s.backend.Delete(ctx, id); err != nil {
		s.log.Warn("admin: delete failed", "screen", s.spec.Name, "id", id, "error", err)
		s.toast(ToastError, api.Message(err, ""))
		return err
	}
	s.toast(ToastSuccess, "মুছে ফেলা হয়েছে")
	s.reload(ctx)
	return nil
}

// DrainToasts returns and clears pending toasts.
func (s *Screen[T, F]) DrainToasts() []Toast {
	t := s.Toasts
	s.Toasts = nil
	return t
}

func (s *Screen[T, F]) reload(ctx context.Context) {
	if err := s.Load(ctx, s.Query); err != nil {
		s.log.Debug("admin: refetch after write failed", "screen", s.spec.Name)
	}
}

func (s *Screen[T, F]) toast(kind, msg string) {
	s.Toasts = append(s.Toasts, Toast{Kind: kind, Message: msg})
}
