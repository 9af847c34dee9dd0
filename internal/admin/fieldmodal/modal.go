// Package fieldmodal drives the "create field" dialog: it seeds and edits a
// form, validates it, resolves the parent model and persists the new field.
package fieldmodal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iancoleman/strcase"

	"github.com/Skotchmaster/cms_admin/internal/admin/form"
	"github.com/Skotchmaster/cms_admin/internal/gqlclient"
	"github.com/Skotchmaster/cms_admin/internal/logging"
)

// SubmitDelay is the pause between accepting a submit and talking to the
// server. It gives the dialog time to show its busy state and is cut short
// by Close.
const SubmitDelay = 300 * time.Millisecond

const (
	KeyModel        = "model"
	KeyFieldName    = "fieldName"
	KeyIdentifier   = "identifier"
	KeyType         = "type"
	KeyDefaultValue = "defaultValue"
	KeyDescription  = "description"
	KeyIsHide       = "isHide"
	KeyIsMedia      = "isMedia"
	KeyIsUnique     = "isUnique"
	KeyIsRequired   = "isRequired"
	KeyIsSystem     = "isSystem"
	KeyIsPrimaryKey = "isPrimaryKey"
)

var requiredKeys = []string{KeyFieldName, KeyIdentifier}

var flagKeys = map[string]bool{
	KeyIsHide: true, KeyIsMedia: true, KeyIsUnique: true,
	KeyIsRequired: true, KeyIsSystem: true, KeyIsPrimaryKey: true,
}

var textKeys = map[string]bool{
	KeyModel: true, KeyFieldName: true, KeyIdentifier: true,
	KeyType: true, KeyDefaultValue: true, KeyDescription: true,
}

var (
	ErrNotOpen    = errors.New("modal is not open")
	ErrBusy       = errors.New("submit already in progress")
	ErrUnknownKey = errors.New("unknown field key")
)

type Status int

const (
	StatusUninitialized Status = iota
	StatusEditing
	StatusValidating
	StatusSubmitting
	StatusPersisting
	StatusClosed
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusEditing:
		return "editing"
	case StatusValidating:
		return "validating"
	case StatusSubmitting:
		return "submitting"
	case StatusPersisting:
		return "persisting"
	case StatusClosed:
		return "closed"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required: " + strings.Join(e.Fields, ", ")
}

type ModelNotFoundError struct {
	Identifier string
}

func (e *ModelNotFoundError) Error() string {
	return "model " + e.Identifier + " not found"
}

// PersistenceError wraps a failed model lookup or field mutation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

type Client interface {
	GetModel(ctx context.Context, identifier string) (*gqlclient.Model, error)
	CreateField(ctx context.Context, in gqlclient.FieldInput) (*gqlclient.Field, error)
}

type Options struct {
	ModelIdentifier string
	Type            string

	// OnClose runs whenever the dialog closes. Reload runs after a field was
	// created.
	OnClose func()
	Reload  func()
}

type Modal struct {
	// Delay defaults to SubmitDelay.
	Delay time.Duration

	mu     sync.Mutex
	client Client
	form   *form.State
	opts   Options
	status Status
	err    error
	cancel context.CancelFunc
	gen    uint64
}

func New(client Client) *Modal {
	return &Modal{
		Delay:  SubmitDelay,
		client: client,
		form:   form.New(),
	}
}

func defaults(opts Options) form.Values {
	return form.Values{
		KeyModel:        opts.ModelIdentifier,
		KeyFieldName:    "",
		KeyIdentifier:   "",
		KeyType:         opts.Type,
		KeyDefaultValue: "",
		KeyDescription:  "",
		KeyIsHide:       false,
		KeyIsMedia:      false,
		KeyIsUnique:     false,
		KeyIsRequired:   true,
		KeyIsSystem:     false,
		KeyIsPrimaryKey: false,
	}
}

// Open seeds the form from opts the first time and is a no-op for values
// afterwards, except that a changed type is carried over.
func (m *Modal) Open(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.opts
	m.opts = opts
	if !m.form.SetInitialValues(defaults(opts)) && prev.Type != opts.Type {
		m.form.SetValue(KeyType, opts.Type)
	}
	if m.status == StatusUninitialized || m.status == StatusClosed {
		m.status = StatusEditing
		m.err = nil
	}
}

// SetOptions updates the dialog options of an open modal. Only the type is
// propagated into the live form.
func (m *Modal) SetOptions(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.opts
	m.opts = opts
	if m.form.Seeded() && prev.Type != opts.Type {
		m.form.SetValue(KeyType, opts.Type)
	}
}

func (m *Modal) editable() error {
	if !m.form.Seeded() {
		return ErrNotOpen
	}
	if m.status == StatusSubmitting || m.status == StatusPersisting {
		return ErrBusy
	}
	if m.status == StatusError {
		m.status = StatusEditing
		m.err = nil
	}
	return nil
}

// Change applies a user edit to a text field. Editing fieldName re-derives
// identifier until the user edits identifier directly.
func (m *Modal) Change(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !textKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := m.editable(); err != nil {
		return err
	}

	m.form.OnChange(key, value)
	if key == KeyFieldName && !m.form.Touched(KeyIdentifier) {
		m.form.SetValue(KeyIdentifier, strcase.ToLowerCamel(strings.TrimSpace(value)))
	}
	return nil
}

func (m *Modal) Toggle(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !flagKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := m.editable(); err != nil {
		return err
	}
	m.form.OnChange(key, !m.form.Bool(key))
	return nil
}

// View returns the current values. ok is false until the form is seeded, in
// which case nothing should be rendered.
func (m *Modal) View() (form.Values, bool) {
	if !m.form.Seeded() {
		return nil, false
	}
	return m.form.Values(), true
}

func (m *Modal) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Modal) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Required lists the fields flagged by the last failed validation.
func (m *Modal) Required() []string {
	return m.form.Required()
}

// Close aborts an in-flight submit, clears the form and closes the dialog.
func (m *Modal) Close() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.form.Reset()
	m.status = StatusClosed
	m.err = nil
	onClose := m.opts.OnClose
	m.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// Submit validates the form, resolves the parent model and creates the
// field. The lookup always happens before the mutation and both share one
// context that Close cancels.
func (m *Modal) Submit(ctx context.Context) error {
	m.mu.Lock()
	if err := m.editable(); err != nil {
		m.mu.Unlock()
		return err
	}

	m.status = StatusValidating
	if missing := m.form.EmptyValues(requiredKeys...); len(missing) > 0 {
		m.form.MarkRequired(missing...)
		m.status = StatusEditing
		m.mu.Unlock()
		return &ValidationError{Fields: missing}
	}

	in := fieldInput(m.form)
	identifier := m.form.String(KeyModel)
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.gen++
	gen := m.gen
	m.status = StatusSubmitting
	m.err = nil
	delay := m.Delay
	m.mu.Unlock()
	defer cancel()

	l := logging.FromContext(ctx).With("component", "fieldmodal")

	if err := wait(ctx, delay); err != nil {
		return m.fail(l, gen, &PersistenceError{Op: "submit", Err: err})
	}

	model, err := m.client.GetModel(ctx, identifier)
	if err != nil {
		if errors.Is(err, gqlclient.ErrNotFound) {
			return m.fail(l, gen, &PersistenceError{Op: "getModel", Err: &ModelNotFoundError{Identifier: identifier}})
		}
		return m.fail(l, gen, &PersistenceError{Op: "getModel", Err: err})
	}

	if !m.advance(gen, StatusPersisting) {
		return context.Canceled
	}

	in.ModelID = model.ID
	_, err = m.client.CreateField(ctx, in)
	if err != nil {
		return m.fail(l, gen, &PersistenceError{Op: "createField", Err: err})
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return nil
	}
	m.cancel = nil
	m.form.Reset()
	m.status = StatusClosed
	onClose, reload := m.opts.OnClose, m.opts.Reload
	m.mu.Unlock()

	l.Info("field_created", "model", identifier)
	if onClose != nil {
		onClose()
	}
	if reload != nil {
		reload()
	}
	return nil
}

func (m *Modal) advance(gen uint64, to Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.status = to
	return true
}

// fail records err unless the submit was superseded by Close.
func (m *Modal) fail(l *slog.Logger, gen uint64, err *PersistenceError) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return context.Canceled
	}
	m.cancel = nil
	m.status = StatusError
	m.err = err
	l.Warn("submit_error", "op", err.Op, "error", err.Err)
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fieldInput snapshots the form. ModelID is filled in once the model is
// resolved.
func fieldInput(s *form.State) gqlclient.FieldInput {
	return gqlclient.FieldInput{
		FieldName:    strings.TrimSpace(s.String(KeyFieldName)),
		Identifier:   strings.TrimSpace(s.String(KeyIdentifier)),
		Type:         s.String(KeyType),
		DefaultValue: s.String(KeyDefaultValue),
		Description:  s.String(KeyDescription),
		IsHide:       s.Bool(KeyIsHide),
		IsMedia:      s.Bool(KeyIsMedia),
		IsUnique:     s.Bool(KeyIsUnique),
		IsRequired:   s.Bool(KeyIsRequired),
		IsSystem:     s.Bool(KeyIsSystem),
		IsPrimaryKey: s.Bool(KeyIsPrimaryKey),
	}
}
