// Package reservation creates and cancels the reservation attached to a chat
// room. Both actions are offered to the seller only; the backend enforces the
// same rule independently.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/session"
)

const (
	MaxDetailLength = 255

	StatusCanceled = "CANCELED"

	CanceledByBuyer  = "BUYER"
	CanceledBySeller = "SELLER"
)

var (
	ErrNotSeller      = errors.New("reservation: only the seller can do this")
	ErrNoProduct      = errors.New("reservation: chat has no product")
	ErrReasonRequired = errors.New("reservation: select a cancellation reason")
	ErrUnknownReason  = errors.New("reservation: unknown cancellation reason")
	ErrDetailTooLong  = fmt.Errorf("reservation: detail must be at most %d characters", MaxDetailLength)
	ErrInFlight       = errors.New("reservation: a request is already pending")
)

// Backend is the part of the API the workflow needs. *api.Client implements it.
type Backend interface {
	CreateReservation(ctx context.Context, auth api.Auth, chatID int64) error
	UpdateReservationStatus(ctx context.Context, auth api.Auth, chatID int64, req api.ReservationStatusRequest) error
}

// Workflow holds the chat's reservation state for one acting user.
type Workflow struct {
	backend Backend
	actor   session.Identity

	mu      sync.Mutex
	info    api.ChatInfo
	loading bool
}

func New(b Backend, actor session.Identity, info api.ChatInfo) *Workflow {
	if info.Product != nil {
		p := *info.Product
		info.Product = &p
	}
	return &Workflow{backend: b, actor: actor, info: info}
}

// IsSeller reports whether the acting user may create or cancel.
func (w *Workflow) IsSeller() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isSeller()
}

func (w *Workflow) isSeller() bool {
	return w.actor.UserID != 0 && w.actor.UserID == w.info.SellerID
}

func (w *Workflow) Reserved() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.info.Product != nil && w.info.Product.IsReserved
}

func (w *Workflow) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Info returns a copy of the chat info with the local reservation flag.
func (w *Workflow) Info() api.ChatInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	info := w.info
	if info.Product != nil {
		p := *info.Product
		info.Product = &p
	}
	return info
}

// Create reserves the chat's product for its buyer.
func (w *Workflow) Create(ctx context.Context) error {
	if err := w.begin(); err != nil {
		return err
	}
	err := w.backend.CreateReservation(ctx, w.actor.Auth(), w.info.ChatID)
	w.finish(err, true)
	return err
}

// Cancel releases the reservation. reasonID must come from Reasons.
func (w *Workflow) Cancel(ctx context.Context, reasonID int, detail string) error {
	if reasonID == 0 {
		return ErrReasonRequired
	}
	if _, ok := LookupReason(reasonID); !ok {
		return ErrUnknownReason
	}
	if utf8.RuneCountInString(detail) > MaxDetailLength {
		return ErrDetailTooLong
	}
	if err := w.begin(); err != nil {
		return err
	}
	req := api.ReservationStatusRequest{
		Status:     StatusCanceled,
		ReasonID:   reasonID,
		Detail:     detail,
		CanceledBy: w.canceledBy(),
	}
	err := w.backend.UpdateReservationStatus(ctx, w.actor.Auth(), w.info.ChatID, req)
	w.finish(err, false)
	return err
}

func (w *Workflow) canceledBy() string {
	if w.actor.UserID == w.info.BuyerID {
		return CanceledByBuyer
	}
	return CanceledBySeller
}

func (w *Workflow) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isSeller() {
		return ErrNotSeller
	}
	if w.info.Product == nil {
		return ErrNoProduct
	}
	if w.loading {
		return ErrInFlight
	}
	w.loading = true
	return nil
}

func (w *Workflow) finish(err error, reserved bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err == nil {
		w.info.Product.IsReserved = reserved
	}
}
