// Package session holds the concurrently open draft orders of one POS
// terminal. All mutations run synchronously through the pricing package so
// totals are never stale between reads. A Session is not safe for use from
// multiple goroutines; the API layer serializes access.
package session

import (
	"errors"
	"fmt"

	"pos-cart-service/internal/entity"
	"pos-cart-service/internal/pricing"
)

// WalkInCustomer is the placeholder name for customers without a profile.
const WalkInCustomer = "Khách lẻ"

var (
	ErrIndexOutOfRange = errors.New("draft index out of range")
	ErrLastDraft       = errors.New("cannot delete the last remaining draft")
)

// Session is an ordered sequence of draft orders plus the index of the one
// being edited. The sequence is never empty.
type Session struct {
	drafts  []*entity.Order
	active  int
	nextSeq int
}

func New() *Session {
	s := &Session{nextSeq: 1}
	s.drafts = []*entity.Order{s.newDraft()}
	return s
}

func (s *Session) newDraft() *entity.Order {
	seq := s.nextSeq
	s.nextSeq++
	return &entity.Order{
		Code:         fmt.Sprintf("DH-%d", seq),
		CustomerName: WalkInCustomer,
		Status:       entity.StatusDraft,
		Items:        []entity.OrderItem{},
	}
}

// Active returns the draft currently being edited.
func (s *Session) Active() *entity.Order {
	return s.drafts[s.active]
}

func (s *Session) ActiveIndex() int {
	return s.active
}

func (s *Session) Drafts() []*entity.Order {
	return s.drafts
}

// AddItem appends a line for p at quantity 1, or bumps the existing line's
// quantity by 1, and recomputes the order total.
func (s *Session) AddItem(p entity.Product) {
	draft := s.Active()
	for i, item := range draft.Items {
		if item.ProductID == p.ID {
			draft.Items[i] = pricing.Reprice(item, item.Quantity+1)
			s.recompute(draft)
			return
		}
	}
	draft.Items = append(draft.Items, pricing.PriceItem(p, 1))
	s.recompute(draft)
}

// UpdateQuantity reprices the line for productID. A quantity of zero or less
// removes the line; non-positive quantities are never stored.
func (s *Session) UpdateQuantity(productID, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}
	draft := s.Active()
	for i, item := range draft.Items {
		if item.ProductID == productID {
			draft.Items[i] = pricing.Reprice(item, quantity)
			s.recompute(draft)
			return
		}
	}
}

// RemoveItem drops the line for productID. Removing an absent line is a no-op.
func (s *Session) RemoveItem(productID int) {
	draft := s.Active()
	kept := draft.Items[:0]
	for _, item := range draft.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	draft.Items = kept
	s.recompute(draft)
}

// AddDraft opens a new empty draft and makes it active.
func (s *Session) AddDraft() *entity.Order {
	draft := s.newDraft()
	s.drafts = append(s.drafts, draft)
	s.active = len(s.drafts) - 1
	return draft
}

// SwitchDraft changes which draft is being edited.
func (s *Session) SwitchDraft(index int) error {
	if index < 0 || index >= len(s.drafts) {
		return ErrIndexOutOfRange
	}
	s.active = index
	return nil
}

// DeleteDraft removes the draft at index. The last remaining draft cannot be
// deleted. When the active draft is deleted the first draft becomes active.
func (s *Session) DeleteDraft(index int) error {
	if len(s.drafts) <= 1 {
		return ErrLastDraft
	}
	if index < 0 || index >= len(s.drafts) {
		return ErrIndexOutOfRange
	}
	s.drafts = append(s.drafts[:index], s.drafts[index+1:]...)
	switch {
	case s.active == index:
		s.active = 0
	case s.active > index:
		s.active--
	}
	return nil
}

// ResetActive replaces the active draft with a fresh empty one after it has
// been saved or checked out, keeping the tab position.
func (s *Session) ResetActive() *entity.Order {
	draft := s.newDraft()
	s.drafts[s.active] = draft
	return draft
}

// ResetByOrderID replaces the draft holding the persisted order orderID with a
// fresh empty one, keeping its tab position. Reports whether such a draft
// existed. Used once a gateway payment is confirmed, so a settled order cannot
// be mutated and re-submitted from its tab.
func (s *Session) ResetByOrderID(orderID int) bool {
	if orderID == 0 {
		return false
	}
	for i, draft := range s.drafts {
		if draft.OrderID == orderID {
			s.drafts[i] = s.newDraft()
			return true
		}
	}
	return false
}

func (s *Session) SetCustomerName(name string) {
	if name == "" {
		name = WalkInCustomer
	}
	s.Active().CustomerName = name
}

func (s *Session) SetNotes(notes string) {
	s.Active().Notes = notes
}

func (s *Session) recompute(draft *entity.Order) {
	draft.Total = pricing.OrderTotal(draft.Items)
}
