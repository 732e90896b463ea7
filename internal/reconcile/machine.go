// Package reconcile implements the checkout offer reconciliation state
// machine. A session holds two booking configurations side by side: the
// applied one, which matched a live offer as of its last successful
// fetch, and the pending one, which accumulates the user's edits. Edits
// never touch inventory; only an explicit commit revalidates the pending
// configuration against the provider and either promotes it or reports
// unavailability while keeping the applied configuration intact.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/provider"
)

var (
	// ErrSessionBusy is returned while a revalidation is in flight for
	// the session. Commits are serialized: the caller retries after the
	// outstanding one resolves instead of racing it.
	ErrSessionBusy = errors.New("reconcile: revalidation already in flight")

	// ErrMissingDates rejects a commit locally, before any network
	// call, when the pending configuration lacks a date. The sequence
	// number does not advance.
	ErrMissingDates = errors.New("reconcile: pending configuration is missing check-in or check-out date")

	// ErrOfferUnavailable is returned when revalidation found no offer
	// matching the pending configuration. The applied configuration is
	// retained and the user is offered a revert.
	ErrOfferUnavailable = errors.New("reconcile: no offer available for the pending configuration")

	// ErrNotCommitted is returned by Complete when the session still
	// has uncommitted edits or an unresolved unavailability.
	ErrNotCommitted = errors.New("reconcile: session has uncommitted changes")

	// ErrRevalidationFailed is returned when the pricing call itself
	// failed (transport error, timeout). The pending diff is kept and the
	// session returns to EDITING so the commit can simply be retried;
	// unlike ErrOfferUnavailable it says nothing about availability.
	ErrRevalidationFailed = errors.New("reconcile: revalidation could not reach the provider")
)

// offerMismatchWarning is surfaced when the provider substituted an offer
// and flagged it as a fallback. A substitution without the flag is
// accepted silently.
const offerMismatchWarning = "price or availability may have changed"

// Pricer is the slice of the provider client the machine needs: a
// per-property offer lookup for revalidation.
type Pricer interface {
	PriceInventory(ctx context.Context, ids []string, stay provider.Stay) ([]model.RawInventoryItem, error)
}

// Machine drives checkout sessions through their lifecycle. It holds no
// per-session state itself; everything lives in the Store so multiple
// instances can share sessions.
type Machine struct {
	store  Store
	pricer Pricer
}

// NewMachine constructs a Machine over the given store and pricer.
func NewMachine(store Store, pricer Pricer) *Machine {
	if store == nil || pricer == nil {
		panic("nil dependency passed to NewMachine")
	}
	return &Machine{store: store, pricer: pricer}
}

// Start creates a session from the offer the user arrived at checkout
// with. The initial configuration is both applied and pending.
func (m *Machine) Start(ctx context.Context, initial model.OfferConfig) (*model.BookingOfferState, error) {
	if initial.OfferID == "" || initial.HotelID == "" {
		return nil, fmt.Errorf("reconcile: initial offer and hotel ids are required")
	}
	now := time.Now().UTC()
	state := &model.BookingOfferState{
		SessionID: uuid.NewString(),
		Status:    model.StatusApplied,
		Applied:   initial,
		Pending:   initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Put(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Get returns the current state of a session.
func (m *Machine) Get(ctx context.Context, sessionID string) (*model.BookingOfferState, error) {
	return m.store.Get(ctx, sessionID)
}

// Edit overwrites the pending configuration with the user's latest
// values. Only one outstanding diff is tracked: edits overwrite, they do
// not queue. Editing while a revalidation is in flight is rejected.
// Empty/zero fields leave the corresponding pending value unchanged.
func (m *Machine) Edit(ctx context.Context, sessionID string, checkIn, checkOut string, adults, rooms int) (*model.BookingOfferState, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Busy {
		return nil, ErrSessionBusy
	}

	if checkIn != "" {
		state.Pending.CheckIn = strings.TrimSpace(checkIn)
	}
	if checkOut != "" {
		state.Pending.CheckOut = strings.TrimSpace(checkOut)
	}
	if adults > 0 {
		state.Pending.Adults = adults
	}
	if rooms > 0 {
		state.Pending.Rooms = rooms
	}

	state.Warning = ""
	state.LastError = ""
	if state.Pending.Equal(state.Applied) {
		state.Status = model.StatusApplied
	} else {
		state.Status = model.StatusEditing
	}
	state.UpdatedAt = time.Now().UTC()
	if err := m.store.Put(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Commit revalidates the pending configuration against live inventory.
// The commit is rejected locally, with no network call and no sequence
// advance, when either date is missing. Otherwise the session enters
// REVALIDATING, tagged with a fresh sequence number; the response is only
// applied if that number is still the latest when it arrives, so a stale
// response can never clobber a newer commit.
func (m *Machine) Commit(ctx context.Context, sessionID string) (*model.BookingOfferState, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Busy {
		return nil, ErrSessionBusy
	}
	if state.Pending.CheckIn == "" || state.Pending.CheckOut == "" {
		return state, ErrMissingDates
	}
	if state.Pending.Equal(state.Applied) && state.Status == model.StatusApplied {
		// Nothing diverged; committing is a no-op.
		return state, nil
	}

	state.Seq++
	seq := state.Seq
	state.Busy = true
	state.Status = model.StatusRevalidating
	state.UpdatedAt = time.Now().UTC()
	if err := m.store.Put(ctx, state); err != nil {
		return nil, err
	}

	pending := state.Pending
	items, err := m.pricer.PriceInventory(ctx, []string{pending.HotelID}, provider.Stay{
		CheckIn:  pending.CheckIn,
		CheckOut: pending.CheckOut,
		Adults:   pending.Adults,
		Rooms:    pending.Rooms,
	})
	return m.finishRevalidation(ctx, sessionID, seq, pending, items, err)
}

// finishRevalidation applies the outcome of one revalidation request.
// It is split from Commit so the sequence guard is enforced in exactly
// one place: a response whose sequence number is no longer the latest is
// discarded without mutating applied state.
func (m *Machine) finishRevalidation(ctx context.Context, sessionID string, seq uint64, pending model.OfferConfig, items []model.RawInventoryItem, priceErr error) (*model.BookingOfferState, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Seq != seq {
		// A newer commit superseded this one; its response owns the
		// session now.
		log.Printf("reconcile: session %s discarding stale revalidation seq=%d latest=%d", sessionID, seq, state.Seq)
		return state, nil
	}

	state.Busy = false
	state.UpdatedAt = time.Now().UTC()

	if priceErr != nil {
		// A failed pricing call says nothing about availability: keep
		// the pending diff, return to EDITING and let the user retry.
		log.Printf("reconcile: session %s revalidation failed: %v", sessionID, priceErr)
		state.Status = model.StatusEditing
		state.LastError = ErrRevalidationFailed.Error()
		if err := m.store.Put(ctx, state); err != nil {
			return nil, err
		}
		return state, ErrRevalidationFailed
	}

	offer, found := matchOffer(items, pending)
	if !found {
		state.Status = model.StatusUnavailable
		state.LastError = ErrOfferUnavailable.Error()
		if err := m.store.Put(ctx, state); err != nil {
			return nil, err
		}
		return state, ErrOfferUnavailable
	}

	if offer.OfferID != pending.OfferID && offer.Fallback {
		state.Warning = offerMismatchWarning
		log.Printf("reconcile: session %s provider substituted offer %s for %s with fallback flag", sessionID, offer.OfferID, pending.OfferID)
	}

	pending.OfferID = offer.OfferID
	pending.TotalPrice = offer.TotalPrice
	pending.Currency = offer.Currency
	pending.RoomDescription = offer.RoomDescription
	state.Applied = pending
	state.Pending = pending
	state.Status = model.StatusApplied
	state.LastError = ""
	if err := m.store.Put(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// matchOffer scans the revalidation response for an offer covering the
// pending stay, preferring an exact offer-id match and otherwise
// accepting the provider's substitute.
func matchOffer(items []model.RawInventoryItem, pending model.OfferConfig) (model.RawOffer, bool) {
	var substitute model.RawOffer
	haveSubstitute := false
	for _, item := range items {
		if item.HotelID != pending.HotelID {
			continue
		}
		for _, o := range item.Offers {
			if o.OfferID == pending.OfferID {
				return o, true
			}
			if !haveSubstitute {
				substitute = o
				haveSubstitute = true
			}
		}
	}
	return substitute, haveSubstitute
}

// Revert discards the pending diff and restores the last confirmed
// configuration. It is the explicit user affordance out of UNAVAILABLE,
// but is legal from any non-busy state.
func (m *Machine) Revert(ctx context.Context, sessionID string) (*model.BookingOfferState, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Busy {
		return nil, ErrSessionBusy
	}
	state.Pending = state.Applied
	state.Status = model.StatusApplied
	state.Warning = ""
	state.LastError = ""
	state.UpdatedAt = time.Now().UTC()
	if err := m.store.Put(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Complete builds the booking record for a session from the applied
// configuration and the guest's contact fields. It refuses sessions with
// uncommitted edits or unresolved unavailability; the caller must commit
// or revert first. The session itself is NOT discarded here: the caller
// persists the record first and calls Discard only once it is durable,
// so a failed write leaves the session intact for a retry.
func (m *Machine) Complete(ctx context.Context, sessionID, guestName, guestEmail, guestPhone string) (*model.BookingRecord, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Busy {
		return nil, ErrSessionBusy
	}
	if state.Status != model.StatusApplied || !state.Pending.Equal(state.Applied) {
		return nil, ErrNotCommitted
	}

	record := &model.BookingRecord{
		SessionID:  state.SessionID,
		OfferID:    state.Applied.OfferID,
		HotelID:    state.Applied.HotelID,
		CheckIn:    state.Applied.CheckIn,
		CheckOut:   state.Applied.CheckOut,
		Adults:     state.Applied.Adults,
		Rooms:      state.Applied.Rooms,
		TotalPrice: state.Applied.TotalPrice,
		Currency:   state.Applied.Currency,
		GuestName:  guestName,
		GuestEmail: guestEmail,
		GuestPhone: guestPhone,
		Status:     "CONFIRMED",
		CreatedAt:  time.Now().UTC(),
	}
	return record, nil
}

// Discard removes a session once its booking record is durable (or the
// checkout was abandoned). Failures only leak an entry until the store
// TTL collects it, so they are logged rather than surfaced.
func (m *Machine) Discard(ctx context.Context, sessionID string) {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		log.Printf("reconcile: session %s cleanup failed: %v", sessionID, err)
	}
}
