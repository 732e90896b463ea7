package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/provider"
)

// fakePricer returns a canned revalidation response per hotel id. Tests
// that must not reach the provider set failOnCall.
type fakePricer struct {
	t          *testing.T
	responses  map[string][]model.RawInventoryItem
	err        error
	failOnCall bool
	calls      int
}

func (f *fakePricer) PriceInventory(_ context.Context, ids []string, _ provider.Stay) ([]model.RawInventoryItem, error) {
	f.calls++
	if f.failOnCall {
		f.t.Fatal("PriceInventory called, but this path must resolve locally")
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []model.RawInventoryItem
	for _, id := range ids {
		if items, ok := f.responses[id]; ok {
			out = append(out, items...)
		}
	}
	return out, nil
}

func initialConfig() model.OfferConfig {
	return model.OfferConfig{
		OfferID:    "OF-1",
		HotelID:    "H1",
		CheckIn:    "2025-08-20",
		CheckOut:   "2025-08-22",
		Adults:     2,
		Rooms:      1,
		TotalPrice: "240.00",
		Currency:   "USD",
	}
}

// respond builds a one-hotel revalidation response carrying the given offers.
func respond(hotelID string, offers ...model.RawOffer) map[string][]model.RawInventoryItem {
	return map[string][]model.RawInventoryItem{
		hotelID: {{HotelID: hotelID, Name: "Hotel " + hotelID, Offers: offers}},
	}
}

func newTestMachine(t *testing.T, p *fakePricer) (*Machine, *model.BookingOfferState) {
	t.Helper()
	m := NewMachine(NewMemoryStore(), p)
	state, err := m.Start(context.Background(), initialConfig())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if state.Status != model.StatusApplied {
		t.Fatalf("fresh session status = %s, want APPLIED", state.Status)
	}
	if !state.Pending.Equal(state.Applied) {
		t.Fatal("fresh session must start with pending == applied")
	}
	return m, state
}

func TestStartRequiresOfferAndHotel(t *testing.T) {
	m := NewMachine(NewMemoryStore(), &fakePricer{t: t})
	if _, err := m.Start(context.Background(), model.OfferConfig{OfferID: "OF-1"}); err == nil {
		t.Error("Start without a hotel id must fail")
	}
	if _, err := m.Start(context.Background(), model.OfferConfig{HotelID: "H1"}); err == nil {
		t.Error("Start without an offer id must fail")
	}
}

func TestEditKeepsAppliedIntact(t *testing.T) {
	m, state := newTestMachine(t, &fakePricer{t: t, failOnCall: true})
	ctx := context.Background()

	got, err := m.Edit(ctx, state.SessionID, "2025-08-21", "", 3, 0)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if got.Status != model.StatusEditing {
		t.Errorf("status = %s, want EDITING", got.Status)
	}
	if got.Pending.CheckIn != "2025-08-21" || got.Pending.Adults != 3 {
		t.Errorf("pending = %+v, edits not applied", got.Pending)
	}
	if got.Pending.CheckOut != "2025-08-22" || got.Pending.Rooms != 1 {
		t.Errorf("pending = %+v, zero-valued fields must keep prior values", got.Pending)
	}
	if !got.Applied.Equal(initialConfig()) {
		t.Errorf("applied = %+v, edits must never touch it", got.Applied)
	}

	// Editing back to the applied values returns the session to APPLIED.
	got, err = m.Edit(ctx, state.SessionID, "2025-08-20", "", 2, 0)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if got.Status != model.StatusApplied {
		t.Errorf("status after undoing edits = %s, want APPLIED", got.Status)
	}
}

func TestCommitMissingDates(t *testing.T) {
	pricer := &fakePricer{t: t, failOnCall: true}
	m, state := newTestMachine(t, pricer)
	ctx := context.Background()

	if _, err := m.Edit(ctx, state.SessionID, "", "", 3, 0); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	// Blank out the check-out date directly in the store to simulate a
	// session created from a dateless offer.
	st, _ := m.Get(ctx, state.SessionID)
	st.Pending.CheckOut = ""
	if err := m.store.Put(ctx, st); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := m.Commit(ctx, state.SessionID)
	if !errors.Is(err, ErrMissingDates) {
		t.Fatalf("err = %v, want ErrMissingDates", err)
	}
	if got.Seq != 0 {
		t.Errorf("seq = %d, a locally rejected commit must not advance it", got.Seq)
	}
	if pricer.calls != 0 {
		t.Errorf("pricer called %d times, want 0", pricer.calls)
	}
}

func TestCommitNoDiffIsNoOp(t *testing.T) {
	pricer := &fakePricer{t: t, failOnCall: true}
	m, state := newTestMachine(t, pricer)

	got, err := m.Commit(context.Background(), state.SessionID)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got.Seq != 0 || got.Status != model.StatusApplied {
		t.Errorf("no-diff commit changed state: seq=%d status=%s", got.Seq, got.Status)
	}
}

func TestCommitPromotesPending(t *testing.T) {
	pricer := &fakePricer{t: t, responses: respond("H1", model.RawOffer{
		OfferID: "OF-1", TotalPrice: "360.00", Currency: "USD", RoomDescription: "1 king bed",
	})}
	m, state := newTestMachine(t, pricer)
	ctx := context.Background()

	if _, err := m.Edit(ctx, state.SessionID, "2025-08-20", "2025-08-23", 0, 0); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	got, err := m.Commit(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got.Status != model.StatusApplied {
		t.Errorf("status = %s, want APPLIED", got.Status)
	}
	if got.Busy {
		t.Error("busy flag still set after revalidation resolved")
	}
	if got.Seq != 1 {
		t.Errorf("seq = %d, want 1", got.Seq)
	}
	if got.Applied.CheckOut != "2025-08-23" || got.Applied.TotalPrice != "360.00" {
		t.Errorf("applied = %+v, want refreshed dates and price", got.Applied)
	}
	if !got.Pending.Equal(got.Applied) {
		t.Error("pending must equal applied after a successful commit")
	}
	if got.Warning != "" {
		t.Errorf("warning = %q, exact-offer commit must not warn", got.Warning)
	}
}

func TestCommitUnavailableRetainsApplied(t *testing.T) {
	pricer := &fakePricer{t: t, responses: map[string][]model.RawInventoryItem{}}
	m, state := newTestMachine(t, pricer)
	ctx := context.Background()

	if _, err := m.Edit(ctx, state.SessionID, "2025-12-24", "2025-12-26", 0, 0); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	got, err := m.Commit(ctx, state.SessionID)
	if !errors.Is(err, ErrOfferUnavailable) {
		t.Fatalf("err = %v, want ErrOfferUnavailable", err)
	}
	if got.Status != model.StatusUnavailable {
		t.Errorf("status = %s, want UNAVAILABLE", got.Status)
	}
	if !got.Applied.Equal(initialConfig()) {
		t.Errorf("applied = %+v, must survive a failed revalidation", got.Applied)
	}
	if got.Pending.CheckIn != "2025-12-24" {
		t.Errorf("pending = %+v, the rejected diff must stay visible", got.Pending)
	}

	// Revert is the way out: pending snaps back to applied.
	got, err = m.Revert(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("Revert() error = %v", err)
	}
	if got.Status != model.StatusApplied || !got.Pending.Equal(got.Applied) {
		t.Errorf("after revert: status=%s pending=%+v", got.Status, got.Pending)
	}
	if got.LastError != "" {
		t.Errorf("last error = %q, revert must clear it", got.LastError)
	}
}

func TestCommitSubstitutionWithFallbackWarns(t *testing.T) {
	pricer := &fakePricer{t: t, responses: respond("H1", model.RawOffer{
		OfferID: "OF-9", TotalPrice: "410.00", Currency: "USD", Fallback: true,
	})}
	m, state := newTestMachine(t, pricer)
	ctx := context.Background()

	if _, err := m.Edit(ctx, state.SessionID, "", "2025-08-24", 0, 0); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	got, err := m.Commit(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got.Warning != offerMismatchWarning {
		t.Errorf("warning = %q, want %q", got.Warning, offerMismatchWarning)
	}
	if got.Applied.OfferID != "OF-9" || got.Applied.TotalPrice != "410.00" {
		t.Errorf("applied = %+v, want the substituted offer", got.Applied)
	}
}

func TestCommitSubstitutionWithoutFallbackIsSilent(t *testing.T) {
	pricer := &fakePricer{t: t, responses: respond("H1", model.RawOffer{
		OfferID: "OF-9", TotalPrice: "410.00", Currency: "USD",
	})}
	m, state := newTestMachine(t, pricer)
	ctx := context.Background()

	if _, err := m.Edit(ctx, state.SessionID, "", "2025-08-24", 0, 0); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	got, err := m.Commit(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got.Warning != "" {
		t.Errorf("warning = %q, unflagged substitution must be silent", got.Warning)
	}
	if got.Applied.OfferID != "OF-9" {
		t.Errorf("applied offer = %s, want OF-9", got.Applied.OfferID)
	}
}

// TestCommitTransientFailureKeepsPending distinguishes a pricing call
// that failed from one that answered "no offers": the former keeps the
// diff, returns to EDITING and stays retryable.
func TestCommitTransientFailureKeepsPending(t *testing.T) {
	pricer := &fakePricer{t: t, err: errors.New("dial tcp: i/o timeout")}
	m, state := newTestMachine(t, pricer)
	ctx := context.Background()

	if _, err := m.Edit(ctx, state.SessionID, "", "2025-08-24", 0, 0); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	got, err := m.Commit(ctx, state.SessionID)
	if !errors.Is(err, ErrRevalidationFailed) {
		t.Fatalf("err = %v, want ErrRevalidationFailed", err)
	}
	if got.Status != model.StatusEditing {
		t.Errorf("status = %s, want EDITING (not UNAVAILABLE)", got.Status)
	}
	if got.Busy {
		t.Error("busy flag still set after the failed call resolved")
	}
	if !got.Applied.Equal(initialConfig()) {
		t.Errorf("applied = %+v, must survive a failed call", got.Applied)
	}
	if got.Pending.CheckOut != "2025-08-24" {
		t.Errorf("pending = %+v, the diff must be kept for a retry", got.Pending)
	}

	// The provider recovers; the same commit goes through.
	pricer.err = nil
	pricer.responses = respond("H1", model.RawOffer{OfferID: "OF-1", TotalPrice: "380.00", Currency: "USD"})
	got, err = m.Commit(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("Commit() retry error = %v", err)
	}
	if got.Status != model.StatusApplied || got.Applied.CheckOut != "2025-08-24" {
		t.Errorf("after retry: status=%s applied=%+v", got.Status, got.Applied)
	}
	if got.Seq != 2 {
		t.Errorf("seq = %d, want 2 (both commits were accepted)", got.Seq)
	}
}

func TestBusySessionRejectsOperations(t *testing.T) {
	m, state := newTestMachine(t, &fakePricer{t: t, failOnCall: true})
	ctx := context.Background()

	st, _ := m.Get(ctx, state.SessionID)
	st.Busy = true
	st.Status = model.StatusRevalidating
	if err := m.store.Put(ctx, st); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := m.Edit(ctx, state.SessionID, "2025-09-01", "", 0, 0); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("Edit on busy session: err = %v, want ErrSessionBusy", err)
	}
	if _, err := m.Commit(ctx, state.SessionID); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("Commit on busy session: err = %v, want ErrSessionBusy", err)
	}
	if _, err := m.Revert(ctx, state.SessionID); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("Revert on busy session: err = %v, want ErrSessionBusy", err)
	}
	if _, err := m.Complete(ctx, state.SessionID, "A", "a@example.com", ""); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("Complete on busy session: err = %v, want ErrSessionBusy", err)
	}
}

// TestStaleRevalidationDiscarded drives two overlapping revalidations by
// hand: the response tagged with the superseded sequence number must be
// dropped, and only the latest one may mutate the applied configuration.
func TestStaleRevalidationDiscarded(t *testing.T) {
	m, state := newTestMachine(t, &fakePricer{t: t})
	ctx := context.Background()

	st, _ := m.Get(ctx, state.SessionID)
	st.Pending.CheckOut = "2025-08-23"
	st.Seq = 2 // a second commit superseded the first
	st.Busy = true
	st.Status = model.StatusRevalidating
	if err := m.store.Put(ctx, st); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	stalePending := st.Pending
	stalePending.CheckOut = "2025-08-21"
	staleItems := respond("H1", model.RawOffer{OfferID: "OF-STALE", TotalPrice: "99.00", Currency: "USD"})["H1"]

	got, err := m.finishRevalidation(ctx, state.SessionID, 1, stalePending, staleItems, nil)
	if err != nil {
		t.Fatalf("finishRevalidation(stale) error = %v", err)
	}
	if got.Applied.OfferID == "OF-STALE" {
		t.Fatal("stale response mutated the applied configuration")
	}
	if !got.Busy || got.Status != model.StatusRevalidating {
		t.Errorf("stale response changed session state: busy=%v status=%s", got.Busy, got.Status)
	}

	freshItems := respond("H1", model.RawOffer{OfferID: "OF-1", TotalPrice: "365.00", Currency: "USD"})["H1"]
	got, err = m.finishRevalidation(ctx, state.SessionID, 2, st.Pending, freshItems, nil)
	if err != nil {
		t.Fatalf("finishRevalidation(latest) error = %v", err)
	}
	if got.Busy || got.Status != model.StatusApplied {
		t.Errorf("latest response did not settle session: busy=%v status=%s", got.Busy, got.Status)
	}
	if got.Applied.CheckOut != "2025-08-23" || got.Applied.TotalPrice != "365.00" {
		t.Errorf("applied = %+v, want the latest commit's outcome", got.Applied)
	}
}

func TestCompleteHappyPath(t *testing.T) {
	m, state := newTestMachine(t, &fakePricer{t: t, failOnCall: true})
	ctx := context.Background()

	rec, err := m.Complete(ctx, state.SessionID, "Ada Lovelace", "ada@example.com", "+1-555-0100")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if rec.Status != "CONFIRMED" {
		t.Errorf("record status = %s, want CONFIRMED", rec.Status)
	}
	if rec.OfferID != "OF-1" || rec.HotelID != "H1" || rec.TotalPrice != "240.00" {
		t.Errorf("record = %+v, want fields from the applied configuration", rec)
	}
	if rec.GuestEmail != "ada@example.com" {
		t.Errorf("guest email = %s", rec.GuestEmail)
	}

	// The session survives Complete; it is discarded only after the
	// caller has made the record durable.
	if _, err := m.Get(ctx, state.SessionID); err != nil {
		t.Errorf("Get after Complete: err = %v, session must still exist", err)
	}
	m.Discard(ctx, state.SessionID)
	if _, err := m.Get(ctx, state.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Discard: err = %v, want ErrSessionNotFound", err)
	}
}

// TestCompleteRetriesAfterFailedPersistence covers the write-failure path:
// when persisting the record fails, the caller does not discard the
// session, and a second Complete must produce an equivalent record rather
// than a not-found error.
func TestCompleteRetriesAfterFailedPersistence(t *testing.T) {
	m, state := newTestMachine(t, &fakePricer{t: t, failOnCall: true})
	ctx := context.Background()

	first, err := m.Complete(ctx, state.SessionID, "Ada Lovelace", "ada@example.com", "")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	// Persistence failed; the session was not discarded. Retry.
	second, err := m.Complete(ctx, state.SessionID, "Ada Lovelace", "ada@example.com", "")
	if err != nil {
		t.Fatalf("Complete() retry error = %v, want a fresh record", err)
	}
	if second.OfferID != first.OfferID || second.TotalPrice != first.TotalPrice || second.SessionID != first.SessionID {
		t.Errorf("retry record = %+v, want equivalent of %+v", second, first)
	}
}

func TestCompleteRejectsUncommittedEdits(t *testing.T) {
	m, state := newTestMachine(t, &fakePricer{t: t, failOnCall: true})
	ctx := context.Background()

	if _, err := m.Edit(ctx, state.SessionID, "2025-08-21", "", 0, 0); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if _, err := m.Complete(ctx, state.SessionID, "A", "a@example.com", ""); !errors.Is(err, ErrNotCommitted) {
		t.Errorf("err = %v, want ErrNotCommitted", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Put(ctx, &model.BookingOfferState{SessionID: "s1", Status: model.StatusApplied}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	a, _ := s.Get(ctx, "s1")
	a.Status = model.StatusUnavailable
	b, _ := s.Get(ctx, "s1")
	if b.Status != model.StatusApplied {
		t.Error("mutating a returned state leaked into the store")
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
