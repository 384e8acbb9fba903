package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"gorm.io/gorm"
)

type fakeRequestRepo struct {
	mu   sync.Mutex
	rows map[string]*model.PurchaseRequest

	// beforeUpdate runs inside the lock right before a guarded update is
	// evaluated, to simulate a concurrent writer slipping in.
	beforeUpdate func()
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{rows: map[string]*model.PurchaseRequest{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, req *model.PurchaseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.rows[req.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) FindByID(_ context.Context, id string) (*model.PurchaseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) ListByStatuses(_ context.Context, statuses []model.RequestStatus) ([]model.PurchaseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PurchaseRequest
	for _, req := range f.rows {
		if len(statuses) == 0 || containsStatus(statuses, req.Status) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByCreator(_ context.Context, creatorID string) ([]model.PurchaseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PurchaseRequest
	for _, req := range f.rows {
		if req.CreatorID == creatorID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByClaimer(_ context.Context, claimerID string, statuses []model.RequestStatus) ([]model.PurchaseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PurchaseRequest
	for _, req := range f.rows {
		if req.ClaimerID != nil && *req.ClaimerID == claimerID &&
			(len(statuses) == 0 || containsStatus(statuses, req.Status)) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListIncoming(_ context.Context, userID string) ([]model.PurchaseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PurchaseRequest
	for _, req := range f.rows {
		preferred := req.Status == model.RequestStatusOpen &&
			req.PreferredSellerID != nil && *req.PreferredSellerID == userID
		awaiting := req.Status == model.RequestStatusAwaitingBuyerConfirm && req.CreatorID == userID
		if preferred || awaiting {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) Claim(_ context.Context, id, claimerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.rows[id]
	if !ok || req.Status != model.RequestStatusOpen || req.ClaimerID != nil {
		return 0, nil
	}
	req.Status = model.RequestStatusClaimed
	req.ClaimerID = &claimerID
	req.SellerConfirmedAt = nil
	req.BuyerConfirmedAt = nil
	req.DisputedAt = nil
	req.DisputeComment = nil
	return 1, nil
}

func (f *fakeRequestRepo) UpdateIfStatus(_ context.Context, id string, from []model.RequestStatus, fields map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	req, ok := f.rows[id]
	if !ok || !containsStatus(from, req.Status) {
		return 0, nil
	}
	applyFields(req, fields)
	return 1, nil
}

func (f *fakeRequestRepo) CountByCreator(_ context.Context, creatorID string, statuses []model.RequestStatus) (int64, error) {
	list, _ := f.ListByCreator(context.Background(), creatorID)
	return countWith(list, statuses), nil
}

func (f *fakeRequestRepo) CountByClaimer(_ context.Context, claimerID string, statuses []model.RequestStatus) (int64, error) {
	list, _ := f.ListByClaimer(context.Background(), claimerID, statuses)
	return int64(len(list)), nil
}

func (f *fakeRequestRepo) CountByPreferredSeller(_ context.Context, sellerID string, statuses []model.RequestStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, req := range f.rows {
		if req.PreferredSellerID != nil && *req.PreferredSellerID == sellerID &&
			(len(statuses) == 0 || containsStatus(statuses, req.Status)) {
			total++
		}
	}
	return total, nil
}

func containsStatus(statuses []model.RequestStatus, s model.RequestStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func countWith(list []model.PurchaseRequest, statuses []model.RequestStatus) int64 {
	var total int64
	for _, req := range list {
		if len(statuses) == 0 || containsStatus(statuses, req.Status) {
			total++
		}
	}
	return total
}

func applyFields(req *model.PurchaseRequest, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "status":
			req.Status = value.(model.RequestStatus)
		case "claimer_id":
			req.ClaimerID = strPtrOf(value)
		case "seller_confirmed_at":
			req.SellerConfirmedAt = timePtrOf(value)
		case "buyer_confirmed_at":
			req.BuyerConfirmedAt = timePtrOf(value)
		case "disputed_at":
			req.DisputedAt = timePtrOf(value)
		case "dispute_comment":
			req.DisputeComment = strPtrOf(value)
		}
	}
}

func strPtrOf(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func timePtrOf(v interface{}) *time.Time {
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*model.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: map[string]*model.Listing{}}
}

func (f *fakeListingRepo) Create(_ context.Context, l *model.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

func (f *fakeListingRepo) FindByID(_ context.Context, id string) (*model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListingRepo) ListActive(_ context.Context) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Listing
	for _, l := range f.listings {
		if !l.IsArchived {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListingRepo) Update(_ context.Context, l *model.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

var (
	buyer     = Identity{ID: "buyer-1", Username: "steve", Role: model.RoleUser}
	seller    = Identity{ID: "seller-1", Username: "alex", Role: model.RoleUser}
	bystander = Identity{ID: "bystander-1", Username: "villager", Role: model.RoleUser}
	moderator = Identity{ID: "admin-1", Username: "admin", Role: model.RoleAdmin}
)

func newTestRequestService(repo *fakeRequestRepo, listings *fakeListingRepo) RequestService {
	if listings == nil {
		listings = newFakeListingRepo()
	}
	return NewRequestService(repo, listings)
}

func seedRequest(repo *fakeRequestRepo, mutate func(*model.PurchaseRequest)) *model.PurchaseRequest {
	req := &model.PurchaseRequest{
		ID:             uuid.NewString(),
		ItemID:         "minecraft:diamond_sword",
		ItemName:       "Diamond Sword",
		Quantity:       1,
		OfferedPriceAr: 250,
		CreatorID:      buyer.ID,
		Status:         model.RequestStatusOpen,
		CreatedAt:      time.Now(),
	}
	if mutate != nil {
		mutate(req)
	}
	repo.rows[req.ID] = req
	return req
}

func TestCreateRequestValidation(t *testing.T) {
	svc := newTestRequestService(newFakeRequestRepo(), nil)

	cases := []struct {
		name string
		in   CreateRequestInput
	}{
		{"missing item id", CreateRequestInput{ItemName: "Diamond Sword", Quantity: 1, OfferedPriceAr: 250}},
		{"missing item name", CreateRequestInput{ItemID: "minecraft:diamond_sword", Quantity: 1, OfferedPriceAr: 250}},
		{"zero quantity", CreateRequestInput{ItemID: "minecraft:diamond_sword", ItemName: "Diamond Sword", Quantity: 0, OfferedPriceAr: 250}},
		{"negative quantity", CreateRequestInput{ItemID: "minecraft:diamond_sword", ItemName: "Diamond Sword", Quantity: -4, OfferedPriceAr: 250}},
		{"zero price", CreateRequestInput{ItemID: "minecraft:diamond_sword", ItemName: "Diamond Sword", Quantity: 1, OfferedPriceAr: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), buyer, tc.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCreateRequestFromListing(t *testing.T) {
	listings := newFakeListingRepo()
	require.NoError(t, listings.Create(context.Background(), &model.Listing{
		ID:      "listing-1",
		OwnerID: seller.ID,
		Title:   "Enchanted Diamond Sword",
		PriceAr: 300,
	}))
	require.NoError(t, listings.Create(context.Background(), &model.Listing{
		ID:         "listing-archived",
		OwnerID:    seller.ID,
		Title:      "Old Stock",
		PriceAr:    10,
		IsArchived: true,
	}))
	svc := newTestRequestService(newFakeRequestRepo(), listings)

	listingID := "listing-1"
	req, err := svc.Create(context.Background(), buyer, CreateRequestInput{
		ItemID:         "minecraft:diamond_sword",
		ItemName:       "ignored",
		Quantity:       1,
		OfferedPriceAr: 250,
		ListingID:      &listingID,
	})
	require.NoError(t, err)
	require.NotNil(t, req.PreferredSellerID)
	assert.Equal(t, seller.ID, *req.PreferredSellerID)
	assert.Equal(t, "Enchanted Diamond Sword", req.ItemName)
	assert.Equal(t, model.RequestStatusOpen, req.Status)

	archivedID := "listing-archived"
	_, err = svc.Create(context.Background(), buyer, CreateRequestInput{
		ItemID: "minecraft:dirt", Quantity: 1, OfferedPriceAr: 5, ListingID: &archivedID,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(context.Background(), seller, CreateRequestInput{
		ItemID: "minecraft:diamond_sword", Quantity: 1, OfferedPriceAr: 250, ListingID: &listingID,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	missing := "listing-nope"
	_, err = svc.Create(context.Background(), buyer, CreateRequestInput{
		ItemID: "minecraft:dirt", Quantity: 1, OfferedPriceAr: 5, ListingID: &missing,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLifecycleHappyPath(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, nil)

	claimed, err := svc.Claim(context.Background(), seller, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusClaimed, claimed.Status)
	require.NotNil(t, claimed.ClaimerID)
	assert.Equal(t, seller.ID, *claimed.ClaimerID)
	assert.Nil(t, claimed.SellerConfirmedAt)

	delivered, err := svc.MarkDelivered(context.Background(), seller, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAwaitingBuyerConfirm, delivered.Status)
	require.NotNil(t, delivered.SellerConfirmedAt)
	assert.Nil(t, delivered.BuyerConfirmedAt)

	completed, err := svc.Complete(context.Background(), buyer, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCompleted, completed.Status)
	require.NotNil(t, completed.BuyerConfirmedAt)
	assert.False(t, completed.BuyerConfirmedAt.Before(*completed.SellerConfirmedAt))
}

func TestClaimIsExclusiveUnderContention(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, nil)

	const contenders = 32
	var (
		wg        sync.WaitGroup
		successes sync.Map
		conflicts int64
		countMu   sync.Mutex
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			actor := Identity{ID: fmt.Sprintf("racer-%d", n), Username: fmt.Sprintf("racer%d", n), Role: model.RoleUser}
			req, err := svc.Claim(context.Background(), actor, seeded.ID)
			if err == nil {
				successes.Store(actor.ID, req)
				return
			}
			countMu.Lock()
			defer countMu.Unlock()
			conflicts++
		}(i)
	}
	wg.Wait()

	var winners []string
	successes.Range(func(key, _ interface{}) bool {
		winners = append(winners, key.(string))
		return true
	})
	require.Len(t, winners, 1, "exactly one contender may win the claim")
	assert.Equal(t, int64(contenders-1), conflicts)

	final, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusClaimed, final.Status)
	require.NotNil(t, final.ClaimerID)
	assert.Equal(t, winners[0], *final.ClaimerID)
}

func TestClaimOwnRequestForbidden(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, nil)

	_, err := svc.Claim(context.Background(), buyer, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestClaimHonoursPreferredSeller(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.PreferredSellerID = &id
	})

	_, err := svc.Claim(context.Background(), bystander, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	claimed, err := svc.Claim(context.Background(), seller, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusClaimed, claimed.Status)
}

func TestClaimAlreadyTaken(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusClaimed
		req.ClaimerID = &id
	})

	_, err := svc.Claim(context.Background(), bystander, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestClaimUnknownRequest(t *testing.T) {
	svc := newTestRequestService(newFakeRequestRepo(), nil)
	_, err := svc.Claim(context.Background(), seller, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReleaseClearsDeliveryState(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	now := time.Now()
	seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusClaimed
		req.ClaimerID = &id
		req.SellerConfirmedAt = &now
	})

	released, err := svc.Release(context.Background(), seller, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusOpen, released.Status)
	assert.Nil(t, released.ClaimerID)
	assert.Nil(t, released.SellerConfirmedAt)
	assert.Nil(t, released.BuyerConfirmedAt)
	assert.Nil(t, released.DisputedAt)
	assert.Nil(t, released.DisputeComment)
}

func TestReleaseOnlyByClaimer(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusClaimed
		req.ClaimerID = &id
	})

	_, err := svc.Release(context.Background(), bystander, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Release(context.Background(), buyer, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Release(context.Background(), moderator, seeded.ID)
	assert.NoError(t, err)
}

func TestDisputeReasonBounds(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)

	newClaimed := func() string {
		req := seedRequest(repo, func(req *model.PurchaseRequest) {
			id := seller.ID
			req.Status = model.RequestStatusClaimed
			req.ClaimerID = &id
		})
		return req.ID
	}

	for _, reason := range []string{"", "ab", "  ab  ", strings.Repeat("x", 281)} {
		_, err := svc.Dispute(context.Background(), buyer, newClaimed(), reason)
		assert.ErrorIs(t, err, apperr.ErrValidation, "reason %q must be rejected", reason)
	}

	disputed, err := svc.Dispute(context.Background(), buyer, newClaimed(), "item never arrived")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusDisputed, disputed.Status)
	require.NotNil(t, disputed.DisputeComment)
	assert.Equal(t, "item never arrived", *disputed.DisputeComment)
	assert.NotNil(t, disputed.DisputedAt)
}

func TestDisputeParties(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusAwaitingBuyerConfirm
		req.ClaimerID = &id
	})

	_, err := svc.Dispute(context.Background(), bystander, seeded.ID, "none of my business")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	disputed, err := svc.Dispute(context.Background(), seller, seeded.ID, "buyer refuses to confirm")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusDisputed, disputed.Status)
}

func TestResolveDecisions(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)

	newDisputed := func() string {
		req := seedRequest(repo, func(req *model.PurchaseRequest) {
			id := seller.ID
			reason := "item never arrived"
			now := time.Now()
			req.Status = model.RequestStatusDisputed
			req.ClaimerID = &id
			req.DisputedAt = &now
			req.DisputeComment = &reason
		})
		return req.ID
	}

	completed, err := svc.Resolve(context.Background(), moderator, newDisputed(), DecisionComplete)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCompleted, completed.Status)
	assert.NotNil(t, completed.BuyerConfirmedAt)

	cancelled, err := svc.Resolve(context.Background(), moderator, newDisputed(), DecisionCancel)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.ClaimerID, "the audit trail keeps the claimer on a cancelled dispute")
	assert.NotNil(t, cancelled.DisputeComment)

	_, err = svc.Resolve(context.Background(), moderator, newDisputed(), "split-the-difference")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Resolve(context.Background(), buyer, newDisputed(), DecisionComplete)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCancelOnlyOpenAndOnlyCreator(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, nil)

	_, err := svc.Cancel(context.Background(), bystander, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	cancelled, err := svc.Cancel(context.Background(), buyer, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), buyer, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCancelClaimedReportsOwnershipFirst(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusClaimed
		req.ClaimerID = &id
	})

	// Non-creators learn the request is not theirs, not that it is
	// unclaimable, even though the status check would also fail.
	_, err := svc.Cancel(context.Background(), seller, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Cancel(context.Background(), bystander, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// The creator gets the status answer.
	_, err = svc.Cancel(context.Background(), buyer, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestTerminalStatesAreFrozen(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)

	ops := map[string]func(context.Context, Identity, string) (*model.PurchaseRequest, error){
		"claim":          svc.Claim,
		"release":        svc.Release,
		"mark-delivered": svc.MarkDelivered,
		"complete":       svc.Complete,
		"cancel":         svc.Cancel,
	}
	for _, status := range []model.RequestStatus{model.RequestStatusCompleted, model.RequestStatusCancelled} {
		seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
			req.Status = status
		})
		for name, op := range ops {
			t.Run(string(status)+"/"+name, func(t *testing.T) {
				_, err := op(context.Background(), moderator, seeded.ID)
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
			})
		}
		t.Run(string(status)+"/dispute", func(t *testing.T) {
			_, err := svc.Dispute(context.Background(), moderator, seeded.ID, "too late for this")
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		})
		t.Run(string(status)+"/resolve", func(t *testing.T) {
			_, err := svc.Resolve(context.Background(), moderator, seeded.ID, DecisionCancel)
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		})
	}
}

func TestTransitionLosesRaceAgainstConcurrentWriter(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)
	seeded := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusClaimed
		req.ClaimerID = &id
	})

	// The status flips between the read and the guarded write.
	repo.beforeUpdate = func() {
		repo.rows[seeded.ID].Status = model.RequestStatusDisputed
	}

	_, err := svc.MarkDelivered(context.Background(), seller, seeded.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestListFiltersBoard(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)

	seedRequest(repo, nil)
	seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusClaimed
		req.ClaimerID = &id
	})
	seedRequest(repo, func(req *model.PurchaseRequest) { req.Status = model.RequestStatusCompleted })
	seedRequest(repo, func(req *model.PurchaseRequest) { req.Status = model.RequestStatusDisputed })

	active, err := svc.List(context.Background(), "active")
	require.NoError(t, err)
	assert.Len(t, active, 2)
	for _, req := range active {
		assert.True(t, req.Status.Active())
	}

	all, err := svc.List(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListDisputes(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)

	seedRequest(repo, nil)
	disputed := seedRequest(repo, func(req *model.PurchaseRequest) { req.Status = model.RequestStatusDisputed })

	list, err := svc.ListDisputes(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, disputed.ID, list[0].ID)
}

func TestListIncoming(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestRequestService(repo, nil)

	reserved := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.PreferredSellerID = &id
	})
	awaiting := seedRequest(repo, func(req *model.PurchaseRequest) {
		id := seller.ID
		req.Status = model.RequestStatusAwaitingBuyerConfirm
		req.ClaimerID = &id
	})
	seedRequest(repo, func(req *model.PurchaseRequest) { req.Status = model.RequestStatusCompleted })

	forSeller, err := svc.ListIncoming(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, forSeller, 1)
	assert.Equal(t, reserved.ID, forSeller[0].ID)

	forBuyer, err := svc.ListIncoming(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, forBuyer, 1)
	assert.Equal(t, awaiting.ID, forBuyer[0].ID)
}
