package orders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

type stockedProduct struct {
	providerID int64
	price      float64
	stock      int
}

type fakeRepo struct {
	nextID     int64
	products   map[int64]*stockedProduct
	cart       map[int64][]*CartItem
	orders     map[int64]*Order
	rejections map[int64]*Rejection
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products:   make(map[int64]*stockedProduct),
		cart:       make(map[int64][]*CartItem),
		orders:     make(map[int64]*Order),
		rejections: make(map[int64]*Rejection),
	}
}

func (f *fakeRepo) AddCartItem(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error) {
	if _, ok := f.products[productID]; !ok {
		return nil, httpx.ErrNotFound
	}
	for _, item := range f.cart[userID] {
		if item.ProductID == productID {
			item.Quantity += quantity
			copied := *item
			return &copied, nil
		}
	}
	f.nextID++
	item := &CartItem{ID: f.nextID, UserID: userID, ProductID: productID, Quantity: quantity, CreatedAt: time.Now()}
	f.cart[userID] = append(f.cart[userID], item)
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) error {
	for _, item := range f.cart[userID] {
		if item.ID == itemID {
			item.Quantity = quantity
			return nil
		}
	}
	return httpx.ErrNotFound
}

func (f *fakeRepo) RemoveCartItem(ctx context.Context, userID, itemID int64) error {
	items := f.cart[userID]
	for i, item := range items {
		if item.ID == itemID {
			f.cart[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return httpx.ErrNotFound
}

func (f *fakeRepo) ListCart(ctx context.Context, userID int64) ([]CartItem, error) {
	var out []CartItem
	for _, item := range f.cart[userID] {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeRepo) Checkout(ctx context.Context, userID int64) (*Order, error) {
	lines := f.cart[userID]
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", httpx.ErrUnprocessable)
	}
	var total float64
	for _, line := range lines {
		p := f.products[line.ProductID]
		if p.stock < line.Quantity {
			return nil, fmt.Errorf("%w: insufficient stock", httpx.ErrConflict)
		}
		total += p.price * float64(line.Quantity)
	}

	f.nextID++
	order := &Order{ID: f.nextID, UserID: userID, Status: StatusPending, Total: total, CreatedAt: time.Now()}
	for _, line := range lines {
		p := f.products[line.ProductID]
		p.stock -= line.Quantity
		f.nextID++
		order.Items = append(order.Items, OrderItem{
			ID: f.nextID, OrderID: order.ID, ProductID: line.ProductID,
			ProviderID: p.providerID, Quantity: line.Quantity,
			UnitPrice: p.price, Subtotal: p.price * float64(line.Quantity),
		})
	}
	f.orders[order.ID] = order
	f.cart[userID] = nil
	copied := *order
	return &copied, nil
}

func (f *fakeRepo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeRepo) ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]Order, int64, error) {
	var out []Order
	for _, o := range f.orders {
		if filter.UserID > 0 && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.ProviderID > 0 {
			match := false
			for _, item := range o.Items {
				if item.ProviderID == filter.ProviderID {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) Accept(ctx context.Context, orderID int64) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != StatusPending {
		return httpx.ErrConflict
	}
	o.Status = StatusAccepted
	return nil
}

func (f *fakeRepo) Reject(ctx context.Context, orderID int64, reason string, rejectedBy int64) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != StatusPending {
		return httpx.ErrConflict
	}
	o.Status = StatusRejected
	for _, item := range o.Items {
		f.products[item.ProductID].stock += item.Quantity
	}
	f.nextID++
	f.rejections[f.nextID] = &Rejection{
		ID: f.nextID, OrderID: orderID, Reason: reason, RejectedBy: rejectedBy, CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeRepo) ListRejections(ctx context.Context, userID int64, unreadOnly bool) ([]Rejection, error) {
	var out []Rejection
	for _, rej := range f.rejections {
		o := f.orders[rej.OrderID]
		if o == nil || o.UserID != userID {
			continue
		}
		if unreadOnly && rej.Read {
			continue
		}
		out = append(out, *rej)
	}
	return out, nil
}

func (f *fakeRepo) MarkRejectionRead(ctx context.Context, userID, rejectionID int64) error {
	rej, ok := f.rejections[rejectionID]
	if !ok {
		return httpx.ErrNotFound
	}
	if o := f.orders[rej.OrderID]; o == nil || o.UserID != userID {
		return httpx.ErrNotFound
	}
	rej.Read = true
	return nil
}

type fakeProviders struct {
	byUser map[int64]int64
}

func (f *fakeProviders) ProviderIDForUser(ctx context.Context, userID int64) (int64, error) {
	id, ok := f.byUser[userID]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	return id, nil
}

type fakeNotifier struct {
	notified []int64
}

func (f *fakeNotifier) Notify(ctx context.Context, userID int64, content i18n.Localized) error {
	f.notified = append(f.notified, userID)
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakeNotifier) {
	repo := newFakeRepo()
	repo.products[10] = &stockedProduct{providerID: 1, price: 50, stock: 5}
	repo.products[11] = &stockedProduct{providerID: 2, price: 30, stock: 2}
	notifier := &fakeNotifier{}
	providers := &fakeProviders{byUser: map[int64]int64{5: 1, 6: 2}}
	return NewService(repo, providers, notifier, slog.New(slog.NewTextHandler(io.Discard, nil))), repo, notifier
}

func buyer() shared.Identity {
	return shared.Identity{UserID: 20, Role: shared.RoleUser, Authenticated: true}
}

func sellingProvider() shared.Identity {
	return shared.Identity{UserID: 5, Role: shared.RoleServiceProvider, Authenticated: true}
}

func staff() shared.Identity {
	return shared.Identity{UserID: 100, Role: shared.RoleAdmin, IsStaff: true, Authenticated: true}
}

func TestCheckoutSnapshotsPricesAndEmptiesCart(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(context.Background(), 20, 11, 1)
	require.NoError(t, err)

	order, err := svc.Checkout(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, 130.0, order.Total)
	require.Len(t, order.Items, 2)

	// Later price edits must not touch the snapshot.
	repo.products[10].price = 999
	stored, err := svc.Get(context.Background(), buyer(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, stored.Total)

	cart, err := svc.Cart(context.Background(), 20)
	require.NoError(t, err)
	assert.Empty(t, cart, "checkout empties the cart")

	assert.Equal(t, 3, repo.products[10].stock, "stock decremented")
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Checkout(context.Background(), 20)
	assert.ErrorIs(t, err, httpx.ErrUnprocessable)
}

func TestAddToCartMergesQuantity(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 1)
	require.NoError(t, err)
	item, err := svc.AddToCart(context.Background(), 20, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
}

func TestRejectRestoresStockAndRecordsReason(t *testing.T) {
	svc, repo, notifier := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 2)
	require.NoError(t, err)
	order, err := svc.Checkout(context.Background(), 20)
	require.NoError(t, err)
	require.Equal(t, 3, repo.products[10].stock)

	reviewed, err := svc.Review(context.Background(), sellingProvider(), order.ID, false, "out of service area")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, reviewed.Status)
	assert.Equal(t, 5, repo.products[10].stock, "stock restored on rejection")
	assert.Equal(t, []int64{20}, notifier.notified)

	rejections, err := svc.Rejections(context.Background(), 20, true)
	require.NoError(t, err)
	require.Len(t, rejections, 1)
	assert.Equal(t, "out of service area", rejections[0].Reason)

	require.NoError(t, svc.MarkRejectionRead(context.Background(), 20, rejections[0].ID))
	unread, err := svc.Rejections(context.Background(), 20, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestRejectWithoutReason(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 1)
	require.NoError(t, err)
	order, err := svc.Checkout(context.Background(), 20)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), staff(), order.ID, false, "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestReviewForbiddenForUnrelatedProvider(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 1)
	require.NoError(t, err)
	order, err := svc.Checkout(context.Background(), 20)
	require.NoError(t, err)

	unrelated := shared.Identity{UserID: 6, Role: shared.RoleServiceProvider, Authenticated: true}
	_, err = svc.Review(context.Background(), unrelated, order.ID, true, "")
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestAcceptTwiceConflicts(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 1)
	require.NoError(t, err)
	order, err := svc.Checkout(context.Background(), 20)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), staff(), order.ID, true, "")
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), staff(), order.ID, true, "")
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestListScopesByRole(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 1)
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), 20)
	require.NoError(t, err)

	mine, _, err := svc.List(context.Background(), buyer(), "", 1, 9)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	selling, _, err := svc.List(context.Background(), sellingProvider(), "", 1, 9)
	require.NoError(t, err)
	assert.Len(t, selling, 1)

	other := shared.Identity{UserID: 6, Role: shared.RoleServiceProvider, Authenticated: true}
	none, _, err := svc.List(context.Background(), other, "", 1, 9)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetHidesForeignOrders(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddToCart(context.Background(), 20, 10, 1)
	require.NoError(t, err)
	order, err := svc.Checkout(context.Background(), 20)
	require.NoError(t, err)

	stranger := shared.Identity{UserID: 33, Role: shared.RoleUser, Authenticated: true}
	_, err = svc.Get(context.Background(), stranger, order.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}
