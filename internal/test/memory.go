package test

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

// MemoryStore is an in-memory repository.Store with transaction rollback.
// A transaction holds the store lock for its whole duration and restores a snapshot on error.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState

	// Now stamps created and updated times.
	Now func() time.Time
	// BeforeOrderUpdate runs inside OrderRepository.UpdateStatus; a returned error fails the call.
	BeforeOrderUpdate func(order *model.Order) error
}

type memoryState struct {
	nextID     int64
	users      map[int64]model.User
	categories map[int64]model.Category
	products   map[int64]model.Product
	carts      map[int64]model.CartItem
	orders     map[int64]model.Order
	items      map[int64]model.OrderItem
	history    []model.StatusHistoryEntry
	outbox     []model.OutboxEvent
	claimed    map[int64]bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			users:      make(map[int64]model.User),
			categories: make(map[int64]model.Category),
			products:   make(map[int64]model.Product),
			carts:      make(map[int64]model.CartItem),
			orders:     make(map[int64]model.Order),
			items:      make(map[int64]model.OrderItem),
			claimed:    make(map[int64]bool),
		},
		Now: time.Now,
	}
}

func (st *memoryState) clone() *memoryState {
	c := &memoryState{
		nextID:     st.nextID,
		users:      make(map[int64]model.User, len(st.users)),
		categories: make(map[int64]model.Category, len(st.categories)),
		products:   make(map[int64]model.Product, len(st.products)),
		carts:      make(map[int64]model.CartItem, len(st.carts)),
		orders:     make(map[int64]model.Order, len(st.orders)),
		items:      make(map[int64]model.OrderItem, len(st.items)),
		history:    append([]model.StatusHistoryEntry(nil), st.history...),
		outbox:     append([]model.OutboxEvent(nil), st.outbox...),
		claimed:    make(map[int64]bool, len(st.claimed)),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.carts {
		c.carts[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.claimed {
		c.claimed[k] = v
	}
	return c
}

func (st *memoryState) id() int64 {
	st.nextID++
	return st.nextID
}

// WithinTransaction runs fn against the store and rolls every write back when fn fails.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(repository.Factory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(memRepos{s: s, inTx: true}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Users() repository.UserRepository { return memUsers{memRepos{s: s}} }

func (s *MemoryStore) Orders() repository.OrderRepository { return memOrders{memRepos{s: s}} }

func (s *MemoryStore) Products() repository.ProductRepository { return memProducts{memRepos{s: s}} }

func (s *MemoryStore) Categories() repository.CategoryRepository { return memCategories{memRepos{s: s}} }

func (s *MemoryStore) Carts() repository.CartRepository { return memCarts{memRepos{s: s}} }

func (s *MemoryStore) History() repository.HistoryRepository { return memHistory{memRepos{s: s}} }

func (s *MemoryStore) Outbox() repository.OutboxRepository { return memOutbox{memRepos{s: s}} }

// SeedUser inserts a user and returns its id.
func (s *MemoryStore) SeedUser(email, name string, role model.Role) int64 {
	u, err := s.Users().Create(context.Background(), email, name, "hash", role)
	if err != nil {
		panic(err)
	}
	return u.ID
}

// SeedProduct inserts an active product and returns its id.
func (s *MemoryStore) SeedProduct(name string, price int64, stock int) int64 {
	p := &model.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock, IsActive: true}
	if err := s.Products().Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p.ID
}

// StockOf returns the current stock of a product or -1 when it does not exist.
func (s *MemoryStore) StockOf(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.products[productID]
	if !ok {
		return -1
	}
	return p.Stock
}

// OrderCount returns the number of persisted orders.
func (s *MemoryStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

// ItemCount returns the number of persisted order items.
func (s *MemoryStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.items)
}

// Events returns a copy of every outbox event.
func (s *MemoryStore) Events() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OutboxEvent(nil), s.state.outbox...)
}

// HistoryRows returns the number of audit entries across all orders.
func (s *MemoryStore) HistoryRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.history)
}

type memRepos struct {
	s    *MemoryStore
	inTx bool
}

func (r memRepos) do(fn func(st *memoryState) error) error {
	if !r.inTx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn(r.s.state)
}

func (r memRepos) now() time.Time {
	if r.s.Now == nil {
		return time.Now()
	}
	return r.s.Now()
}

func (r memRepos) Users() repository.UserRepository { return memUsers{r} }

func (r memRepos) Orders() repository.OrderRepository { return memOrders{r} }

func (r memRepos) Products() repository.ProductRepository { return memProducts{r} }

func (r memRepos) Categories() repository.CategoryRepository { return memCategories{r} }

func (r memRepos) Carts() repository.CartRepository { return memCarts{r} }

func (r memRepos) History() repository.HistoryRepository { return memHistory{r} }

func (r memRepos) Outbox() repository.OutboxRepository { return memOutbox{r} }

type memUsers struct{ memRepos }

func (r memUsers) Create(ctx context.Context, email, name, passwordHash string, role model.Role) (*model.User, error) {
	var user model.User
	err := r.do(func(st *memoryState) error {
		for _, u := range st.users {
			if u.Email == email {
				return domainErrors.ErrAlreadyExists
			}
		}
		user = model.User{ID: st.id(), Email: email, Name: name, PasswordHash: passwordHash, Role: role, CreatedAt: r.now()}
		st.users[user.ID] = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user *model.User
	err := r.do(func(st *memoryState) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				user = &u
				return nil
			}
		}
		return domainErrors.ErrNotFound
	})
	return user, err
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user *model.User
	err := r.do(func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		user = &u
		return nil
	})
	return user, err
}

type memCategories struct{ memRepos }

func (r memCategories) unique(st *memoryState, c *model.Category) error {
	for _, other := range st.categories {
		if other.ID != c.ID && (other.Name == c.Name || other.Slug == c.Slug) {
			return domainErrors.ErrAlreadyExists
		}
	}
	return nil
}

func (r memCategories) Create(ctx context.Context, c *model.Category) error {
	return r.do(func(st *memoryState) error {
		if err := r.unique(st, c); err != nil {
			return err
		}
		c.ID = st.id()
		c.CreatedAt = r.now()
		st.categories[c.ID] = *c
		return nil
	})
}

func (r memCategories) Update(ctx context.Context, c *model.Category) error {
	return r.do(func(st *memoryState) error {
		old, ok := st.categories[c.ID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		if err := r.unique(st, c); err != nil {
			return err
		}
		c.CreatedAt = old.CreatedAt
		st.categories[c.ID] = *c
		return nil
	})
}

func (r memCategories) Delete(ctx context.Context, id int64) error {
	return r.do(func(st *memoryState) error {
		if _, ok := st.categories[id]; !ok {
			return domainErrors.ErrNotFound
		}
		delete(st.categories, id)
		for pid, p := range st.products {
			if p.CategoryID != nil && *p.CategoryID == id {
				p.CategoryID = nil
				st.products[pid] = p
			}
		}
		return nil
	})
}

func (r memCategories) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category *model.Category
	err := r.do(func(st *memoryState) error {
		c, ok := st.categories[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		category = &c
		return nil
	})
	return category, err
}

func (r memCategories) List(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := r.do(func(st *memoryState) error {
		for _, c := range st.categories {
			out = append(out, c)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

type memProducts struct{ memRepos }

func (r memProducts) Create(ctx context.Context, p *model.Product) error {
	return r.do(func(st *memoryState) error {
		if p.CategoryID != nil {
			if _, ok := st.categories[*p.CategoryID]; !ok {
				return domainErrors.ErrNotFound
			}
		}
		p.ID = st.id()
		p.CreatedAt = r.now()
		p.UpdatedAt = p.CreatedAt
		st.products[p.ID] = *p
		return nil
	})
}

func (r memProducts) Update(ctx context.Context, p *model.Product) error {
	return r.do(func(st *memoryState) error {
		old, ok := st.products[p.ID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		p.Stock = old.Stock
		p.CreatedAt = old.CreatedAt
		p.UpdatedAt = r.now()
		st.products[p.ID] = *p
		return nil
	})
}

func (r memProducts) Delete(ctx context.Context, id int64) error {
	return r.do(func(st *memoryState) error {
		if _, ok := st.products[id]; !ok {
			return domainErrors.ErrNotFound
		}
		for _, item := range st.items {
			if item.ProductID == id {
				return domainErrors.ErrProductInUse
			}
		}
		delete(st.products, id)
		for cid, c := range st.carts {
			if c.ProductID == id {
				delete(st.carts, cid)
			}
		}
		return nil
	})
}

func (r memProducts) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product *model.Product
	err := r.do(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		product = &p
		return nil
	})
	return product, err
}

func (r memProducts) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	err := r.do(func(st *memoryState) error {
		search := strings.ToLower(filter.Search)
		for _, p := range st.products {
			if filter.ActiveOnly && !p.IsActive {
				continue
			}
			if filter.InStock && p.Stock <= 0 {
				continue
			}
			if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	total := int64(len(out))
	return paginate(out, filter.Offset(), filter.PerPage), total, nil
}

func (r memProducts) LockForUpdate(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(ids))
	err := r.do(func(st *memoryState) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = p
			}
		}
		return nil
	})
	return out, err
}

func (r memProducts) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	applied := false
	err := r.do(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok || p.Stock < qty {
			return nil
		}
		p.Stock -= qty
		st.products[id] = p
		applied = true
		return nil
	})
	return applied, err
}

func (r memProducts) IncrementStock(ctx context.Context, id int64, qty int) error {
	return r.do(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		p.Stock += qty
		st.products[id] = p
		return nil
	})
}

func (r memProducts) AdjustStock(ctx context.Context, id int64, delta int) (*model.Product, error) {
	var product *model.Product
	err := r.do(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		if p.Stock+delta < 0 {
			return &domainErrors.InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: -delta}
		}
		p.Stock += delta
		p.UpdatedAt = r.now()
		st.products[id] = p
		product = &p
		return nil
	})
	return product, err
}

type memCarts struct{ memRepos }

func (r memCarts) view(st *memoryState, c model.CartItem) model.CartItem {
	if p, ok := st.products[c.ProductID]; ok {
		c.ProductName = p.Name
		c.UnitPrice = p.Price
		c.Stock = p.Stock
	}
	return c
}

func (r memCarts) collect(st *memoryState, keep func(model.CartItem) bool) []model.CartItem {
	var out []model.CartItem
	for _, c := range st.carts {
		if keep(c) {
			out = append(out, r.view(st, c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memCarts) ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var out []model.CartItem
	err := r.do(func(st *memoryState) error {
		out = r.collect(st, func(c model.CartItem) bool { return c.UserID == userID })
		return nil
	})
	return out, err
}

func (r memCarts) GetByIDs(ctx context.Context, userID int64, ids []int64) ([]model.CartItem, error) {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []model.CartItem
	err := r.do(func(st *memoryState) error {
		out = r.collect(st, func(c model.CartItem) bool { return c.UserID == userID && wanted[c.ID] })
		return nil
	})
	return out, err
}

func (r memCarts) Add(ctx context.Context, userID, productID int64, qty int) (*model.CartItem, error) {
	var item model.CartItem
	err := r.do(func(st *memoryState) error {
		if _, ok := st.products[productID]; !ok {
			return domainErrors.ErrNotFound
		}
		for id, c := range st.carts {
			if c.UserID == userID && c.ProductID == productID {
				c.Quantity += qty
				st.carts[id] = c
				item = r.view(st, c)
				return nil
			}
		}
		c := model.CartItem{ID: st.id(), UserID: userID, ProductID: productID, Quantity: qty, CreatedAt: r.now()}
		st.carts[c.ID] = c
		item = r.view(st, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r memCarts) UpdateQuantity(ctx context.Context, userID, itemID int64, qty int) error {
	return r.do(func(st *memoryState) error {
		c, ok := st.carts[itemID]
		if !ok || c.UserID != userID {
			return domainErrors.ErrNotFound
		}
		c.Quantity = qty
		st.carts[itemID] = c
		return nil
	})
}

func (r memCarts) Remove(ctx context.Context, userID, itemID int64) error {
	return r.do(func(st *memoryState) error {
		c, ok := st.carts[itemID]
		if !ok || c.UserID != userID {
			return domainErrors.ErrNotFound
		}
		delete(st.carts, itemID)
		return nil
	})
}

func (r memCarts) DeleteByIDs(ctx context.Context, userID int64, ids []int64) error {
	return r.do(func(st *memoryState) error {
		for _, id := range ids {
			if c, ok := st.carts[id]; ok && c.UserID == userID {
				delete(st.carts, id)
			}
		}
		return nil
	})
}

func (r memCarts) Clear(ctx context.Context, userID int64) error {
	return r.do(func(st *memoryState) error {
		for id, c := range st.carts {
			if c.UserID == userID {
				delete(st.carts, id)
			}
		}
		return nil
	})
}

type memOrders struct{ memRepos }

func (r memOrders) assemble(st *memoryState, o model.Order) model.Order {
	if u, ok := st.users[o.UserID]; ok {
		o.CustomerName = u.Name
		o.CustomerEmail = u.Email
	}
	o.Items = nil
	for _, item := range st.items {
		if item.OrderID == o.ID {
			o.Items = append(o.Items, item)
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return o
}

func (r memOrders) Create(ctx context.Context, order *model.Order) error {
	return r.do(func(st *memoryState) error {
		for _, o := range st.orders {
			if o.Number == order.Number {
				return domainErrors.ErrAlreadyExists
			}
		}
		order.ID = st.id()
		order.CreatedAt = r.now()
		order.UpdatedAt = order.CreatedAt
		for i := range order.Items {
			order.Items[i].ID = st.id()
			order.Items[i].OrderID = order.ID
			st.items[order.Items[i].ID] = order.Items[i]
		}
		stored := *order
		stored.Items = nil
		st.orders[order.ID] = stored
		return nil
	})
}

func (r memOrders) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order *model.Order
	err := r.do(func(st *memoryState) error {
		o, ok := st.orders[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		o = r.assemble(st, o)
		order = &o
		return nil
	})
	return order, err
}

func (r memOrders) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return r.GetByID(ctx, id)
}

func (r memOrders) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	ids := make(map[int64]bool, len(filter.OrderIDs))
	for _, id := range filter.OrderIDs {
		ids[id] = true
	}
	search := strings.ToLower(filter.Search)

	var out []model.Order
	err := r.do(func(st *memoryState) error {
		for _, o := range st.orders {
			o = r.assemble(st, o)
			if filter.UserID != nil && o.UserID != *filter.UserID {
				continue
			}
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			if len(ids) > 0 && !ids[o.ID] {
				continue
			}
			if filter.From != nil && o.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && o.CreatedAt.After(*filter.To) {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(o.Number), search) &&
				!strings.Contains(strings.ToLower(o.CustomerName), search) &&
				!strings.Contains(strings.ToLower(o.CustomerEmail), search) {
				continue
			}
			out = append(out, o)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	total := int64(len(out))
	return paginate(out, filter.Offset(), filter.PerPage), total, nil
}

func (r memOrders) UpdateStatus(ctx context.Context, order *model.Order) error {
	return r.do(func(st *memoryState) error {
		o, ok := st.orders[order.ID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		if r.s.BeforeOrderUpdate != nil {
			if err := r.s.BeforeOrderUpdate(order); err != nil {
				return err
			}
		}
		o.Status = order.Status
		o.ShippedAt = order.ShippedAt
		o.DeliveredAt = order.DeliveredAt
		o.TotalAmount = order.TotalAmount
		o.UpdatedAt = r.now()
		order.UpdatedAt = o.UpdatedAt
		st.orders[o.ID] = o
		return nil
	})
}

func (r memOrders) UpdateAdjustments(ctx context.Context, order *model.Order) error {
	return r.do(func(st *memoryState) error {
		o, ok := st.orders[order.ID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		o.ShippingAddress = order.ShippingAddress
		o.ShippingCost = order.ShippingCost
		o.TaxAmount = order.TaxAmount
		o.DiscountAmount = order.DiscountAmount
		o.Notes = order.Notes
		o.TrackingNumber = order.TrackingNumber
		o.TotalAmount = order.TotalAmount
		o.UpdatedAt = r.now()
		st.orders[o.ID] = o
		return nil
	})
}

func (r memOrders) SetItemsReserved(ctx context.Context, itemIDs []int64, reserved bool) error {
	return r.do(func(st *memoryState) error {
		for _, id := range itemIDs {
			if item, ok := st.items[id]; ok {
				item.Reserved = reserved
				st.items[id] = item
			}
		}
		return nil
	})
}

func (r memOrders) remove(st *memoryState, id int64) {
	delete(st.orders, id)
	for itemID, item := range st.items {
		if item.OrderID == id {
			delete(st.items, itemID)
		}
	}
	kept := st.history[:0]
	for _, h := range st.history {
		if h.OrderID != id {
			kept = append(kept, h)
		}
	}
	st.history = kept
}

func (r memOrders) Delete(ctx context.Context, id int64) error {
	return r.do(func(st *memoryState) error {
		if _, ok := st.orders[id]; !ok {
			return domainErrors.ErrNotFound
		}
		r.remove(st, id)
		return nil
	})
}

func (r memOrders) DeleteCancelled(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.do(func(st *memoryState) error {
		for _, id := range ids {
			if o, ok := st.orders[id]; ok && o.Status == model.OrderStatusCancelled {
				r.remove(st, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memOrders) NextSequence(ctx context.Context, prefix string) (int, error) {
	maxSeq := 0
	err := r.do(func(st *memoryState) error {
		for _, o := range st.orders {
			suffix, ok := strings.CutPrefix(o.Number, prefix)
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(suffix); err == nil && n > maxSeq {
				maxSeq = n
			}
		}
		return nil
	})
	return maxSeq + 1, err
}

func (r memOrders) Stats(ctx context.Context) (*model.OrderStats, error) {
	stats := &model.OrderStats{ByStatus: make(map[model.OrderStatus]int64), Revenue: decimal.Zero}
	err := r.do(func(st *memoryState) error {
		for _, o := range st.orders {
			stats.Total++
			stats.ByStatus[o.Status]++
			if o.Status == model.OrderStatusDelivered {
				stats.Revenue = stats.Revenue.Add(o.TotalAmount)
			}
		}
		return nil
	})
	return stats, err
}

type memHistory struct{ memRepos }

func (r memHistory) Append(ctx context.Context, entry *model.StatusHistoryEntry) error {
	return r.do(func(st *memoryState) error {
		entry.ID = st.id()
		entry.CreatedAt = r.now()
		st.history = append(st.history, *entry)
		return nil
	})
}

func (r memHistory) ListByOrder(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error) {
	var out []model.StatusHistoryEntry
	err := r.do(func(st *memoryState) error {
		for _, h := range st.history {
			if h.OrderID == orderID {
				out = append(out, h)
			}
		}
		return nil
	})
	return out, err
}

type memOutbox struct{ memRepos }

func (r memOutbox) Insert(ctx context.Context, event *model.OutboxEvent) error {
	return r.do(func(st *memoryState) error {
		for _, e := range st.outbox {
			if e.EventID == event.EventID {
				return domainErrors.ErrAlreadyExists
			}
		}
		event.ID = st.id()
		event.CreatedAt = r.now()
		st.outbox = append(st.outbox, *event)
		return nil
	})
}

func (r memOutbox) ClaimBatch(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	var out []model.OutboxEvent
	err := r.do(func(st *memoryState) error {
		for _, e := range st.outbox {
			if len(out) >= limit {
				break
			}
			if e.SentAt != nil || st.claimed[e.ID] {
				continue
			}
			st.claimed[e.ID] = true
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (r memOutbox) MarkSent(ctx context.Context, id int64) error {
	return r.do(func(st *memoryState) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				now := r.now()
				st.outbox[i].SentAt = &now
				return nil
			}
		}
		return domainErrors.ErrNotFound
	})
}

func (r memOutbox) Release(ctx context.Context, id int64) error {
	return r.do(func(st *memoryState) error {
		delete(st.claimed, id)
		return nil
	})
}

func paginate[T any](rows []T, offset, perPage int) []T {
	if perPage <= 0 {
		return rows
	}
	if offset >= len(rows) {
		return nil
	}
	end := offset + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

var (
	_ repository.Store   = (*MemoryStore)(nil)
	_ repository.Factory = memRepos{}
)
