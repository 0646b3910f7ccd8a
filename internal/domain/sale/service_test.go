package sale

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/core/types"
	"librepos/internal/domain/product"
	"librepos/internal/domain/sequence"
)

// --- In-memory fakes ---

type fakeTxManager struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx)
}

type fakeSaleRepo struct {
	mu        sync.Mutex
	headers   []*Sale
	lines     map[id.ID][]Line
	createErr error
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{lines: make(map[id.ID][]Line)}
}

func (r *fakeSaleRepo) CreateHeader(ctx context.Context, s *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	header := *s
	header.Lines = nil
	r.headers = append(r.headers, &header)
	return nil
}

func (r *fakeSaleRepo) InsertLines(ctx context.Context, saleID id.ID, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[saleID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeSaleRepo) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.headers {
		if h.ID == saleID {
			copied := *h
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("sale", saleID.String())
}

func (r *fakeSaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[saleID]...), nil
}

func (r *fakeSaleRepo) ListAll(ctx context.Context) ([]*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Sale, 0, len(r.headers))
	for _, h := range r.headers {
		copied := *h
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *fakeSaleRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*Sale, error) {
	all, _ := r.ListAll(ctx)
	out := make([]*Sale, 0, len(all))
	for _, h := range all {
		if !h.Timestamp.Before(from) && !h.Timestamp.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

// maxNumberForPrefix mirrors what the database-backed generator reads.
func (r *fakeSaleRepo) maxNumberForPrefix(prefix string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := ""
	for _, h := range r.headers {
		if len(h.Number) > len(prefix) && h.Number[:len(prefix)+1] == prefix+"-" && h.Number > max {
			max = h.Number
		}
	}
	return max
}

type fakeCatalog struct {
	mu       sync.Mutex
	products map[id.ID]*product.Product
	stock    map[id.ID]int
	deltaErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: make(map[id.ID]*product.Product),
		stock:    make(map[id.ID]int),
	}
}

func (c *fakeCatalog) add(name string, price string, stock int) id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := product.New("", name, "Test", types.MustMoney(price), stock)
	c.products[p.ID] = p
	c.stock[p.ID] = stock
	return p.ID
}

func (c *fakeCatalog) Create(ctx context.Context, p *product.Product) error { return nil }
func (c *fakeCatalog) Update(ctx context.Context, p *product.Product) error { return nil }
func (c *fakeCatalog) Delete(ctx context.Context, productID id.ID) error    { return nil }
func (c *fakeCatalog) NextCode(ctx context.Context) (string, error)         { return "P000001", nil }

func (c *fakeCatalog) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	return nil, nil
}

func (c *fakeCatalog) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.products[productID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, apperror.NewNotFound("product", productID.String())
}

func (c *fakeCatalog) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", code)
}

func (c *fakeCatalog) GetStock(ctx context.Context, productID id.ID) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[productID]; !ok {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	return c.stock[productID], nil
}

func (c *fakeCatalog) HasAvailable(ctx context.Context, productID id.ID, quantity int) (bool, error) {
	stock, err := c.GetStock(ctx, productID)
	if err != nil {
		return false, err
	}
	return stock >= quantity, nil
}

func (c *fakeCatalog) ApplyDelta(ctx context.Context, productID id.ID, signedQuantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deltaErr != nil {
		return c.deltaErr
	}
	current, ok := c.stock[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	if current+signedQuantity < 0 {
		return apperror.NewInsufficientStock(productID.String(), -signedQuantity, current)
	}
	c.stock[productID] = current + signedQuantity
	return nil
}

// repoGenerator reads the highest committed number for the day from the
// fake repo, the same read the database-backed generator performs.
type repoGenerator struct {
	repo  *fakeSaleRepo
	calls int
	mu    sync.Mutex
}

func (g *repoGenerator) Next(ctx context.Context, now time.Time) (sequence.Result, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	prefix := sequence.DayPrefix(now)
	last := g.repo.maxNumberForPrefix(prefix)
	if last == "" {
		return sequence.Result{Number: sequence.Format(now, 1)}, nil
	}
	suffix, err := sequence.ParseSuffix(last)
	if err != nil {
		return sequence.Result{Number: sequence.Format(now, 1), SuffixReset: true}, nil
	}
	return sequence.Result{Number: sequence.Format(now, suffix+1)}, nil
}

// --- Test harness ---

type fixture struct {
	repo      *fakeSaleRepo
	catalog   *fakeCatalog
	generator *repoGenerator
	txManager *fakeTxManager
	service   *Service
}

func newFixture() *fixture {
	repo := newFakeSaleRepo()
	catalog := newFakeCatalog()
	generator := &repoGenerator{repo: repo}
	txManager := &fakeTxManager{}
	return &fixture{
		repo:      repo,
		catalog:   catalog,
		generator: generator,
		txManager: txManager,
		service:   NewService(repo, catalog, catalog, generator, txManager),
	}
}

// --- Tests ---

func TestPlaceSale_Simple(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := f.catalog.add("Cien anos de soledad", "15.50", 10)

	placed, err := f.service.PlaceSale(ctx, PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
		Lines:         []LineRequest{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NotNil(t, placed)

	assert.False(t, id.IsNil(placed.ID))
	assert.Equal(t, sequence.Format(time.Now(), 1), placed.Number)
	assert.Equal(t, "EFECTIVO", placed.PaymentMethod)
	assert.True(t, placed.Total.Equal(types.MustMoney("31.00")),
		"expected total 31.00, got %s", placed.Total)

	require.Len(t, placed.Lines, 1)
	assert.Equal(t, placed.ID, placed.Lines[0].SaleID)
	assert.Equal(t, 1, placed.Lines[0].LineNo)
	assert.True(t, placed.Lines[0].UnitPrice.Equal(types.MustMoney("15.50")))

	// Post-commit stock delta applied.
	stock, err := f.catalog.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 8, stock)

	// Header and lines persisted.
	stored, err := f.repo.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Number, stored.Number)
	lines, err := f.repo.GetLines(ctx, placed.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestPlaceSale_EmptyBasket(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceSale(context.Background(), PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// Validation failures must not reach the generator or the store.
	assert.Equal(t, 0, f.generator.calls)
	assert.Equal(t, 0, f.txManager.calls)
	assert.Empty(t, f.repo.headers)
}

func TestPlaceSale_MissingPaymentMethod(t *testing.T) {
	f := newFixture()
	productID := f.catalog.add("El principito", "12.00", 5)

	_, err := f.service.PlaceSale(context.Background(), PlaceSaleRequest{
		PaymentMethod: "   ",
		Lines:         []LineRequest{{ProductID: productID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, f.generator.calls)
}

func TestPlaceSale_NonPositiveQuantity(t *testing.T) {
	f := newFixture()
	productID := f.catalog.add("El principito", "12.00", 5)

	for _, qty := range []int{0, -3} {
		_, err := f.service.PlaceSale(context.Background(), PlaceSaleRequest{
			PaymentMethod: "EFECTIVO",
			Lines:         []LineRequest{{ProductID: productID, Quantity: qty}},
		})
		require.Error(t, err, "quantity %d", qty)
		assert.True(t, apperror.IsValidation(err))
	}
}

func TestPlaceSale_UnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceSale(context.Background(), PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
		Lines:         []LineRequest{{ProductID: id.New(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestPlaceSale_InsufficientStockNamesProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	aID := f.catalog.add("A", "10.00", 100)
	bID := f.catalog.add("B", "5.00", 1)

	_, err := f.service.PlaceSale(ctx, PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
		Lines: []LineRequest{
			{ProductID: aID, Quantity: 2},
			{ProductID: bID, Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "insufficient stock for product B")

	// Nothing persisted, no stock moved for either product.
	assert.Empty(t, f.repo.headers)
	stockA, _ := f.catalog.GetStock(ctx, aID)
	stockB, _ := f.catalog.GetStock(ctx, bID)
	assert.Equal(t, 100, stockA)
	assert.Equal(t, 1, stockB)
}

func TestPlaceSale_PersistenceFailure(t *testing.T) {
	f := newFixture()
	productID := f.catalog.add("Rayuela", "22.75", 4)
	f.repo.createErr = errors.New("disk full")

	_, err := f.service.PlaceSale(context.Background(), PlaceSaleRequest{
		PaymentMethod: "TARJETA",
		Lines:         []LineRequest{{ProductID: productID, Quantity: 1}},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePersistence, appErr.Code)

	// No stock moved for a failed sale.
	stock, _ := f.catalog.GetStock(context.Background(), productID)
	assert.Equal(t, 4, stock)
}

func TestPlaceSale_StockAdjustmentFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := f.catalog.add("Don Quijote", "30.00", 10)
	f.catalog.deltaErr = errors.New("register offline")

	placed, err := f.service.PlaceSale(ctx, PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
		Lines:         []LineRequest{{ProductID: productID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsStockAdjustment(err))

	// The sale stays committed; callers get it back alongside the error.
	require.NotNil(t, placed)
	_, getErr := f.repo.GetByID(ctx, placed.ID)
	assert.NoError(t, getErr)
}

func TestPlaceSale_PriceSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := f.catalog.add("Cuaderno A5", "3.50", 50)

	placed, err := f.service.PlaceSale(ctx, PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
		Lines:         []LineRequest{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	// Catalog price changes after the sale must not alter the line.
	f.catalog.mu.Lock()
	f.catalog.products[productID].Price = types.MustMoney("99.99")
	f.catalog.mu.Unlock()

	reloaded, err := f.service.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.True(t, reloaded.Lines[0].UnitPrice.Equal(types.MustMoney("3.50")))
	assert.True(t, reloaded.Total.Equal(types.MustMoney("7.00")),
		"expected total 7.00, got %s", reloaded.Total)
}

func TestGetByID_RecomputesTotalFromLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := f.catalog.add("Boligrafo azul", "1.25", 500)

	placed, err := f.service.PlaceSale(ctx, PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
		Lines:         []LineRequest{{ProductID: productID, Quantity: 4}},
	})
	require.NoError(t, err)

	// Corrupt the cached header total; reads must not trust it.
	f.repo.mu.Lock()
	f.repo.headers[0].Total = types.MustMoney("1000.00")
	f.repo.mu.Unlock()

	reloaded, err := f.service.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Total.Equal(types.MustMoney("5.00")),
		"expected recomputed total 5.00, got %s", reloaded.Total)
}

func TestGetByID_ToleratesDeletedProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := f.catalog.add("Descatalogado", "9.00", 3)

	placed, err := f.service.PlaceSale(ctx, PlaceSaleRequest{
		PaymentMethod: "EFECTIVO",
		Lines:         []LineRequest{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)

	f.catalog.mu.Lock()
	delete(f.catalog.products, productID)
	f.catalog.mu.Unlock()

	reloaded, err := f.service.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.Nil(t, reloaded.Lines[0].Product)
	assert.True(t, reloaded.Total.Equal(types.MustMoney("9.00")))
}

func TestUpdateAndDelete_Unsupported(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.service.Update(ctx, &Sale{})
	require.Error(t, err)
	assert.True(t, apperror.IsUnsupported(err))

	err = f.service.Delete(ctx, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsUnsupported(err))
}

func TestListByDateRange_NewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := f.catalog.add("Agenda", "8.00", 100)

	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := f.service.PlaceSale(ctx, PlaceSaleRequest{
			PaymentMethod: "EFECTIVO",
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
			Lines:         []LineRequest{{ProductID: productID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	sales, err := f.service.ListByDateRange(ctx, base, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, sales, 3)

	for i := 1; i < len(sales); i++ {
		assert.True(t, !sales[i-1].Timestamp.Before(sales[i].Timestamp),
			"expected newest first")
	}

	// A narrower range excludes the others.
	narrow, err := f.service.ListByDateRange(ctx, base, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Len(t, narrow, 1)
}

func TestPlaceSale_ConcurrentDistinctNumbers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := f.catalog.add("Entrada", "2.00", 10000)

	const n = 25
	var wg sync.WaitGroup
	results := make([]*Sale, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.PlaceSale(ctx, PlaceSaleRequest{
				PaymentMethod: "EFECTIVO",
				Lines:         []LineRequest{{ProductID: productID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	pattern := regexp.MustCompile(`^V\d{8}-\d{4}$`)
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "sale %d", i)
		number := results[i].Number
		require.Regexp(t, pattern, number)
		require.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}

	// Suffixes form the contiguous range 1..n.
	for i := 1; i <= n; i++ {
		want := sequence.Format(results[0].Timestamp, i)
		require.True(t, seen[want], fmt.Sprintf("missing %s", want))
	}
}
