package perf

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/customers"
	"github.com/odyssey-erp/odyssey-retail/internal/inventory"
	"github.com/odyssey-erp/odyssey-retail/internal/orders"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/sequence"
	"github.com/odyssey-erp/odyssey-retail/internal/tax"
)

type fixture struct {
	ctx    context.Context
	orders *orders.Service
	input  orders.SalesOrderInput
}

func newFixture(tb testing.TB, lines int) fixture {
	tb.Helper()
	conn := dbtest.Open(tb)
	ctx := dbtest.TenantContext()
	queue := outbox.NewService(conn, nil)
	ledger := inventory.NewService(conn, queue, nil, nil, nil)
	svc := orders.NewService(conn, queue, ledger, sequence.NewGenerator(sequence.FormatSequential), orders.Config{
		Tax: tax.Settings{Rate: tax.Rate{Type: tax.TypeGST, GSTRate: decimal.NewFromInt(18)}},
	}, nil, nil)

	customer, err := customers.NewService(conn, queue, nil).Create(ctx, customers.CreateInput{Name: "Walk-in"})
	require.NoError(tb, err)
	catalog := products.NewService(conn, queue, nil)
	in := orders.SalesOrderInput{CustomerID: customer.ID}
	for i := 0; i < lines; i++ {
		p, err := catalog.Create(ctx, products.CreateInput{Title: "Item", MRP: decimal.NewFromInt(int64(10 + i))})
		require.NoError(tb, err)
		in.Items = append(in.Items, orders.SalesItemInput{ProductID: p.ID, Quantity: 1, UnitPrice: p.SalePrice})
	}
	return fixture{ctx: ctx, orders: svc, input: in}
}

func BenchmarkCreateSalesOrder(b *testing.B) {
	f := newFixture(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.orders.CreateSalesOrder(f.ctx, f.input); err != nil {
			b.Fatal(err)
		}
	}
}

func TestSalesOrderLatencyTarget(t *testing.T) {
	if testing.Short() {
		t.Skip("latency target skipped in short mode")
	}
	f := newFixture(t, 10)
	samples := make([]time.Duration, 0, 30)
	for i := 0; i < 30; i++ {
		start := time.Now()
		_, err := f.orders.CreateSalesOrder(f.ctx, f.input)
		require.NoError(t, err)
		samples = append(samples, time.Since(start))
	}
	if p95 := percentile95(samples); p95 > 250*time.Millisecond {
		t.Fatalf("sales order latency regression: p95=%s threshold=250ms", p95)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
