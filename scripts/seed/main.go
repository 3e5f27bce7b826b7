package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/app"
	"github.com/odyssey-erp/odyssey-retail/internal/customers"
	"github.com/odyssey-erp/odyssey-retail/internal/observability"
	"github.com/odyssey-erp/odyssey-retail/internal/orders"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := shared.ContextWithTenant(context.Background(), cfg.DefaultTenant)
	conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer conn.Close()

	svc := app.NewServices(conn, cfg, app.NewLogger(cfg), observability.NewMetrics(), nil)

	fmt.Println("→ Seeding parties...")
	walkIn, err := svc.Customers.Create(ctx, customers.CreateInput{Name: "Walk-in Customer", State: "Karnataka"})
	must(err, "customer")
	supplier, err := svc.Customers.Create(ctx, customers.CreateInput{
		Name: "Hill Estates Traders", Type: customers.TypeSupplier, State: "Assam", GST: "18AABCH1234Q1Z5",
	})
	must(err, "supplier")

	fmt.Println("→ Seeding catalog...")
	catalog := []products.CreateInput{
		{SKU: "TEA-250", Title: "Assam Tea 250g", Unit: "pkt", MRP: dec("180"), DefaultDiscount: dec("10"), DefaultDiscountType: products.DiscountPercentage, Cost: dec("120"), ReorderLevel: ptr(int64(10))},
		{SKU: "SUG-1K", Title: "Sugar 1kg", Unit: "kg", MRP: dec("48"), Cost: dec("40"), ReorderLevel: ptr(int64(25))},
		{SKU: "BIS-100", Title: "Glucose Biscuits", Unit: "pkt", MRP: dec("10"), DefaultDiscount: dec("1"), Cost: dec("7")},
	}
	var purchase orders.PurchaseOrderInput
	purchase.SupplierID = supplier.ID
	purchase.AddToInventory = true
	var sale orders.SalesOrderInput
	sale.CustomerID = walkIn.ID
	for _, in := range catalog {
		p, err := svc.Products.Create(ctx, in)
		must(err, in.Title)
		purchase.Items = append(purchase.Items, orders.PurchaseItemInput{ProductID: p.ID, Quantity: 50, UnitCost: p.Cost})
		sale.Items = append(sale.Items, orders.SalesItemInput{ProductID: p.ID, Quantity: 2, UnitPrice: p.SalePrice})
	}

	fmt.Println("→ Seeding orders...")
	po, err := svc.Orders.CreatePurchaseOrder(ctx, purchase)
	must(err, "purchase order")
	so, err := svc.Orders.CreateSalesOrder(ctx, sale)
	must(err, "sales order")

	stats, err := svc.Outbox.Stats(ctx)
	must(err, "outbox stats")
	fmt.Printf("✓ Seeded %s: purchase %s, sale %s, %d records pending sync\n",
		cfg.SQLitePath, po.PurchaseOrder.ID, so.SalesOrder.ID, stats.Pending)
}

func must(err error, what string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed %s: %v\n", what, err)
		os.Exit(1)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}
