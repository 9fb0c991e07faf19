// Package seed loads the demo catalog and a few sales through the gRPC API.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gamevault/inventory/internal/service"
	invgrpc "github.com/gamevault/inventory/internal/transport/grpc"
	"github.com/gamevault/inventory/internal/validation"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is the part of the inventory gRPC client the seeder needs.
type Client interface {
	CreateProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RecordSale(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// Catalog is the demo catalog. Prices are in minor units.
var Catalog = []service.ProductCreateDto{
	{Name: "PlayStation 5", Category: validation.CategoryConsole, Price: 3200000, Quantity: 15},
	{Name: "Xbox Series X", Category: validation.CategoryConsole, Price: 3000000, Quantity: 12},
	{Name: "Nintendo Switch", Category: validation.CategoryConsole, Price: 1800000, Quantity: 20},
	{Name: "FIFA 24", Category: validation.CategoryGame, Price: 150000, Quantity: 50},
	{Name: "Call of Duty: Modern Warfare III", Category: validation.CategoryGame, Price: 180000, Quantity: 30},
	{Name: "The Legend of Zelda: Tears of the Kingdom", Category: validation.CategoryGame, Price: 200000, Quantity: 25},
	{Name: "Spider-Man 2", Category: validation.CategoryGame, Price: 220000, Quantity: 18},
	{Name: "Mario Kart 8 Deluxe", Category: validation.CategoryGame, Price: 160000, Quantity: 35},
}

// DemoSale sells Quantity units of Catalog[Product].
type DemoSale struct {
	Product  int
	Quantity int32
}

var Sales = []DemoSale{
	{Product: 0, Quantity: 2},
	{Product: 3, Quantity: 5},
	{Product: 1, Quantity: 1},
}

type Result struct {
	ProductIDs []string
	SaleIDs    []string
}

// Run creates every Catalog product, then records Sales against them.
// It stops at the first failure.
func Run(ctx context.Context, client Client, logger *slog.Logger) (*Result, error) {
	res := &Result{}
	for _, p := range Catalog {
		in, err := invgrpc.ToStruct(p)
		if err != nil {
			return res, err
		}
		out, err := client.CreateProduct(ctx, in)
		if err != nil {
			return res, fmt.Errorf("failed to create product %q: %w", p.Name, err)
		}
		id := out.GetFields()["id"].GetStringValue()
		res.ProductIDs = append(res.ProductIDs, id)
		logger.InfoContext(ctx, "Product created", "id", id, "name", p.Name)
	}

	for _, s := range Sales {
		in, err := invgrpc.ToStruct(service.SaleCreateDto{ProductID: res.ProductIDs[s.Product], Quantity: s.Quantity})
		if err != nil {
			return res, err
		}
		out, err := client.RecordSale(ctx, in)
		if err != nil {
			return res, fmt.Errorf("failed to record sale of %q: %w", Catalog[s.Product].Name, err)
		}
		id := out.GetFields()["id"].GetStringValue()
		res.SaleIDs = append(res.SaleIDs, id)
		logger.InfoContext(ctx, "Sale recorded", "id", id, "product", Catalog[s.Product].Name, "quantity", s.Quantity)
	}
	return res, nil
}

