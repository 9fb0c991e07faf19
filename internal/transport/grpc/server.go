// Package grpc exposes the catalog and sale operations over gRPC.
package grpc

import (
	"context"
	"errors"
	"log/slog"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/service"
	"github.com/gamevault/inventory/internal/validation"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ProductService is the part of the catalog the gRPC API needs.
type ProductService interface {
	FindByID(ctx context.Context, id string) (*service.ProductDto, error)
	Create(ctx context.Context, product service.ProductCreateDto) (*service.ProductDto, error)
}

// SaleService is the part of the sale coordinator the gRPC API needs.
type SaleService interface {
	RecordSale(ctx context.Context, sale service.SaleCreateDto) (*service.SaleDto, error)
	Statistics(ctx context.Context) (*service.StatisticsDto, error)
}

type Server struct {
	products ProductService
	sales    SaleService
	logger   *slog.Logger
}

func NewServer(products ProductService, sales SaleService, logger *slog.Logger) *Server {
	return &Server{
		products: products,
		sales:    sales,
		logger:   logger.With("component", "grpc"),
	}
}

func (s *Server) GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	logger := s.logger.With(slog.String("product_id", req.GetValue()))
	logger.DebugContext(ctx, "received grpc request GetProduct")

	found, err := s.products.FindByID(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, logger, err)
	}
	return s.respond(ctx, logger, found)
}

func (s *Server) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logger := s.logger.With(slog.String("method", "CreateProduct"))
	var dto service.ProductCreateDto
	if err := FromStruct(req, &dto); err != nil {
		return nil, decodeStatus("product", err)
	}
	if err := validation.Struct(dto); err != nil {
		return nil, s.toStatus(ctx, logger, err)
	}

	created, err := s.products.Create(ctx, dto)
	if err != nil {
		return nil, s.toStatus(ctx, logger, err)
	}
	logger.InfoContext(ctx, "product created", "id", created.ID)
	return s.respond(ctx, logger, created)
}

func (s *Server) RecordSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logger := s.logger.With(slog.String("method", "RecordSale"))
	var dto service.SaleCreateDto
	if err := FromStruct(req, &dto); err != nil {
		return nil, decodeStatus("sale", err)
	}

	sale, err := s.sales.RecordSale(ctx, dto)
	if err != nil {
		return nil, s.toStatus(ctx, logger, err)
	}
	logger.InfoContext(ctx, "sale recorded", "id", sale.ID, "total", sale.Total)
	return s.respond(ctx, logger, sale)
}

func (s *Server) GetSalesStatistics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	logger := s.logger.With(slog.String("method", "GetSalesStatistics"))
	stats, err := s.sales.Statistics(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, logger, err)
	}
	return s.respond(ctx, logger, stats)
}

func (s *Server) respond(ctx context.Context, logger *slog.Logger, v any) (*structpb.Struct, error) {
	out, err := ToStruct(v)
	if err != nil {
		if errors.Is(err, ErrInexactNumber) {
			logger.WarnContext(ctx, "response does not fit a Struct", "error", err)
			return nil, status.Error(codes.OutOfRange, err.Error())
		}
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

func decodeStatus(what string, err error) error {
	if errors.Is(err, ErrInexactNumber) {
		return status.Errorf(codes.OutOfRange, "invalid %s: %v", what, err)
	}
	return status.Errorf(codes.InvalidArgument, "invalid %s: %v", what, err)
}

// toStatus maps a service failure to a gRPC status.
// Validation failures carry their violations as BadRequest details.
func (s *Server) toStatus(ctx context.Context, logger *slog.Logger, err error) error {
	if vErr, ok := inverrors.AsValidationError(err); ok {
		st := status.New(codes.InvalidArgument, vErr.Error())
		br := &errdetails.BadRequest{}
		for _, v := range vErr.Violations {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field,
				Description: v.Message,
			})
		}
		if detailed, dErr := st.WithDetails(br); dErr == nil {
			return detailed.Err()
		}
		return st.Err()
	}
	switch {
	case errors.Is(err, inverrors.ErrProductNotFound), errors.Is(err, inverrors.ErrSaleNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, inverrors.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		logger.ErrorContext(ctx, "grpc request failed", "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}
