package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the inventory gRPC service.
const ServiceName = "inventory.v1.InventoryService"

const (
	getProductMethod         = "/" + ServiceName + "/GetProduct"
	createProductMethod      = "/" + ServiceName + "/CreateProduct"
	recordSaleMethod         = "/" + ServiceName + "/RecordSale"
	getSalesStatisticsMethod = "/" + ServiceName + "/GetSalesStatistics"
)

// InventoryServer is the server API of the inventory service.
// Messages are protobuf well-known types; structured payloads travel as google.protobuf.Struct.
type InventoryServer interface {
	GetProduct(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordSale(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSalesStatistics(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterInventoryServer registers srv on s.
func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

// InventoryServiceDesc describes the inventory service for grpc.Server.
var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetProduct",
			Handler:    unaryHandler(getProductMethod, InventoryServer.GetProduct),
		},
		{
			MethodName: "CreateProduct",
			Handler:    unaryHandler(createProductMethod, InventoryServer.CreateProduct),
		},
		{
			MethodName: "RecordSale",
			Handler:    unaryHandler(recordSaleMethod, InventoryServer.RecordSale),
		},
		{
			MethodName: "GetSalesStatistics",
			Handler:    unaryHandler(getSalesStatisticsMethod, InventoryServer.GetSalesStatistics),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.proto",
}

// unaryHandler adapts a typed InventoryServer method to grpc's untyped method handler.
func unaryHandler[Req any](fullMethod string, call func(InventoryServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InventoryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client is a thin client of the inventory service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetProduct(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getProductMethod, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, createProductMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecordSale(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, recordSaleMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSalesStatistics(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSalesStatisticsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ErrInexactNumber is returned when an integer cannot travel as a Struct number without losing precision.
// Struct numbers are float64, so integers are carried exactly only up to 2^53 in magnitude.
var ErrInexactNumber = errors.New("integer outside the exact range of a Struct number")

const maxExactInteger = 1 << 53

// ToStruct converts a JSON-tagged value into a protobuf Struct.
// Integers beyond ±2^53, such as very large prices or totals, are rejected with ErrInexactNumber.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode %T into a map: %w", v, err)
	}
	for k, val := range m {
		if m[k], err = toFloats(k, val); err != nil {
			return nil, err
		}
	}
	return structpb.NewStruct(m)
}

// toFloats replaces json.Number values with float64 after checking that integers stay exact.
func toFloats(path string, v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			if i > maxExactInteger || i < -maxExactInteger {
				return nil, fmt.Errorf("%w: %s=%d", ErrInexactNumber, path, i)
			}
			return float64(i), nil
		}
		return val.Float64()
	case map[string]any:
		for k, item := range val {
			conv, err := toFloats(path+"."+k, item)
			if err != nil {
				return nil, err
			}
			val[k] = conv
		}
		return val, nil
	case []any:
		for i, item := range val {
			conv, err := toFloats(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return nil, err
			}
			val[i] = conv
		}
		return val, nil
	default:
		return v, nil
	}
}

// FromStruct fills dst, a pointer to a JSON-tagged value, from s.
// Whole numbers beyond ±2^53 are rejected with ErrInexactNumber since their value is already uncertain.
func FromStruct(s *structpb.Struct, dst any) error {
	if err := checkExact("", s.AsMap()); err != nil {
		return err
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("failed to encode struct: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode struct into %T: %w", dst, err)
	}
	return nil
}

func checkExact(path string, v any) error {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) > maxExactInteger {
			return fmt.Errorf("%w: %s=%g", ErrInexactNumber, path, val)
		}
	case map[string]any:
		for k, item := range val {
			name := k
			if path != "" {
				name = path + "." + k
			}
			if err := checkExact(name, item); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range val {
			if err := checkExact(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}
