package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"inventory-marketplace/internal/domain"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// CatalogServiceName is the fully qualified name of the internal read API.
const CatalogServiceName = "inventory.v1.CatalogService"

// CatalogServer is the internal read API served over gRPC. Messages are
// google.protobuf.Struct so that no generated code is needed.
type CatalogServer interface {
	// GetCategoryTree takes an optional numeric "root_id" and returns
	// {"categories": [...]} in pre-order.
	GetCategoryTree(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// GetListing takes "listing_id" and returns the listing with its display fields.
	GetListing(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// CatalogServiceDesc registers a CatalogServer with a grpc.Server.
var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCategoryTree", Handler: unaryHandler("GetCategoryTree", CatalogServer.GetCategoryTree)},
		{MethodName: "GetListing", Handler: unaryHandler("GetListing", CatalogServer.GetListing)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/catalog.proto",
}

func unaryHandler(method string, call func(CatalogServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + CatalogServiceName + "/" + method
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CatalogServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CatalogClient calls CatalogServer over a client connection.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) GetCategoryTree(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+CatalogServiceName+"/GetCategoryTree", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) GetListing(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+CatalogServiceName+"/GetListing", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type categoryReader interface {
	List(ctx context.Context) ([]domain.CategoryNode, error)
	Subtree(ctx context.Context, id int64) ([]domain.CategoryNode, error)
}

type listingReader interface {
	GetListing(ctx context.Context, listingID int64) (*domain.ListingView, error)
}

// GRPCHandler implements CatalogServer on top of the catalog and market services.
type GRPCHandler struct {
	categories categoryReader
	listings   listingReader
	log        *logrus.Entry
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(categories categoryReader, listings listingReader, logger *logrus.Logger) *GRPCHandler {
	return &GRPCHandler{
		categories: categories,
		listings:   listings,
		log:        logger.WithField("component", "grpc"),
	}
}

// --- Helper: Error Mapping ---

func toGrpcStatus(err error) error {
	if err == nil {
		return nil
	}
	var cycle *domain.CycleError
	switch {
	case errors.As(err, &cycle):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrAuthorization):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

// --- CatalogServer Implementation ---

func (s *GRPCHandler) GetCategoryTree(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var (
		nodes []domain.CategoryNode
		err   error
	)
	if v, ok := req.GetFields()["root_id"]; ok {
		rootID, idErr := positiveID(v, "root_id")
		if idErr != nil {
			return nil, toGrpcStatus(idErr)
		}
		nodes, err = s.categories.Subtree(ctx, rootID)
	} else {
		nodes, err = s.categories.List(ctx)
	}
	if err != nil {
		return nil, s.fail(err, "GetCategoryTree")
	}
	if nodes == nil {
		nodes = []domain.CategoryNode{}
	}
	return toStruct(map[string]interface{}{"categories": nodes})
}

func (s *GRPCHandler) GetListing(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	listingID, err := positiveID(req.GetFields()["listing_id"], "listing_id")
	if err != nil {
		return nil, toGrpcStatus(err)
	}
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, s.fail(err, "GetListing")
	}
	return toStruct(listing)
}

func (s *GRPCHandler) fail(err error, method string) error {
	st := toGrpcStatus(err)
	if status.Code(st) == codes.Internal {
		s.log.WithError(err).WithField("method", method).Error("gRPC call failed")
	}
	return st
}

// UnaryLoggingInterceptor logs every unary call with its code and duration.
func UnaryLoggingInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		}).Info("gRPC call served")
		return resp, err
	}
}

// --- Helper Functions for Conversion ---

func positiveID(v *structpb.Value, field string) (int64, error) {
	if v == nil {
		return 0, domain.Validation(field, "is required")
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 1 || n.NumberValue != float64(int64(n.NumberValue)) {
		return 0, domain.Validation(field, "must be a positive integer")
	}
	return int64(n.NumberValue), nil
}

// toStruct converts any JSON-serialisable value into a Struct using its json tags.
func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}
