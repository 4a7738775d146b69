package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "throwaway.v1.Checker"

type CheckEmailRequest struct {
	Email           string `json:"email"`
	SkipTLDCheck    bool   `json:"skip_tld_check,omitempty"`
	AllowDisposable bool   `json:"allow_disposable,omitempty"`
}

type CheckEmailResponse struct {
	Valid      bool `json:"valid"`
	Disposable bool `json:"disposable"`
}

type CheckDomainRequest struct {
	Domain string `json:"domain"`
}

type CheckDomainResponse struct {
	Domain     string `json:"domain"`
	Valid      bool   `json:"valid"`
	Disposable bool   `json:"disposable"`
	Allowed    bool   `json:"allowed"`
	// MatchedParent is set when a parent domain, not the domain itself, is
	// on the disposable list.
	MatchedParent string `json:"matched_parent,omitempty"`
}

type StatsRequest struct{}

type StatsResponse struct {
	DisposableDomains int    `json:"disposable_domains"`
	AllowedDomains    int    `json:"allowed_domains"`
	TLDs              int    `json:"tlds"`
	GeneratedAt       string `json:"generated_at,omitempty"`
	LoadedAt          string `json:"loaded_at,omitempty"`
}

// CheckerServer is the server API of the throwaway.v1.Checker service.
type CheckerServer interface {
	CheckEmail(context.Context, *CheckEmailRequest) (*CheckEmailResponse, error)
	CheckDomain(context.Context, *CheckDomainRequest) (*CheckDomainResponse, error)
	Stats(context.Context, *StatsRequest) (*StatsResponse, error)
}

// CheckerServiceDesc describes the service for grpc.Server.RegisterService.
var CheckerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CheckerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CheckEmail",
			Handler:    unaryHandler("CheckEmail", CheckerServer.CheckEmail),
		},
		{
			MethodName: "CheckDomain",
			Handler:    unaryHandler("CheckDomain", CheckerServer.CheckDomain),
		},
		{
			MethodName: "Stats",
			Handler:    unaryHandler("Stats", CheckerServer.Stats),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "throwaway/v1/checker",
}

func RegisterCheckerServer(s grpc.ServiceRegistrar, srv CheckerServer) {
	s.RegisterService(&CheckerServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(CheckerServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + serviceName + "/" + method

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CheckerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CheckerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls a remote Checker service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection that speaks the service's JSON codec.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}
	return grpc.NewClient(addr, append(base, opts...)...)
}

func (c *Client) CheckEmail(ctx context.Context, in *CheckEmailRequest, opts ...grpc.CallOption) (*CheckEmailResponse, error) {
	out := new(CheckEmailResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/CheckEmail", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckDomain(ctx context.Context, in *CheckDomainRequest, opts ...grpc.CallOption) (*CheckDomainResponse, error) {
	out := new(CheckDomainResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/CheckDomain", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	out := new(StatsResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Stats", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
