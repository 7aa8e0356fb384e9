package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	api "github.com/mmynk/settleup/pkg/api"
)

// BudgetServiceName is the fully-qualified name of the BudgetService.
const BudgetServiceName = "settleup.v1.BudgetService"

const (
	BudgetServiceSetBudgetProcedure       = "/settleup.v1.BudgetService/SetBudget"
	BudgetServiceGetBudgetProcedure       = "/settleup.v1.BudgetService/GetBudget"
	BudgetServiceListBudgetsProcedure     = "/settleup.v1.BudgetService/ListBudgets"
	BudgetServiceDeleteBudgetProcedure    = "/settleup.v1.BudgetService/DeleteBudget"
	BudgetServiceBudgetSummaryProcedure   = "/settleup.v1.BudgetService/BudgetSummary"
	BudgetServiceExceededBudgetsProcedure = "/settleup.v1.BudgetService/ExceededBudgets"
	BudgetServiceNearingLimitProcedure    = "/settleup.v1.BudgetService/NearingLimit"
)

// BudgetServiceHandler is implemented by the server. Monthly category budgets.
type BudgetServiceHandler interface {
	SetBudget(context.Context, *connect.Request[api.SetBudgetRequest]) (*connect.Response[api.SetBudgetResponse], error)
	GetBudget(context.Context, *connect.Request[api.GetBudgetRequest]) (*connect.Response[api.GetBudgetResponse], error)
	ListBudgets(context.Context, *connect.Request[api.ListBudgetsRequest]) (*connect.Response[api.ListBudgetsResponse], error)
	DeleteBudget(context.Context, *connect.Request[api.DeleteBudgetRequest]) (*connect.Response[api.DeleteBudgetResponse], error)
	BudgetSummary(context.Context, *connect.Request[api.BudgetSummaryRequest]) (*connect.Response[api.BudgetSummaryResponse], error)
	ExceededBudgets(context.Context, *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error)
	NearingLimit(context.Context, *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error)
}

// NewBudgetServiceHandler returns the path prefix to mount and its handler.
func NewBudgetServiceHandler(svc BudgetServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(BudgetServiceName, map[string]http.Handler{
		BudgetServiceSetBudgetProcedure:       connect.NewUnaryHandler(BudgetServiceSetBudgetProcedure, svc.SetBudget, opts...),
		BudgetServiceGetBudgetProcedure:       connect.NewUnaryHandler(BudgetServiceGetBudgetProcedure, svc.GetBudget, opts...),
		BudgetServiceListBudgetsProcedure:     connect.NewUnaryHandler(BudgetServiceListBudgetsProcedure, svc.ListBudgets, opts...),
		BudgetServiceDeleteBudgetProcedure:    connect.NewUnaryHandler(BudgetServiceDeleteBudgetProcedure, svc.DeleteBudget, opts...),
		BudgetServiceBudgetSummaryProcedure:   connect.NewUnaryHandler(BudgetServiceBudgetSummaryProcedure, svc.BudgetSummary, opts...),
		BudgetServiceExceededBudgetsProcedure: connect.NewUnaryHandler(BudgetServiceExceededBudgetsProcedure, svc.ExceededBudgets, opts...),
		BudgetServiceNearingLimitProcedure:    connect.NewUnaryHandler(BudgetServiceNearingLimitProcedure, svc.NearingLimit, opts...),
	})
}

// BudgetServiceClient calls the BudgetService.
type BudgetServiceClient interface {
	SetBudget(context.Context, *connect.Request[api.SetBudgetRequest]) (*connect.Response[api.SetBudgetResponse], error)
	GetBudget(context.Context, *connect.Request[api.GetBudgetRequest]) (*connect.Response[api.GetBudgetResponse], error)
	ListBudgets(context.Context, *connect.Request[api.ListBudgetsRequest]) (*connect.Response[api.ListBudgetsResponse], error)
	DeleteBudget(context.Context, *connect.Request[api.DeleteBudgetRequest]) (*connect.Response[api.DeleteBudgetResponse], error)
	BudgetSummary(context.Context, *connect.Request[api.BudgetSummaryRequest]) (*connect.Response[api.BudgetSummaryResponse], error)
	ExceededBudgets(context.Context, *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error)
	NearingLimit(context.Context, *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error)
}

// NewBudgetServiceClient creates a client for the service at baseURL, e.g. http://localhost:8080.
func NewBudgetServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BudgetServiceClient {
	opts = clientOptions(opts)
	return &budgetServiceClient{
		setBudget:       connect.NewClient[api.SetBudgetRequest, api.SetBudgetResponse](httpClient, baseURL+BudgetServiceSetBudgetProcedure, opts...),
		getBudget:       connect.NewClient[api.GetBudgetRequest, api.GetBudgetResponse](httpClient, baseURL+BudgetServiceGetBudgetProcedure, opts...),
		listBudgets:     connect.NewClient[api.ListBudgetsRequest, api.ListBudgetsResponse](httpClient, baseURL+BudgetServiceListBudgetsProcedure, opts...),
		deleteBudget:    connect.NewClient[api.DeleteBudgetRequest, api.DeleteBudgetResponse](httpClient, baseURL+BudgetServiceDeleteBudgetProcedure, opts...),
		budgetSummary:   connect.NewClient[api.BudgetSummaryRequest, api.BudgetSummaryResponse](httpClient, baseURL+BudgetServiceBudgetSummaryProcedure, opts...),
		exceededBudgets: connect.NewClient[api.BudgetFilterRequest, api.BudgetFilterResponse](httpClient, baseURL+BudgetServiceExceededBudgetsProcedure, opts...),
		nearingLimit:    connect.NewClient[api.BudgetFilterRequest, api.BudgetFilterResponse](httpClient, baseURL+BudgetServiceNearingLimitProcedure, opts...),
	}
}

type budgetServiceClient struct {
	setBudget       *connect.Client[api.SetBudgetRequest, api.SetBudgetResponse]
	getBudget       *connect.Client[api.GetBudgetRequest, api.GetBudgetResponse]
	listBudgets     *connect.Client[api.ListBudgetsRequest, api.ListBudgetsResponse]
	deleteBudget    *connect.Client[api.DeleteBudgetRequest, api.DeleteBudgetResponse]
	budgetSummary   *connect.Client[api.BudgetSummaryRequest, api.BudgetSummaryResponse]
	exceededBudgets *connect.Client[api.BudgetFilterRequest, api.BudgetFilterResponse]
	nearingLimit    *connect.Client[api.BudgetFilterRequest, api.BudgetFilterResponse]
}

func (c *budgetServiceClient) SetBudget(ctx context.Context, req *connect.Request[api.SetBudgetRequest]) (*connect.Response[api.SetBudgetResponse], error) {
	return c.setBudget.CallUnary(ctx, req)
}

func (c *budgetServiceClient) GetBudget(ctx context.Context, req *connect.Request[api.GetBudgetRequest]) (*connect.Response[api.GetBudgetResponse], error) {
	return c.getBudget.CallUnary(ctx, req)
}

func (c *budgetServiceClient) ListBudgets(ctx context.Context, req *connect.Request[api.ListBudgetsRequest]) (*connect.Response[api.ListBudgetsResponse], error) {
	return c.listBudgets.CallUnary(ctx, req)
}

func (c *budgetServiceClient) DeleteBudget(ctx context.Context, req *connect.Request[api.DeleteBudgetRequest]) (*connect.Response[api.DeleteBudgetResponse], error) {
	return c.deleteBudget.CallUnary(ctx, req)
}

func (c *budgetServiceClient) BudgetSummary(ctx context.Context, req *connect.Request[api.BudgetSummaryRequest]) (*connect.Response[api.BudgetSummaryResponse], error) {
	return c.budgetSummary.CallUnary(ctx, req)
}

func (c *budgetServiceClient) ExceededBudgets(ctx context.Context, req *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error) {
	return c.exceededBudgets.CallUnary(ctx, req)
}

func (c *budgetServiceClient) NearingLimit(ctx context.Context, req *connect.Request[api.BudgetFilterRequest]) (*connect.Response[api.BudgetFilterResponse], error) {
	return c.nearingLimit.CallUnary(ctx, req)
}
