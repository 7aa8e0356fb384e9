package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	api "github.com/mmynk/settleup/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "settleup.v1.GroupService"

const (
	GroupServiceCreateGroupProcedure            = "/settleup.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure               = "/settleup.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure             = "/settleup.v1.GroupService/ListGroups"
	GroupServiceDeleteGroupProcedure            = "/settleup.v1.GroupService/DeleteGroup"
	GroupServiceAddMemberProcedure              = "/settleup.v1.GroupService/AddMember"
	GroupServiceRemoveMemberProcedure           = "/settleup.v1.GroupService/RemoveMember"
	GroupServiceAddExpenseProcedure             = "/settleup.v1.GroupService/AddExpense"
	GroupServiceListExpensesProcedure           = "/settleup.v1.GroupService/ListExpenses"
	GroupServiceDeleteExpenseProcedure          = "/settleup.v1.GroupService/DeleteExpense"
	GroupServiceStopRecurringProcedure          = "/settleup.v1.GroupService/StopRecurring"
	GroupServiceComputeBalancesProcedure        = "/settleup.v1.GroupService/ComputeBalances"
	GroupServicePlanSettlementProcedure         = "/settleup.v1.GroupService/PlanSettlement"
	GroupServiceApplySettlementProcedure        = "/settleup.v1.GroupService/ApplySettlement"
	GroupServiceListSettlementsProcedure        = "/settleup.v1.GroupService/ListSettlements"
	GroupServiceListRecurrenceFailuresProcedure = "/settleup.v1.GroupService/ListRecurrenceFailures"
)

// GroupServiceHandler is implemented by the server. Groups, expenses, balances and settlements.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	StopRecurring(context.Context, *connect.Request[api.StopRecurringRequest]) (*connect.Response[api.StopRecurringResponse], error)
	ComputeBalances(context.Context, *connect.Request[api.ComputeBalancesRequest]) (*connect.Response[api.ComputeBalancesResponse], error)
	PlanSettlement(context.Context, *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error)
	ApplySettlement(context.Context, *connect.Request[api.ApplySettlementRequest]) (*connect.Response[api.ApplySettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	ListRecurrenceFailures(context.Context, *connect.Request[api.ListRecurrenceFailuresRequest]) (*connect.Response[api.ListRecurrenceFailuresResponse], error)
}

// NewGroupServiceHandler returns the path prefix to mount and its handler.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(GroupServiceName, map[string]http.Handler{
		GroupServiceCreateGroupProcedure:            connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:               connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListGroupsProcedure:             connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceDeleteGroupProcedure:            connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
		GroupServiceAddMemberProcedure:              connect.NewUnaryHandler(GroupServiceAddMemberProcedure, svc.AddMember, opts...),
		GroupServiceRemoveMemberProcedure:           connect.NewUnaryHandler(GroupServiceRemoveMemberProcedure, svc.RemoveMember, opts...),
		GroupServiceAddExpenseProcedure:             connect.NewUnaryHandler(GroupServiceAddExpenseProcedure, svc.AddExpense, opts...),
		GroupServiceListExpensesProcedure:           connect.NewUnaryHandler(GroupServiceListExpensesProcedure, svc.ListExpenses, opts...),
		GroupServiceDeleteExpenseProcedure:          connect.NewUnaryHandler(GroupServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...),
		GroupServiceStopRecurringProcedure:          connect.NewUnaryHandler(GroupServiceStopRecurringProcedure, svc.StopRecurring, opts...),
		GroupServiceComputeBalancesProcedure:        connect.NewUnaryHandler(GroupServiceComputeBalancesProcedure, svc.ComputeBalances, opts...),
		GroupServicePlanSettlementProcedure:         connect.NewUnaryHandler(GroupServicePlanSettlementProcedure, svc.PlanSettlement, opts...),
		GroupServiceApplySettlementProcedure:        connect.NewUnaryHandler(GroupServiceApplySettlementProcedure, svc.ApplySettlement, opts...),
		GroupServiceListSettlementsProcedure:        connect.NewUnaryHandler(GroupServiceListSettlementsProcedure, svc.ListSettlements, opts...),
		GroupServiceListRecurrenceFailuresProcedure: connect.NewUnaryHandler(GroupServiceListRecurrenceFailuresProcedure, svc.ListRecurrenceFailures, opts...),
	})
}

// GroupServiceClient calls the GroupService.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	StopRecurring(context.Context, *connect.Request[api.StopRecurringRequest]) (*connect.Response[api.StopRecurringResponse], error)
	ComputeBalances(context.Context, *connect.Request[api.ComputeBalancesRequest]) (*connect.Response[api.ComputeBalancesResponse], error)
	PlanSettlement(context.Context, *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error)
	ApplySettlement(context.Context, *connect.Request[api.ApplySettlementRequest]) (*connect.Response[api.ApplySettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	ListRecurrenceFailures(context.Context, *connect.Request[api.ListRecurrenceFailuresRequest]) (*connect.Response[api.ListRecurrenceFailuresResponse], error)
}

// NewGroupServiceClient creates a client for the service at baseURL, e.g. http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	opts = clientOptions(opts)
	return &groupServiceClient{
		createGroup:            connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:               connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:             connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		deleteGroup:            connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		addMember:              connect.NewClient[api.AddMemberRequest, api.AddMemberResponse](httpClient, baseURL+GroupServiceAddMemberProcedure, opts...),
		removeMember:           connect.NewClient[api.RemoveMemberRequest, api.RemoveMemberResponse](httpClient, baseURL+GroupServiceRemoveMemberProcedure, opts...),
		addExpense:             connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](httpClient, baseURL+GroupServiceAddExpenseProcedure, opts...),
		listExpenses:           connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+GroupServiceListExpensesProcedure, opts...),
		deleteExpense:          connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+GroupServiceDeleteExpenseProcedure, opts...),
		stopRecurring:          connect.NewClient[api.StopRecurringRequest, api.StopRecurringResponse](httpClient, baseURL+GroupServiceStopRecurringProcedure, opts...),
		computeBalances:        connect.NewClient[api.ComputeBalancesRequest, api.ComputeBalancesResponse](httpClient, baseURL+GroupServiceComputeBalancesProcedure, opts...),
		planSettlement:         connect.NewClient[api.PlanSettlementRequest, api.PlanSettlementResponse](httpClient, baseURL+GroupServicePlanSettlementProcedure, opts...),
		applySettlement:        connect.NewClient[api.ApplySettlementRequest, api.ApplySettlementResponse](httpClient, baseURL+GroupServiceApplySettlementProcedure, opts...),
		listSettlements:        connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](httpClient, baseURL+GroupServiceListSettlementsProcedure, opts...),
		listRecurrenceFailures: connect.NewClient[api.ListRecurrenceFailuresRequest, api.ListRecurrenceFailuresResponse](httpClient, baseURL+GroupServiceListRecurrenceFailuresProcedure, opts...),
	}
}

type groupServiceClient struct {
	createGroup            *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup               *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups             *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	deleteGroup            *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
	addMember              *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	removeMember           *connect.Client[api.RemoveMemberRequest, api.RemoveMemberResponse]
	addExpense             *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	listExpenses           *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	deleteExpense          *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	stopRecurring          *connect.Client[api.StopRecurringRequest, api.StopRecurringResponse]
	computeBalances        *connect.Client[api.ComputeBalancesRequest, api.ComputeBalancesResponse]
	planSettlement         *connect.Client[api.PlanSettlementRequest, api.PlanSettlementResponse]
	applySettlement        *connect.Client[api.ApplySettlementRequest, api.ApplySettlementResponse]
	listSettlements        *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	listRecurrenceFailures *connect.Client[api.ListRecurrenceFailuresRequest, api.ListRecurrenceFailuresResponse]
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *groupServiceClient) StopRecurring(ctx context.Context, req *connect.Request[api.StopRecurringRequest]) (*connect.Response[api.StopRecurringResponse], error) {
	return c.stopRecurring.CallUnary(ctx, req)
}

func (c *groupServiceClient) ComputeBalances(ctx context.Context, req *connect.Request[api.ComputeBalancesRequest]) (*connect.Response[api.ComputeBalancesResponse], error) {
	return c.computeBalances.CallUnary(ctx, req)
}

func (c *groupServiceClient) PlanSettlement(ctx context.Context, req *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error) {
	return c.planSettlement.CallUnary(ctx, req)
}

func (c *groupServiceClient) ApplySettlement(ctx context.Context, req *connect.Request[api.ApplySettlementRequest]) (*connect.Response[api.ApplySettlementResponse], error) {
	return c.applySettlement.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListRecurrenceFailures(ctx context.Context, req *connect.Request[api.ListRecurrenceFailuresRequest]) (*connect.Response[api.ListRecurrenceFailuresResponse], error) {
	return c.listRecurrenceFailures.CallUnary(ctx, req)
}
