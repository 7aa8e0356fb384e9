package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

var errOnlyCreator = errors.New("only the group creator can delete the group")

// GroupService implements the Connect GroupService: groups, their ledgers and
// settlements.
type GroupService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewGroupService creates a new GroupService with the given storage backend.
// m may be nil.
func NewGroupService(store storage.Store, m *metrics.Metrics) *GroupService {
	return &GroupService{store: store, metrics: m}
}

// callerID returns the authenticated user, which RequireAuth guarantees.
func callerID(ctx context.Context) (string, error) {
	id := middleware.GetUserID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return id, nil
}

// memberGroup loads a group the caller belongs to.
func (s *GroupService) memberGroup(ctx context.Context, groupID string) (*models.Group, string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, "", err
	}
	if groupID == "" {
		return nil, "", invalidArgument("group_id is required")
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	if !group.HasMember(userID) {
		return nil, "", models.ErrNotMember
	}
	return group, userID, nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// CreateGroup creates a group with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIds),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Msg.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	if !validCurrency(currency) {
		return nil, invalidArgument("currency must be a three-letter ISO code")
	}

	ids := []string{userID}
	for _, id := range req.Msg.MemberIds {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "CreateGroup", err)
	}
	members := make([]models.Member, 0, len(ids))
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return nil, toConnectError(ctx, s.metrics, "CreateGroup", models.ErrUserNotFound)
		}
		members = append(members, models.Member{UserID: id})
	}

	group := &models.Group{
		Name:      name,
		Currency:  currency,
		CreatedBy: userID,
		Members:   members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError(ctx, s.metrics, "CreateGroup", err)
	}

	// Reload for member names.
	created, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "CreateGroup", err)
	}

	slog.Info("Group created", "group_id", created.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(created)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	group, _, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "GetGroup", err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: groupToAPI(group)}), nil
}

// ListGroups returns the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListGroups", err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = groupToAPI(g)
	}

	slog.Debug("ListGroups successful", "user_id", userID, "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// DeleteGroup removes a group with its ledger. Only the creator may do this.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	group, userID, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "DeleteGroup", err)
	}
	if group.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errOnlyCreator)
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		return nil, toConnectError(ctx, s.metrics, "DeleteGroup", err)
	}

	slog.Info("Group deleted", "group_id", group.ID, "user_id", userID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember adds a registered user, named by ID or e-mail, to the group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	group, userID, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "AddMember", err)
	}

	var user *models.User
	switch {
	case req.Msg.UserId != "":
		user, err = s.store.GetUserByID(ctx, req.Msg.UserId)
	case req.Msg.Email != "":
		user, err = s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Msg.Email)))
	default:
		return nil, invalidArgument("user_id or email is required")
	}
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "AddMember", err)
	}

	if err := s.store.AddMember(ctx, group.ID, user.ID); err != nil {
		return nil, toConnectError(ctx, s.metrics, "AddMember", err)
	}

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "AddMember", err)
	}

	slog.Info("Member added", "group_id", group.ID, "member_id", user.ID, "added_by", userID)
	return connect.NewResponse(&api.AddMemberResponse{Group: groupToAPI(updated)}), nil
}

// RemoveMember removes a member who has no unsettled expenses. The creator
// cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	group, userID, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "RemoveMember", err)
	}
	if req.Msg.UserId == "" {
		return nil, invalidArgument("user_id is required")
	}
	if req.Msg.UserId == group.CreatedBy {
		return nil, toConnectError(ctx, s.metrics, "RemoveMember", models.ErrCannotRemoveOwner)
	}

	if err := s.store.RemoveMember(ctx, group.ID, req.Msg.UserId); err != nil {
		return nil, toConnectError(ctx, s.metrics, "RemoveMember", err)
	}

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "RemoveMember", err)
	}

	slog.Info("Member removed", "group_id", group.ID, "member_id", req.Msg.UserId, "removed_by", userID)
	return connect.NewResponse(&api.RemoveMemberResponse{Group: groupToAPI(updated)}), nil
}

// ComputeBalances returns every member's net balance over the unsettled ledger.
func (s *GroupService) ComputeBalances(ctx context.Context, req *connect.Request[api.ComputeBalancesRequest]) (*connect.Response[api.ComputeBalancesResponse], error) {
	ledger, err := s.memberLedger(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ComputeBalances", err)
	}

	balances, err := calculator.CalculateBalances(ledger.Group.MemberIDs(), ledger.Expenses)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ComputeBalances", err)
	}

	resp := &api.ComputeBalancesResponse{
		Balances: make(map[string]string, len(balances)),
		Members:  make([]api.Balance, len(balances)),
	}
	for i, b := range balances {
		resp.Balances[b.UserID] = b.Net.String()
		resp.Members[i] = api.Balance{
			UserId: b.UserID,
			Net:    b.Net.String(),
			Paid:   b.Paid.String(),
			Owed:   b.Owed.String(),
		}
	}
	return connect.NewResponse(resp), nil
}

// PlanSettlement proposes transfers that would zero every balance. Nothing is written.
func (s *GroupService) PlanSettlement(ctx context.Context, req *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error) {
	ledger, err := s.memberLedger(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "PlanSettlement", err)
	}

	transfers, err := planLedger(ledger)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "PlanSettlement", err)
	}

	slog.Info("Settlement planned", "group_id", ledger.Group.ID, "transfers", len(transfers))
	return connect.NewResponse(&api.PlanSettlementResponse{Transfers: transfersToAPI(transfers)}), nil
}

// ApplySettlement settles every unsettled expense of the group and records the
// plan. Repeating it with nothing left to settle succeeds with AlreadySettled.
func (s *GroupService) ApplySettlement(ctx context.Context, req *connect.Request[api.ApplySettlementRequest]) (*connect.Response[api.ApplySettlementResponse], error) {
	group, userID, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ApplySettlement", err)
	}

	batch, err := s.store.SettleGroup(ctx, group.ID, userID, planLedger)
	if errors.Is(err, models.ErrAlreadySettled) {
		slog.Info("Group already settled", "group_id", group.ID, "user_id", userID)
		return connect.NewResponse(&api.ApplySettlementResponse{
			AlreadySettled: true,
			Transfers:      []api.Transfer{},
		}), nil
	}
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ApplySettlement", err)
	}

	s.metrics.Settlement(len(batch.Transfers))
	slog.Info("Settlement applied",
		"group_id", group.ID,
		"settlement_id", batch.ID,
		"expenses", batch.ExpenseCount,
		"transfers", len(batch.Transfers),
	)
	return connect.NewResponse(&api.ApplySettlementResponse{
		SettlementId: batch.ID,
		Transfers:    transfersToAPI(batch.Transfers),
		ExpenseCount: batch.ExpenseCount,
	}), nil
}

// ListSettlements returns the group's settlement history, newest first.
func (s *GroupService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	group, _, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListSettlements", err)
	}

	batches, err := s.store.ListSettlements(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "ListSettlements", err)
	}

	out := make([]*api.Settlement, len(batches))
	for i := range batches {
		out[i] = settlementToAPI(&batches[i])
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// memberLedger reads a consistent snapshot of a group the caller belongs to.
func (s *GroupService) memberLedger(ctx context.Context, groupID string) (*storage.Ledger, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, invalidArgument("group_id is required")
	}
	ledger, err := s.store.GroupLedger(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !ledger.Group.HasMember(userID) {
		return nil, models.ErrNotMember
	}
	return ledger, nil
}

// planLedger is the storage.PlanFunc used for both planning and applying, so
// an applied batch records exactly the plan a caller would have been shown.
func planLedger(ledger *storage.Ledger) ([]models.Transfer, error) {
	balances, err := calculator.CalculateBalances(ledger.Group.MemberIDs(), ledger.Expenses)
	if err != nil {
		return nil, err
	}
	return calculator.PlanSettlement(calculator.NetBalances(balances))
}
