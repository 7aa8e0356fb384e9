package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

const testSecret = "test-secret-key-that-is-long-enough"

// captureSender records the last code instead of e-mailing it.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *captureSender) SendOtp(ctx context.Context, to, code string, purpose models.OtpPurpose, validFor time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = make(map[string]string)
	}
	c.codes[to+"/"+string(purpose)] = code
	return nil
}

func (c *captureSender) code(email string, purpose models.OtpPurpose) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email+"/"+string(purpose)]
}

type testEnv struct {
	store   *sqlite.SQLiteStore
	jwt     *auth.JWTManager
	sender  *captureSender
	auth    apiconnect.AuthServiceClient
	groups  apiconnect.GroupServiceClient
	budgets apiconnect.BudgetServiceClient
}

// setupTestServer serves all three services over httptest against a temp
// SQLite database, with the interceptors the server uses.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	sender := &captureSender{}
	otp := auth.NewOtpManager(store, sender, auth.DefaultOtpConfig(), nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, otp, store, nil, logger)
	groupSvc := NewGroupService(store, nil)
	budgetSvc := NewBudgetService(store, calculator.DefaultThresholds(), nil)

	public := connect.WithInterceptors(middleware.OptionalAuth(jwtManager))
	private := connect.WithInterceptors(middleware.RequireAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc, public))
	mux.Handle(apiconnect.NewGroupServiceHandler(groupSvc, private))
	mux.Handle(apiconnect.NewBudgetServiceHandler(budgetSvc, private))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:   store,
		jwt:     jwtManager,
		sender:  sender,
		auth:    apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:  apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		budgets: apiconnect.NewBudgetServiceClient(http.DefaultClient, server.URL),
	}
}

// user stores an account directly and returns it with a session token.
func (e *testEnv) user(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	u := models.NewUser(name+"@example.com", name, "unused")
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	token, err := e.jwt.Generate(u)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return u, token
}

// as builds a request authenticated with token.
func as[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var ce *connect.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if ce.Code() != want {
		t.Fatalf("expected code %v, got %v (%v)", want, ce.Code(), err)
	}
}

func (e *testEnv) group(t *testing.T, token string, memberIDs ...string) *api.Group {
	t.Helper()
	resp, err := e.groups.CreateGroup(context.Background(), as(token, &api.CreateGroupRequest{
		Name:      "Roommates",
		MemberIds: memberIDs,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func TestCreateGroup(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, aliceToken := env.user(t, "alice")
	bob, _ := env.user(t, "bob")

	group := env.group(t, aliceToken, bob.ID, bob.ID, alice.ID)

	if group.Id == "" {
		t.Error("expected group ID to be set")
	}
	if group.Currency != models.DefaultCurrency {
		t.Errorf("expected currency %s, got %s", models.DefaultCurrency, group.Currency)
	}
	if group.CreatedBy != alice.ID {
		t.Errorf("expected creator %s, got %s", alice.ID, group.CreatedBy)
	}
	if len(group.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(group.Members))
	}
	names := map[string]string{}
	for _, m := range group.Members {
		names[m.UserId] = m.Name
	}
	if names[alice.ID] != "alice" || names[bob.ID] != "bob" {
		t.Errorf("unexpected members: %v", group.Members)
	}

	t.Run("lists the caller's groups", func(t *testing.T) {
		resp, err := env.groups.ListGroups(ctx, as(aliceToken, &api.ListGroupsRequest{}))
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(resp.Msg.Groups) != 1 || resp.Msg.Groups[0].Id != group.Id {
			t.Errorf("expected the new group, got %v", resp.Msg.Groups)
		}
	})

	tests := []struct {
		name string
		req  *api.CreateGroupRequest
		want connect.Code
	}{
		{"empty name", &api.CreateGroupRequest{Name: "  "}, connect.CodeInvalidArgument},
		{"bad currency", &api.CreateGroupRequest{Name: "Trip", Currency: "euro"}, connect.CodeInvalidArgument},
		{"unknown member", &api.CreateGroupRequest{Name: "Trip", MemberIds: []string{"nobody"}}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.groups.CreateGroup(ctx, as(aliceToken, tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestGroupRequiresAuth(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.groups.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestGroupMembership(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, aliceToken := env.user(t, "alice")
	bob, bobToken := env.user(t, "bob")
	_, carolToken := env.user(t, "carol")

	group := env.group(t, aliceToken)

	_, err := env.groups.GetGroup(ctx, as(bobToken, &api.GetGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.groups.GetGroup(ctx, as(aliceToken, &api.GetGroupRequest{GroupId: "missing"}))
	assertCode(t, err, connect.CodeNotFound)

	added, err := env.groups.AddMember(ctx, as(aliceToken, &api.AddMemberRequest{GroupId: group.Id, Email: "BOB@example.com"}))
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if len(added.Msg.Group.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(added.Msg.Group.Members))
	}

	_, err = env.groups.AddMember(ctx, as(bobToken, &api.AddMemberRequest{GroupId: group.Id, UserId: bob.ID}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = env.groups.RemoveMember(ctx, as(bobToken, &api.RemoveMemberRequest{GroupId: group.Id, UserId: alice.ID}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = env.groups.DeleteGroup(ctx, as(bobToken, &api.DeleteGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.groups.DeleteGroup(ctx, as(carolToken, &api.DeleteGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	removed, err := env.groups.RemoveMember(ctx, as(aliceToken, &api.RemoveMemberRequest{GroupId: group.Id, UserId: bob.ID}))
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if len(removed.Msg.Group.Members) != 1 {
		t.Errorf("expected 1 member after removal, got %d", len(removed.Msg.Group.Members))
	}

	if _, err := env.groups.DeleteGroup(ctx, as(aliceToken, &api.DeleteGroupRequest{GroupId: group.Id})); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	_, err = env.groups.GetGroup(ctx, as(aliceToken, &api.GetGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodeNotFound)
}

func transferKeys(transfers []api.Transfer) []string {
	keys := make([]string, len(transfers))
	for i, tr := range transfers {
		keys[i] = tr.FromUserId + "->" + tr.ToUserId + ":" + tr.Amount
	}
	sort.Strings(keys)
	return keys
}

func TestSettlementScenario(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	a, aToken := env.user(t, "a")
	b, bToken := env.user(t, "b")
	c, _ := env.user(t, "c")
	_, outsiderToken := env.user(t, "outsider")

	group := env.group(t, aToken, b.ID, c.ID)

	_, err := env.groups.AddExpense(ctx, as(aToken, &api.AddExpenseRequest{
		GroupId:     group.Id,
		Description: "Groceries",
		Amount:      "300",
		PaidBy:      a.ID,
		SplitType:   "equal",
		Participants: []api.Participant{
			{UserId: a.ID}, {UserId: b.ID}, {UserId: c.ID},
		},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	balances, err := env.groups.ComputeBalances(ctx, as(bToken, &api.ComputeBalancesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}
	want := map[string]string{a.ID: "200.00", b.ID: "-100.00", c.ID: "-100.00"}
	for id, amount := range want {
		if got := balances.Msg.Balances[id]; got != amount {
			t.Errorf("balance of %s: expected %s, got %s", id, amount, got)
		}
	}
	if len(balances.Msg.Members) != 3 {
		t.Errorf("expected 3 member balances, got %d", len(balances.Msg.Members))
	}

	wantPlan := transferKeys([]api.Transfer{
		{FromUserId: b.ID, ToUserId: a.ID, Amount: "100.00"},
		{FromUserId: c.ID, ToUserId: a.ID, Amount: "100.00"},
	})

	plan, err := env.groups.PlanSettlement(ctx, as(aToken, &api.PlanSettlementRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("PlanSettlement failed: %v", err)
	}
	if got := transferKeys(plan.Msg.Transfers); !slices.Equal(got, wantPlan) {
		t.Errorf("expected plan %v, got %v", wantPlan, got)
	}

	_, err = env.groups.PlanSettlement(ctx, as(outsiderToken, &api.PlanSettlementRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	applied, err := env.groups.ApplySettlement(ctx, as(aToken, &api.ApplySettlementRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	if applied.Msg.AlreadySettled || applied.Msg.SettlementId == "" {
		t.Fatalf("expected a new settlement, got %+v", applied.Msg)
	}
	if applied.Msg.ExpenseCount != 1 {
		t.Errorf("expected 1 settled expense, got %d", applied.Msg.ExpenseCount)
	}
	if got := transferKeys(applied.Msg.Transfers); !slices.Equal(got, wantPlan) {
		t.Errorf("expected applied plan %v, got %v", wantPlan, got)
	}

	again, err := env.groups.ApplySettlement(ctx, as(bToken, &api.ApplySettlementRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("second ApplySettlement failed: %v", err)
	}
	if !again.Msg.AlreadySettled || again.Msg.SettlementId != "" {
		t.Errorf("expected already settled no-op, got %+v", again.Msg)
	}

	after, err := env.groups.ComputeBalances(ctx, as(aToken, &api.ComputeBalancesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}
	for id, amount := range after.Msg.Balances {
		if amount != "0.00" {
			t.Errorf("expected zero balance for %s after settlement, got %s", id, amount)
		}
	}

	history, err := env.groups.ListSettlements(ctx, as(aToken, &api.ListSettlementsRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(history.Msg.Settlements) != 1 || history.Msg.Settlements[0].Id != applied.Msg.SettlementId {
		t.Errorf("expected one recorded settlement, got %v", history.Msg.Settlements)
	}
}

func TestApplySettlementConcurrent(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	a, aToken := env.user(t, "a")
	b, _ := env.user(t, "b")
	group := env.group(t, aToken, b.ID)

	_, err := env.groups.AddExpense(ctx, as(aToken, &api.AddExpenseRequest{
		GroupId:      group.Id,
		Amount:       "10",
		PaidBy:       a.ID,
		Participants: []api.Participant{{UserId: a.ID}, {UserId: b.ID}},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	const callers = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := env.groups.ApplySettlement(ctx, as(aToken, &api.ApplySettlementRequest{GroupId: group.Id}))
			if err != nil {
				t.Errorf("ApplySettlement failed: %v", err)
				return
			}
			if !resp.Msg.AlreadySettled {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != 1 {
		t.Errorf("expected exactly one applied settlement, got %d", applied)
	}
}
