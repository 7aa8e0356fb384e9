package service

import (
	"fmt"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/pkg/api"
)

func userToAPI(u *models.User) *api.User {
	return &api.User{
		Id:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func groupToAPI(g *models.Group) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.Member{UserId: m.UserID, Name: m.Name, Email: m.Email}
	}
	return &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func expenseToAPI(e *models.Expense) *api.Expense {
	participants := make([]api.Participant, len(e.Participants))
	for i, p := range e.Participants {
		ap := api.Participant{UserId: p.UserID, ShareAmount: p.ShareAmount.String()}
		switch e.SplitType {
		case models.SplitPercentage:
			ap.Percentage = p.Percentage.String()
		case models.SplitExact:
			ap.ExactAmount = p.ExactAmount.String()
		case models.SplitShares:
			ap.Shares = p.Shares
		}
		participants[i] = ap
	}

	out := &api.Expense{
		Id:              e.ID,
		GroupId:         e.GroupID,
		Description:     e.Description,
		Amount:          e.Amount.String(),
		PaidBy:          e.PaidBy,
		SplitType:       string(e.SplitType),
		Participants:    participants,
		Category:        e.Category,
		Notes:           e.Notes,
		Timestamp:       e.Timestamp,
		Settled:         e.Settled,
		SettlementId:    e.SettlementID,
		SourceExpenseId: e.SourceExpenseID,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
	if e.Recurrence != nil {
		out.Recurrence = &api.Recurrence{
			Interval:  string(e.Recurrence.Interval),
			NextDueAt: e.Recurrence.NextDueAt,
		}
	}
	return out
}

// participantsFromAPI reads the rule input that splitType needs. Malformed
// numbers wrap models.ErrInvalidSplit.
func participantsFromAPI(splitType models.SplitType, in []api.Participant) ([]models.Participant, error) {
	out := make([]models.Participant, len(in))
	for i, p := range in {
		mp := models.Participant{UserID: p.UserId}
		switch splitType {
		case models.SplitPercentage:
			pct, err := money.ParsePercent(p.Percentage)
			if err != nil {
				return nil, fmt.Errorf("%w: percentage for %s: %v", models.ErrInvalidSplit, p.UserId, err)
			}
			mp.Percentage = pct
		case models.SplitExact:
			amount, err := money.Parse(p.ExactAmount)
			if err != nil {
				return nil, fmt.Errorf("%w: amount for %s: %v", models.ErrInvalidSplit, p.UserId, err)
			}
			mp.ExactAmount = amount
		case models.SplitShares:
			mp.Shares = p.Shares
		}
		out[i] = mp
	}
	return out, nil
}

func transfersToAPI(transfers []models.Transfer) []api.Transfer {
	out := make([]api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = api.Transfer{FromUserId: t.From, ToUserId: t.To, Amount: t.Amount.String()}
	}
	return out
}

func settlementToAPI(b *models.SettlementBatch) *api.Settlement {
	return &api.Settlement{
		Id:           b.ID,
		GroupId:      b.GroupID,
		SettledBy:    b.SettledBy,
		Transfers:    transfersToAPI(b.Transfers),
		ExpenseCount: b.ExpenseCount,
		CreatedAt:    b.CreatedAt,
	}
}

func failureToAPI(f *models.RecurrenceFailure) *api.RecurrenceFailure {
	return &api.RecurrenceFailure{
		Id:           f.ID,
		ExpenseId:    f.ExpenseID,
		GroupId:      f.GroupID,
		OccurrenceAt: f.OccurrenceAt,
		Reason:       f.Reason,
		CreatedAt:    f.CreatedAt,
	}
}

func budgetUsageToAPI(u calculator.BudgetUsage) *api.BudgetUsage {
	return &api.BudgetUsage{
		Budget: api.Budget{
			Id:           u.Budget.ID,
			UserId:       u.Budget.OwnerID,
			Category:     u.Budget.Category,
			MonthlyLimit: u.Budget.MonthlyLimit.String(),
			Month:        u.Budget.Month,
			Year:         u.Budget.Year,
		},
		Spent:          u.Spent.String(),
		Remaining:      u.Remaining.String(),
		PercentageUsed: u.PercentageUsed.String(),
		Status:         string(u.Status),
	}
}

func budgetUsagesToAPI(usages []calculator.BudgetUsage) []*api.BudgetUsage {
	out := make([]*api.BudgetUsage, len(usages))
	for i, u := range usages {
		out[i] = budgetUsageToAPI(u)
	}
	return out
}

// orEmpty keeps JSON arrays from encoding as null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
