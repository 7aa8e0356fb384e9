package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
)

func ids(names ...string) []models.Participant {
	ps := make([]models.Participant, len(names))
	for i, n := range names {
		ps[i] = models.Participant{UserID: n}
	}
	return ps
}

func shareAmounts(ps []models.Participant) []money.Amount {
	out := make([]money.Amount, len(ps))
	for i, p := range ps {
		out[i] = p.ShareAmount
	}
	return out
}

func TestSplitShares(t *testing.T) {
	tests := []struct {
		name         string
		amount       money.Amount
		splitType    models.SplitType
		participants []models.Participant
		want         []money.Amount
		wantErr      bool
	}{
		{
			name:         "equal split of 100 among 3 gives remainder to first by id",
			amount:       100,
			splitType:    models.SplitEqual,
			participants: ids("c", "a", "b"),
			want:         []money.Amount{34, 33, 33},
		},
		{
			name:         "equal split of 200 among 3",
			amount:       200,
			splitType:    models.SplitEqual,
			participants: ids("a", "b", "c"),
			want:         []money.Amount{67, 67, 66},
		},
		{
			name:         "equal split single participant",
			amount:       999,
			splitType:    models.SplitEqual,
			participants: ids("a"),
			want:         []money.Amount{999},
		},
		{
			name:      "percentage 33.33/33.33/33.34 of 10000",
			amount:    10000,
			splitType: models.SplitPercentage,
			participants: []models.Participant{
				{UserID: "a", Percentage: 3333},
				{UserID: "b", Percentage: 3333},
				{UserID: "c", Percentage: 3334},
			},
			want: []money.Amount{3333, 3333, 3334},
		},
		{
			name:      "percentage 50/50 of the largest accepted amount",
			amount:    money.MaxAmount,
			splitType: models.SplitPercentage,
			participants: []models.Participant{
				{UserID: "a", Percentage: 5000},
				{UserID: "b", Percentage: 5000},
			},
			want: []money.Amount{money.MaxAmount / 2, money.MaxAmount / 2},
		},
		{
			name:      "percentage 33.33/66.67 of the largest accepted amount",
			amount:    money.MaxAmount,
			splitType: models.SplitPercentage,
			participants: []models.Participant{
				{UserID: "a", Percentage: 3333},
				{UserID: "b", Percentage: 6667},
			},
			want: []money.Amount{333_300_000_000_000, 666_700_000_000_000},
		},
		{
			name:      "percentage residual goes to last by id",
			amount:    100,
			splitType: models.SplitPercentage,
			participants: []models.Participant{
				{UserID: "b", Percentage: 3333},
				{UserID: "a", Percentage: 3333},
				{UserID: "c", Percentage: 3334},
			},
			want: []money.Amount{33, 33, 34},
		},
		{
			name:      "percentages not adding up to 100",
			amount:    100,
			splitType: models.SplitPercentage,
			participants: []models.Participant{
				{UserID: "a", Percentage: 5000},
				{UserID: "b", Percentage: 4000},
			},
			wantErr: true,
		},
		{
			name:      "negative percentage",
			amount:    100,
			splitType: models.SplitPercentage,
			participants: []models.Participant{
				{UserID: "a", Percentage: 11000},
				{UserID: "b", Percentage: -1000},
			},
			wantErr: true,
		},
		{
			name:      "exact amounts",
			amount:    1000,
			splitType: models.SplitExact,
			participants: []models.Participant{
				{UserID: "a", ExactAmount: 250},
				{UserID: "b", ExactAmount: 750},
			},
			want: []money.Amount{250, 750},
		},
		{
			name:      "exact amounts not adding up",
			amount:    1000,
			splitType: models.SplitExact,
			participants: []models.Participant{
				{UserID: "a", ExactAmount: 250},
				{UserID: "b", ExactAmount: 700},
			},
			wantErr: true,
		},
		{
			name:      "shares 1:2",
			amount:    300,
			splitType: models.SplitShares,
			participants: []models.Participant{
				{UserID: "a", Shares: 1},
				{UserID: "b", Shares: 2},
			},
			want: []money.Amount{100, 200},
		},
		{
			name:      "shares residual goes to last by id",
			amount:    100,
			splitType: models.SplitShares,
			participants: []models.Participant{
				{UserID: "a", Shares: 1},
				{UserID: "b", Shares: 1},
				{UserID: "c", Shares: 1},
			},
			want: []money.Amount{33, 33, 34},
		},
		{
			name:      "all shares zero",
			amount:    100,
			splitType: models.SplitShares,
			participants: []models.Participant{
				{UserID: "a"},
				{UserID: "b"},
			},
			wantErr: true,
		},
		{
			name:         "no participants",
			amount:       100,
			splitType:    models.SplitEqual,
			participants: nil,
			wantErr:      true,
		},
		{
			name:         "duplicate participant",
			amount:       100,
			splitType:    models.SplitEqual,
			participants: ids("a", "a"),
			wantErr:      true,
		},
		{
			name:         "zero amount",
			amount:       0,
			splitType:    models.SplitEqual,
			participants: ids("a"),
			wantErr:      true,
		},
		{
			name:         "unknown split type",
			amount:       100,
			splitType:    "itemized",
			participants: ids("a"),
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitShares(tt.amount, tt.splitType, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitShares() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, models.ErrInvalidSplit) {
					t.Errorf("SplitShares() error = %v, want ErrInvalidSplit", err)
				}
				return
			}

			amounts := shareAmounts(got)
			if len(amounts) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(amounts), len(tt.want))
			}
			for i := range amounts {
				if amounts[i] != tt.want[i] {
					t.Errorf("share[%d] (%s) = %d, want %d", i, got[i].UserID, amounts[i], tt.want[i])
				}
			}
			if sum := money.Sum(amounts...); sum != tt.amount {
				t.Errorf("shares sum to %d, want %d", sum, tt.amount)
			}
		})
	}
}

func TestSplitSharesDoesNotMutateInput(t *testing.T) {
	in := ids("b", "a")
	if _, err := SplitShares(100, models.SplitEqual, in); err != nil {
		t.Fatalf("SplitShares failed: %v", err)
	}
	if in[0].UserID != "b" || in[0].ShareAmount != 0 {
		t.Errorf("input was modified: %+v", in)
	}
}

func TestSplitSharesInvalidMessage(t *testing.T) {
	_, err := SplitShares(100, models.SplitEqual, nil)
	if err == nil || err.Error() != "invalid split: select at least one participant" {
		t.Errorf("error = %v, want actionable message", err)
	}
}
