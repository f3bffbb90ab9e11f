package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

type TradeStatus string

const (
	TradeOpen      TradeStatus = "OPEN"
	TradeWin       TradeStatus = "WIN"
	TradeLoss      TradeStatus = "LOSS"
	TradeBreakeven TradeStatus = "BREAKEVEN"
	TradeCancelled TradeStatus = "CANCELLED"
)

// IsClosed reports whether the status counts toward statistics.
func (s TradeStatus) IsClosed() bool {
	return s == TradeWin || s == TradeLoss || s == TradeBreakeven
}

// Trade is a journal entry. PnL, PnLPercent and RiskReward are server-computed on close.
type Trade struct {
	ID            int64            `json:"id"`
	Pair          string           `json:"pair" validate:"required,max=32"`
	Direction     Direction        `json:"direction" validate:"required,oneof=LONG SHORT"`
	EntryPrice    decimal.Decimal  `json:"entryPrice"`
	StopLoss      *decimal.Decimal `json:"stopLoss,omitempty"`
	TakeProfit    *decimal.Decimal `json:"takeProfit,omitempty"`
	ExitPrice     *decimal.Decimal `json:"exitPrice,omitempty"`
	PositionSize  decimal.Decimal  `json:"positionSize"`
	Status        TradeStatus      `json:"status"`
	PnL           *decimal.Decimal `json:"pnl,omitempty"`
	PnLPercent    *decimal.Decimal `json:"pnlPercent,omitempty"`
	RiskReward    *decimal.Decimal `json:"riskReward,omitempty"`
	Timeframe     string           `json:"timeframe,omitempty" validate:"max=16"`
	SetupType     string           `json:"setupType,omitempty" validate:"max=64"`
	Notes         string           `json:"notes,omitempty" validate:"max=4000"`
	ChartAnalysis string           `json:"chartAnalysis,omitempty"`
	EntryDate     time.Time        `json:"entryDate"`
	ExitDate      *time.Time       `json:"exitDate,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// TradeClose carries the exit of an open trade.
type TradeClose struct {
	ExitPrice decimal.Decimal `json:"exitPrice"`
	// Status overrides the computed WIN/LOSS/BREAKEVEN when set.
	Status   TradeStatus `json:"status,omitempty" validate:"omitempty,oneof=WIN LOSS BREAKEVEN CANCELLED"`
	ExitDate *time.Time  `json:"exitDate,omitempty"`
	Notes    string      `json:"notes,omitempty"`
}

// TradePatch lists the fields an update may touch. Nil means unchanged.
type TradePatch struct {
	StopLoss      *decimal.Decimal `json:"stopLoss,omitempty"`
	TakeProfit    *decimal.Decimal `json:"takeProfit,omitempty"`
	PositionSize  *decimal.Decimal `json:"positionSize,omitempty"`
	Timeframe     *string          `json:"timeframe,omitempty"`
	SetupType     *string          `json:"setupType,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	ChartAnalysis *string          `json:"chartAnalysis,omitempty"`
	Status        *TradeStatus     `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TradePatch) Empty() bool {
	return p.StopLoss == nil && p.TakeProfit == nil && p.PositionSize == nil &&
		p.Timeframe == nil && p.SetupType == nil && p.Notes == nil &&
		p.ChartAnalysis == nil && p.Status == nil
}

// TradeFilter narrows a journal listing.
type TradeFilter struct {
	Pair   string
	Status TradeStatus
	Limit  int
	Offset int
}

// Validate checks a new trade before it is stored.
func (t *Trade) Validate() error {
	if t.Pair == "" {
		return fmt.Errorf("%w: pair is required", ErrValidation)
	}
	if t.Direction != DirectionLong && t.Direction != DirectionShort {
		return fmt.Errorf("%w: direction must be LONG or SHORT", ErrValidation)
	}
	if !t.EntryPrice.IsPositive() {
		return fmt.Errorf("%w: entryPrice must be positive", ErrValidation)
	}
	if t.PositionSize.IsNegative() {
		return fmt.Errorf("%w: positionSize cannot be negative", ErrValidation)
	}
	return nil
}

// ApplyClose computes P/L, percent, risk/reward and status for an exit.
// LONG pnl = (exit-entry)*size, SHORT pnl = (entry-exit)*size.
func (t *Trade) ApplyClose(c TradeClose, now time.Time) error {
	if t.Status != TradeOpen {
		return fmt.Errorf("%w: trade %d is %s", ErrValidation, t.ID, t.Status)
	}
	if !c.ExitPrice.IsPositive() {
		return fmt.Errorf("%w: exitPrice must be positive", ErrValidation)
	}

	diff := c.ExitPrice.Sub(t.EntryPrice)
	if t.Direction == DirectionShort {
		diff = diff.Neg()
	}
	size := t.PositionSize
	if size.IsZero() {
		size = decimal.NewFromInt(1)
	}
	pnl := diff.Mul(size).Round(8)
	pct := diff.Div(t.EntryPrice).Mul(decimal.NewFromInt(100)).Round(4)

	exit := c.ExitPrice
	t.ExitPrice = &exit
	t.PnL = &pnl
	t.PnLPercent = &pct
	t.RiskReward = nil
	if t.StopLoss != nil {
		risk := t.EntryPrice.Sub(*t.StopLoss).Abs()
		if risk.IsPositive() {
			rr := c.ExitPrice.Sub(t.EntryPrice).Abs().Div(risk).Round(2)
			t.RiskReward = &rr
		}
	}

	switch {
	case c.Status != "":
		t.Status = c.Status
	case pnl.IsPositive():
		t.Status = TradeWin
	case pnl.IsNegative():
		t.Status = TradeLoss
	default:
		t.Status = TradeBreakeven
	}

	exitAt := now
	if c.ExitDate != nil {
		exitAt = *c.ExitDate
	}
	t.ExitDate = &exitAt
	if c.Notes != "" {
		t.Notes = c.Notes
	}
	return nil
}

// TradeStats summarises closed trades.
type TradeStats struct {
	TotalTrades   int             `json:"totalTrades"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	Breakeven     int             `json:"breakeven"`
	WinRate       decimal.Decimal `json:"winRate"`
	TotalPnL      decimal.Decimal `json:"totalPnl"`
	AvgPnL        decimal.Decimal `json:"avgPnl"`
	AvgWin        decimal.Decimal `json:"avgWin"`
	AvgLoss       decimal.Decimal `json:"avgLoss"`
	BestTrade     decimal.Decimal `json:"bestTrade"`
	WorstTrade    decimal.Decimal `json:"worstTrade"`
	AvgRiskReward decimal.Decimal `json:"avgRiskReward"`
	ProfitFactor  decimal.Decimal `json:"profitFactor"`
	CurrentStreak int             `json:"currentStreak"`
	StreakType    string          `json:"streakType"`
}

// streakWindow bounds how many recent closed trades the streak looks at.
const streakWindow = 20

// ComputeStats builds statistics from closed trades ordered by exit date, newest first.
func ComputeStats(trades []*Trade) TradeStats {
	st := TradeStats{StreakType: "NONE"}
	var sumWin, sumLoss, sumRR decimal.Decimal
	rrCount := 0
	first := true

	for _, t := range trades {
		if !t.Status.IsClosed() {
			continue
		}
		st.TotalTrades++
		pnl := decimal.Zero
		if t.PnL != nil {
			pnl = *t.PnL
		}
		st.TotalPnL = st.TotalPnL.Add(pnl)
		if first || pnl.GreaterThan(st.BestTrade) {
			st.BestTrade = pnl
		}
		if first || pnl.LessThan(st.WorstTrade) {
			st.WorstTrade = pnl
		}
		first = false

		switch t.Status {
		case TradeWin:
			st.Wins++
			sumWin = sumWin.Add(pnl)
		case TradeLoss:
			st.Losses++
			sumLoss = sumLoss.Add(pnl)
		case TradeBreakeven:
			st.Breakeven++
		}
		if t.RiskReward != nil {
			sumRR = sumRR.Add(*t.RiskReward)
			rrCount++
		}
	}
	if st.TotalTrades == 0 {
		return st
	}

	total := decimal.NewFromInt(int64(st.TotalTrades))
	st.WinRate = decimal.NewFromInt(int64(st.Wins)).Div(total).Mul(decimal.NewFromInt(100)).Round(2)
	st.AvgPnL = st.TotalPnL.Div(total).Round(2)
	if st.Wins > 0 {
		st.AvgWin = sumWin.Div(decimal.NewFromInt(int64(st.Wins))).Round(2)
	}
	if st.Losses > 0 {
		st.AvgLoss = sumLoss.Div(decimal.NewFromInt(int64(st.Losses))).Round(2)
	}
	if rrCount > 0 {
		st.AvgRiskReward = sumRR.Div(decimal.NewFromInt(int64(rrCount))).Round(2)
	}
	if !st.AvgLoss.IsZero() {
		st.ProfitFactor = st.AvgWin.Div(st.AvgLoss.Abs()).Round(2)
	}

	st.CurrentStreak, st.StreakType = streak(trades)
	return st
}

func streak(trades []*Trade) (int, string) {
	var kind TradeStatus
	n, seen := 0, 0
	for _, t := range trades {
		if !t.Status.IsClosed() {
			continue
		}
		if seen == streakWindow {
			break
		}
		seen++
		if n == 0 {
			kind = t.Status
		}
		if t.Status != kind {
			break
		}
		n++
	}
	if n == 0 {
		return 0, "NONE"
	}
	return n, string(kind)
}
