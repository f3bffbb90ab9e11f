package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/domain/repository"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// tsLayout is fixed-width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const journalSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	pair           TEXT NOT NULL,
	direction      TEXT NOT NULL,
	entry_price    TEXT NOT NULL,
	stop_loss      TEXT,
	take_profit    TEXT,
	exit_price     TEXT,
	position_size  TEXT NOT NULL DEFAULT '1',
	status         TEXT NOT NULL DEFAULT 'OPEN',
	pnl            TEXT,
	pnl_percent    TEXT,
	risk_reward    TEXT,
	timeframe      TEXT NOT NULL DEFAULT '',
	setup_type     TEXT NOT NULL DEFAULT '',
	notes          TEXT NOT NULL DEFAULT '',
	chart_analysis TEXT NOT NULL DEFAULT '',
	entry_date     TEXT NOT NULL,
	exit_date      TEXT,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_pair ON trades(pair);
CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_exit_date ON trades(exit_date);`

const tradeColumns = `id, pair, direction, entry_price, stop_loss, take_profit, exit_price, position_size,
	status, pnl, pnl_percent, risk_reward, timeframe, setup_type, notes, chart_analysis,
	entry_date, exit_date, created_at, updated_at`

// SQLiteJournal implements JournalStore on SQLite (pure-Go driver).
type SQLiteJournal struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// NewSQLiteJournal opens the database at dsn. Call Init before use.
func NewSQLiteJournal(dsn string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One connection: SQLite serialises writers and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	return &SQLiteJournal{db: db, table: "trades", now: time.Now}, nil
}

var _ repository.JournalStore = (*SQLiteJournal)(nil)

func (s *SQLiteJournal) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("init journal schema: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) Create(ctx context.Context, t *models.Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	now := s.now().UTC()
	t.Pair = strings.ToUpper(strings.TrimSpace(t.Pair))
	if t.PositionSize.IsZero() {
		t.PositionSize = decimal.NewFromInt(1)
	}
	if t.EntryDate.IsZero() {
		t.EntryDate = now
	}
	t.Status = models.TradeOpen
	t.CreatedAt, t.UpdatedAt = now, now

	q := fmt.Sprintf(`INSERT INTO %s (pair, direction, entry_price, stop_loss, take_profit, position_size,
		status, timeframe, setup_type, notes, chart_analysis, entry_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	res, err := s.db.ExecContext(ctx, q,
		t.Pair, string(t.Direction), t.EntryPrice.String(), nullDec(t.StopLoss), nullDec(t.TakeProfit),
		t.PositionSize.String(), string(t.Status), t.Timeframe, t.SetupType, t.Notes, t.ChartAnalysis,
		fmtTime(t.EntryDate), fmtTime(now), fmtTime(now),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteJournal) Get(ctx context.Context, id int64) (*models.Trade, error) {
	return s.get(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteJournal) get(ctx context.Context, q queryer, id int64) (*models.Trade, error) {
	row := q.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", tradeColumns, s.table), id)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: trade %d", models.ErrNotFound, id)
	}
	return t, err
}

func (s *SQLiteJournal) List(ctx context.Context, f models.TradeFilter) ([]*models.Trade, int64, error) {
	var where []string
	var args []any
	if f.Pair != "" {
		where = append(where, "pair = ?")
		args = append(args, strings.ToUpper(f.Pair))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.table, cond), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trades: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY entry_date DESC, id DESC LIMIT ? OFFSET ?", tradeColumns, s.table, cond)
	trades, err := s.query(ctx, q, append(args, limit, offset)...)
	return trades, total, err
}

// patchColumns is the allow-list of updatable columns.
func patchColumns(p models.TradePatch) ([]string, []any, error) {
	var cols []string
	var args []any
	add := func(col string, v any) {
		cols = append(cols, col+" = ?")
		args = append(args, v)
	}
	if p.StopLoss != nil {
		add("stop_loss", p.StopLoss.String())
	}
	if p.TakeProfit != nil {
		add("take_profit", p.TakeProfit.String())
	}
	if p.PositionSize != nil {
		if !p.PositionSize.IsPositive() {
			return nil, nil, fmt.Errorf("%w: positionSize must be positive", models.ErrValidation)
		}
		add("position_size", p.PositionSize.String())
	}
	if p.Timeframe != nil {
		add("timeframe", *p.Timeframe)
	}
	if p.SetupType != nil {
		add("setup_type", *p.SetupType)
	}
	if p.Notes != nil {
		add("notes", *p.Notes)
	}
	if p.ChartAnalysis != nil {
		add("chart_analysis", *p.ChartAnalysis)
	}
	if p.Status != nil {
		switch *p.Status {
		case models.TradeOpen, models.TradeWin, models.TradeLoss, models.TradeBreakeven, models.TradeCancelled:
		default:
			return nil, nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, *p.Status)
		}
		add("status", string(*p.Status))
	}
	return cols, args, nil
}

func (s *SQLiteJournal) Update(ctx context.Context, id int64, patch models.TradePatch) (*models.Trade, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}
	cols, args, err := patchColumns(patch)
	if err != nil {
		return nil, err
	}
	cols = append(cols, "updated_at = ?")
	args = append(args, fmtTime(s.now().UTC()), id)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", s.table, strings.Join(cols, ", "))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("update trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: trade %d", models.ErrNotFound, id)
	}
	return s.Get(ctx, id)
}

// Close computes P/L inside one transaction so two closes cannot interleave.
func (s *SQLiteJournal) Close(ctx context.Context, id int64, exit models.TradeClose) (*models.Trade, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin close: %w", err)
	}
	defer tx.Rollback()

	t, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := t.ApplyClose(exit, now); err != nil {
		return nil, err
	}
	t.UpdatedAt = now

	q := fmt.Sprintf(`UPDATE %s SET exit_price = ?, pnl = ?, pnl_percent = ?, risk_reward = ?, status = ?,
		exit_date = ?, notes = ?, updated_at = ? WHERE id = ?`, s.table)
	if _, err := tx.ExecContext(ctx, q,
		nullDec(t.ExitPrice), nullDec(t.PnL), nullDec(t.PnLPercent), nullDec(t.RiskReward),
		string(t.Status), fmtTime(t.ExitDate.UTC()), t.Notes, fmtTime(now), id,
	); err != nil {
		return nil, fmt.Errorf("close trade: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit close: %w", err)
	}
	return t, nil
}

func (s *SQLiteJournal) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: trade %d", models.ErrNotFound, id)
	}
	return nil
}

// Closed returns WIN/LOSS/BREAKEVEN trades by exit date, newest first.
func (s *SQLiteJournal) Closed(ctx context.Context, pair string) ([]*models.Trade, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE status IN ('WIN', 'LOSS', 'BREAKEVEN')", tradeColumns, s.table)
	var args []any
	if pair != "" {
		q += " AND pair = ?"
		args = append(args, strings.ToUpper(pair))
	}
	q += " ORDER BY exit_date DESC, id DESC"
	return s.query(ctx, q, args...)
}

func (s *SQLiteJournal) Shutdown() error {
	return s.db.Close()
}

func (s *SQLiteJournal) query(ctx context.Context, q string, args ...any) ([]*models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	trades := []*models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(sc scanner) (*models.Trade, error) {
	var (
		t                                 models.Trade
		direction, status                 string
		stop, take, exit, pnl, pnlPct, rr decimal.NullDecimal
		entryDate, createdAt, updatedAt   string
		exitDate                          sql.NullString
	)
	err := sc.Scan(&t.ID, &t.Pair, &direction, &t.EntryPrice, &stop, &take, &exit, &t.PositionSize,
		&status, &pnl, &pnlPct, &rr, &t.Timeframe, &t.SetupType, &t.Notes, &t.ChartAnalysis,
		&entryDate, &exitDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Direction = models.Direction(direction)
	t.Status = models.TradeStatus(status)
	t.StopLoss, t.TakeProfit, t.ExitPrice = decPtr(stop), decPtr(take), decPtr(exit)
	t.PnL, t.PnLPercent, t.RiskReward = decPtr(pnl), decPtr(pnlPct), decPtr(rr)
	t.EntryDate = parseTime(entryDate)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	if exitDate.Valid {
		ts := parseTime(exitDate.String)
		t.ExitDate = &ts
	}
	return &t, nil
}

func nullDec(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func fmtTime(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
