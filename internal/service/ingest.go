package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
)

// IngestService stages bank statement exports.
type IngestService struct {
	Store  ledger.Ledger
	Stager *Stager
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ImportCSV stages rows of date, amount, description, merchant, bank_id for
// the account tagged accountTag. Merchant and bank_id may be empty; rows
// without a bank id are keyed by a hash of their content. Negative amounts
// are expenses and positive ones income. A leading header row is skipped.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader, accountTag string, tz *time.Location) (IngestResult, error) {
	res := IngestResult{}
	acct, err := s.Store.GetAccountByTag(ctx, accountTag)
	if err != nil {
		return res, err
	}
	items, rowErrs := parseStatement(r, acct.ID, tz)
	res.Errors = append(res.Errors, rowErrs...)
	for _, it := range items {
		exists, err := s.Stager.IsStaged(ctx, it.p.BankTransactionID)
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			continue
		}
		if _, err := s.Stager.Stage(ctx, it.p); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d stage: %w", it.line, err))
			continue
		}
		res.Imported++
	}
	return res, nil
}

type statementRow struct {
	line int
	p    domain.PendingTransaction
}

// parseStatement reads a bank export into pending candidates for accountID.
// Rows that cannot be parsed are reported and skipped.
func parseStatement(r io.Reader, accountID uuid.UUID, tz *time.Location) ([]statementRow, []error) {
	if tz == nil {
		tz = time.Local
	}
	var (
		rows []statementRow
		errs []error
	)
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		if len(rec) < 3 {
			errs = append(errs, fmt.Errorf("line %d: expected at least 3 columns (date, amount, description)", line))
			continue
		}
		date, err := parseStatementDate(rec[0], tz)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		amount, err := parseAmount(rec[1])
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		desc := strings.TrimSpace(rec[2])
		var merchant *string
		if len(rec) > 3 {
			merchant = nullableStr(rec[3])
		}
		bankID := ""
		if len(rec) > 4 {
			bankID = strings.TrimSpace(rec[4])
		}
		if bankID == "" {
			bankID = hashSource(accountID.String(), date.Format(time.DateOnly), amount.String(), desc)
		}

		typ := domain.Income
		if amount.IsNegative() {
			typ = domain.Expense
		}
		rows = append(rows, statementRow{line: line, p: domain.PendingTransaction{
			BankTransactionID: bankID,
			Amount:            amount.Abs(),
			Description:       desc,
			MerchantName:      merchant,
			Date:              date,
			Type:              typ,
			AccountID:         accountID,
		}})
	}
	return rows, errs
}

// parseAmount reads statement amounts written with either decimal mark.
// When both '.' and ',' appear the later one is the decimal mark. A lone
// comma followed by one or two digits is a decimal comma; any other commas
// must separate groups of three digits.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.TrimPrefix(s, "+")
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case comma < 0:
	case dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	case dot >= 0:
		s = strings.ReplaceAll(s[:comma], ".", "") + "." + s[comma+1:]
	default:
		groups := strings.Split(s, ",")
		if tail := len(groups[1]); len(groups) == 2 && (tail == 1 || tail == 2) {
			s = groups[0] + "." + groups[1]
			break
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return decimal.Decimal{}, fmt.Errorf("ambiguous separators in %q", s)
			}
		}
		s = strings.Join(groups, "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsZero() {
		return decimal.Decimal{}, errors.New("amount is zero")
	}
	return d, nil
}

func nullableStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func hashSource(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("sha256:%x", sum[:])
}

// statementLayouts are tried in order: ISO first, then the day-first
// layouts Ukrainian banks export.
var statementLayouts = []string{
	time.DateOnly,
	"02.01.2006",
	"2/01/2006",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05",
}

func parseStatementDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range statementLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
