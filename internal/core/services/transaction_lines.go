package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/dto"
)

// normalizeLines turns wire lines into stored lines with LineAmount >= 0 and an
// explicit side. Three input conventions are accepted: debit/credit columns,
// line_amount plus side, or a signed line_amount. Currency is left empty when
// not supplied and is defaulted from the header by bindLines.
func (o *orchestrator) normalizeLines(ctx context.Context, inputs []dto.TransactionLineInput) ([]domain.TransactionLine, error) {
	lines := make([]domain.TransactionLine, 0, len(inputs))
	for i, in := range inputs {
		path := fmt.Sprintf("lines[%d]", i)
		code, err := o.smartCode(ctx, path+".smart_code", in.SmartCode)
		if err != nil {
			return nil, err
		}
		amount, side, err := lineAmount(path, in)
		if err != nil {
			return nil, err
		}
		data, err := jsonObject(path+".line_data", in.LineData)
		if err != nil {
			return nil, err
		}

		line := domain.TransactionLine{
			LineNumber: in.LineNumber,
			LineType:   strings.ToUpper(strings.TrimSpace(in.LineType)),
			Quantity:   decimal.NewFromInt(1),
			LineAmount: amount,
			Side:       side,
			Currency:   domain.NormalizeCurrency(in.Currency),
			LineData:   data,
			SmartCode:  code.String(),
		}
		if line.LineNumber == 0 {
			line.LineNumber = i + 1
		}
		if id := deref(in.EntityID); id != "" {
			line.EntityID = &id
		}
		if in.Quantity != nil {
			line.Quantity = *in.Quantity
		}
		line.UnitAmount = amount
		if in.UnitAmount != nil {
			line.UnitAmount = *in.UnitAmount
		} else if !line.Quantity.IsZero() {
			line.UnitAmount = amount.Div(line.Quantity)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func lineAmount(path string, in dto.TransactionLineInput) (decimal.Decimal, domain.LineSide, error) {
	if in.Debit != nil || in.Credit != nil {
		if in.LineAmount != nil || strings.TrimSpace(in.Side) != "" {
			return decimal.Zero, "", apperrors.NewValidationError(path, "MIXED_AMOUNT_STYLES",
				"use either debit/credit or line_amount, not both")
		}
		debit, credit := decimal.Zero, decimal.Zero
		if in.Debit != nil {
			debit = *in.Debit
		}
		if in.Credit != nil {
			credit = *in.Credit
		}
		if debit.IsNegative() || credit.IsNegative() {
			return decimal.Zero, "", apperrors.NewValidationError(path, "NEGATIVE_AMOUNT", "debit and credit must not be negative")
		}
		switch {
		case debit.IsPositive() && credit.IsPositive():
			return decimal.Zero, "", apperrors.NewValidationError(path, "DEBIT_AND_CREDIT",
				"a line is either a debit or a credit").
				WithHint("split the amounts into two lines")
		case debit.IsPositive():
			return debit, domain.SideDebit, nil
		case credit.IsPositive():
			return credit, domain.SideCredit, nil
		}
		return decimal.Zero, domain.SideNone, nil
	}

	side, err := domain.ParseLineSide(in.Side)
	if err != nil {
		return decimal.Zero, "", prefixField(err, path)
	}
	amount := decimal.Zero
	switch {
	case in.LineAmount != nil:
		amount = *in.LineAmount
	case in.Quantity != nil && in.UnitAmount != nil:
		amount = in.Quantity.Mul(*in.UnitAmount)
	}
	if side != domain.SideNone {
		if amount.IsNegative() {
			return decimal.Zero, "", apperrors.NewValidationError(path, "NEGATIVE_AMOUNT",
				"line_amount must not be negative when side is given")
		}
		return amount, side, nil
	}
	if amount.IsNegative() {
		return amount.Abs(), domain.SideCredit, nil
	}
	return amount, domain.SideNone, nil
}

// bindLines attaches lines to their header and fills defaults.
func bindLines(txn *domain.Transaction, lines []domain.TransactionLine) {
	for i := range lines {
		l := &lines[i]
		if l.LineID == "" {
			l.LineID = newID()
		}
		l.TransactionID = txn.TransactionID
		l.OrganizationID = txn.OrganizationID
		if l.Currency == "" {
			l.Currency = txn.Currency
		}
	}
	txn.Lines = lines
}

// reversedLines copies lines with every sign inverted.
func reversedLines(lines []domain.TransactionLine) []domain.TransactionLine {
	out := make([]domain.TransactionLine, len(lines))
	for i, l := range lines {
		l.LineID = ""
		if l.Side == domain.SideNone {
			l.Side = domain.SideCredit
		} else {
			l.Side = l.Side.Opposite()
		}
		out[i] = l
	}
	return out
}
