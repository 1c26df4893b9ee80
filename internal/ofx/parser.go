// Package ofx reads OFX and QFX bank statements into candidate transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line that lost their closing bracket.
	unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX statement. Amounts keep the statement's sign,
// so debits are negative.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.CandidateTransaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, common.NewUserError("File is not a valid OFX statement", fmt.Errorf("failed to parse OFX file: %w", err))
	}

	var transactions []model.CandidateTransaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		txns, err := p.convertAll(stmt.BankTranList.Transactions)
		if err != nil {
			return nil, fmt.Errorf("bank account %s: %w", stmt.BankAcctFrom.AcctID, err)
		}
		transactions = append(transactions, txns...)
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		txns, err := p.convertAll(stmt.BankTranList.Transactions)
		if err != nil {
			return nil, fmt.Errorf("card account %s: %w", stmt.CCAcctFrom.AcctID, err)
		}
		transactions = append(transactions, txns...)
	}

	if len(transactions) == 0 {
		return nil, common.NewUserError(common.MsgEmptyInput, common.ErrEmptyInput)
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func (p *Parser) convertAll(ofxTxns []ofxgo.Transaction) ([]model.CandidateTransaction, error) {
	out := make([]model.CandidateTransaction, 0, len(ofxTxns))
	for _, ofxTx := range ofxTxns {
		tx, err := p.convertTransaction(ofxTx)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) (model.CandidateTransaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return model.CandidateTransaction{}, fmt.Errorf("transaction %s: invalid amount: %w", ofxTx.FiTID, err)
	}

	return model.CandidateTransaction{
		Date:        ofxTx.DtPosted.Time.UTC(),
		Amount:      amount,
		Description: description(ofxTx),
	}, nil
}

// description picks the statement text used for matching. NAME is preferred;
// MEMO replaces it when NAME is a bare transaction type.
func description(tx ofxgo.Transaction) string {
	name := strings.TrimSpace(string(tx.Name))
	if name == "" && tx.Payee != nil {
		name = strings.TrimSpace(string(tx.Payee.Name))
	}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" && (name == "" || isGenericDescription(name)) {
		return memo
	}
	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
