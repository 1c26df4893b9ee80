package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name      string
		ofxData   string
		wantCount int
	}{
		{name: "bank statement", ofxData: sampleBankOFX, wantCount: 3},
		{name: "credit card statement", ofxData: sampleCreditCardOFX, wantCount: 2},
		{name: "leading blank lines", ofxData: "\n\n  " + sampleBankOFX, wantCount: 3},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := parser.ParseFile(context.Background(), strings.NewReader(tt.ofxData))
			require.NoError(t, err)
			assert.Len(t, txns, tt.wantCount)
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	txns, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	first := txns[0]
	assert.Equal(t, "STARBUCKS STORE #1234", first.Description)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("-25.50")), "amount %s", first.Amount)
	assert.True(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC).Equal(first.Date), "date %s", first.Date)
	assert.Equal(t, time.UTC, first.Date.Location())

	assert.Equal(t, "Whole Foods Market", txns[1].Description)
	assert.True(t, txns[2].Amount.Equal(decimal.NewFromInt(-500)))
}

func TestParseCreditCardTransactions(t *testing.T) {
	txns, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", txns[0].Description)
	assert.Equal(t, "NETFLIX.COM", txns[1].Description)
	assert.True(t, txns[1].Amount.Equal(decimal.RequireFromString("-15")))
}

func TestParseFile_Invalid(t *testing.T) {
	_, err := NewParser().ParseFile(context.Background(), strings.NewReader("not an ofx file"))
	require.Error(t, err)
	assert.Equal(t, "File is not a valid OFX statement", common.UserMessage(err, ""))
}

func TestParseFile_NoTransactions(t *testing.T) {
	start := strings.Index(sampleBankOFX, "<STMTTRN>")
	end := strings.LastIndex(sampleBankOFX, "</STMTTRN>") + len("</STMTTRN>")
	empty := sampleBankOFX[:start] + sampleBankOFX[end:]

	_, err := NewParser().ParseFile(context.Background(), strings.NewReader(empty))
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestParseFile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreprocessOFX(t *testing.T) {
	p := NewParser()

	fixed := p.preprocessOFX("<STATUS>\n<SEVERITY>Info</SEVERITY>\n<CODE\n")
	assert.Contains(t, fixed, "<SEVERITY>INFO</SEVERITY>")
	assert.Contains(t, fixed, "<CODE>")
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name string
		want string
		tx   ofxgo.Transaction
	}{
		{
			name: "name preferred",
			tx:   ofxgo.Transaction{Name: "COFFEE CO", Memo: "card 1234"},
			want: "COFFEE CO",
		},
		{
			name: "memo replaces generic name",
			tx:   ofxgo.Transaction{Name: "POS TRANSACTION", Memo: "BAKERY ON MAIN"},
			want: "BAKERY ON MAIN",
		},
		{
			name: "payee when name missing",
			tx:   ofxgo.Transaction{Payee: &ofxgo.Payee{Name: "CITY WATER"}},
			want: "CITY WATER",
		},
		{
			name: "generic name kept without memo",
			tx:   ofxgo.Transaction{Name: "DEBIT"},
			want: "DEBIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, description(tt.tx))
		})
	}
}
