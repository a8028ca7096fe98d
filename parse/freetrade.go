package parse

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ukshares/cgt"
)

func init() { Register(freetrade{}) }

// freetrade reads the CSV activity feed export from Freetrade. The export
// lists transactions newest first; rows are parsed oldest first so that
// sequence numbers grow with time.
type freetrade struct{}

var freetradeFields = []string{
	"Title",
	"Type",
	"Timestamp",
	"Account Currency",
	"Total Amount",
	"Buy / Sell",
	"Ticker",
	"ISIN",
	"Price per Share in Account Currency",
	"Stamp Duty",
	"Quantity",
	"Venue",
	"Order ID",
	"Order Type",
	"Instrument Currency",
	"Total Shares Amount",
	"Price per Share",
	"FX Rate",
	"Base FX Rate",
	"FX Fee (BPS)",
	"FX Fee Amount",
	"Dividend Ex Date",
	"Dividend Pay Date",
	"Dividend Eligible Quantity",
	"Dividend Amount Per Share",
	"Dividend Gross Distribution Amount",
	"Dividend Net Distribution Amount",
	"Dividend Withheld Tax Percentage",
	"Dividend Withheld Tax Amount",
}

func (freetrade) Name() string { return "Freetrade" }

func (freetrade) CanParse(header []string) bool {
	return slices.Equal(header, freetradeFields)
}

func (p freetrade) Parse(path string, cfg Config) (*Result, error) {
	var rows []record
	err := forEachRow(path, func(r record) error {
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, r := range slices.Backward(rows) {
		var err error
		switch typ := r.get("Type"); typ {
		case "ORDER":
			err = p.parseOrder(r, result)
		case "DIVIDEND":
			err = p.parseDividend(r, result)
		case "TOP_UP", "WITHDRAW":
			err = p.parseTransfer(r, typ, result)
		case "INTEREST_FROM_CASH":
			err = p.parseInterest(r, result)
		case "MONTHLY_STATEMENT":
			// Not a transaction.
		default:
			err = r.errorf("unrecognized type %q", typ)
		}
		if err != nil {
			if err = badRow(cfg, err); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// total reads the row's Total Amount field. Only sterling accounts are
// supported.
func (freetrade) total(r record) (cgt.Money, error) {
	if cur := r.get("Account Currency"); cur != "GBP" {
		return cgt.Money{}, r.errorf("account currency %q, only GBP accounts are supported", cur)
	}
	amount, err := r.decimal("Total Amount")
	if err != nil {
		return cgt.Money{}, err
	}
	return cgt.M(amount, "GBP"), nil
}

func (p freetrade) parseOrder(r record, result *Result) error {
	var side cgt.Side
	switch action := r.get("Buy / Sell"); action {
	case "BUY":
		side = cgt.Acquire
	case "SELL":
		side = cgt.Dispose
	default:
		return r.errorf("unrecognized buy/sell value %q", action)
	}

	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Timestamp"))
	if err != nil {
		return r.errorf("%v", err)
	}
	price, err := r.decimal("Price per Share in Account Currency")
	if err != nil {
		return err
	}
	quantity, err := r.decimal("Quantity")
	if err != nil {
		return err
	}
	stampDuty, err := r.decimal("Stamp Duty")
	if err != nil {
		return err
	}
	fxFee, err := r.decimal("FX Fee Amount")
	if err != nil {
		return err
	}

	// UK stock trades attract stamp duty, overseas trades an FX fee. A row
	// with both is corrupt.
	if !stampDuty.IsZero() && !fxFee.IsZero() {
		return r.errorf("stamp duty combined with an FX fee")
	}

	fees := stampDuty.Add(fxFee)
	calculated := price.Mul(quantity).Add(fees)
	if side == cgt.Dispose {
		calculated = price.Mul(quantity).Sub(fees)
	}
	if calculated.Round(2).Sub(total.Amount()).Abs().GreaterThan(pennyTolerance) {
		return r.errorf("total %s does not match calculated amount %s",
			total.Amount(), calculated.Round(2))
	}

	order := cgt.Order{
		Tx: cgt.Tx{
			Timestamp: timestamp,
			ISIN:      r.get("ISIN"),
			Ticker:    r.get("Ticker"),
			Name:      r.get("Title"),
			Total:     total,
		},
		Side:     side,
		Quantity: cgt.Q(quantity),
		Price:    cgt.M(price, "GBP"),
		Fees:     feesGBP(stampDuty, fxFee, decimal.Decimal{}),
	}
	if err := order.Validate(); err != nil {
		return r.errorf("%v", err)
	}
	result.Orders = append(result.Orders, order)
	return nil
}

func (p freetrade) parseDividend(r record, result *Result) error {
	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Timestamp"))
	if err != nil {
		return r.errorf("%v", err)
	}
	baseFxRate, err := r.decimal("Base FX Rate")
	if err != nil {
		return err
	}
	if baseFxRate.IsZero() {
		baseFxRate = decimal.New(1, 0)
	}
	eligible, err := r.decimal("Dividend Eligible Quantity")
	if err != nil {
		return err
	}
	perShare, err := r.decimal("Dividend Amount Per Share")
	if err != nil {
		return err
	}
	withheldPct, err := r.decimal("Dividend Withheld Tax Percentage")
	if err != nil {
		return err
	}
	withheldAmount, err := r.decimal("Dividend Withheld Tax Amount")
	if err != nil {
		return err
	}

	// Freetrade does not round dividends consistently, so the recomputed
	// amount is allowed to differ from the reported one by a penny.
	hundred := decimal.New(100, 0)
	calculated := perShare.Mul(eligible).
		Mul(hundred.Sub(withheldPct).Div(hundred)).
		Mul(baseFxRate).
		RoundDown(2)
	if calculated.Sub(total.Amount()).Abs().GreaterThan(pennyTolerance) {
		return r.errorf("total %s does not match calculated amount %s",
			total.Amount(), calculated)
	}

	withheld := cgt.M(withheldAmount.Mul(baseFxRate), "GBP")
	result.Dividends = append(result.Dividends, cgt.Dividend{
		Tx: cgt.Tx{
			Timestamp: timestamp,
			ISIN:      r.get("ISIN"),
			Ticker:    r.get("Ticker"),
			Name:      r.get("Title"),
			Total:     total,
		},
		Withheld: &withheld,
	})
	return nil
}

func (p freetrade) parseTransfer(r record, typ string, result *Result) error {
	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Timestamp"))
	if err != nil {
		return r.errorf("%v", err)
	}

	if typ == "WITHDRAW" {
		total = total.Abs().Neg()
	}
	result.Transfers = append(result.Transfers, cgt.Transfer{
		Tx: cgt.Tx{Timestamp: timestamp, Total: total},
	})
	return nil
}

func (p freetrade) parseInterest(r record, result *Result) error {
	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Timestamp"))
	if err != nil {
		return r.errorf("%v", err)
	}

	result.Interest = append(result.Interest, cgt.Interest{
		Tx: cgt.Tx{Timestamp: timestamp, Total: total},
	})
	return nil
}
