package parse

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ukshares/cgt"
)

func init() { Register(trading212{}) }

// trading212 reads the CSV statements Trading 212 exports from its history
// screen. Column order varies with the export options, so the format is
// recognized by the set of column names rather than their position.
type trading212 struct{}

var t212InitialFields = []string{"Action", "Time"}

var t212MandatoryFields = []string{"Total", "Currency (Total)", "Notes", "ID"}

var t212OptionalFields = []string{
	"ISIN",
	"Ticker",
	"Name",
	"No. of shares",
	"Price / share",
	"Currency (Price / share)",
	"Exchange rate",
	"Currency (Result)",
	"Result",
	"Withholding tax",
	"Currency (Withholding tax)",
	"Currency conversion from amount",
	"Currency (Currency conversion from amount)",
	"Currency conversion to amount",
	"Currency (Currency conversion to amount)",
	"Currency conversion fee",
	"Currency (Currency conversion fee)",
	"Finra fee (GBP)",
	"Stamp duty (GBP)",
	"Merchant name",
	"Merchant category",
}

func (trading212) Name() string { return "Trading212" }

func (trading212) CanParse(header []string) bool {
	if len(header) < len(t212InitialFields) {
		return false
	}
	if !slices.Equal(header[:len(t212InitialFields)], t212InitialFields) {
		return false
	}
	rest := header[len(t212InitialFields):]
	for _, f := range t212MandatoryFields {
		if !slices.Contains(rest, f) {
			return false
		}
	}
	for _, f := range rest {
		if !slices.Contains(t212MandatoryFields, f) && !slices.Contains(t212OptionalFields, f) {
			return false
		}
	}
	return true
}

func (p trading212) Parse(path string, cfg Config) (*Result, error) {
	result := &Result{}
	err := forEachRow(path, func(r record) error {
		var err error
		switch action := r.get("Action"); action {
		case "Market buy", "Limit buy":
			err = p.parseOrder(r, cgt.Acquire, result)
		case "Market sell", "Limit sell":
			err = p.parseOrder(r, cgt.Dispose, result)
		case "Dividend (Ordinary)",
			"Dividend (Dividend)",
			"Dividend (Dividends paid by us corporations)",
			"Dividend (Dividends paid by foreign corporations)":
			err = p.parseDividend(r, result)
		case "Deposit", "Withdrawal":
			err = p.parseTransfer(r, action, result)
		case "Interest on cash":
			err = p.parseInterest(r, result)
		case "Card debit", "Spending cashback", "Currency conversion":
			// Not relevant for tax purposes.
		default:
			err = r.errorf("unrecognized action %q", action)
		}
		if err != nil {
			return badRow(cfg, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// total reads the row's Total field, which must be in sterling.
func (trading212) total(r record) (cgt.Money, error) {
	if cur := r.get("Currency (Total)"); cur != "GBP" {
		return cgt.Money{}, r.errorf("total in %q, only GBP accounts are supported", cur)
	}
	amount, err := r.decimal("Total")
	if err != nil {
		return cgt.Money{}, err
	}
	return cgt.M(amount, "GBP"), nil
}

func (p trading212) parseOrder(r record, side cgt.Side, result *Result) error {
	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Time"))
	if err != nil {
		return r.errorf("%v", err)
	}

	quantity, err := r.decimal("No. of shares")
	if err != nil {
		return err
	}
	price, err := r.decimal("Price / share")
	if err != nil {
		return err
	}
	rate, err := r.decimal("Exchange rate")
	if err != nil {
		return err
	}
	stampDuty, err := r.decimal("Stamp duty (GBP)")
	if err != nil {
		return err
	}
	finraFee, err := r.decimal("Finra fee (GBP)")
	if err != nil {
		return err
	}
	forexFee, err := r.decimal("Currency conversion fee")
	if err != nil {
		return err
	}

	if !stampDuty.IsZero() && (!forexFee.IsZero() || !finraFee.IsZero()) {
		return r.errorf("stamp duty combined with other fees")
	}
	if !forexFee.IsZero() {
		if cur := r.get("Currency (Currency conversion fee)"); cur != "GBP" {
			return r.errorf("currency conversion fee in %q, expected GBP", cur)
		}
	}

	// The broker's Total is the cash that moved: share cost plus fees on a
	// buy, share proceeds minus fees on a sell. Recompute it from the trade
	// details and reject the row if they disagree by more than a penny.
	fees := stampDuty.Add(finraFee).Add(forexFee)
	if rate.IsZero() {
		rate = decimal.New(1, 0)
	}
	shares := price.Mul(quantity).Round(2).Div(rate)
	calculated := shares.Add(fees)
	if side == cgt.Dispose {
		calculated = shares.Sub(fees)
	}
	if calculated.Round(2).Sub(total.Amount()).Abs().GreaterThan(pennyTolerance) {
		return r.errorf("total %s does not match calculated amount %s",
			total.Amount(), calculated.Round(2))
	}

	priceCur := r.get("Currency (Price / share)")
	if priceCur == "" {
		priceCur = "GBP"
	}

	order := cgt.Order{
		Tx: cgt.Tx{
			Timestamp: timestamp,
			ISIN:      r.get("ISIN"),
			Ticker:    r.get("Ticker"),
			Name:      r.get("Name"),
			Total:     total,
		},
		Side:     side,
		Quantity: cgt.Q(quantity),
		Price:    cgt.M(price, priceCur),
		Fees:     feesGBP(stampDuty, forexFee, finraFee),
	}
	if err := order.Validate(); err != nil {
		return r.errorf("%v", err)
	}
	result.Orders = append(result.Orders, order)
	return nil
}

func (p trading212) parseDividend(r record, result *Result) error {
	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Time"))
	if err != nil {
		return r.errorf("%v", err)
	}

	if fee := r.get("Currency conversion fee"); fee != "" {
		return r.errorf("dividend with a currency conversion fee")
	}
	if shareCur, taxCur := r.get("Currency (Price / share)"), r.get("Currency (Withholding tax)"); shareCur != taxCur {
		return r.errorf("share price in %q but tax withheld in %q", shareCur, taxCur)
	}

	result.Dividends = append(result.Dividends, cgt.Dividend{
		Tx: cgt.Tx{
			Timestamp: timestamp,
			ISIN:      r.get("ISIN"),
			Ticker:    r.get("Ticker"),
			Name:      r.get("Name"),
			Total:     total,
		},
	})
	return nil
}

func (p trading212) parseTransfer(r record, action string, result *Result) error {
	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Time"))
	if err != nil {
		return r.errorf("%v", err)
	}

	if action == "Withdrawal" {
		total = total.Abs().Neg()
	}
	result.Transfers = append(result.Transfers, cgt.Transfer{
		Tx: cgt.Tx{Timestamp: timestamp, Total: total},
	})
	return nil
}

func (p trading212) parseInterest(r record, result *Result) error {
	total, err := p.total(r)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(r.get("Time"))
	if err != nil {
		return r.errorf("%v", err)
	}

	result.Interest = append(result.Interest, cgt.Interest{
		Tx: cgt.Tx{Timestamp: timestamp, Total: total},
	})
	return nil
}

// feesGBP builds the fee breakdown from the sterling amounts the statement
// reports, leaving zero components absent.
func feesGBP(stampDuty, forex, finra decimal.Decimal) cgt.Fees {
	fees := cgt.Fees{Currency: "GBP"}
	if !stampDuty.IsZero() {
		m := cgt.M(stampDuty, "GBP")
		fees.StampDuty = &m
	}
	if !forex.IsZero() {
		m := cgt.M(forex, "GBP")
		fees.Forex = &m
	}
	if !finra.IsZero() {
		m := cgt.M(finra, "GBP")
		fees.Finra = &m
	}
	return fees
}
