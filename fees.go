package cgt

// Fees breaks down the fees paid on an order. Each component is optional:
// a nil field means the fee does not apply to the order, which is not the
// same as a zero fee. Arithmetic preserves that distinction so that derived
// orders (splits, merges) keep an honest fee breakdown.
type Fees struct {
	Currency  string
	StampDuty *Money // UK stamp duty
	Forex     *Money // currency conversion fee
	Finra     *Money // FINRA trading activity fee (US)
	SEC       *Money // SEC fee (US)
}

// Total returns the sum of the fees that are present, or a zero amount of
// the fees' currency when none is.
func (f Fees) Total() Money {
	total := M(0, f.Currency)
	for _, m := range []*Money{f.StampDuty, f.Forex, f.Finra, f.SEC} {
		if m != nil {
			total = total.Add(*m)
		}
	}
	return total
}

// Add returns the component-wise sum of two fee breakdowns. An absent
// component stays absent only when absent on both sides.
func (f Fees) Add(g Fees) Fees {
	return Fees{
		Currency:  feeCur(f, g),
		StampDuty: addOpt(f.StampDuty, g.StampDuty),
		Forex:     addOpt(f.Forex, g.Forex),
		Finra:     addOpt(f.Finra, g.Finra),
		SEC:       addOpt(f.SEC, g.SEC),
	}
}

// Sub returns the component-wise difference of two fee breakdowns.
func (f Fees) Sub(g Fees) Fees {
	return Fees{
		Currency:  feeCur(f, g),
		StampDuty: subOpt(f.StampDuty, g.StampDuty),
		Forex:     subOpt(f.Forex, g.Forex),
		Finra:     subOpt(f.Finra, g.Finra),
		SEC:       subOpt(f.SEC, g.SEC),
	}
}

// Mul scales every present component by q.
func (f Fees) Mul(q Quantity) Fees {
	return f.apply(func(m Money) Money { return m.Mul(q) })
}

// Div divides every present component by q.
func (f Fees) Div(q Quantity) Fees {
	return f.apply(func(m Money) Money { return m.Div(q) })
}

// DropForex returns a copy with the currency conversion fee removed.
func (f Fees) DropForex() Fees {
	f.Forex = nil
	return f
}

// Equal reports whether two fee breakdowns have the same present components
// with equal amounts.
func (f Fees) Equal(g Fees) bool {
	return f.Currency == g.Currency &&
		eqOpt(f.StampDuty, g.StampDuty) &&
		eqOpt(f.Forex, g.Forex) &&
		eqOpt(f.Finra, g.Finra) &&
		eqOpt(f.SEC, g.SEC)
}

func (f Fees) apply(op func(Money) Money) Fees {
	g := Fees{Currency: f.Currency}
	if f.StampDuty != nil {
		m := op(*f.StampDuty)
		g.StampDuty = &m
	}
	if f.Forex != nil {
		m := op(*f.Forex)
		g.Forex = &m
	}
	if f.Finra != nil {
		m := op(*f.Finra)
		g.Finra = &m
	}
	if f.SEC != nil {
		m := op(*f.SEC)
		g.SEC = &m
	}
	return g
}

func addOpt(a, b *Money) *Money {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		m := *b
		return &m
	case b == nil:
		m := *a
		return &m
	default:
		m := a.Add(*b)
		return &m
	}
}

func subOpt(a, b *Money) *Money {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		m := b.Neg()
		return &m
	case b == nil:
		m := *a
		return &m
	default:
		m := a.Sub(*b)
		return &m
	}
}

func eqOpt(a, b *Money) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func feeCur(f, g Fees) string {
	if f.Currency == "" {
		return g.Currency
	}
	return f.Currency
}
