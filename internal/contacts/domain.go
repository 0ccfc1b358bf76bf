package contacts

import "time"

// Kind distinguishes the four contact ledgers. Suppliers and customers are
// plain address books; creditors and debtors additionally carry an
// outstanding balance.
type Kind string

const (
	KindSupplier Kind = "supplier"
	KindCustomer Kind = "customer"
	KindCreditor Kind = "creditor"
	KindDebtor   Kind = "debtor"
)

// HasBalance reports whether this ledger tracks outstanding amounts.
func (k Kind) HasBalance() bool {
	return k == KindCreditor || k == KindDebtor
}

// Contact is one entry in a contact ledger.
type Contact struct {
	ID        int64
	Kind      Kind
	Name      string
	Phone     string
	Email     string
	Address   string
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Input carries the fields accepted on create and update.
type Input struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Balance float64
}
