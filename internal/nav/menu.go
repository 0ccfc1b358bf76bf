// Package nav builds the sidebar menu for the current user. Entry gating is
// derived from the route table: an entry is shown only when the user holds
// the permission its route declares, so the menu and the guard can never
// disagree about what a user may open.
package nav

import (
	"fmt"
	"net/http"

	"github.com/tallybook/tallybook/internal/routes"
)

// Entry is one sidebar node. A parent with children carries no href of its
// own; leaves point at the GET route backing the screen.
type Entry struct {
	Title    string  `json:"title"`
	Href     string  `json:"href,omitempty"`
	Icon     string  `json:"icon,omitempty"`
	Children []Entry `json:"children,omitempty"`
}

// item declares a leaf before permission filtering.
type item struct {
	title string
	href  string
}

// section declares a top-level menu group.
type section struct {
	title string
	icon  string
	href  string // leaf sections only
	items []item
}

// menu is the full declared tree, in display order. Hrefs must resolve in
// the route table; Validate enforces that at startup so a stale entry cannot
// point at a route that no longer exists.
func menu() []section {
	return []section{
		{title: "Dashboard", icon: "gauge", href: "/api/dashboard"},
		{title: "Data Upload", icon: "upload", href: "/api/uploads"},
		{title: "Management Incent", icon: "target", items: []item{
			{title: "Past Year Analysis", href: "/api/planning/past-year"},
			{title: "Next Year Forecast", href: "/api/planning/forecast"},
			{title: "Achievement Targets", href: "/api/planning/targets"},
		}},
		{title: "Sales Management", icon: "receipt", items: []item{
			{title: "Sales", href: "/api/sales"},
			{title: "Sale Items", href: "/api/sale-items"},
			{title: "Sales Report", href: "/api/sales/report"},
		}},
		{title: "Expense Management", icon: "wallet", items: []item{
			{title: "Expenses", href: "/api/expenses"},
			{title: "Expense Report", href: "/api/expenses/report"},
		}},
		{title: "Production Management", icon: "factory", items: []item{
			{title: "Productions", href: "/api/productions"},
			{title: "Production Items", href: "/api/production-items"},
			{title: "Production Report", href: "/api/productions/report"},
		}},
		{title: "Inventory Management", icon: "boxes", items: []item{
			{title: "Items", href: "/api/items"},
			{title: "Stock List", href: "/api/stocks"},
			{title: "Stock Report", href: "/api/stocks/report"},
		}},
		{title: "Bank Management", icon: "landmark", items: []item{
			{title: "Bank Accounts", href: "/api/bank-accounts"},
			{title: "Bank Transactions", href: "/api/bank-transactions"},
			{title: "Bank Report", href: "/api/bank-accounts/report"},
		}},
		{title: "Loan Management", icon: "hand-coins", items: []item{
			{title: "Loans", href: "/api/loans"},
			{title: "Loan Installments", href: "/api/loan-installments"},
			{title: "Loan Report", href: "/api/loans/report"},
		}},
		{title: "Creditors Management", icon: "truck", items: []item{
			{title: "Suppliers", href: "/api/suppliers"},
			{title: "Creditors", href: "/api/creditors"},
		}},
		{title: "Debtors Management", icon: "users", items: []item{
			{title: "Customers", href: "/api/customers"},
			{title: "Debtors", href: "/api/debtors"},
		}},
		{title: "Reports", icon: "chart-line", items: []item{
			{title: "Profit Report", href: "/api/reports/profit"},
		}},
		{title: "Setup", icon: "settings", items: []item{
			{title: "Company Setup", href: "/api/company"},
			{title: "Profile Settings", href: "/api/profile"},
			{title: "Users", href: "/api/users"},
			{title: "Roles", href: "/api/roles"},
		}},
	}
}

// Build produces the menu for a user. allowed answers "does the user hold
// this permission name"; routes without a permission are visible to any
// authenticated user. A section whose children are all denied is fully
// absent, so no child hrefs leak.
func Build(table *routes.Table, allowed func(permission string) bool) []Entry {
	var entries []Entry
	for _, sec := range menu() {
		if sec.href != "" {
			if visible(table, sec.href, allowed) {
				entries = append(entries, Entry{Title: sec.title, Href: sec.href, Icon: sec.icon})
			}
			continue
		}
		var children []Entry
		for _, it := range sec.items {
			if visible(table, it.href, allowed) {
				children = append(children, Entry{Title: it.title, Href: it.href})
			}
		}
		if len(children) > 0 {
			entries = append(entries, Entry{Title: sec.title, Icon: sec.icon, Children: children})
		}
	}
	return entries
}

// Validate checks every declared href against the route table. Run at
// startup next to the table's own validation.
func Validate(table *routes.Table) error {
	for _, sec := range menu() {
		hrefs := []string{}
		if sec.href != "" {
			hrefs = append(hrefs, sec.href)
		}
		for _, it := range sec.items {
			hrefs = append(hrefs, it.href)
		}
		for _, href := range hrefs {
			if _, ok := table.PermissionFor(http.MethodGet, href); !ok {
				return fmt.Errorf("nav: menu entry %q points at undeclared route %s", sec.title, href)
			}
		}
	}
	return nil
}

func visible(table *routes.Table, href string, allowed func(string) bool) bool {
	perm, ok := table.PermissionFor(http.MethodGet, href)
	if !ok {
		return false
	}
	if perm == "" {
		return true
	}
	return allowed(perm)
}
