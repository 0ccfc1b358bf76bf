package nav

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/routes"
)

func noop(w http.ResponseWriter, r *http.Request) {}

// tableForMenu declares a GET route for every menu href so Validate passes
// and Build has permissions to derive.
func tableForMenu(t *testing.T) *routes.Table {
	t.Helper()
	table := routes.NewTable()
	perms := map[string]string{
		"/api/dashboard":            "",
		"/api/uploads":              authz.PermDataUpload,
		"/api/planning/past-year":   authz.PermPastYearAnalysis,
		"/api/planning/forecast":    authz.PermNextYearAnalysis,
		"/api/planning/targets":     authz.PermAchievementTargets,
		"/api/sales":                authz.PermSale,
		"/api/sale-items":           authz.PermSaleItems,
		"/api/sales/report":         authz.PermSalesReports,
		"/api/expenses":             authz.PermViewExpenses,
		"/api/expenses/report":      authz.PermExpenseReports,
		"/api/productions":          authz.PermProduction,
		"/api/production-items":     authz.PermProductionItems,
		"/api/productions/report":   authz.PermProductionReports,
		"/api/items":                authz.PermItems,
		"/api/stocks":               authz.PermStockList,
		"/api/stocks/report":        authz.PermStockReports,
		"/api/bank-accounts":        authz.PermBankAccounts,
		"/api/bank-transactions":    authz.PermBankTransactions,
		"/api/bank-accounts/report": authz.PermBankReports,
		"/api/loans":                authz.PermAddLoan,
		"/api/loan-installments":    authz.PermLoanInstallments,
		"/api/loans/report":         authz.PermLoanReports,
		"/api/suppliers":            authz.PermSuppliers,
		"/api/creditors":            authz.PermCreditorsList,
		"/api/customers":            authz.PermCustomers,
		"/api/debtors":              authz.PermDebtorsList,
		"/api/reports/profit":       authz.PermProfitReports,
		"/api/company":              authz.PermCompanySetup,
		"/api/profile":              authz.PermProfileSettings,
		"/api/users":                authz.PermUserAccountSetup,
		"/api/roles":                authz.PermUserRolesManagement,
	}
	for path, perm := range perms {
		table.Add(routes.Route{Method: http.MethodGet, Path: path, Permission: perm, Handler: noop})
	}
	return table
}

func TestValidateAcceptsFullTable(t *testing.T) {
	require.NoError(t, Validate(tableForMenu(t)))
}

func TestValidateRejectsDanglingHref(t *testing.T) {
	table := routes.NewTable()
	table.Add(routes.Route{Method: http.MethodGet, Path: "/api/dashboard", Handler: noop})
	err := Validate(table)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undeclared route")
}

func TestBuildHidesDeniedSectionsEntirely(t *testing.T) {
	table := tableForMenu(t)
	entries := Build(table, func(permission string) bool { return false })

	// Only the unrestricted dashboard survives an empty permission set.
	require.Len(t, entries, 1)
	require.Equal(t, "Dashboard", entries[0].Title)
	for _, entry := range entries {
		requireNoHref(t, entry, "/api/roles")
		requireNoHref(t, entry, "/api/users")
	}
}

func TestBuildShowsSetupSectionWithChildrenInOrder(t *testing.T) {
	table := tableForMenu(t)
	granted := map[string]bool{
		authz.PermCompanySetup:        true,
		authz.PermProfileSettings:     true,
		authz.PermUserAccountSetup:    true,
		authz.PermUserRolesManagement: true,
	}
	entries := Build(table, func(permission string) bool { return granted[permission] })

	var setup *Entry
	for i := range entries {
		if entries[i].Title == "Setup" {
			setup = &entries[i]
		}
	}
	require.NotNil(t, setup)
	titles := make([]string, len(setup.Children))
	for i, child := range setup.Children {
		titles[i] = child.Title
	}
	require.Equal(t, []string{"Company Setup", "Profile Settings", "Users", "Roles"}, titles)
}

func TestBuildFiltersChildrenIndividually(t *testing.T) {
	table := tableForMenu(t)
	granted := map[string]bool{authz.PermSale: true}
	entries := Build(table, func(permission string) bool { return granted[permission] })

	var sales *Entry
	for i := range entries {
		if entries[i].Title == "Sales Management" {
			sales = &entries[i]
		}
	}
	require.NotNil(t, sales)
	require.Len(t, sales.Children, 1)
	require.Equal(t, "/api/sales", sales.Children[0].Href)
}

func requireNoHref(t *testing.T, entry Entry, href string) {
	t.Helper()
	require.NotEqual(t, href, entry.Href)
	for _, child := range entry.Children {
		requireNoHref(t, child, href)
	}
}
