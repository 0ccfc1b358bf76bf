package authz

// Permission names. These are the lookup keys route declarations use; the
// numeric IDs next to them are persisted inside role grants and must stay
// stable (see package doc).
const (
	PermDataUpload = "Data Upload"

	PermManagementIncent   = "Management Incent"
	PermPastYearAnalysis   = "Past Year Analysis"
	PermNextYearAnalysis   = "Next Year Analysis"
	PermAchievementTargets = "Achievement Targets"

	PermSettings        = "Settings"
	PermCompanySetup    = "Company Setup"
	PermProfileSettings = "Profile Settings"

	PermSalesManagement = "Sales Management"
	PermSale            = "Sale"
	PermSaleItems       = "Sale Items"
	PermSalesReports    = "Sales Reports"

	PermExpenseManagement = "Expense Management"
	PermAddExpense        = "Add Expense"
	PermViewExpenses      = "View Expenses"
	PermExpenseReports    = "Expense Reports"

	PermProductionManagement = "Production Management"
	PermProduction           = "Production"
	PermProductionItems      = "Production Items"
	PermProductionReports    = "Production Reports"

	PermInventoryManagement = "Inventory Management"
	PermItems               = "Items"
	PermStockList           = "Stock List"
	PermStockReports        = "Stock Reports"

	PermBankManagement   = "Bank Management"
	PermBankAccounts     = "Bank Accounts"
	PermBankTransactions = "Bank Transactions"
	PermBankReports      = "Bank Reports"

	PermLoanManagement   = "Loan Management"
	PermAddLoan          = "Add Loan"
	PermLoanInstallments = "Loan Installments"
	PermLoanReports      = "Loan Reports"

	PermCreditorsManagement = "Creditors Management"
	PermSuppliers           = "Suppliers"
	PermCreditorsList       = "Creditors List"

	PermDebtorsManagement = "Debtors Management"
	PermCustomers         = "Customers"
	PermDebtorsList       = "Debtors List"

	PermReports       = "Reports"
	PermProfitReports = "Profit Reports"

	PermUserManagement       = "User Management"
	PermUserAccountSetup     = "User Account Setup"
	PermUserRolesManagement  = "User Roles Management"
)

// DefaultSections declares every permission with its stable ID.
func DefaultSections() []Section {
	return []Section{
		{Name: PermDataUpload, ID: 1000},
		{Name: PermManagementIncent, ID: 1100, Children: []Definition{
			{Name: PermPastYearAnalysis, ID: 1101},
			{Name: PermNextYearAnalysis, ID: 1102},
			{Name: PermAchievementTargets, ID: 1103},
		}},
		{Name: PermSettings, ID: 1200, Children: []Definition{
			{Name: PermCompanySetup, ID: 1201},
			{Name: PermProfileSettings, ID: 1202},
		}},
		{Name: PermSalesManagement, ID: 1300, Children: []Definition{
			{Name: PermSale, ID: 1301},
			{Name: PermSaleItems, ID: 1302},
			{Name: PermSalesReports, ID: 1303},
		}},
		{Name: PermExpenseManagement, ID: 1400, Children: []Definition{
			{Name: PermAddExpense, ID: 1401},
			{Name: PermViewExpenses, ID: 1402},
			{Name: PermExpenseReports, ID: 1403},
		}},
		{Name: PermProductionManagement, ID: 1500, Children: []Definition{
			{Name: PermProduction, ID: 1501},
			{Name: PermProductionItems, ID: 1502},
			{Name: PermProductionReports, ID: 1503},
		}},
		{Name: PermInventoryManagement, ID: 1600, Children: []Definition{
			{Name: PermItems, ID: 1601},
			{Name: PermStockList, ID: 1602},
			{Name: PermStockReports, ID: 1603},
		}},
		{Name: PermBankManagement, ID: 1700, Children: []Definition{
			{Name: PermBankAccounts, ID: 1701},
			{Name: PermBankTransactions, ID: 1702},
			{Name: PermBankReports, ID: 1703},
		}},
		{Name: PermLoanManagement, ID: 1800, Children: []Definition{
			{Name: PermAddLoan, ID: 1801},
			{Name: PermLoanInstallments, ID: 1802},
			{Name: PermLoanReports, ID: 1803},
		}},
		{Name: PermCreditorsManagement, ID: 1900, Children: []Definition{
			{Name: PermSuppliers, ID: 1901},
			{Name: PermCreditorsList, ID: 1902},
		}},
		{Name: PermDebtorsManagement, ID: 2000, Children: []Definition{
			{Name: PermCustomers, ID: 2001},
			{Name: PermDebtorsList, ID: 2002},
		}},
		{Name: PermReports, ID: 2100, Children: []Definition{
			{Name: PermProfitReports, ID: 2101},
		}},
		{Name: PermUserManagement, ID: 2200, Children: []Definition{
			{Name: PermUserAccountSetup, ID: 2201},
			{Name: PermUserRolesManagement, ID: 2202},
		}},
	}
}

// DefaultRegistry builds the registry from DefaultSections. Construction is
// checked in main and in tests; a duplicate here should never reach runtime.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultSections())
}
