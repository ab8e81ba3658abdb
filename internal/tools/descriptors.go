package tools

// Tool names
const (
	AddExpense        = "add_expense"
	EditExpense       = "edit_expense"
	DeleteExpense     = "delete_expense"
	ListExpenses      = "list_expenses"
	SummarizeExpenses = "summarize_expenses"
	AddIncome         = "add_income"
	ListIncome        = "list_income"
	NetSummary        = "net_summary"
)

// ParamType is the JSON type a tool parameter accepts.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
)

type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
}

// Descriptor describes a tool to protocol adapters.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

var (
	startDateParam = Param{Name: "start_date", Type: TypeString, Required: true, Description: "Inclusive start date (YYYY-MM-DD)"}
	endDateParam   = Param{Name: "end_date", Type: TypeString, Required: true, Description: "Inclusive end date (YYYY-MM-DD)"}
	expenseIDParam = Param{Name: "expense_id", Type: TypeInteger, Required: true, Description: "Expense id (whole number)"}
)

var descriptors = []Descriptor{
	{
		Name:        AddExpense,
		Description: "Add a new expense entry. Date format: YYYY-MM-DD.",
		Params: []Param{
			{Name: "date", Type: TypeString, Required: true, Description: "Expense date (YYYY-MM-DD)"},
			{Name: "amount", Type: TypeNumber, Required: true, Description: "Amount spent"},
			{Name: "category", Type: TypeString, Required: true, Description: "Expense category"},
			{Name: "subcategory", Type: TypeString, Description: "Optional subcategory"},
			{Name: "note", Type: TypeString, Description: "Optional note"},
		},
	},
	{
		Name:        EditExpense,
		Description: "Edit an existing expense by ID.",
		Params: []Param{
			expenseIDParam,
			{Name: "date", Type: TypeString, Description: "New date (YYYY-MM-DD)"},
			{Name: "amount", Type: TypeNumber, Description: "New amount"},
			{Name: "category", Type: TypeString, Description: "New category"},
			{Name: "subcategory", Type: TypeString, Description: "New subcategory"},
			{Name: "note", Type: TypeString, Description: "New note"},
		},
	},
	{
		Name:        DeleteExpense,
		Description: "Delete an expense by ID.",
		Params:      []Param{expenseIDParam},
	},
	{
		Name:        ListExpenses,
		Description: "List all expenses between start_date and end_date (YYYY-MM-DD).",
		Params:      []Param{startDateParam, endDateParam},
	},
	{
		Name:        SummarizeExpenses,
		Description: "Summarize expenses by category.",
		Params:      []Param{startDateParam, endDateParam},
	},
	{
		Name:        AddIncome,
		Description: "Add income (salary, freelance, etc).",
		Params: []Param{
			{Name: "date", Type: TypeString, Required: true, Description: "Income date (YYYY-MM-DD)"},
			{Name: "amount", Type: TypeNumber, Required: true, Description: "Amount received"},
			{Name: "source", Type: TypeString, Required: true, Description: "Income source"},
			{Name: "note", Type: TypeString, Description: "Optional note"},
		},
	},
	{
		Name:        ListIncome,
		Description: "List income between dates.",
		Params:      []Param{startDateParam, endDateParam},
	},
	{
		Name:        NetSummary,
		Description: "Calculate total income, total expense, and net balance.",
		Params:      []Param{startDateParam, endDateParam},
	},
}
