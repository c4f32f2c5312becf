package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vzolin/cashplan-service/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO cashplan.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM cashplan.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateAccount creates a new cash account
func (r *Repository) CreateAccount(account *models.Account) error {
	query := `
		INSERT INTO cashplan.accounts (id, name, balance, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRow(query, account.ID, account.Name, account.Balance).Scan(&account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// ListAccounts returns all cash accounts
func (r *Repository) ListAccounts() ([]models.Account, error) {
	query := `
		SELECT id, name, balance, created_at
		FROM cashplan.accounts
		ORDER BY created_at`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount updates an account's name and balance
func (r *Repository) UpdateAccount(account *models.Account) error {
	query := `
		UPDATE cashplan.accounts
		SET name = $2, balance = $3
		WHERE id = $1`
	res, err := r.db.Exec(query, account.ID, account.Name, account.Balance)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account not found")
	}
	return nil
}

// DeleteAccount removes an account
func (r *Repository) DeleteAccount(id string) error {
	if _, err := r.db.Exec(`DELETE FROM cashplan.accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// CreateCounterparty creates a new counterparty
func (r *Repository) CreateCounterparty(c *models.Counterparty) error {
	query := `
		INSERT INTO cashplan.counterparties (id, name, notes, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING created_at`
	if err := r.db.QueryRow(query, c.ID, c.Name, c.Notes).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create counterparty: %w", err)
	}
	return nil
}

// ListCounterparties returns all counterparties
func (r *Repository) ListCounterparties() ([]models.Counterparty, error) {
	rows, err := r.db.Query(`
		SELECT id, name, notes, created_at
		FROM cashplan.counterparties
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list counterparties: %w", err)
	}
	defer rows.Close()

	list := []models.Counterparty{}
	for rows.Next() {
		var c models.Counterparty
		if err := rows.Scan(&c.ID, &c.Name, &c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan counterparty: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CreateSupplier creates a new supplier
func (r *Repository) CreateSupplier(s *models.Supplier) error {
	query := `
		INSERT INTO cashplan.suppliers (id, name, contact, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING created_at`
	if err := r.db.QueryRow(query, s.ID, s.Name, s.Contact).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

// ListSuppliers returns all suppliers
func (r *Repository) ListSuppliers() ([]models.Supplier, error) {
	rows, err := r.db.Query(`
		SELECT id, name, contact, created_at
		FROM cashplan.suppliers
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	list := []models.Supplier{}
	for rows.Next() {
		var s models.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Contact, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreatePayment creates a new incoming payment
func (r *Repository) CreatePayment(p *models.IncomingPayment) error {
	query := `
		INSERT INTO cashplan.incoming_payments (id, counterparty, amount, expected_date, kind, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRow(query, p.ID, p.Counterparty, p.Amount, p.ExpectedDate, p.Kind, p.Notes).
		Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// ListPayments returns all incoming payments
func (r *Repository) ListPayments() ([]models.IncomingPayment, error) {
	rows, err := r.db.Query(`
		SELECT id, counterparty, amount, expected_date, kind, notes, created_at
		FROM cashplan.incoming_payments
		ORDER BY expected_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	list := []models.IncomingPayment{}
	for rows.Next() {
		var p models.IncomingPayment
		if err := rows.Scan(&p.ID, &p.Counterparty, &p.Amount, &p.ExpectedDate, &p.Kind, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdatePayment updates an incoming payment
func (r *Repository) UpdatePayment(p *models.IncomingPayment) error {
	query := `
		UPDATE cashplan.incoming_payments
		SET counterparty = $2, amount = $3, expected_date = $4, kind = $5, notes = $6
		WHERE id = $1`
	res, err := r.db.Exec(query, p.ID, p.Counterparty, p.Amount, p.ExpectedDate, p.Kind, p.Notes)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payment not found")
	}
	return nil
}

// DeletePayment removes an incoming payment
func (r *Repository) DeletePayment(id string) error {
	if _, err := r.db.Exec(`DELETE FROM cashplan.incoming_payments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return nil
}

// CreateOrder creates a new supplier order
func (r *Repository) CreateOrder(o *models.SupplierOrder) error {
	query := `
		INSERT INTO cashplan.supplier_orders
			(id, supplier_id, supplier_name, external_id, title, total_amount, deposit_amount,
			 deposit_paid, deposit_date, due_date, currency, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRow(query,
		o.ID, nullString(o.SupplierID), nullString(o.SupplierName), nullString(o.ExternalID),
		o.Title, o.TotalAmount, o.DepositAmount, o.DepositPaid,
		nullTime(o.DepositDate), nullTime(o.DueDate), o.Currency, o.Description).
		Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpsertImportedOrder inserts an imported order or refreshes an existing one
// matched by its external id
func (r *Repository) UpsertImportedOrder(o *models.SupplierOrder) error {
	query := `
		INSERT INTO cashplan.supplier_orders
			(id, supplier_id, supplier_name, external_id, title, total_amount, deposit_amount,
			 deposit_paid, deposit_date, due_date, currency, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, CURRENT_TIMESTAMP)
		ON CONFLICT (external_id) DO UPDATE SET
			supplier_name = EXCLUDED.supplier_name,
			title = EXCLUDED.title,
			total_amount = EXCLUDED.total_amount,
			deposit_amount = EXCLUDED.deposit_amount,
			deposit_paid = EXCLUDED.deposit_paid,
			deposit_date = EXCLUDED.deposit_date,
			due_date = EXCLUDED.due_date,
			currency = EXCLUDED.currency,
			description = EXCLUDED.description`
	_, err := r.db.Exec(query,
		o.ID, nullString(o.SupplierID), nullString(o.SupplierName), nullString(o.ExternalID),
		o.Title, o.TotalAmount, o.DepositAmount, o.DepositPaid,
		nullTime(o.DepositDate), nullTime(o.DueDate), o.Currency, o.Description)
	if err != nil {
		return fmt.Errorf("failed to upsert imported order: %w", err)
	}
	return nil
}

// ListOrders returns all supplier orders
func (r *Repository) ListOrders() ([]models.SupplierOrder, error) {
	rows, err := r.db.Query(`
		SELECT id, supplier_id, supplier_name, external_id, title, total_amount, deposit_amount,
		       deposit_paid, deposit_date, due_date, currency, description, created_at
		FROM cashplan.supplier_orders
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	list := []models.SupplierOrder{}
	for rows.Next() {
		var o models.SupplierOrder
		var supplierID, supplierName, externalID sql.NullString
		var depositDate, dueDate sql.NullTime
		err := rows.Scan(&o.ID, &supplierID, &supplierName, &externalID, &o.Title,
			&o.TotalAmount, &o.DepositAmount, &o.DepositPaid,
			&depositDate, &dueDate, &o.Currency, &o.Description, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.SupplierID = supplierID.String
		o.SupplierName = supplierName.String
		o.ExternalID = externalID.String
		o.DepositDate = depositDate.Time
		o.DueDate = dueDate.Time
		list = append(list, o)
	}
	return list, rows.Err()
}

// UpdateOrder updates a supplier order
func (r *Repository) UpdateOrder(o *models.SupplierOrder) error {
	query := `
		UPDATE cashplan.supplier_orders
		SET supplier_id = $2, supplier_name = $3, title = $4, total_amount = $5,
		    deposit_amount = $6, deposit_paid = $7, deposit_date = $8, due_date = $9,
		    currency = $10, description = $11
		WHERE id = $1`
	res, err := r.db.Exec(query, o.ID, nullString(o.SupplierID), nullString(o.SupplierName),
		o.Title, o.TotalAmount, o.DepositAmount, o.DepositPaid,
		nullTime(o.DepositDate), nullTime(o.DueDate), o.Currency, o.Description)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

// DeleteOrder removes a supplier order
func (r *Repository) DeleteOrder(id string) error {
	if _, err := r.db.Exec(`DELETE FROM cashplan.supplier_orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// CreateExpense creates a new planned expense
func (r *Repository) CreateExpense(e *models.PlannedExpense) error {
	query := `
		INSERT INTO cashplan.planned_expenses
			(id, title, amount, amount_primary, amount_secondary, day_primary, day_secondary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRow(query, e.ID, e.Title, e.Amount,
		e.AmountPrimary, e.AmountSecondary, e.DayPrimary, e.DaySecondary).
		Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// ListExpenses returns all planned expenses
func (r *Repository) ListExpenses() ([]models.PlannedExpense, error) {
	rows, err := r.db.Query(`
		SELECT id, title, amount, amount_primary, amount_secondary, day_primary, day_secondary, created_at
		FROM cashplan.planned_expenses
		ORDER BY day_primary`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	list := []models.PlannedExpense{}
	for rows.Next() {
		var e models.PlannedExpense
		err := rows.Scan(&e.ID, &e.Title, &e.Amount, &e.AmountPrimary, &e.AmountSecondary,
			&e.DayPrimary, &e.DaySecondary, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// UpdateExpense updates a planned expense
func (r *Repository) UpdateExpense(e *models.PlannedExpense) error {
	query := `
		UPDATE cashplan.planned_expenses
		SET title = $2, amount = $3, amount_primary = $4, amount_secondary = $5,
		    day_primary = $6, day_secondary = $7
		WHERE id = $1`
	res, err := r.db.Exec(query, e.ID, e.Title, e.Amount,
		e.AmountPrimary, e.AmountSecondary, e.DayPrimary, e.DaySecondary)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense not found")
	}
	return nil
}

// DeleteExpense removes a planned expense
func (r *Repository) DeleteExpense(id string) error {
	if _, err := r.db.Exec(`DELETE FROM cashplan.planned_expenses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// GetSettings returns the single settings row, or defaults if none exists
func (r *Repository) GetSettings() (*models.AppSettings, error) {
	s := &models.AppSettings{}
	err := r.db.QueryRow(`SELECT cny_rate FROM cashplan.settings WHERE id = 1`).Scan(&s.CNYRate)
	if err == sql.ErrNoRows {
		return &models.AppSettings{CNYRate: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// SaveSettings stores the settings row
func (r *Repository) SaveSettings(s *models.AppSettings) error {
	query := `
		INSERT INTO cashplan.settings (id, cny_rate)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET cny_rate = EXCLUDED.cny_rate`
	if _, err := r.db.Exec(query, s.CNYRate); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
