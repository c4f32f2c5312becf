package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vzolin/cashplan-service/internal/config"
	"github.com/vzolin/cashplan-service/internal/integrations/cbr"
	"github.com/vzolin/cashplan-service/internal/integrations/orderimport"
	"github.com/vzolin/cashplan-service/internal/middleware"
	"github.com/vzolin/cashplan-service/internal/models"
	"github.com/vzolin/cashplan-service/internal/planner"
	"github.com/vzolin/cashplan-service/internal/repository"
	"github.com/vzolin/cashplan-service/internal/utils/email"
)

// reminderWindowDays is how far ahead the reminder job looks for due
// order payments
const reminderWindowDays = 3

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	log      *logrus.Logger
	config   *config.Config
	rates    *cbr.CBRClient
	importer *orderimport.Client
	mailer   *email.Sender
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config,
	rates *cbr.CBRClient, importer *orderimport.Client, mailer *email.Sender) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		config:   cfg,
		rates:    rates,
		importer: importer,
		mailer:   mailer,
	}
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// CreateAccount creates a new cash account
func (s *Service) CreateAccount(name string, balance float64) (*models.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	account := &models.Account{
		ID:      uuid.New().String(),
		Name:    name,
		Balance: balance,
	}
	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}
	s.log.Infof("Account created: %s", account.Name)
	return account, nil
}

// ListAccounts returns all cash accounts
func (s *Service) ListAccounts() ([]models.Account, error) {
	return s.repo.ListAccounts()
}

// UpdateAccount updates an account's name and balance
func (s *Service) UpdateAccount(account *models.Account) error {
	if account.Name == "" {
		return fmt.Errorf("account name is required")
	}
	return s.repo.UpdateAccount(account)
}

// DeleteAccount removes an account
func (s *Service) DeleteAccount(id string) error {
	return s.repo.DeleteAccount(id)
}

// CreateCounterparty creates a new counterparty
func (s *Service) CreateCounterparty(name, notes string) (*models.Counterparty, error) {
	if name == "" {
		return nil, fmt.Errorf("counterparty name is required")
	}
	c := &models.Counterparty{ID: uuid.New().String(), Name: name, Notes: notes}
	if err := s.repo.CreateCounterparty(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCounterparties returns all counterparties
func (s *Service) ListCounterparties() ([]models.Counterparty, error) {
	return s.repo.ListCounterparties()
}

// CreateSupplier creates a new supplier
func (s *Service) CreateSupplier(name, contact string) (*models.Supplier, error) {
	if name == "" {
		return nil, fmt.Errorf("supplier name is required")
	}
	sup := &models.Supplier{ID: uuid.New().String(), Name: name, Contact: contact}
	if err := s.repo.CreateSupplier(sup); err != nil {
		return nil, err
	}
	return sup, nil
}

// ListSuppliers returns all suppliers
func (s *Service) ListSuppliers() ([]models.Supplier, error) {
	return s.repo.ListSuppliers()
}

// CreatePayment creates a new incoming payment
func (s *Service) CreatePayment(p *models.IncomingPayment) (*models.IncomingPayment, error) {
	if err := validatePayment(p); err != nil {
		return nil, err
	}
	p.ID = uuid.New().String()
	if err := s.repo.CreatePayment(p); err != nil {
		return nil, err
	}
	s.log.Infof("Payment created: %s from %s", p.ID, p.Counterparty)
	return p, nil
}

// ListPayments returns all incoming payments
func (s *Service) ListPayments() ([]models.IncomingPayment, error) {
	return s.repo.ListPayments()
}

// UpdatePayment updates an incoming payment
func (s *Service) UpdatePayment(p *models.IncomingPayment) error {
	if err := validatePayment(p); err != nil {
		return err
	}
	return s.repo.UpdatePayment(p)
}

// DeletePayment removes an incoming payment
func (s *Service) DeletePayment(id string) error {
	return s.repo.DeletePayment(id)
}

// CreateOrder creates a new supplier order
func (s *Service) CreateOrder(o *models.SupplierOrder) (*models.SupplierOrder, error) {
	if err := validateOrder(o); err != nil {
		return nil, err
	}
	o.ID = uuid.New().String()
	if err := s.repo.CreateOrder(o); err != nil {
		return nil, err
	}
	s.log.Infof("Order created: %s (%s)", o.Title, o.ID)
	return o, nil
}

// ListOrders returns all supplier orders
func (s *Service) ListOrders() ([]models.SupplierOrder, error) {
	return s.repo.ListOrders()
}

// UpdateOrder updates a supplier order
func (s *Service) UpdateOrder(o *models.SupplierOrder) error {
	if err := validateOrder(o); err != nil {
		return err
	}
	return s.repo.UpdateOrder(o)
}

// DeleteOrder removes a supplier order
func (s *Service) DeleteOrder(id string) error {
	return s.repo.DeleteOrder(id)
}

// CreateExpense creates a new planned expense
func (s *Service) CreateExpense(e *models.PlannedExpense) (*models.PlannedExpense, error) {
	if err := validateExpense(e); err != nil {
		return nil, err
	}
	e.ID = uuid.New().String()
	if err := s.repo.CreateExpense(e); err != nil {
		return nil, err
	}
	s.log.Infof("Expense created: %s (%s)", e.Title, e.ID)
	return e, nil
}

// ListExpenses returns all planned expenses
func (s *Service) ListExpenses() ([]models.PlannedExpense, error) {
	return s.repo.ListExpenses()
}

// UpdateExpense updates a planned expense
func (s *Service) UpdateExpense(e *models.PlannedExpense) error {
	if err := validateExpense(e); err != nil {
		return err
	}
	return s.repo.UpdateExpense(e)
}

// DeleteExpense removes a planned expense
func (s *Service) DeleteExpense(id string) error {
	return s.repo.DeleteExpense(id)
}

// GetSettings returns the application settings
func (s *Service) GetSettings() (*models.AppSettings, error) {
	return s.repo.GetSettings()
}

// UpdateSettings stores a new CNY rate
func (s *Service) UpdateSettings(settings *models.AppSettings) error {
	if settings.CNYRate <= 0 {
		return fmt.Errorf("cny rate must be positive")
	}
	return s.repo.SaveSettings(settings)
}

// loadSnapshot gathers all records the projection engine needs
func (s *Service) loadSnapshot() (planner.Snapshot, error) {
	accounts, err := s.repo.ListAccounts()
	if err != nil {
		return planner.Snapshot{}, err
	}
	payments, err := s.repo.ListPayments()
	if err != nil {
		return planner.Snapshot{}, err
	}
	orders, err := s.repo.ListOrders()
	if err != nil {
		return planner.Snapshot{}, err
	}
	expenses, err := s.repo.ListExpenses()
	if err != nil {
		return planner.Snapshot{}, err
	}
	settings, err := s.repo.GetSettings()
	if err != nil {
		return planner.Snapshot{}, err
	}
	return planner.Snapshot{
		Accounts: accounts,
		Payments: payments,
		Orders:   orders,
		Expenses: expenses,
		Settings: settings,
	}, nil
}

// BuildCashPlan projects the cash balance forward over the horizon
func (s *Service) BuildCashPlan(horizonDays int) (*models.CashPlanResult, error) {
	if horizonDays <= 0 {
		horizonDays = s.config.HorizonDays
	}
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	plan := planner.Build(snap, time.Now(), horizonDays)
	s.log.Debugf("Plan built: %d active days, cash gap %.2f", len(plan.Daily), plan.CashGap)
	return plan, nil
}

// BalanceOnDate returns the projected balance on the given date, or nil
// when the plan has no daily stats
func (s *Service) BalanceOnDate(date string) (*float64, error) {
	plan, err := s.BuildCashPlan(0)
	if err != nil {
		return nil, err
	}
	balance, ok := planner.BalanceOnDate(plan, date)
	if !ok {
		return nil, nil
	}
	return &balance, nil
}

// EvaluateOrderImpact runs a what-if simulation for a candidate order
func (s *Service) EvaluateOrderImpact(candidate *models.SupplierOrder) (*models.OrderImpact, error) {
	if err := validateOrder(candidate); err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	impact := planner.EvaluateOrderImpact(snap, *candidate, time.Now(), s.config.HorizonDays)
	return &impact, nil
}

// RefreshCNYRate pulls today's official CNY quote from CBR into settings
func (s *Service) RefreshCNYRate() error {
	rate, err := s.rates.GetCurrencyRate(planner.CurrencyCNY)
	if err != nil {
		return fmt.Errorf("failed to refresh CNY rate: %w", err)
	}
	if err := s.repo.SaveSettings(&models.AppSettings{CNYRate: rate}); err != nil {
		return err
	}
	s.log.Infof("CNY rate refreshed: %.4f", rate)
	return nil
}

// ImportOrders pulls open purchase orders from the external order system.
// Each run gets a fresh supplier-name cache.
func (s *Service) ImportOrders(ctx context.Context) (int, error) {
	if s.importer == nil || !s.importer.Enabled() {
		return 0, fmt.Errorf("order import is not configured")
	}
	if userID, ok := middleware.UserID(ctx); ok {
		s.log.Infof("Order import started by user %s", userID)
	}

	cache := orderimport.NewNameCache()
	orders, err := s.importer.FetchOrders(ctx, cache)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := range orders {
		orders[i].ID = uuid.New().String()
		if err := s.repo.UpsertImportedOrder(&orders[i]); err != nil {
			s.log.Errorf("Failed to store imported order %s: %v", orders[i].ExternalID, err)
			continue
		}
		imported++
	}
	s.log.Infof("Imported %d orders", imported)
	return imported, nil
}

// SendDueReminders emails upcoming order payments and a cash-gap alert to
// the configured address. Called by the morning cron job.
func (s *Service) SendDueReminders() error {
	if s.config.AlertEmail == "" || s.config.SMTPHost == "" {
		s.log.Debug("Reminders skipped: email is not configured")
		return nil
	}

	orders, err := s.repo.ListOrders()
	if err != nil {
		return err
	}

	now := time.Now()
	windowEnd := now.AddDate(0, 0, reminderWindowDays)
	for _, o := range orders {
		if !o.DepositPaid && o.DepositAmount > 0 && inWindow(o.DepositDate, now, windowEnd) {
			if err := s.mailer.SendPaymentReminder(s.config.AlertEmail, o.Title, o.DepositDate, o.DepositAmount, true); err != nil {
				s.log.Errorf("Deposit reminder for order %s failed: %v", o.ID, err)
			}
		}
		remainder := o.TotalAmount - o.DepositAmount
		if remainder > 0 && inWindow(o.DueDate, now, windowEnd) {
			if err := s.mailer.SendPaymentReminder(s.config.AlertEmail, o.Title, o.DueDate, remainder, false); err != nil {
				s.log.Errorf("Due reminder for order %s failed: %v", o.ID, err)
			}
		}
	}

	plan, err := s.BuildCashPlan(0)
	if err != nil {
		return err
	}
	if plan.CashGap > 0 {
		if err := s.mailer.SendCashGapAlert(s.config.AlertEmail, plan.CashGap, plan.MinBalance); err != nil {
			return err
		}
	}
	return nil
}

func inWindow(date, from, to time.Time) bool {
	return !date.IsZero() && !date.Before(from) && !date.After(to)
}

func validatePayment(p *models.IncomingPayment) error {
	if p.Counterparty == "" {
		return fmt.Errorf("counterparty is required")
	}
	if p.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if p.Kind != models.PaymentFixed && p.Kind != models.PaymentPlanned {
		return fmt.Errorf("kind must be %q or %q", models.PaymentFixed, models.PaymentPlanned)
	}
	if p.ExpectedDate.IsZero() {
		return fmt.Errorf("expected date is required")
	}
	return nil
}

func validateOrder(o *models.SupplierOrder) error {
	if o.Title == "" {
		return fmt.Errorf("order title is required")
	}
	if o.TotalAmount < 0 || o.DepositAmount < 0 {
		return fmt.Errorf("order amounts must not be negative")
	}
	if o.Currency != planner.CurrencyRUB && o.Currency != planner.CurrencyCNY {
		return fmt.Errorf("currency must be %q or %q", planner.CurrencyRUB, planner.CurrencyCNY)
	}
	return nil
}

func validateExpense(e *models.PlannedExpense) error {
	if e.Title == "" {
		return fmt.Errorf("expense title is required")
	}
	if e.Amount < 0 {
		return fmt.Errorf("expense amount must not be negative")
	}
	if e.DayPrimary < 1 || e.DayPrimary > 31 {
		return fmt.Errorf("day_primary must be between 1 and 31")
	}
	if e.DaySecondary != nil && (*e.DaySecondary < 1 || *e.DaySecondary > 31) {
		return fmt.Errorf("day_secondary must be between 1 and 31")
	}
	return nil
}
