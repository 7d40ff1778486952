package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users          map[string]*domain.User
	ByID           map[uuid.UUID]*domain.User
	CreateFn       func(auth0ID, email string, name *string) (*domain.User, error)
	GetByAuth0IDFn func(auth0ID string) (*domain.User, error)
	CreateCalls    int
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	if m.GetByAuth0IDFn != nil {
		return m.GetByAuth0IDFn(auth0ID)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, email string, name *string) (*domain.User, error) {
	m.CreateCalls++
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:        uuid.New(),
		Auth0ID:   auth0ID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.AddUser(user)
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository.
// It enforces the (owner, name) unique index like the real store.
type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories map[uuid.UUID]*domain.Category
	ByName     map[string]uuid.UUID

	// References, when set, blocks Delete the way the foreign key does
	References func(ownerID, categoryID uuid.UUID) int64

	CreateFn  func(category *domain.Category) (*domain.Category, error)
	GetByIDFn func(ownerID, id uuid.UUID) (*domain.Category, error)
	UpdateFn  func(category *domain.Category) (*domain.Category, error)
	DeleteFn  func(ownerID, id uuid.UUID) error
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID]*domain.Category),
		ByName:     make(map[string]uuid.UUID),
	}
}

func categoryNameKey(ownerID uuid.UUID, name string) string {
	return fmt.Sprintf("%s-%s", ownerID, name)
}

// Create creates a new category
func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := categoryNameKey(category.OwnerID, category.Name)
	if _, ok := m.ByName[key]; ok {
		return nil, domain.ErrDuplicateCategoryName
	}
	stored := *category
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Categories[stored.ID] = &stored
	m.ByName[key] = stored.ID
	out := stored
	return &out, nil
}

// GetByID retrieves a category by ID within an owner's ledger
func (m *MockCategoryRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Category, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ownerID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	category, ok := m.Categories[id]
	if !ok || category.OwnerID != ownerID {
		return nil, domain.ErrCategoryNotFound
	}
	out := *category
	return &out, nil
}

// GetAllByOwner lists an owner's categories sorted by kind then name
func (m *MockCategoryRepository) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*domain.Category{}
	for _, c := range m.Categories {
		if c.OwnerID == ownerID {
			out := *c
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind < result[j].Kind
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Update replaces the mutable fields of a category
func (m *MockCategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.Categories[category.ID]
	if !ok || existing.OwnerID != category.OwnerID {
		return nil, domain.ErrCategoryNotFound
	}
	key := categoryNameKey(category.OwnerID, category.Name)
	if id, ok := m.ByName[key]; ok && id != category.ID {
		return nil, domain.ErrDuplicateCategoryName
	}
	delete(m.ByName, categoryNameKey(existing.OwnerID, existing.Name))
	existing.Name = category.Name
	existing.Kind = category.Kind
	existing.Color = category.Color
	existing.Icon = category.Icon
	existing.UpdatedAt = time.Now()
	m.ByName[key] = existing.ID
	out := *existing
	return &out, nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ownerID, id)
	}
	category, ok := m.lookup(id)
	if !ok || category.OwnerID != ownerID {
		return domain.ErrCategoryNotFound
	}
	if m.References != nil && m.References(ownerID, id) > 0 {
		return domain.ErrCategoryHasReferences
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ByName, categoryNameKey(ownerID, category.Name))
	delete(m.Categories, id)
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) *domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.Color == "" {
		category.Color = domain.DefaultCategoryColor
	}
	if category.Icon == "" {
		category.Icon = domain.DefaultCategoryIcon
	}
	m.Categories[category.ID] = category
	m.ByName[categoryNameKey(category.OwnerID, category.Name)] = category.ID
	return category
}

func (m *MockCategoryRepository) lookup(id uuid.UUID) (*domain.Category, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Categories[id]
	return c, ok
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository.
// Reads join the live category from Categories.
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions []*domain.Transaction
	Categories   *MockCategoryRepository

	CreateFn          func(transaction *domain.Transaction) (*domain.Transaction, error)
	ListInRangeFn     func(ownerID uuid.UUID, from, to *time.Time) ([]*domain.Transaction, error)
	CountByCategoryFn func(ownerID, categoryID uuid.UUID) (int64, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository joined to categories.
// Deleting a referenced category through categories fails like the real foreign key.
func NewMockTransactionRepository(categories *MockCategoryRepository) *MockTransactionRepository {
	m := &MockTransactionRepository{Categories: categories}
	if categories != nil {
		categories.References = func(ownerID, categoryID uuid.UUID) int64 {
			n, _ := m.countByCategory(ownerID, categoryID)
			return n
		}
	}
	return m
}

func (m *MockTransactionRepository) joined(t *domain.Transaction) *domain.Transaction {
	out := *t
	out.Category = nil
	if m.Categories != nil {
		if c, ok := m.Categories.lookup(t.CategoryID); ok {
			out.Category = c.Projection()
		}
	}
	return &out
}

// sorted returns the owner's transactions by occurredAt desc, insertion order on ties
func (m *MockTransactionRepository) sorted(ownerID uuid.UUID) []*domain.Transaction {
	var owned []*domain.Transaction
	for _, t := range m.Transactions {
		if t.OwnerID == ownerID {
			owned = append(owned, t)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].OccurredAt.After(owned[j].OccurredAt)
	})
	return owned
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	if m.Categories != nil {
		c, ok := m.Categories.lookup(transaction.CategoryID)
		if !ok || c.OwnerID != transaction.OwnerID {
			return nil, domain.ErrCategoryNotFound
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *transaction
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Transactions = append(m.Transactions, &stored)
	return m.joined(&stored), nil
}

// GetByID retrieves a transaction by ID within an owner's ledger
func (m *MockTransactionRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.Transactions {
		if t.ID == id && t.OwnerID == ownerID {
			return m.joined(t), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// List returns one page of the owner's filtered transactions
func (m *MockTransactionRepository) List(ctx context.Context, ownerID uuid.UUID, filter *domain.TransactionFilter) (*domain.PaginatedTransactions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := domain.TransactionFilter{}
	if filter != nil {
		f = *filter
	}
	f.Normalize()

	var matched []*domain.Transaction
	for _, t := range m.sorted(ownerID) {
		if f.Matches(t) {
			matched = append(matched, t)
		}
	}

	total := int64(len(matched))
	start := f.Offset()
	end := start + int64(f.PageSize)
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]*domain.Transaction, 0, end-start)
	for _, t := range matched[start:end] {
		items = append(items, m.joined(t))
	}

	return &domain.PaginatedTransactions{
		Items:     items,
		Total:     total,
		Page:      f.Page,
		PageSize:  f.PageSize,
		PageCount: domain.PageCount(total, f.PageSize),
	}, nil
}

// ListInRange returns every transaction of the owner within the inclusive window
func (m *MockTransactionRepository) ListInRange(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]*domain.Transaction, error) {
	if m.ListInRangeFn != nil {
		return m.ListInRangeFn(ownerID, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*domain.Transaction{}
	for _, t := range m.sorted(ownerID) {
		if domain.InRange(t.OccurredAt, from, to) {
			result = append(result, m.joined(t))
		}
	}
	return result, nil
}

// Update replaces the mutable fields of a transaction
func (m *MockTransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.Transactions {
		if t.ID == transaction.ID && t.OwnerID == transaction.OwnerID {
			t.Amount = transaction.Amount
			t.Kind = transaction.Kind
			t.Description = transaction.Description
			t.OccurredAt = transaction.OccurredAt
			t.CategoryID = transaction.CategoryID
			t.UpdatedAt = time.Now()
			return m.joined(t), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.Transactions {
		if t.ID == id && t.OwnerID == ownerID {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			return nil
		}
	}
	return domain.ErrTransactionNotFound
}

// CountByCategory counts the owner's transactions referencing a category
func (m *MockTransactionRepository) CountByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) (int64, error) {
	if m.CountByCategoryFn != nil {
		return m.CountByCategoryFn(ownerID, categoryID)
	}
	return m.countByCategory(ownerID, categoryID)
}

func (m *MockTransactionRepository) countByCategory(ownerID, categoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, t := range m.Transactions {
		if t.OwnerID == ownerID && t.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) *domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	m.Transactions = append(m.Transactions, transaction)
	return transaction
}

// Count returns the number of stored transactions
func (m *MockTransactionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transactions)
}

// MockExportStorage is an in-memory implementation of domain.ExportStorage
type MockExportStorage struct {
	Objects      map[string][]byte
	ContentTypes map[string]string
	UploadFn     func(key string, data []byte) error
}

// NewMockExportStorage creates a new MockExportStorage
func NewMockExportStorage() *MockExportStorage {
	return &MockExportStorage{
		Objects:      make(map[string][]byte),
		ContentTypes: make(map[string]string),
	}
}

// Upload stores the object in memory
func (m *MockExportStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return err
	}
	if m.UploadFn != nil {
		if err := m.UploadFn(key, buf.Bytes()); err != nil {
			return err
		}
	}
	m.Objects[key] = buf.Bytes()
	m.ContentTypes[key] = contentType
	return nil
}

// PresignGet returns a fake signed URL for a stored object
func (m *MockExportStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, ok := m.Objects[key]; !ok {
		return "", domain.ErrNotFound
	}
	return "https://exports.test/" + strings.TrimPrefix(key, "/") + fmt.Sprintf("?expires=%d", int(expiry.Seconds())), nil
}
