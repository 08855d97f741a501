package auth

import "sync"

// MockStore is an in-memory CredentialStore for testing
type MockStore struct {
	accounts map[string]*Account
	mu       sync.RWMutex

	// FailStore makes Store return ErrStoreUnavailable when set
	FailStore bool
}

// NewMockStore creates a new in-memory credential store
func NewMockStore() *MockStore {
	return &MockStore{
		accounts: make(map[string]*Account),
	}
}

// Store saves credentials in memory
func (m *MockStore) Store(account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailStore {
		return ErrStoreUnavailable
	}
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	copied := *account
	m.accounts[account.Username] = &copied
	return nil
}

// Retrieve gets credentials from memory
func (m *MockStore) Retrieve(username string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if username == "" {
		return nil, ErrInvalidCredentials
	}

	account, exists := m.accounts[username]
	if !exists {
		return nil, ErrCredentialsNotFound
	}

	copied := *account
	return &copied, nil
}

// List returns all stored accounts
func (m *MockStore) List() ([]*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var accounts []*Account
	for _, account := range m.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	return accounts, nil
}

// Delete removes credentials from memory
func (m *MockStore) Delete(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if username == "" {
		return ErrInvalidCredentials
	}
	if _, exists := m.accounts[username]; !exists {
		return ErrCredentialsNotFound
	}

	delete(m.accounts, username)
	return nil
}

// Exists checks if credentials exist for a username
func (m *MockStore) Exists(username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.accounts[username]
	return exists
}
