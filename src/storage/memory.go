package storage

import (
	"sync"
	"time"

	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
)

// -----------------------------------------------------------------------------
// In-memory Record Store
// -----------------------------------------------------------------------------

// MemStore keeps all records in process memory. It is the default store:
// contents vanish on restart, which is acceptable for a single-user
// dashboard and keeps local setups dependency-free.
type MemStore struct {
	mu sync.RWMutex

	users       map[int]models.MUser
	credentials map[int]models.MApiCredentials
	strategies  map[int]models.MStrategy
	orders      map[int]models.MOrder
	portfolios  map[int]models.MPortfolio

	nextUserID       int
	nextCredentialID int
	nextStrategyID   int
	nextOrderID      int
	nextPortfolioID  int
}

// -----------------------------------------------------------------------------

func NewMemStore() *MemStore {
	return &MemStore{
		users:            make(map[int]models.MUser),
		credentials:      make(map[int]models.MApiCredentials),
		strategies:       make(map[int]models.MStrategy),
		orders:           make(map[int]models.MOrder),
		portfolios:       make(map[int]models.MPortfolio),
		nextUserID:       1,
		nextCredentialID: 1,
		nextStrategyID:   1,
		nextOrderID:      1,
		nextPortfolioID:  1,
	}
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (m *MemStore) GetUser(id int) (*models.MUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) GetUserByUsername(username string) (*models.MUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) CreateUser(user models.MUser) (*models.MUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.ID = m.nextUserID
	m.nextUserID++
	m.users[user.ID] = user
	return &user, nil
}

// -----------------------------------------------------------------------------
// API Credentials
// -----------------------------------------------------------------------------

func (m *MemStore) GetApiCredentials(userID int) (*models.MApiCredentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, creds := range m.credentials {
		if creds.UserID == userID {
			return &creds, nil
		}
	}
	return nil, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) CreateApiCredentials(creds models.MApiCredentials) (*models.MApiCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds.ID = m.nextCredentialID
	m.nextCredentialID++
	creds.CreatedAt = time.Now()
	m.credentials[creds.ID] = creds
	return &creds, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) UpdateApiCredentials(userID int, creds models.MApiCredentials) (*models.MApiCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.credentials {
		if existing.UserID == userID {
			creds.ID = id
			creds.UserID = userID
			creds.CreatedAt = existing.CreatedAt
			m.credentials[id] = creds
			return &creds, nil
		}
	}
	return nil, nil
}

// -----------------------------------------------------------------------------
// Strategies
// -----------------------------------------------------------------------------

func (m *MemStore) GetStrategies(userID int) ([]models.MStrategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.MStrategy, 0)
	for _, strategy := range m.strategies {
		if strategy.UserID == userID {
			result = append(result, strategy)
		}
	}
	return result, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) GetStrategy(id int) (*models.MStrategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if strategy, ok := m.strategies[id]; ok {
		return &strategy, nil
	}
	return nil, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) CreateStrategy(strategy models.MStrategy) (*models.MStrategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	strategy.ID = m.nextStrategyID
	m.nextStrategyID++
	now := time.Now()
	strategy.CreatedAt = now
	strategy.UpdatedAt = now
	m.strategies[strategy.ID] = strategy
	return &strategy, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) UpdateStrategy(id int, strategy models.MStrategy) (*models.MStrategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.strategies[id]
	if !ok {
		return nil, nil
	}

	strategy.ID = id
	strategy.CreatedAt = existing.CreatedAt
	strategy.UpdatedAt = time.Now()
	m.strategies[id] = strategy
	return &strategy, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) DeleteStrategy(id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.strategies[id]; !ok {
		return false, nil
	}
	delete(m.strategies, id)
	return true, nil
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

func (m *MemStore) GetOrders(userID int) ([]models.MOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.MOrder, 0)
	for _, order := range m.orders {
		if order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) GetOrdersByStrategy(strategyID int) ([]models.MOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.MOrder, 0)
	for _, order := range m.orders {
		if order.StrategyID == strategyID {
			result = append(result, order)
		}
	}
	return result, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) CreateOrder(order models.MOrder) (*models.MOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order.ID = m.nextOrderID
	m.nextOrderID++
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	return &order, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) UpdateOrder(id int, order models.MOrder) (*models.MOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.orders[id]
	if !ok {
		return nil, nil
	}

	order.ID = id
	order.CreatedAt = existing.CreatedAt
	m.orders[id] = order
	return &order, nil
}

// -----------------------------------------------------------------------------
// Portfolio
// -----------------------------------------------------------------------------

func (m *MemStore) GetPortfolio(userID int) ([]models.MPortfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.MPortfolio, 0)
	for _, snapshot := range m.portfolios {
		if snapshot.UserID == userID {
			result = append(result, snapshot)
		}
	}
	return result, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) GetPortfolioBySymbol(userID int, symbol string) (*models.MPortfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, snapshot := range m.portfolios {
		if snapshot.UserID == userID && snapshot.Symbol == symbol {
			return &snapshot, nil
		}
	}
	return nil, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) UpsertPortfolio(snapshot models.MPortfolio) (*models.MPortfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.portfolios {
		if existing.UserID == snapshot.UserID && existing.Symbol == snapshot.Symbol {
			snapshot.ID = id
			snapshot.UpdatedAt = time.Now()
			m.portfolios[id] = snapshot
			return &snapshot, nil
		}
	}

	snapshot.ID = m.nextPortfolioID
	m.nextPortfolioID++
	snapshot.UpdatedAt = time.Now()
	m.portfolios[snapshot.ID] = snapshot
	return &snapshot, nil
}

// -----------------------------------------------------------------------------

func (m *MemStore) Close() error {
	return nil
}
