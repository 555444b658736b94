package storage

import (
	"database/sql"
	"time"

	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// SQLite Record Store
// -----------------------------------------------------------------------------

type SQLiteStore struct {
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{DB: db, Logger: log.Named("SQLiteStore")}

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		s.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		s.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS api_credentials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		api_key TEXT NOT NULL,
		api_secret TEXT NOT NULL,
		is_testnet INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS strategies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		buy_price TEXT,
		buy_amount TEXT,
		sell_price TEXT,
		sell_amount TEXT,
		is_active INTEGER NOT NULL DEFAULT 0,
		pnl TEXT NOT NULL DEFAULT '0',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		strategy_id INTEGER,
		exchange_order_id TEXT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT,
		status TEXT NOT NULL,
		executed_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS portfolio (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		free TEXT NOT NULL DEFAULT '0',
		locked TEXT NOT NULL DEFAULT '0',
		updated_at INTEGER NOT NULL,
		UNIQUE(user_id, symbol)
	);`

	_, err := s.DB.Exec(schema)
	return err
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (s *SQLiteStore) GetUser(id int) (*models.MUser, error) {
	row := s.DB.QueryRow("SELECT id, username, password FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *SQLiteStore) GetUserByUsername(username string) (*models.MUser, error) {
	row := s.DB.QueryRow("SELECT id, username, password FROM users WHERE username = ?", username)
	return scanUser(row)
}

func (s *SQLiteStore) CreateUser(user models.MUser) (*models.MUser, error) {
	res, err := s.DB.Exec("INSERT INTO users (username, password) VALUES (?, ?)", user.Username, user.Password)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	user.ID = int(id)
	return &user, nil
}

func scanUser(row *sql.Row) (*models.MUser, error) {
	var user models.MUser
	err := row.Scan(&user.ID, &user.Username, &user.Password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// -----------------------------------------------------------------------------
// API Credentials
// -----------------------------------------------------------------------------

func (s *SQLiteStore) GetApiCredentials(userID int) (*models.MApiCredentials, error) {
	row := s.DB.QueryRow(
		"SELECT id, user_id, api_key, api_secret, is_testnet, created_at FROM api_credentials WHERE user_id = ?", userID)

	var creds models.MApiCredentials
	var createdAt int64
	err := row.Scan(&creds.ID, &creds.UserID, &creds.APIKey, &creds.APISecret, &creds.IsTestnet, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	creds.CreatedAt = time.UnixMilli(createdAt)
	return &creds, nil
}

func (s *SQLiteStore) CreateApiCredentials(creds models.MApiCredentials) (*models.MApiCredentials, error) {
	creds.CreatedAt = time.Now()
	res, err := s.DB.Exec(
		"INSERT INTO api_credentials (user_id, api_key, api_secret, is_testnet, created_at) VALUES (?, ?, ?, ?, ?)",
		creds.UserID, creds.APIKey, creds.APISecret, creds.IsTestnet, creds.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	creds.ID = int(id)
	return &creds, nil
}

func (s *SQLiteStore) UpdateApiCredentials(userID int, creds models.MApiCredentials) (*models.MApiCredentials, error) {
	existing, err := s.GetApiCredentials(userID)
	if err != nil || existing == nil {
		return nil, err
	}

	_, err = s.DB.Exec(
		"UPDATE api_credentials SET api_key = ?, api_secret = ?, is_testnet = ? WHERE user_id = ?",
		creds.APIKey, creds.APISecret, creds.IsTestnet, userID)
	if err != nil {
		return nil, err
	}
	return s.GetApiCredentials(userID)
}

// -----------------------------------------------------------------------------
// Strategies
// -----------------------------------------------------------------------------

const strategyColumns = "id, user_id, name, symbol, buy_price, buy_amount, sell_price, sell_amount, is_active, pnl, created_at, updated_at"

func (s *SQLiteStore) GetStrategies(userID int) ([]models.MStrategy, error) {
	rows, err := s.DB.Query("SELECT "+strategyColumns+" FROM strategies WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.MStrategy, 0)
	for rows.Next() {
		strategy, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *strategy)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) GetStrategy(id int) (*models.MStrategy, error) {
	rows, err := s.DB.Query("SELECT "+strategyColumns+" FROM strategies WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanStrategy(rows)
}

func (s *SQLiteStore) CreateStrategy(strategy models.MStrategy) (*models.MStrategy, error) {
	now := time.Now()
	strategy.CreatedAt = now
	strategy.UpdatedAt = now

	res, err := s.DB.Exec(
		`INSERT INTO strategies (user_id, name, symbol, buy_price, buy_amount, sell_price, sell_amount, is_active, pnl, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strategy.UserID, strategy.Name, strategy.Symbol, strategy.BuyPrice, strategy.BuyAmount,
		strategy.SellPrice, strategy.SellAmount, strategy.IsActive, strategy.Pnl,
		now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	strategy.ID = int(id)
	return &strategy, nil
}

func (s *SQLiteStore) UpdateStrategy(id int, strategy models.MStrategy) (*models.MStrategy, error) {
	existing, err := s.GetStrategy(id)
	if err != nil || existing == nil {
		return nil, err
	}

	strategy.UpdatedAt = time.Now()
	_, err = s.DB.Exec(
		`UPDATE strategies SET name = ?, symbol = ?, buy_price = ?, buy_amount = ?, sell_price = ?,
		 sell_amount = ?, is_active = ?, pnl = ?, updated_at = ? WHERE id = ?`,
		strategy.Name, strategy.Symbol, strategy.BuyPrice, strategy.BuyAmount, strategy.SellPrice,
		strategy.SellAmount, strategy.IsActive, strategy.Pnl, strategy.UpdatedAt.UnixMilli(), id)
	if err != nil {
		return nil, err
	}
	return s.GetStrategy(id)
}

func (s *SQLiteStore) DeleteStrategy(id int) (bool, error) {
	res, err := s.DB.Exec("DELETE FROM strategies WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanStrategy(rows *sql.Rows) (*models.MStrategy, error) {
	var strategy models.MStrategy
	var createdAt, updatedAt int64
	err := rows.Scan(&strategy.ID, &strategy.UserID, &strategy.Name, &strategy.Symbol,
		&strategy.BuyPrice, &strategy.BuyAmount, &strategy.SellPrice, &strategy.SellAmount,
		&strategy.IsActive, &strategy.Pnl, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	strategy.CreatedAt = time.UnixMilli(createdAt)
	strategy.UpdatedAt = time.UnixMilli(updatedAt)
	return &strategy, nil
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

const orderColumns = "id, user_id, strategy_id, exchange_order_id, symbol, side, type, quantity, price, status, executed_at, created_at"

func (s *SQLiteStore) GetOrders(userID int) ([]models.MOrder, error) {
	return s.queryOrders("SELECT "+orderColumns+" FROM orders WHERE user_id = ?", userID)
}

func (s *SQLiteStore) GetOrdersByStrategy(strategyID int) ([]models.MOrder, error) {
	return s.queryOrders("SELECT "+orderColumns+" FROM orders WHERE strategy_id = ?", strategyID)
}

func (s *SQLiteStore) queryOrders(query string, arg interface{}) ([]models.MOrder, error) {
	rows, err := s.DB.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.MOrder, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) CreateOrder(order models.MOrder) (*models.MOrder, error) {
	order.CreatedAt = time.Now()
	var executedAt interface{}
	if order.ExecutedAt != nil {
		executedAt = order.ExecutedAt.UnixMilli()
	}

	res, err := s.DB.Exec(
		`INSERT INTO orders (user_id, strategy_id, exchange_order_id, symbol, side, type, quantity, price, status, executed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.UserID, order.StrategyID, order.ExchangeOrderID, order.Symbol, order.Side, order.Type,
		order.Quantity, order.Price, order.Status, executedAt, order.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	order.ID = int(id)
	return &order, nil
}

func (s *SQLiteStore) UpdateOrder(id int, order models.MOrder) (*models.MOrder, error) {
	var executedAt interface{}
	if order.ExecutedAt != nil {
		executedAt = order.ExecutedAt.UnixMilli()
	}

	res, err := s.DB.Exec(
		`UPDATE orders SET exchange_order_id = ?, status = ?, executed_at = ? WHERE id = ?`,
		order.ExchangeOrderID, order.Status, executedAt, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return nil, err
	}

	orders, err := s.queryOrders("SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

func scanOrder(rows *sql.Rows) (*models.MOrder, error) {
	var order models.MOrder
	var strategyID sql.NullInt64
	var exchangeOrderID, price sql.NullString
	var executedAt sql.NullInt64
	var createdAt int64

	err := rows.Scan(&order.ID, &order.UserID, &strategyID, &exchangeOrderID, &order.Symbol,
		&order.Side, &order.Type, &order.Quantity, &price, &order.Status, &executedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	order.StrategyID = int(strategyID.Int64)
	order.ExchangeOrderID = exchangeOrderID.String
	order.Price = price.String
	if executedAt.Valid {
		t := time.UnixMilli(executedAt.Int64)
		order.ExecutedAt = &t
	}
	order.CreatedAt = time.UnixMilli(createdAt)
	return &order, nil
}

// -----------------------------------------------------------------------------
// Portfolio
// -----------------------------------------------------------------------------

func (s *SQLiteStore) GetPortfolio(userID int) ([]models.MPortfolio, error) {
	rows, err := s.DB.Query(
		"SELECT id, user_id, symbol, free, locked, updated_at FROM portfolio WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.MPortfolio, 0)
	for rows.Next() {
		var snapshot models.MPortfolio
		var updatedAt int64
		if err := rows.Scan(&snapshot.ID, &snapshot.UserID, &snapshot.Symbol, &snapshot.Free, &snapshot.Locked, &updatedAt); err != nil {
			return nil, err
		}
		snapshot.UpdatedAt = time.UnixMilli(updatedAt)
		result = append(result, snapshot)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) GetPortfolioBySymbol(userID int, symbol string) (*models.MPortfolio, error) {
	row := s.DB.QueryRow(
		"SELECT id, user_id, symbol, free, locked, updated_at FROM portfolio WHERE user_id = ? AND symbol = ?",
		userID, symbol)

	var snapshot models.MPortfolio
	var updatedAt int64
	err := row.Scan(&snapshot.ID, &snapshot.UserID, &snapshot.Symbol, &snapshot.Free, &snapshot.Locked, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snapshot.UpdatedAt = time.UnixMilli(updatedAt)
	return &snapshot, nil
}

func (s *SQLiteStore) UpsertPortfolio(snapshot models.MPortfolio) (*models.MPortfolio, error) {
	snapshot.UpdatedAt = time.Now()
	_, err := s.DB.Exec(
		`INSERT INTO portfolio (user_id, symbol, free, locked, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, symbol) DO UPDATE SET free = excluded.free, locked = excluded.locked, updated_at = excluded.updated_at`,
		snapshot.UserID, snapshot.Symbol, snapshot.Free, snapshot.Locked, snapshot.UpdatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	return s.GetPortfolioBySymbol(snapshot.UserID, snapshot.Symbol)
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}
