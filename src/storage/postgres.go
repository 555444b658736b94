package storage

import (
	"database/sql"
	"time"

	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------
// Postgres Record Store
// -----------------------------------------------------------------------------

type PostgresStore struct {
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.Storage.DBConnectionString)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &PostgresStore{DB: db, Logger: log.Named("PostgresStore")}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// -----------------------------------------------------------------------------

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS api_credentials (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		api_key TEXT NOT NULL,
		api_secret TEXT NOT NULL,
		is_testnet BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS strategies (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		buy_price TEXT,
		buy_amount TEXT,
		sell_price TEXT,
		sell_amount TEXT,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		pnl TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		strategy_id INTEGER,
		exchange_order_id TEXT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT,
		status TEXT NOT NULL,
		executed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS portfolio (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		free TEXT NOT NULL DEFAULT '0',
		locked TEXT NOT NULL DEFAULT '0',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(user_id, symbol)
	);`

	_, err := s.DB.Exec(schema)
	return err
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (s *PostgresStore) GetUser(id int) (*models.MUser, error) {
	row := s.DB.QueryRow("SELECT id, username, password FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByUsername(username string) (*models.MUser, error) {
	row := s.DB.QueryRow("SELECT id, username, password FROM users WHERE username = $1", username)
	return scanUser(row)
}

func (s *PostgresStore) CreateUser(user models.MUser) (*models.MUser, error) {
	err := s.DB.QueryRow(
		"INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id",
		user.Username, user.Password).Scan(&user.ID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// -----------------------------------------------------------------------------
// API Credentials
// -----------------------------------------------------------------------------

func (s *PostgresStore) GetApiCredentials(userID int) (*models.MApiCredentials, error) {
	row := s.DB.QueryRow(
		"SELECT id, user_id, api_key, api_secret, is_testnet, created_at FROM api_credentials WHERE user_id = $1", userID)

	var creds models.MApiCredentials
	err := row.Scan(&creds.ID, &creds.UserID, &creds.APIKey, &creds.APISecret, &creds.IsTestnet, &creds.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *PostgresStore) CreateApiCredentials(creds models.MApiCredentials) (*models.MApiCredentials, error) {
	creds.CreatedAt = time.Now()
	err := s.DB.QueryRow(
		"INSERT INTO api_credentials (user_id, api_key, api_secret, is_testnet, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		creds.UserID, creds.APIKey, creds.APISecret, creds.IsTestnet, creds.CreatedAt).Scan(&creds.ID)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *PostgresStore) UpdateApiCredentials(userID int, creds models.MApiCredentials) (*models.MApiCredentials, error) {
	existing, err := s.GetApiCredentials(userID)
	if err != nil || existing == nil {
		return nil, err
	}

	_, err = s.DB.Exec(
		"UPDATE api_credentials SET api_key = $1, api_secret = $2, is_testnet = $3 WHERE user_id = $4",
		creds.APIKey, creds.APISecret, creds.IsTestnet, userID)
	if err != nil {
		return nil, err
	}
	return s.GetApiCredentials(userID)
}

// -----------------------------------------------------------------------------
// Strategies
// -----------------------------------------------------------------------------

func (s *PostgresStore) GetStrategies(userID int) ([]models.MStrategy, error) {
	rows, err := s.DB.Query("SELECT "+strategyColumns+" FROM strategies WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.MStrategy, 0)
	for rows.Next() {
		strategy, err := scanPgStrategy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *strategy)
	}
	return result, rows.Err()
}

func (s *PostgresStore) GetStrategy(id int) (*models.MStrategy, error) {
	rows, err := s.DB.Query("SELECT "+strategyColumns+" FROM strategies WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanPgStrategy(rows)
}

func (s *PostgresStore) CreateStrategy(strategy models.MStrategy) (*models.MStrategy, error) {
	now := time.Now()
	strategy.CreatedAt = now
	strategy.UpdatedAt = now

	err := s.DB.QueryRow(
		`INSERT INTO strategies (user_id, name, symbol, buy_price, buy_amount, sell_price, sell_amount, is_active, pnl, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		strategy.UserID, strategy.Name, strategy.Symbol, strategy.BuyPrice, strategy.BuyAmount,
		strategy.SellPrice, strategy.SellAmount, strategy.IsActive, strategy.Pnl, now, now).Scan(&strategy.ID)
	if err != nil {
		return nil, err
	}
	return &strategy, nil
}

func (s *PostgresStore) UpdateStrategy(id int, strategy models.MStrategy) (*models.MStrategy, error) {
	existing, err := s.GetStrategy(id)
	if err != nil || existing == nil {
		return nil, err
	}

	strategy.UpdatedAt = time.Now()
	_, err = s.DB.Exec(
		`UPDATE strategies SET name = $1, symbol = $2, buy_price = $3, buy_amount = $4, sell_price = $5,
		 sell_amount = $6, is_active = $7, pnl = $8, updated_at = $9 WHERE id = $10`,
		strategy.Name, strategy.Symbol, strategy.BuyPrice, strategy.BuyAmount, strategy.SellPrice,
		strategy.SellAmount, strategy.IsActive, strategy.Pnl, strategy.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return s.GetStrategy(id)
}

func (s *PostgresStore) DeleteStrategy(id int) (bool, error) {
	res, err := s.DB.Exec("DELETE FROM strategies WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanPgStrategy(rows *sql.Rows) (*models.MStrategy, error) {
	var strategy models.MStrategy
	err := rows.Scan(&strategy.ID, &strategy.UserID, &strategy.Name, &strategy.Symbol,
		&strategy.BuyPrice, &strategy.BuyAmount, &strategy.SellPrice, &strategy.SellAmount,
		&strategy.IsActive, &strategy.Pnl, &strategy.CreatedAt, &strategy.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &strategy, nil
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

func (s *PostgresStore) GetOrders(userID int) ([]models.MOrder, error) {
	return s.queryOrders("SELECT "+orderColumns+" FROM orders WHERE user_id = $1", userID)
}

func (s *PostgresStore) GetOrdersByStrategy(strategyID int) ([]models.MOrder, error) {
	return s.queryOrders("SELECT "+orderColumns+" FROM orders WHERE strategy_id = $1", strategyID)
}

func (s *PostgresStore) queryOrders(query string, arg interface{}) ([]models.MOrder, error) {
	rows, err := s.DB.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.MOrder, 0)
	for rows.Next() {
		order, err := scanPgOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func (s *PostgresStore) CreateOrder(order models.MOrder) (*models.MOrder, error) {
	order.CreatedAt = time.Now()
	err := s.DB.QueryRow(
		`INSERT INTO orders (user_id, strategy_id, exchange_order_id, symbol, side, type, quantity, price, status, executed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		order.UserID, order.StrategyID, order.ExchangeOrderID, order.Symbol, order.Side, order.Type,
		order.Quantity, order.Price, order.Status, order.ExecutedAt, order.CreatedAt).Scan(&order.ID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *PostgresStore) UpdateOrder(id int, order models.MOrder) (*models.MOrder, error) {
	res, err := s.DB.Exec(
		"UPDATE orders SET exchange_order_id = $1, status = $2, executed_at = $3 WHERE id = $4",
		order.ExchangeOrderID, order.Status, order.ExecutedAt, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return nil, err
	}

	orders, err := s.queryOrders("SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

func scanPgOrder(rows *sql.Rows) (*models.MOrder, error) {
	var order models.MOrder
	var strategyID sql.NullInt64
	var exchangeOrderID, price sql.NullString
	var executedAt sql.NullTime

	err := rows.Scan(&order.ID, &order.UserID, &strategyID, &exchangeOrderID, &order.Symbol,
		&order.Side, &order.Type, &order.Quantity, &price, &order.Status, &executedAt, &order.CreatedAt)
	if err != nil {
		return nil, err
	}

	order.StrategyID = int(strategyID.Int64)
	order.ExchangeOrderID = exchangeOrderID.String
	order.Price = price.String
	if executedAt.Valid {
		t := executedAt.Time
		order.ExecutedAt = &t
	}
	return &order, nil
}

// -----------------------------------------------------------------------------
// Portfolio
// -----------------------------------------------------------------------------

func (s *PostgresStore) GetPortfolio(userID int) ([]models.MPortfolio, error) {
	rows, err := s.DB.Query(
		"SELECT id, user_id, symbol, free, locked, updated_at FROM portfolio WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.MPortfolio, 0)
	for rows.Next() {
		var snapshot models.MPortfolio
		if err := rows.Scan(&snapshot.ID, &snapshot.UserID, &snapshot.Symbol, &snapshot.Free, &snapshot.Locked, &snapshot.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, snapshot)
	}
	return result, rows.Err()
}

func (s *PostgresStore) GetPortfolioBySymbol(userID int, symbol string) (*models.MPortfolio, error) {
	row := s.DB.QueryRow(
		"SELECT id, user_id, symbol, free, locked, updated_at FROM portfolio WHERE user_id = $1 AND symbol = $2",
		userID, symbol)

	var snapshot models.MPortfolio
	err := row.Scan(&snapshot.ID, &snapshot.UserID, &snapshot.Symbol, &snapshot.Free, &snapshot.Locked, &snapshot.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *PostgresStore) UpsertPortfolio(snapshot models.MPortfolio) (*models.MPortfolio, error) {
	snapshot.UpdatedAt = time.Now()
	_, err := s.DB.Exec(
		`INSERT INTO portfolio (user_id, symbol, free, locked, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, symbol) DO UPDATE SET free = EXCLUDED.free, locked = EXCLUDED.locked, updated_at = EXCLUDED.updated_at`,
		snapshot.UserID, snapshot.Symbol, snapshot.Free, snapshot.Locked, snapshot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s.GetPortfolioBySymbol(snapshot.UserID, snapshot.Symbol)
}

// -----------------------------------------------------------------------------

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
