package interfaces

import "github.com/seazero-dotcom/CryptoTraderPro/src/models"

// -----------------------------------------------------------------------------
// IRecordStore defines the contract for CRUD persistence of the dashboard's
// domain records. The relay and registry never touch it; only the REST layer
// does.
// -----------------------------------------------------------------------------

type IRecordStore interface {

	// -----------------------------------------------------------------------------
	// Users

	GetUser(id int) (*models.MUser, error)
	GetUserByUsername(username string) (*models.MUser, error)
	CreateUser(user models.MUser) (*models.MUser, error)

	// -----------------------------------------------------------------------------
	// API Credentials (one set per user)

	GetApiCredentials(userID int) (*models.MApiCredentials, error)
	CreateApiCredentials(creds models.MApiCredentials) (*models.MApiCredentials, error)
	UpdateApiCredentials(userID int, creds models.MApiCredentials) (*models.MApiCredentials, error)

	// -----------------------------------------------------------------------------
	// Strategies

	GetStrategies(userID int) ([]models.MStrategy, error)
	GetStrategy(id int) (*models.MStrategy, error)
	CreateStrategy(strategy models.MStrategy) (*models.MStrategy, error)
	UpdateStrategy(id int, strategy models.MStrategy) (*models.MStrategy, error)
	DeleteStrategy(id int) (bool, error)

	// -----------------------------------------------------------------------------
	// Orders

	GetOrders(userID int) ([]models.MOrder, error)
	GetOrdersByStrategy(strategyID int) ([]models.MOrder, error)
	CreateOrder(order models.MOrder) (*models.MOrder, error)
	UpdateOrder(id int, order models.MOrder) (*models.MOrder, error)

	// -----------------------------------------------------------------------------
	// Portfolio snapshots

	GetPortfolio(userID int) ([]models.MPortfolio, error)
	GetPortfolioBySymbol(userID int, symbol string) (*models.MPortfolio, error)
	UpsertPortfolio(snapshot models.MPortfolio) (*models.MPortfolio, error)

	// -----------------------------------------------------------------------------

	// Close the underlying connection, if any
	Close() error
}
