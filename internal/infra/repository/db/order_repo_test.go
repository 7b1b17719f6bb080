package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type OrderRepoTestSuite struct {
	suite.Suite
	db        *gorm.DB
	orderRepo *OrderRepo
}

// SetupSuite 在測試套件開始前執行
// 使用 in-memory sqlite 取代 postgres
func (suite *OrderRepoTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)
	sqlDB, err := db.DB()
	require.NoError(suite.T(), err)
	// 每個連線都是獨立的 memory db, 只能開一條
	sqlDB.SetMaxOpenConns(1)

	dbDao := NewDbDao(db)
	require.NoError(suite.T(), dbDao.InitMigrate())

	suite.db = db
	suite.orderRepo = NewOrderRepo(dbDao)
}

// SetupTest 在每個測試前執行
func (suite *OrderRepoTestSuite) SetupTest() {
	// 清空資料表
	suite.db.Exec("DELETE FROM order_items")
	suite.db.Exec("DELETE FROM orders")
}

// TearDownSuite 在測試套件結束後執行
func (suite *OrderRepoTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

// 創建測試用的訂單
func (suite *OrderRepoTestSuite) newTestOrder(userID string, createdAt time.Time, itemCount int) *model.Order {
	items := make([]model.LineItem, itemCount)
	for i := 0; i < itemCount; i++ {
		items[i] = model.LineItem{
			ID:       fmt.Sprintf("PROD-%d", i+1),
			Name:     fmt.Sprintf("Test Product %d", i+1),
			Price:    decimal.NewFromInt(int64((i + 1) * 10)),
			Quantity: i + 1,
			Customizations: map[string]any{
				"size": "M",
			},
		}
	}
	subtotal := model.Subtotal(items)
	tax := subtotal.Mul(decimal.RequireFromString("0.0743")).Round(2)
	shipping := decimal.NewFromInt(10)
	return &model.Order{
		UserID: userID,
		Items:  model.NewOrderItems(items),
		Request: model.OrderRequest{
			FirstName:     "Test",
			LastName:      "User",
			Email:         "test@example.com",
			Phone:         "1234567890",
			Address:       "123 Test St",
			City:          "Test City",
			PostalCode:    "12345",
			Country:       "US",
			PaymentMethod: model.PaymentMethodCard,
		},
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping),
		Status:    model.OrderStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func (suite *OrderRepoTestSuite) TestCreateOrder() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	order := suite.newTestOrder("user-1", now, 3)

	err := suite.orderRepo.CreateOrder(ctx, order)
	require.NoError(suite.T(), err)
	require.NotEmpty(suite.T(), order.ID)

	found, err := suite.orderRepo.GetOrderByID(ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), order.ID, found.ID)
	require.Equal(suite.T(), "user-1", found.UserID)
	require.Equal(suite.T(), model.OrderStatusPending, found.Status)
	require.Equal(suite.T(), "test@example.com", found.Request.Email)
	require.True(suite.T(), order.Total.Equal(found.Total))
	require.True(suite.T(), order.Tax.Equal(found.Tax))

	// 商品順序與快照內容保留
	require.Len(suite.T(), found.Items, 3)
	for i, item := range found.Items {
		require.Equal(suite.T(), fmt.Sprintf("PROD-%d", i+1), item.ProductID)
		require.Equal(suite.T(), i+1, item.Quantity)
		require.Equal(suite.T(), "M", item.Customizations["size"])
	}

	// 由凍結商品重新計算 subtotal 與原本一致
	require.True(suite.T(), found.Subtotal.Equal(model.Subtotal(found.LineItems())))
}

func (suite *OrderRepoTestSuite) TestGetOrderByID_NotFound() {
	_, err := suite.orderRepo.GetOrderByID(context.Background(), "missing")
	require.ErrorIs(suite.T(), err, errs.ErrNotFound)
}

func (suite *OrderRepoTestSuite) TestGetOrdersByUserID() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	older := suite.newTestOrder("user-1", base.Add(-2*time.Hour), 1)
	newer := suite.newTestOrder("user-1", base, 2)
	other := suite.newTestOrder("user-2", base.Add(-time.Hour), 1)
	for _, o := range []*model.Order{older, newer, other} {
		require.NoError(suite.T(), suite.orderRepo.CreateOrder(ctx, o))
	}

	orders, err := suite.orderRepo.GetOrdersByUserID(ctx, "user-1")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 2)
	require.Equal(suite.T(), newer.ID, orders[0].ID)
	require.Equal(suite.T(), older.ID, orders[1].ID)
	require.Len(suite.T(), orders[0].Items, 2)

	// 沒有訂單回傳空集合, 不是錯誤
	orders, err = suite.orderRepo.GetOrdersByUserID(ctx, "user-3")
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)
}

func (suite *OrderRepoTestSuite) TestGetAllOrders() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	first := suite.newTestOrder("user-1", base.Add(-time.Hour), 1)
	second := suite.newTestOrder("user-2", base, 1)
	require.NoError(suite.T(), suite.orderRepo.CreateOrder(ctx, first))
	require.NoError(suite.T(), suite.orderRepo.CreateOrder(ctx, second))

	orders, err := suite.orderRepo.GetAllOrders(ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 2)
	require.Equal(suite.T(), second.ID, orders[0].ID)
	require.Equal(suite.T(), first.ID, orders[1].ID)
}

func (suite *OrderRepoTestSuite) TestUpdateOrderStatus() {
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Second)
	order := suite.newTestOrder("user-1", created, 1)
	require.NoError(suite.T(), suite.orderRepo.CreateOrder(ctx, order))

	updated := created.Add(time.Minute)
	err := suite.orderRepo.UpdateOrderStatus(ctx, order.ID, model.OrderStatusShipped, updated)
	require.NoError(suite.T(), err)

	found, err := suite.orderRepo.GetOrderByID(ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusShipped, found.Status)
	require.True(suite.T(), found.UpdatedAt.After(found.CreatedAt))
	require.True(suite.T(), order.Total.Equal(found.Total))

	// 任何狀態都可以改回任何狀態
	err = suite.orderRepo.UpdateOrderStatus(ctx, order.ID, model.OrderStatusPending, updated.Add(time.Minute))
	require.NoError(suite.T(), err)
}

func (suite *OrderRepoTestSuite) TestUpdateOrderStatus_NotFound() {
	err := suite.orderRepo.UpdateOrderStatus(context.Background(), "missing", model.OrderStatusCancelled, time.Now().UTC())
	require.ErrorIs(suite.T(), err, errs.ErrNotFound)
}

// 執行測試套件
func TestOrderRepoSuite(t *testing.T) {
	suite.Run(t, new(OrderRepoTestSuite))
}
