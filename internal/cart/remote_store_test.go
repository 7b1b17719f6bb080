package cart

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type RemoteCartStoreTestSuite struct {
	suite.Suite
	repo  *fakeDocRepo
	store *RemoteCartStore
}

func (suite *RemoteCartStoreTestSuite) SetupTest() {
	suite.repo = newFakeDocRepo()
	store, err := NewRemoteCartStore(context.Background(), suite.repo, "user-1", nil)
	require.NoError(suite.T(), err)
	suite.store = store
}

func (suite *RemoteCartStoreTestSuite) TearDownTest() {
	suite.store.Close()
}

// 文件不存在時建立空的購物車
func (suite *RemoteCartStoreTestSuite) TestCreatesEmptyDocument() {
	doc, ok := suite.repo.doc("user-1")
	require.True(suite.T(), ok)
	require.Equal(suite.T(), "user-1", doc.UserID)
	require.Empty(suite.T(), doc.Items)
	require.Empty(suite.T(), suite.store.Items())
	require.Equal(suite.T(), "user-1", suite.store.UserID())
}

func (suite *RemoteCartStoreTestSuite) TestLoadsExistingDocument() {
	require.NoError(suite.T(), suite.repo.SaveCart(context.Background(), model.Cart{
		UserID: "user-2",
		Items:  []model.LineItem{newItem("a", "3.00", 2)},
	}))

	store, err := NewRemoteCartStore(context.Background(), suite.repo, "user-2", nil)
	require.NoError(suite.T(), err)
	defer store.Close()
	require.Len(suite.T(), store.Items(), 1)
	require.Equal(suite.T(), 2, store.Items()[0].Quantity)
}

func (suite *RemoteCartStoreTestSuite) TestMutationsWriteFullDocument() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "2.00", 2)))
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "2.00", 3)))
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("b", "1.00", 1)))

	// 樂觀更新在回傳前就可以觀察到
	items := suite.store.Items()
	require.Len(suite.T(), items, 2)
	require.Equal(suite.T(), 5, items[0].Quantity)

	doc, _ := suite.repo.doc("user-1")
	require.Len(suite.T(), doc.Items, 2)
	require.Equal(suite.T(), 5, doc.Items[0].Quantity)

	require.NoError(suite.T(), suite.store.SetQuantity(ctx, "a", 0))
	doc, _ = suite.repo.doc("user-1")
	require.Len(suite.T(), doc.Items, 1)
	require.Equal(suite.T(), "b", doc.Items[0].ID)

	require.ErrorIs(suite.T(), suite.store.SetQuantity(ctx, "missing", 1), errs.ErrNotFound)

	require.NoError(suite.T(), suite.store.Clear(ctx))
	doc, _ = suite.repo.doc("user-1")
	require.Empty(suite.T(), doc.Items)
	require.Empty(suite.T(), suite.store.Items())
}

// 寫入失敗時回到最後確認的快照
func (suite *RemoteCartStoreTestSuite) TestFailedWriteReverts() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "1.00", 1)))

	ch, unsubscribe := suite.store.Watch()
	defer unsubscribe()
	<-ch

	suite.repo.setSaveErr(errInjected)
	err := suite.store.Add(ctx, newItem("b", "1.00", 1))
	require.True(suite.T(), errs.IsRemoteIO(err))
	require.ErrorIs(suite.T(), err, errInjected)

	items := suite.store.Items()
	require.Len(suite.T(), items, 1)
	require.Equal(suite.T(), "a", items[0].ID)

	// watcher 最後看到的是回滾後的快照
	require.Eventually(suite.T(), func() bool {
		select {
		case cart := <-ch:
			return len(cart.Items) == 1
		default:
			return false
		}
	}, waitFor, tick)
}

// 其他裝置寫入的快照整份取代目前狀態
func (suite *RemoteCartStoreTestSuite) TestRemoteSnapshotReplacesState() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "1.00", 1)))

	require.NoError(suite.T(), suite.repo.SaveCart(ctx, model.Cart{
		UserID:    "user-1",
		Items:     []model.LineItem{newItem("z", "9.00", 4)},
		UpdatedAt: time.Now().UTC().Add(time.Second),
	}))

	require.Eventually(suite.T(), func() bool {
		items := suite.store.Items()
		return len(items) == 1 && items[0].ID == "z" && items[0].Quantity == 4
	}, waitFor, tick)
}

// 其他裝置的快照即使 UpdatedAt 比較舊 (時鐘不同步) 也會套用
func (suite *RemoteCartStoreTestSuite) TestOtherWriterSnapshotAppliedRegardlessOfClock() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "1.00", 1)))

	require.NoError(suite.T(), suite.repo.SaveCart(ctx, model.Cart{
		UserID:    "user-1",
		Items:     []model.LineItem{newItem("other", "2.00", 3)},
		UpdatedAt: time.Now().UTC().Add(-time.Hour),
		Writer:    "other-device",
		Seq:       1,
	}))

	require.Eventually(suite.T(), func() bool {
		items := suite.store.Items()
		return len(items) == 1 && items[0].ID == "other" && items[0].Quantity == 3
	}, waitFor, tick)

	// 之後的寫入以其他裝置的快照為基礎
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "1.00", 1)))
	doc, _ := suite.repo.doc("user-1")
	require.Len(suite.T(), doc.Items, 2)
	require.Equal(suite.T(), "other", doc.Items[0].ID)
	require.Equal(suite.T(), suite.store.writerID, doc.Writer)
}

// 自己較早寫入的回音晚到時不會蓋掉之後的寫入
func (suite *RemoteCartStoreTestSuite) TestOwnStaleEchoIgnored() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "1.00", 1)))
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("b", "1.00", 1)))

	doc, _ := suite.repo.doc("user-1")
	require.Equal(suite.T(), uint64(2), doc.Seq)

	require.NoError(suite.T(), suite.repo.SaveCart(ctx, model.Cart{
		UserID:    "user-1",
		Items:     []model.LineItem{newItem("a", "1.00", 1)},
		UpdatedAt: time.Now().UTC().Add(time.Hour),
		Writer:    suite.store.writerID,
		Seq:       1,
	}))

	require.Never(suite.T(), func() bool {
		return len(suite.store.Items()) != 2
	}, 200*time.Millisecond, tick)
}

// 遠端文件中不合法的項目在讀回時被丟掉
func (suite *RemoteCartStoreTestSuite) TestInvalidRemoteItemsDropped() {
	ctx := context.Background()
	bad := []model.LineItem{
		newItem("ok", "2.00", 1),
		newItem("zero", "5.00", 0),
		newItem("neg", "-1.00", 1),
	}

	require.NoError(suite.T(), suite.repo.SaveCart(ctx, model.Cart{UserID: "user-1", Items: bad, Writer: "other-device"}))
	require.Eventually(suite.T(), func() bool {
		items := suite.store.Items()
		return len(items) == 1 && items[0].ID == "ok"
	}, waitFor, tick)
	require.Equal(suite.T(), "2.00", suite.store.Subtotal().StringFixed(2))

	require.NoError(suite.T(), suite.repo.SaveCart(ctx, model.Cart{UserID: "user-3", Items: bad}))
	store, err := NewRemoteCartStore(ctx, suite.repo, "user-3", nil)
	require.NoError(suite.T(), err)
	defer store.Close()
	require.Len(suite.T(), store.Items(), 1)
	require.Equal(suite.T(), "ok", store.Items()[0].ID)
}

// 修改之後才註冊的 watcher 第一個收到的就是最新的快照
func (suite *RemoteCartStoreTestSuite) TestWatchAfterMutationSeesLatest() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.store.Add(ctx, newItem("a", "1.00", 2)))

	ch, unsubscribe := suite.store.Watch()
	defer unsubscribe()
	cart := <-ch
	require.Len(suite.T(), cart.Items, 1)
	require.Equal(suite.T(), 2, cart.Items[0].Quantity)
}

func (suite *RemoteCartStoreTestSuite) TestValidation() {
	err := suite.store.Add(context.Background(), newItem("a", "-5.00", 1))
	require.ErrorIs(suite.T(), err, errs.ErrValidation)
	require.Empty(suite.T(), suite.store.Items())
}

func (suite *RemoteCartStoreTestSuite) TestClose() {
	ctx := context.Background()
	ch, _ := suite.store.Watch()

	require.NoError(suite.T(), suite.store.Close())
	require.NoError(suite.T(), suite.store.Close())

	saves := suite.repo.saveCount()
	require.ErrorIs(suite.T(), suite.store.Add(ctx, newItem("a", "1.00", 1)), ErrStoreClosed)
	require.Equal(suite.T(), saves, suite.repo.saveCount())

	// 取消訂閱
	require.Eventually(suite.T(), func() bool {
		return suite.repo.subscribers() == 0
	}, waitFor, tick)

	<-ch
	_, ok := <-ch
	require.False(suite.T(), ok)
}

func TestRemoteCartStoreSuite(t *testing.T) {
	suite.Run(t, new(RemoteCartStoreTestSuite))
}

func TestNewRemoteCartStore_Errors(t *testing.T) {
	_, err := NewRemoteCartStore(context.Background(), newFakeDocRepo(), "", nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	repo := newFakeDocRepo()
	repo.setSaveErr(errInjected)
	_, err = NewRemoteCartStore(context.Background(), repo, "user-1", nil)
	require.True(t, errs.IsRemoteIO(err))
	require.Eventually(t, func() bool {
		return repo.subscribers() == 0
	}, waitFor, tick)
}
