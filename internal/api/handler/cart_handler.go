package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/errs"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const liveWriteTimeout = 10 * time.Second

type CartHandler struct {
	cartRepo cart.DocumentRepository
	checkout *service.CheckoutService
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewCartHandler allowedOrigins 包含 "*" 時接受任何來源的 websocket 連線
func NewCartHandler(cartRepo cart.DocumentRepository, checkout *service.CheckoutService, allowedOrigins []string) *CartHandler {
	if cartRepo == nil {
		panic("cartRepo cannot be nil")
	}
	if checkout == nil {
		panic("checkout cannot be nil")
	}
	return &CartHandler{
		cartRepo: cartRepo,
		checkout: checkout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		now: time.Now,
	}
}

func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
}

// loadCart 文件不存在時視為空購物車, 不合法的項目不回傳
func (h *CartHandler) loadCart(ctx context.Context, userID string) (model.Cart, error) {
	c, err := h.cartRepo.GetCart(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.NewEmptyCart(userID), nil
	}
	if err != nil {
		return model.Cart{}, err
	}
	items, dropped := model.SanitizeItems(c.Items)
	if dropped > 0 {
		zerolog.Ctx(ctx).Warn().Int("dropped", dropped).Str("user_id", userID).Msg("drop invalid items from remote cart")
	}
	c.Items = items
	return c, nil
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.loadCart(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.SuccessJSON(w, dto.ConvertCartToDTO(c))
}

// ReplaceCart PUT 整份取代, 相同商品ID合併數量
func (h *CartHandler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req dto.UpdateCartDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := model.ValidateLineItems(req.Items); err != nil {
		writeError(w, r, err)
		return
	}

	c := model.Cart{
		UserID:    userID,
		Items:     model.MergeItems(req.Items),
		UpdatedAt: h.now().UTC(),
	}
	if err := h.cartRepo.SaveCart(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	response.SuccessJSON(w, dto.ConvertCartToDTO(c))
}

/*
Checkout 以使用者的遠端購物車建立訂單
訂單建立成功後清空購物車
清空失敗時訂單已經存在, 仍然回 201 並帶 warning
*/
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req dto.CheckoutDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	store, err := cart.NewRemoteCartStore(r.Context(), h.cartRepo, userID, zerolog.Ctx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer store.Close()

	order, err := h.checkout.Checkout(r.Context(), store, userID, req.Request)
	if order == nil {
		writeError(w, r, err)
		return
	}

	res := dto.CheckoutResponse{Order: dto.ConvertOrderToDTO(order)}
	if err != nil {
		res.Warning = err.Error()
	}
	response.JSON(w, http.StatusCreated, res)
}

/*
Live websocket 推送購物車快照
連線後先送出目前的購物車, 之後每次文件變更都送出完整快照
client 端的訊息只用來偵測斷線
*/
func (h *CartHandler) Live(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	logger := zerolog.Ctx(r.Context()).With().Str("user_id", userID).Logger()

	// hijack 之後 request context 不會因為斷線而結束, 由讀取端取消
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	updates, err := h.cartRepo.WatchCart(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := h.loadCart(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已經回應錯誤
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeCartSnapshot(conn, current); err != nil {
		logger.Warn().Err(err).Msg("write cart snapshot failed")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription closed"),
					time.Now().Add(time.Second))
				return
			}
			if err := writeCartSnapshot(conn, c); err != nil {
				logger.Warn().Err(err).Msg("write cart snapshot failed")
				return
			}
		}
	}
}

func writeCartSnapshot(conn *websocket.Conn, c model.Cart) error {
	if err := conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(dto.ConvertCartToDTO(c))
}
