package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCartHandler_Add(t *testing.T) {
	carts := &mockCartExecutor{items: []domain.CartItem{{ProductID: "p1", Quantity: 2, Price: 10}}}
	h := NewCartHandler(carts, 5*time.Second, testLogger())

	w := postJSON(t, h.Handle, `{"action":"add","userId":"u1","productId":"p1","quantity":2,"price":10}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp CartResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Product added to cart", resp.Message)
	require.Len(t, resp.Cart, 1)
	assert.Equal(t, 2, resp.Cart[0].Quantity)

	assert.Equal(t, service.AddItemCommand{UserID: "u1", ProductID: "p1", Quantity: 2, Price: 10}, carts.lastCommand())
}

func TestCartHandler_Remove(t *testing.T) {
	carts := &mockCartExecutor{items: []domain.CartItem{}}
	h := NewCartHandler(carts, 5*time.Second, testLogger())

	w := postJSON(t, h.Handle, `{"action":"remove","userId":"u1","productId":"p1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp CartResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Product removed from cart", resp.Message)
	assert.NotNil(t, resp.Cart)
	assert.Empty(t, resp.Cart)
	assert.Equal(t, service.RemoveItemCommand{UserID: "u1", ProductID: "p1"}, carts.lastCommand())
}

func TestCartHandler_GetReturnsBareItems(t *testing.T) {
	carts := &mockCartExecutor{items: []domain.CartItem{{ProductID: "p1", Quantity: 1, Price: 5}}}
	h := NewCartHandler(carts, 5*time.Second, testLogger())

	w := postJSON(t, h.Handle, `{"action":"get","userId":"u1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var items []domain.CartItem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&items))
	assert.Equal(t, carts.items, items)
}

func TestCartHandler_InvalidAction(t *testing.T) {
	carts := &mockCartExecutor{}
	h := NewCartHandler(carts, 5*time.Second, testLogger())

	w := postJSON(t, h.Handle, `{"action":"clear","userId":"u1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action", decodeError(t, w).Message)
	assert.Nil(t, carts.lastCommand())
}

func TestCartHandler_InvalidJSON(t *testing.T) {
	h := NewCartHandler(&mockCartExecutor{}, 5*time.Second, testLogger())

	w := postJSON(t, h.Handle, `{"action":"add","quantity":"two"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("%w: %s", service.ErrInvalidRequest, "quantity must be positive"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "quantity must be positive",
		},
		{
			name:       "missing cart",
			err:        fmt.Errorf("%w: %s", service.ErrNotFound, "cart not found"),
			wantStatus: http.StatusNotFound,
			wantMsg:    "cart not found",
		},
		{
			name:       "store timeout",
			err:        fmt.Errorf("%w: get cart: %w", service.ErrStorage, fmt.Errorf("failed to get cart: %w", context.DeadlineExceeded)),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "error processing cart request",
		},
		{
			name:       "storage details are hidden",
			err:        fmt.Errorf("%w: save cart: %w", service.ErrStorage, errors.New("socket closed")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "error processing cart request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCartHandler(&mockCartExecutor{err: tt.err}, 5*time.Second, testLogger())

			w := postJSON(t, h.Handle, `{"action":"get","userId":"u1"}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, w).Message)
		})
	}
}
