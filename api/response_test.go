package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"consumables/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("take: %w", service.ErrInsufficientStock), http.StatusBadRequest},
		{service.ErrInvalidQuantity, http.StatusBadRequest},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrNotAnnouncementDay, http.StatusBadRequest},
		{fmt.Errorf("item: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrSelfDelete, http.StatusForbidden},
		{service.ErrConflict, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tt.err, "操作失败")
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}

func TestRespondError_ForbiddenCarriesRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondErrorRedirect(c, service.ErrForbidden, "删除失败", "/categories/3")
	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "/categories/3", resp["data"].(map[string]interface{})["redirect"])
}
