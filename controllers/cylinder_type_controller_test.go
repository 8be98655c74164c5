package controllers

import (
	"net/http"
	"testing"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCylinderTypes(t *testing.T) {
	env := newAPIEnv(t)
	require.NoError(t, env.db.Model(&models.CylinderType{}).Create(map[string]interface{}{
		"name": "Retired 30L", "slug": "retired-30l", "capacity_grams": 200,
		"refill_price": decimal.NewFromInt(30), "exchange_price": decimal.NewFromInt(35),
		"new_price": decimal.NewFromInt(90), "subscription_price": decimal.NewFromInt(25),
		"active": false,
	}).Error)

	w := env.do(http.MethodGet, "/api/v1/cylinder-types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var types []models.CylinderType
	decodeData(t, w, &types)
	require.Len(t, types, 1)
	assert.Equal(t, "standard-60l", types[0].Slug)
	assert.True(t, types[0].RefillPrice.Equal(decimal.NewFromInt(45)))
}

func TestCreateCylinderType(t *testing.T) {
	env := newAPIEnv(t)
	body := gin.H{
		"name":               "Large 120L",
		"slug":               "large-120l",
		"capacity_grams":     850,
		"refill_price":       "79.995",
		"exchange_price":     "95",
		"new_price":          "260",
		"subscription_price": "70",
	}

	w := env.do(http.MethodPost, "/api/v1/admin/cylinder-types", customerSub, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/v1/admin/cylinder-types", adminSub, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ct models.CylinderType
	decodeData(t, w, &ct)
	assert.True(t, ct.Active)
	assert.Equal(t, "80", ct.RefillPrice.String())

	w = env.do(http.MethodPost, "/api/v1/admin/cylinder-types", adminSub, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLUG_EXISTS", errorCode(t, w))

	body["slug"] = "negative"
	body["new_price"] = "-1"
	w = env.do(http.MethodPost, "/api/v1/admin/cylinder-types", adminSub, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/admin/cylinder-types", adminSub, gin.H{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}
