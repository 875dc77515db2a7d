package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"go-storefront/models"
	"go-storefront/repository/repotest"
	"go-storefront/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newProductFixture(t *testing.T) (*ProductController, *repotest.Products, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	products := repotest.NewProducts()
	return NewProductController(products, utils.NewCache(rdb)), products, mr
}

func seedProduct(t *testing.T, store *repotest.Products, name, category string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: "d", Image: "i.jpg", Category: category, Price: price, Stock: 3}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func productList(t *testing.T, body []byte) []models.Product {
	t.Helper()
	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	return products
}

func TestGetProductsFiltersAndCaches(t *testing.T) {
	pc, store, mr := newProductFixture(t)
	seedProduct(t, store, "Oak Chair", "chairs", 100)
	seedProduct(t, store, "Teak Table", "tables", 300)

	rec := call(t, pc.GetProducts, http.MethodGet, "/api/products/products", nil, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, productList(t, rec.Body.Bytes()), 2)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	rec = call(t, pc.GetProducts, http.MethodGet, "/api/products/products?category=chairs", nil, nil, nil)
	got := productList(t, rec.Body.Bytes())
	require.Len(t, got, 1)
	assert.Equal(t, "Oak Chair", got[0].Name)

	rec = call(t, pc.GetProducts, http.MethodGet, "/api/products/products?search=TABLE", nil, nil, nil)
	got = productList(t, rec.Body.Bytes())
	require.Len(t, got, 1)
	assert.Equal(t, "Teak Table", got[0].Name)

	rec = call(t, pc.GetProducts, http.MethodGet, "/api/products/products", nil, nil, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Len(t, mr.Keys(), 3)
}

func TestGetProductsEmptyCatalog(t *testing.T) {
	pc := NewProductController(repotest.NewProducts(), nil)
	rec := call(t, pc.GetProducts, http.MethodGet, "/api/products/products", nil, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetProductByID(t *testing.T) {
	pc, store, _ := newProductFixture(t)
	p := seedProduct(t, store, "Oak Chair", "chairs", 100)

	rec := call(t, pc.GetProductByID, http.MethodGet, "/", nil, nil, map[string]string{"id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid product ID", decode(t, rec)["message"])

	rec = call(t, pc.GetProductByID, http.MethodGet, "/", nil, nil, map[string]string{"id": primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decode(t, rec)["message"])

	rec = call(t, pc.GetProductByID, http.MethodGet, "/", nil, nil, map[string]string{"id": p.ID.Hex()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Oak Chair", decode(t, rec)["name"])
}

func TestCreateProduct(t *testing.T) {
	pc, store, mr := newProductFixture(t)
	mr.Set(productCachePrefix+"category=&search=", "[]")

	rec := call(t, pc.CreateProduct, http.MethodPost, "/", map[string]any{"name": "Sofa", "price": 10}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "description is required", decode(t, rec)["message"])

	rec = call(t, pc.CreateProduct, http.MethodPost, "/", map[string]any{
		"name": "Sofa", "description": "3 seater", "image": "s.jpg", "category": "sofas", "price": -1,
	}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price is invalid", decode(t, rec)["message"])

	rec = call(t, pc.CreateProduct, http.MethodPost, "/", map[string]any{
		"_id": primitive.NewObjectID().Hex(), "name": "Sofa", "description": "3 seater", "image": "s.jpg",
		"category": "sofas", "price": 4999.5, "stock": 2,
	}, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 4999.5, body["price"])

	id, err := primitive.ObjectIDFromHex(body["_id"].(string))
	require.NoError(t, err)
	_, err = store.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Empty(t, mr.Keys(), "writes invalidate the list cache")
}

func TestUpdateProductIsPartial(t *testing.T) {
	pc, store, _ := newProductFixture(t)
	p := seedProduct(t, store, "Oak Chair", "chairs", 100)
	vars := map[string]string{"id": p.ID.Hex()}

	rec := call(t, pc.UpdateProduct, http.MethodPut, "/", map[string]any{"price": 120, "stock": 0}, nil, vars)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 120.0, body["price"])
	assert.Equal(t, 0.0, body["stock"])
	assert.Equal(t, "Oak Chair", body["name"])
	assert.Equal(t, "chairs", body["category"])

	rec = call(t, pc.UpdateProduct, http.MethodPut, "/", map[string]any{"name": ""}, nil, vars)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, pc.UpdateProduct, http.MethodPut, "/", map[string]any{}, nil, vars)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, pc.UpdateProduct, http.MethodPut, "/", map[string]any{"price": 1}, nil,
		map[string]string{"id": primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	pc, store, _ := newProductFixture(t)
	p := seedProduct(t, store, "Oak Chair", "chairs", 100)
	vars := map[string]string{"id": p.ID.Hex()}

	rec := call(t, pc.DeleteProduct, http.MethodDelete, "/", nil, nil, vars)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product removed", decode(t, rec)["message"])

	rec = call(t, pc.DeleteProduct, http.MethodDelete, "/", nil, nil, vars)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
