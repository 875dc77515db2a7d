package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/repository"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	productCachePrefix = "products:list:"
	productCacheTTL    = 60 * time.Second
)

// ProductController handles product-related requests
type ProductController struct {
	Products repository.ProductStore
	Cache    *utils.Cache
}

// NewProductController creates a new ProductController. cache may be nil.
func NewProductController(products repository.ProductStore, cache *utils.Cache) *ProductController {
	return &ProductController{Products: products, Cache: cache}
}

// GetProducts lists the catalog, optionally filtered by category and name search
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	filter := models.ProductFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}
	key := productCachePrefix + url.Values{"category": {filter.Category}, "search": {filter.Search}}.Encode()

	ctx := r.Context()
	var products []models.Product
	hit, err := pc.Cache.GetCache(ctx, key, &products)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Product cache read failed")
	}
	if hit && err == nil {
		w.Header().Set("X-Cache", "HIT")
		utils.RespondJSON(w, http.StatusOK, products)
		return
	}

	products, err = pc.Products.List(ctx, filter)
	if err != nil {
		serverError(w, err, "Error fetching products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	if err := pc.Cache.SetCache(ctx, key, products, productCacheTTL); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Product cache write failed")
	}
	utils.RespondJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	product, err := pc.Products.FindByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		serverError(w, err, "Error fetching product")
		return
	}
	utils.RespondJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := utils.DecodeJSON(w, r, &product); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	product.ID = primitive.NilObjectID
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)
	if err := utils.Validate.Struct(&product); err != nil {
		utils.RespondError(w, http.StatusBadRequest, utils.ValidationMessage(err))
		return
	}

	ctx := r.Context()
	if err := pc.Products.Create(ctx, &product); err != nil {
		serverError(w, err, "Error creating product")
		return
	}
	pc.invalidate(ctx)
	utils.RespondJSON(w, http.StatusCreated, product)
}

// UpdateProduct applies a partial update; fields absent from the body keep their value (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var update models.ProductUpdate
	if err := utils.DecodeJSON(w, r, &update); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := utils.Validate.Struct(&update); err != nil {
		utils.RespondError(w, http.StatusBadRequest, utils.ValidationMessage(err))
		return
	}

	ctx := r.Context()
	var (
		product *models.Product
		err     error
	)
	if len(update.Fields()) == 0 {
		product, err = pc.Products.FindByID(ctx, id)
	} else {
		product, err = pc.Products.Update(ctx, id, update)
	}
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		serverError(w, err, "Error updating product")
		return
	}
	pc.invalidate(ctx)
	utils.RespondJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	err := pc.Products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		serverError(w, err, "Error deleting product")
		return
	}
	pc.invalidate(ctx)
	utils.RespondMessage(w, http.StatusOK, "Product removed")
}

func (pc *ProductController) invalidate(ctx context.Context) {
	if err := pc.Cache.DeletePrefix(ctx, productCachePrefix); err != nil {
		logrus.WithError(err).Warn("Product cache invalidation failed")
	}
}

func productID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return primitive.NilObjectID, false
	}
	return id, true
}
