package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/model"
	"github.com/TheFlashe/diplom-neto/pkg/database"
	"github.com/TheFlashe/diplom-neto/pkg/logger"
	"github.com/TheFlashe/diplom-neto/prometheus"
)

// ListShops returns all shops.
func ListShops(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var shops []model.Shop
	if result := database.GetDB().Order("id").Find(&shops); result.Error != nil {
		log.Error("Failed to list shops", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch shops"})
	}
	return c.JSON(http.StatusOK, shops)
}

// GetShop returns one shop by id.
func GetShop(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var shop model.Shop
	if result := database.GetDB().First(&shop, id); result.Error != nil {
		log.Warn("Shop not found", zap.Uint64("id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
	}
	return c.JSON(http.StatusOK, shop)
}

// ListCategories returns all categories, optionally narrowed to one shop.
func ListCategories(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.Category{}).Order("categories.id")
	if shopID := c.QueryParam("shop_id"); shopID != "" {
		id, err := strconv.ParseUint(shopID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop_id"})
		}
		query = query.
			Joins("JOIN shop_categories ON shop_categories.category_id = categories.id").
			Where("shop_categories.shop_id = ?", id)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var categories []model.Category
	if result := query.Find(&categories); result.Error != nil {
		log.Error("Failed to list categories", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch categories"})
	}
	return c.JSON(http.StatusOK, categories)
}

// ListProducts returns catalog products, optionally filtered by category.
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.Product{}).Order("id")
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		id, err := strconv.ParseUint(categoryID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}
		query = query.Where("category_id = ?", id)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	if result := query.Find(&products); result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch products"})
	}
	return c.JSON(http.StatusOK, products)
}

// productInfoView is a listing with its attribute values attached.
type productInfoView struct {
	model.ProductInfo
	Parameters map[string]string `json:"parameters"`
}

// ListProductInfo returns shop listings. By default only available listings
// are shown; pass available=all to include deactivated ones. Supports
// shop_id, product_id and category_id filters.
func ListProductInfo(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.ProductInfo{}).Order("product_infos.id")
	if c.QueryParam("available") != "all" {
		query = query.Where("product_infos.available = ?", true)
	}
	if shopID := c.QueryParam("shop_id"); shopID != "" {
		id, err := strconv.ParseUint(shopID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop_id"})
		}
		query = query.Where("product_infos.shop_id = ?", id)
	}
	if productID := c.QueryParam("product_id"); productID != "" {
		id, err := strconv.ParseUint(productID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_id"})
		}
		query = query.Where("product_infos.product_id = ?", id)
	}
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		id, err := strconv.ParseUint(categoryID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}
		query = query.
			Joins("JOIN products ON products.id = product_infos.product_id").
			Where("products.category_id = ?", id)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var infos []model.ProductInfo
	if result := query.Find(&infos); result.Error != nil {
		log.Error("Failed to list product info", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
	}

	views := make([]productInfoView, 0, len(infos))
	for _, info := range infos {
		params, err := listingParameters(info.ID)
		if err != nil {
			log.Error("Failed to load listing parameters", zap.Uint("product_info_id", info.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
		}
		views = append(views, productInfoView{ProductInfo: info, Parameters: params})
	}
	return c.JSON(http.StatusOK, views)
}

// GetProductInfo returns one listing with its parameters.
func GetProductInfo(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var info model.ProductInfo
	if result := database.GetDB().First(&info, id); result.Error != nil {
		log.Warn("Listing not found", zap.Uint64("id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	params, err := listingParameters(info.ID)
	if err != nil {
		log.Error("Failed to load listing parameters", zap.Uint("product_info_id", info.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	return c.JSON(http.StatusOK, productInfoView{ProductInfo: info, Parameters: params})
}

// listingParameters collects a listing's attribute values keyed by
// parameter name.
func listingParameters(infoID uint) (map[string]string, error) {
	type row struct {
		Name  string
		Value string
	}
	var rows []row
	err := database.GetDB().Model(&model.ProductParameter{}).
		Select("parameters.name, product_parameters.value").
		Joins("JOIN parameters ON parameters.id = product_parameters.parameter_id").
		Where("product_parameters.product_info_id = ?", infoID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, len(rows))
	for _, r := range rows {
		params[r.Name] = r.Value
	}
	return params, nil
}
