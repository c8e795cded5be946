package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TheFlashe/diplom-neto/internal/model"
)

// Importer reconciles supplier feeds into the catalog. Each run executes in
// a single transaction: per-item failures are skipped and counted, anything
// else rolls the whole run back.
type Importer struct {
	db     *gorm.DB
	log    *zap.Logger
	client *http.Client
}

func NewImporter(db *gorm.DB, log *zap.Logger) *Importer {
	return &Importer{
		db:     db,
		log:    log,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// ImportSummary reports the outcome of one feed import run.
type ImportSummary struct {
	Shop       string `json:"shop"`
	Categories int    `json:"categories"`
	Succeeded  int    `json:"goods_succeeded"`
	Failed     int    `json:"goods_failed"`
	Total      int    `json:"goods_total"`
}

// importSession carries the per-run caches: the feed-local category id map,
// resolved parameters, and the taken-slug sets per table. A fresh session
// per run keeps concurrent imports from sharing state.
type importSession struct {
	tx         *gorm.DB
	shop       *model.Shop
	categories map[int]*model.Category
	parameters map[string]*model.Parameter
	slugs      map[string]map[string]struct{}
}

// takeSlug returns a unique slug for the given table, loading the existing
// slugs once per run and reserving the result for the rest of the session.
func (s *importSession) takeSlug(table string, m any, name string) (string, error) {
	taken, ok := s.slugs[table]
	if !ok {
		var existing []string
		if err := s.tx.Model(m).Pluck("slug", &existing).Error; err != nil {
			return "", err
		}
		taken = make(map[string]struct{}, len(existing))
		for _, sl := range existing {
			taken[sl] = struct{}{}
		}
		s.slugs[table] = taken
	}
	slug := UniqueSlug(Slugify(name), taken)
	taken[slug] = struct{}{}
	return slug, nil
}

// ImportFile imports a local YAML feed on behalf of the named owner.
// The owner must exist; a shop named in the feed is created for them if
// it does not exist yet.
func (im *Importer) ImportFile(ctx context.Context, path, ownerEmail string) (*ImportSummary, error) {
	feed, err := LoadFeed(path)
	if err != nil {
		return nil, err
	}

	var owner model.User
	if err := im.db.WithContext(ctx).Where("email = ?", ownerEmail).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("owner %q: %w", ownerEmail, ErrNotFound)
		}
		return nil, err
	}
	return im.Import(ctx, feed, owner.ID)
}

// Import reconciles a feed into the catalog. Re-running the same feed is
// idempotent apart from price/quantity updates.
func (im *Importer) Import(ctx context.Context, feed *Feed, ownerID uint) (*ImportSummary, error) {
	return im.run(ctx, feed, ownerID, false)
}

// PartnerUpdate applies a feed on behalf of a shop owner. The target shop
// must already belong to the owner, and every listing the feed omits is
// deactivated rather than left stale-available.
func (im *Importer) PartnerUpdate(ctx context.Context, feed *Feed, ownerID uint) (*ImportSummary, error) {
	return im.run(ctx, feed, ownerID, true)
}

// PartnerUpdateURL fetches a remote feed and applies it via PartnerUpdate.
func (im *Importer) PartnerUpdateURL(ctx context.Context, rawURL string, ownerID uint) (*ImportSummary, error) {
	feed, err := FetchFeed(ctx, im.client, rawURL)
	if err != nil {
		return nil, err
	}
	return im.PartnerUpdate(ctx, feed, ownerID)
}

func (im *Importer) run(ctx context.Context, feed *Feed, ownerID uint, partner bool) (*ImportSummary, error) {
	summary := &ImportSummary{Shop: feed.Shop, Total: len(feed.Goods)}

	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := &importSession{
			tx:         tx,
			categories: make(map[int]*model.Category),
			parameters: make(map[string]*model.Parameter),
			slugs:      make(map[string]map[string]struct{}),
		}

		var err error
		if partner {
			s.shop, err = ownedShop(tx, feed.Shop, ownerID)
		} else {
			s.shop, err = im.resolveShop(s, feed.Shop, ownerID)
		}
		if err != nil {
			return err
		}
		summary.Shop = s.shop.Name

		if partner {
			// Anything the new feed omits must become unavailable, not stale.
			if err := tx.Model(&model.ProductInfo{}).
				Where("shop_id = ?", s.shop.ID).
				Update("available", false).Error; err != nil {
				return err
			}
		}

		if err := im.importCategories(s, feed.Categories); err != nil {
			return err
		}
		summary.Categories = len(feed.Categories)

		for i := range feed.Goods {
			good := &feed.Goods[i]
			if err := im.importGood(s, good); err != nil {
				if !IsDomainError(err) {
					return err
				}
				im.log.Warn("skipping feed item",
					zap.String("name", good.Name),
					zap.String("shop", s.shop.Name),
					zap.Error(err))
				summary.Failed++
				continue
			}
			summary.Succeeded++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	im.log.Info("feed import finished",
		zap.String("shop", summary.Shop),
		zap.Int("categories", summary.Categories),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// resolveShop finds the shop by name or creates it for the owner with
// defaults derived from the name.
func (im *Importer) resolveShop(s *importSession, name string, ownerID uint) (*model.Shop, error) {
	var shop model.Shop
	err := s.tx.Where("name = ?", name).First(&shop).Error
	if err == nil {
		return &shop, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	slug, err := s.takeSlug("shops", &model.Shop{}, name)
	if err != nil {
		return nil, err
	}
	shop = model.Shop{
		Name:        name,
		Slug:        slug,
		Description: "Shop " + name,
		URL:         "https://" + slug + ".example.com",
		OwnerID:     ownerID,
	}
	if err := s.tx.Create(&shop).Error; err != nil {
		return nil, err
	}
	im.log.Info("created shop", zap.String("name", shop.Name), zap.String("slug", shop.Slug))
	return &shop, nil
}

// ownedShop resolves the partner-update target: the named shop must belong
// to the owner, or, when the feed names no shop, the owner's first shop is
// used.
func ownedShop(tx *gorm.DB, name string, ownerID uint) (*model.Shop, error) {
	var shop model.Shop
	if strings.TrimSpace(name) == "" {
		err := tx.Where("owner_id = ?", ownerID).Order("id").First(&shop).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoShop
		}
		if err != nil {
			return nil, err
		}
		return &shop, nil
	}

	err := tx.Where("name = ? AND owner_id = ?", name, ownerID).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShopNotOwned
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// importCategories resolves or creates each category, associates it with
// the current shop, and records the feed-local id mapping for the run.
func (im *Importer) importCategories(s *importSession, categories []FeedCategory) error {
	for _, c := range categories {
		var category model.Category
		err := s.tx.Where("name = ?", c.Name).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slug, slugErr := s.takeSlug("categories", &model.Category{}, c.Name)
			if slugErr != nil {
				return slugErr
			}
			category = model.Category{Name: c.Name, Slug: slug}
			if err := s.tx.Create(&category).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// Idempotent: appending an existing association is a no-op.
		if err := s.tx.Model(&category).Association("Shops").Append(s.shop); err != nil {
			return err
		}
		s.categories[c.ID] = &category
	}
	return nil
}

// resolveParameter finds or creates a parameter by name, cached per run.
func (im *Importer) resolveParameter(s *importSession, name string) (*model.Parameter, error) {
	if p, ok := s.parameters[name]; ok {
		return p, nil
	}

	var param model.Parameter
	err := s.tx.Where("name = ?", name).First(&param).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		param = model.Parameter{Name: name}
		err = s.tx.Create(&param).Error
	}
	if err != nil {
		return nil, err
	}
	s.parameters[name] = &param
	return &param, nil
}

// importGood upserts one feed row: the product, its listing for the current
// shop, and the listing's parameters.
func (im *Importer) importGood(s *importSession, good *FeedGood) error {
	category, ok := s.categories[good.Category]
	if !ok {
		return fmt.Errorf("%w: category reference %d", ErrNotFound, good.Category)
	}

	product, err := im.resolveProduct(s, good.Name, category.ID)
	if err != nil {
		return err
	}

	var info model.ProductInfo
	err = s.tx.Where("product_id = ? AND shop_id = ?", product.ID, s.shop.ID).First(&info).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		slug, slugErr := s.takeSlug("product_infos", &model.ProductInfo{}, good.Name)
		if slugErr != nil {
			return slugErr
		}
		info = model.ProductInfo{
			Name:      good.Name,
			Slug:      slug,
			Quantity:  good.Quantity,
			Price:     good.Price,
			PriceRRC:  good.PriceRRC,
			Available: good.Quantity > 0,
			ProductID: product.ID,
			ShopID:    s.shop.ID,
		}
		if err := s.tx.Create(&info).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		info.Quantity = good.Quantity
		info.Price = good.Price
		info.PriceRRC = good.PriceRRC
		info.Available = good.Quantity > 0
		if err := s.tx.Save(&info).Error; err != nil {
			return err
		}
	}

	for name, raw := range good.Parameters {
		param, err := im.resolveParameter(s, name)
		if err != nil {
			return err
		}
		if err := upsertProductParameter(s.tx, info.ID, param.ID, parameterString(raw)); err != nil {
			return err
		}
	}
	return nil
}

// resolveProduct finds or creates a product by (name, category).
func (im *Importer) resolveProduct(s *importSession, name string, categoryID uint) (*model.Product, error) {
	var product model.Product
	err := s.tx.Where("name = ? AND category_id = ?", name, categoryID).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	slug, err := s.takeSlug("products", &model.Product{}, name)
	if err != nil {
		return nil, err
	}
	product = model.Product{Name: name, Slug: slug, CategoryID: categoryID}
	if err := s.tx.Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// upsertProductParameter writes the value for (product_info, parameter),
// last write wins.
func upsertProductParameter(tx *gorm.DB, infoID, paramID uint, value string) error {
	var pp model.ProductParameter
	err := tx.Where("product_info_id = ? AND parameter_id = ?", infoID, paramID).First(&pp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pp = model.ProductParameter{ProductInfoID: infoID, ParameterID: paramID, Value: value}
		return tx.Create(&pp).Error
	}
	if err != nil {
		return err
	}
	pp.Value = value
	return tx.Save(&pp).Error
}
