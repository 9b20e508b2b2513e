package repository

import (
	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// articleRepository implements the ArticleRepository interface
type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository instance
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create stores a new article
func (r *articleRepository) Create(article *models.Article) error {
	return translateDuplicate(r.db.Create(article).Error)
}

// GetByID retrieves an article by its ID
func (r *articleRepository) GetByID(id uint) (*models.Article, error) {
	var article models.Article
	if err := r.db.First(&article, id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// GetBySlug retrieves an article by its slug
func (r *articleRepository) GetBySlug(slug string) (*models.Article, error) {
	var article models.Article
	if err := r.db.Where("slug = ?", slug).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// GetPublished lists published articles, most recently published first
func (r *articleRepository) GetPublished(offset, limit int) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.Where("published = ?", true).
		Order("published_at DESC, id DESC").Offset(offset).Limit(limit).Find(&articles).Error
	return articles, err
}

// GetAll lists all articles including drafts
func (r *articleRepository) GetAll(offset, limit int) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&articles).Error
	return articles, err
}

// Update saves an existing article
func (r *articleRepository) Update(article *models.Article) error {
	return translateDuplicate(r.db.Save(article).Error)
}

// Delete soft deletes an article by its ID
func (r *articleRepository) Delete(id uint) error {
	return r.db.Delete(&models.Article{}, id).Error
}

// Count returns the number of non-deleted articles
func (r *articleRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Article{}).Count(&count).Error
	return count, err
}

// SlugExists checks the slug against all articles, soft deleted ones
// included, since the unique index still holds them
func (r *articleRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Article{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SlugExistsExceptID is SlugExists ignoring the article with the given id
func (r *articleRepository) SlugExistsExceptID(slug string, id uint) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Article{}).Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}
