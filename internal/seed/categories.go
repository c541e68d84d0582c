package seed

import (
	"fmt"

	"campusmarket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInCategory is a permanent system category.
type BuiltInCategory struct {
	Name        string
	Slug        string
	Description string
	Icon        string
	Color       string
}

// BuiltInCategories defines the permanent marketplace categories. Ordering
// here determines the default sort order in the browse UI.
var BuiltInCategories = []BuiltInCategory{
	{Name: "Textbooks", Slug: "textbooks", Description: "Course books, solution manuals, and study guides.", Icon: "book", Color: "#2563eb"},
	{Name: "Electronics", Slug: "electronics", Description: "Laptops, tablets, calculators, and accessories.", Icon: "cpu", Color: "#7c3aed"},
	{Name: "Furniture", Slug: "furniture", Description: "Desks, chairs, shelves, and dorm furnishings.", Icon: "armchair", Color: "#b45309"},
	{Name: "Clothing", Slug: "clothing", Description: "Clothes, shoes, and accessories.", Icon: "shirt", Color: "#db2777"},
	{Name: "Appliances", Slug: "appliances", Description: "Kettles, mini fridges, fans, and small appliances.", Icon: "plug", Color: "#0891b2"},
	{Name: "Sports & Outdoors", Slug: "sports", Description: "Bikes, gym gear, and outdoor equipment.", Icon: "bike", Color: "#16a34a"},
	{Name: "Musical Instruments", Slug: "instruments", Description: "Guitars, keyboards, and practice gear.", Icon: "music", Color: "#ca8a04"},
	{Name: "Lab & Course Equipment", Slug: "lab-equipment", Description: "Lab coats, drawing kits, and course materials.", Icon: "flask", Color: "#4f46e5"},
	{Name: "Tickets & Events", Slug: "tickets", Description: "Event, concert, and sports tickets.", Icon: "ticket", Color: "#dc2626"},
	{Name: "Other", Slug: "other", Description: "Everything that does not fit elsewhere.", Icon: "box", Color: "#6b7280"},
}

// Categories upserts the built-in marketplace categories. It is idempotent
// and safe to run on every startup.
func Categories(db *gorm.DB) error {
	for i, item := range BuiltInCategories {
		category := models.Category{
			Name:        item.Name,
			Slug:        item.Slug,
			Description: item.Description,
			Icon:        item.Icon,
			Color:       item.Color,
			SortOrder:   i,
			IsActive:    true,
		}

		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "color", "sort_order", "is_active"}),
		}).Create(&category).Error; err != nil {
			return fmt.Errorf("seed built-in category %s: %w", item.Slug, err)
		}
	}

	return nil
}
