package service

import "github.com/crisvalt/billrelay-go/internal/domain"

// Menu returns the static canteen catalog the ordering page renders.
// Editing this slice is the deployment's menu management.
func Menu() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: "tea", Name: "Tea", Price: 15, Category: "beverages"},
		{ID: "coffee", Name: "Coffee", Price: 25, Category: "beverages"},
		{ID: "samosa", Name: "Samosa", Price: 20, Category: "snacks"},
		{ID: "vada-pav", Name: "Vada Pav", Price: 30, Category: "snacks"},
		{ID: "veg-thali", Name: "Veg Thali", Price: 120, Category: "meals"},
		{ID: "paneer-roll", Name: "Paneer Roll", Price: 90, Category: "meals"},
		{ID: "masala-dosa", Name: "Masala Dosa", Price: 80, Category: "meals"},
		{ID: "lassi", Name: "Sweet Lassi", Price: 45, Category: "beverages"},
	}
}
