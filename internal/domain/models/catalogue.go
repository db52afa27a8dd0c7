package models

// Ingredient is a procurable catalogue entry.
type Ingredient struct {
	ID       string    `bson:"_id" json:"id"`
	Name     string    `bson:"name" json:"name"`
	Variants []Variant `bson:"variants" json:"variants"`
}

// Variant is one packaging size of an ingredient with its own stock count.
type Variant struct {
	Name  string  `bson:"name,omitempty" json:"name,omitempty"`
	Stock float64 `bson:"stock" json:"stock"`
	UomID string  `bson:"uom_id" json:"uomId"`
}

// TotalStock sums stock across all variants.
func (i Ingredient) TotalStock() float64 {
	var total float64
	for _, v := range i.Variants {
		total += v.Stock
	}
	return total
}

// UnitOfMeasure is display reference data for quantities.
type UnitOfMeasure struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}
