package model

const (
	AddOnTableName       = "booking_add_ons"
	FoodPackageTableName = "booking_food_packages"
	IslandTableName      = "booking_islands"

	AddOnEntityName       = "booking add-on"
	FoodPackageEntityName = "booking food package"
	IslandEntityName      = "booking island"

	LineFieldID        = "id"
	LineFieldBookingID = "booking_id"
)

type AddOnLine struct {
	ID        string `db:"id"`
	BookingID string `db:"booking_id"`
	AddOnID   string `db:"add_on_id"`
	Quantity  int    `db:"quantity"`
}

type FoodPackageLine struct {
	ID            string `db:"id"`
	BookingID     string `db:"booking_id"`
	FoodPackageID string `db:"food_package_id"`
	Quantity      int    `db:"quantity"`
}

type IslandLine struct {
	ID        string `db:"id"`
	BookingID string `db:"booking_id"`
	IslandID  string `db:"island_id"`
}

// LineItems is the set of catalog selections owned by one booking.
type LineItems struct {
	AddOns       []AddOnLine
	FoodPackages []FoodPackageLine
	Islands      []IslandLine
}

func (l LineItems) Empty() bool {
	return len(l.AddOns) == 0 && len(l.FoodPackages) == 0 && len(l.Islands) == 0
}
