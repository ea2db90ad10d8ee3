package dto

import (
	"encoding/json"
	"fmt"
	"marina/internal/domains/booking/model"
	"marina/shared"
	"marina/shared/constant"
	gDto "marina/shared/dto"
	"marina/shared/failure"
	gModel "marina/shared/model"
	"marina/shared/timezone"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	itemAliasAddOn       = "add_on_id"
	itemAliasFoodPackage = "food_package_id"
	itemAliasIsland      = "island_id"
)

// CreateBookingRequest carries line items as raw JSON because clients send them as arrays,
// single objects or serialized strings.
type CreateBookingRequest struct {
	CustomerID     string          `json:"customer_id"     validate:"omitempty,uuid"`
	BoatID         string          `json:"boat_id"         validate:"required,uuid"`
	BookingDate    string          `json:"booking_date"    validate:"required,datetime=2006-01-02"`
	BookingTime    string          `json:"booking_time"    validate:"required,datetime=15:04"`
	Location       string          `json:"location"        validate:"required,max=255"`
	DurationOption string          `json:"duration_option" validate:"required,max=50"`
	PaymentMethod  string          `json:"payment_method"  validate:"omitempty,max=50"`
	Status         string          `json:"status"          validate:"omitempty,oneof=Pending Confirmed Completed Cancelled"`
	PaymentStatus  string          `json:"payment_status"  validate:"omitempty,oneof=Paid Unpaid"`
	TotalPrice     decimal.Decimal `json:"total_price"     validate:"gte=0"`
	PaymentProof   *string         `json:"payment_proof"   validate:"omitempty,max=2048"`
	AddOns         json.RawMessage `json:"add_ons"`
	FoodPackages   json.RawMessage `json:"food_packages"`
	Islands        json.RawMessage `json:"islands"`
}

// ToModel builds the booking row and its line items. customerID is resolved by the caller.
func (c *CreateBookingRequest) ToModel(customerID, actorID string) (model.Booking, model.LineItems, error) {
	bookingDate, err := timezone.ParseDay(c.BookingDate)
	if err != nil {
		return model.Booking{}, model.LineItems{}, err
	}

	if _, err = time.Parse(constant.ClockFormat, c.BookingTime); err != nil {
		return model.Booking{}, model.LineItems{}, err
	}

	status := model.StatusPending
	if c.Status != "" {
		if status, err = model.ParseStatus(c.Status); err != nil {
			return model.Booking{}, model.LineItems{}, err
		}
	}

	paymentStatus := model.PaymentStatusUnpaid
	if c.PaymentStatus != "" {
		if paymentStatus, err = model.ParsePaymentStatus(c.PaymentStatus); err != nil {
			return model.Booking{}, model.LineItems{}, err
		}
	}

	paymentMethod := c.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.DefaultPaymentMethod
	}

	now := timezone.Now()
	booking := model.Booking{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		BoatID:         c.BoatID,
		BookingDate:    bookingDate,
		BookingTime:    c.BookingTime,
		Location:       c.Location,
		DurationOption: c.DurationOption,
		Status:         status,
		PaymentMethod:  paymentMethod,
		PaymentStatus:  paymentStatus,
		TotalPrice:     c.TotalPrice.Round(2),
		PaymentProof:   c.PaymentProof,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  actorID,
			ModifiedBy: actorID,
		},
	}

	items, err := c.lineItems(booking.ID)
	if err != nil {
		return model.Booking{}, model.LineItems{}, err
	}

	return booking, items, nil
}

// RequestsInitialStatus reports whether the request leaves status and payment at the values
// every new booking starts with.
func (c *CreateBookingRequest) RequestsInitialStatus() bool {
	return (c.Status == "" || c.Status == model.StatusPending.String()) &&
		(c.PaymentStatus == "" || c.PaymentStatus == model.PaymentStatusUnpaid.String())
}

func (c *CreateBookingRequest) lineItems(bookingID string) (model.LineItems, error) {
	items := model.LineItems{}

	addOns, err := catalogItems(c.AddOns, "add_ons", itemAliasAddOn)
	if err != nil {
		return items, err
	}

	for _, item := range addOns {
		items.AddOns = append(items.AddOns, model.AddOnLine{
			ID:        uuid.NewString(),
			BookingID: bookingID,
			AddOnID:   item.ID,
			Quantity:  item.Quantity,
		})
	}

	foodPackages, err := catalogItems(c.FoodPackages, "food_packages", itemAliasFoodPackage)
	if err != nil {
		return items, err
	}

	for _, item := range foodPackages {
		items.FoodPackages = append(items.FoodPackages, model.FoodPackageLine{
			ID:            uuid.NewString(),
			BookingID:     bookingID,
			FoodPackageID: item.ID,
			Quantity:      item.Quantity,
		})
	}

	islands, err := catalogItems(c.Islands, "islands", itemAliasIsland)
	if err != nil {
		return items, err
	}

	for _, item := range islands {
		items.Islands = append(items.Islands, model.IslandLine{
			ID:        uuid.NewString(),
			BookingID: bookingID,
			IslandID:  item.ID,
		})
	}

	return items, nil
}

// catalogItems normalizes one selection group. Catalog rows are keyed by UUID.
func catalogItems(raw json.RawMessage, field, alias string) ([]Item, error) {
	items := NormalizeItems(raw, alias)

	for _, item := range items {
		if uuid.Validate(item.ID) != nil {
			return nil, fmt.Errorf("%s has an invalid id %q", field, item.ID)
		}
	}

	return items, nil
}

type CreateBookingResponse struct {
	ID string `json:"id"`
}

// SetStatusRequest leaves PaymentStatus empty to let a confirmation mark the booking paid.
type SetStatusRequest struct {
	Status        string  `json:"status"         validate:"required,oneof=Pending Confirmed Completed Cancelled"`
	PaymentStatus string  `json:"payment_status" validate:"omitempty,oneof=Paid Unpaid"`
	Reason        *string `json:"reason"         validate:"omitempty,max=500"`
}

type SetPaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=Paid Unpaid"`
}

type UploadPaymentProofRequest struct {
	File string `json:"file" validate:"required,mimetypes=image/png image/jpeg image/webp application/pdf,maxfilesize=5"`
}

type DeleteBookingRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type RestoreBookingRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type LineItemResponse struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type BookingResponse struct {
	ID             string             `json:"id"`
	CustomerID     string             `json:"customer_id"`
	BoatID         string             `json:"boat_id"`
	BookingDate    string             `json:"booking_date"`
	BookingTime    string             `json:"booking_time"`
	Location       string             `json:"location"`
	DurationOption string             `json:"duration_option"`
	Status         string             `json:"status"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentStatus  string             `json:"payment_status"`
	TotalPrice     decimal.Decimal    `json:"total_price"`
	PaymentProof   *string            `json:"payment_proof"`
	IsDeleted      bool               `json:"is_deleted"`
	DeletedAt      *string            `json:"deleted_at,omitempty"`
	DeletedBy      *string            `json:"deleted_by,omitempty"`
	DeletionReason *string            `json:"deletion_reason,omitempty"`
	AddOns         []LineItemResponse `json:"add_ons,omitempty"`
	FoodPackages   []LineItemResponse `json:"food_packages,omitempty"`
	Islands        []string           `json:"islands,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.CustomerID = model.CustomerID
	r.BoatID = model.BoatID
	r.BookingDate = timezone.FormatDay(model.BookingDate)
	r.BookingTime = model.BookingTime
	r.Location = model.Location
	r.DurationOption = model.DurationOption
	r.Status = model.Status.String()
	r.PaymentMethod = model.PaymentMethod
	r.PaymentStatus = model.PaymentStatus.String()
	r.TotalPrice = model.TotalPrice
	r.PaymentProof = model.PaymentProof
	r.IsDeleted = model.IsDeleted
	r.DeletedBy = model.DeletedBy
	r.DeletionReason = model.DeletionReason

	if model.DeletedAt != nil {
		deletedAt := timezone.Format(*model.DeletedAt, constant.DateFormat)
		r.DeletedAt = &deletedAt
	}

	r.Metadata = gDto.NewMetadata(model.Metadata)
}

func (r *BookingResponse) WithLineItems(items model.LineItems) {
	r.AddOns = make([]LineItemResponse, len(items.AddOns))
	for i, line := range items.AddOns {
		r.AddOns[i] = LineItemResponse{ID: line.AddOnID, Quantity: line.Quantity}
	}

	r.FoodPackages = make([]LineItemResponse, len(items.FoodPackages))
	for i, line := range items.FoodPackages {
		r.FoodPackages[i] = LineItemResponse{ID: line.FoodPackageID, Quantity: line.Quantity}
	}

	r.Islands = make([]string, len(items.Islands))
	for i, line := range items.Islands {
		r.Islands[i] = line.IslandID
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type HistoryEntryResponse struct {
	ID        string         `json:"id"`
	BookingID string         `json:"booking_id"`
	Action    string         `json:"action"`
	OldValues model.Snapshot `json:"old_values"`
	NewValues model.Snapshot `json:"new_values"`
	ActorID   string         `json:"actor_id"`
	Reason    *string        `json:"reason"`
	CreatedAt string         `json:"created_at"`
}

func (r *HistoryEntryResponse) FromModel(entry model.HistoryEntry) {
	r.ID = entry.ID
	r.BookingID = entry.BookingID
	r.Action = string(entry.Action)
	r.OldValues = entry.OldValues
	r.NewValues = entry.NewValues
	r.ActorID = entry.ActorID
	r.Reason = entry.Reason
	r.CreatedAt = timezone.Format(entry.CreatedAt, constant.DateFormat)
}

type GetHistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
}

func (r *GetHistoryResponse) FromModels(entries []model.HistoryEntry) {
	r.Entries = make([]HistoryEntryResponse, len(entries))
	for i, entry := range entries {
		r.Entries[i].FromModel(entry)
	}
}

type AvailabilityResponse struct {
	BoatID    string `json:"boat_id"`
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

type UnavailableDatesResponse struct {
	BoatID string   `json:"boat_id"`
	Dates  []string `json:"dates"`
}

// ListFilter holds the optional query filters of the booking listings.
type ListFilter struct {
	BoatID        string
	CustomerID    string
	Status        string
	PaymentStatus string
	BookingDate   string
	DateFrom      string
	DateTo        string
}

const (
	queryDateFrom = "date_from"
	queryDateTo   = "date_to"
)

func (f *ListFilter) FromRequest(r *http.Request) {
	query := r.URL.Query()

	f.BoatID = query.Get(model.FieldBoatID)
	f.CustomerID = query.Get(model.FieldCustomerID)
	f.Status = query.Get(model.FieldStatus)
	f.PaymentStatus = query.Get(model.FieldPaymentStatus)
	f.BookingDate = query.Get(model.FieldBookingDate)
	f.DateFrom = query.Get(queryDateFrom)
	f.DateTo = query.Get(queryDateTo)
}

// Validate rejects malformed days and an inverted range before they reach the query.
func (f *ListFilter) Validate() error {
	days := map[string]string{
		model.FieldBookingDate: f.BookingDate,
		queryDateFrom:          f.DateFrom,
		queryDateTo:            f.DateTo,
	}

	for name, value := range days {
		if value == "" {
			continue
		}

		if _, err := timezone.ParseDay(value); err != nil {
			return failure.BadRequestFromString(name + " must be formatted as YYYY-MM-DD")
		}
	}

	if f.DateFrom != "" && f.DateTo != "" && f.DateFrom > f.DateTo {
		return failure.BadRequestFromString("date_from must not be after date_to")
	}

	return nil
}

// ToFilterGroup always scopes the listing to deleted or non-deleted bookings.
func (f *ListFilter) ToFilterGroup(deleted bool) gDto.FilterGroup {
	group := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldIsDeleted, Operator: gDto.FilterOperatorEq, Value: deleted, Table: model.TableName},
		},
	}

	optional := []struct {
		field string
		value string
	}{
		{field: model.FieldBoatID, value: f.BoatID},
		{field: model.FieldCustomerID, value: f.CustomerID},
		{field: model.FieldStatus, value: f.Status},
		{field: model.FieldPaymentStatus, value: f.PaymentStatus},
		{field: model.FieldBookingDate, value: f.BookingDate},
	}

	for _, filter := range optional {
		if filter.value == "" {
			continue
		}

		group.Filters = append(group.Filters, gDto.Filter{
			Field:    filter.field,
			Operator: gDto.FilterOperatorEq,
			Value:    filter.value,
			Table:    model.TableName,
		})
	}

	if f.DateFrom != "" {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldBookingDate,
			ArgName:  queryDateFrom,
			Operator: gDto.FilterOperatorGreaterEq,
			Value:    f.DateFrom,
			Table:    model.TableName,
		})
	}

	if f.DateTo != "" {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldBookingDate,
			ArgName:  queryDateTo,
			Operator: gDto.FilterOperatorLessEq,
			Value:    f.DateTo,
			Table:    model.TableName,
		})
	}

	return group
}
