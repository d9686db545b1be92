package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayloop/internal/domain/booking"
	"stayloop/internal/domain/listings"
	"stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("bookings")
	idxGuest := mongo.IndexModel{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}}
	idxHost := mongo.IndexModel{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}}
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{idxGuest, idxHost})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save performs a compare-and-set on the stored version. A mismatch means a
// concurrent writer won and the caller must reload and retry.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string, status domainbooking.Status, limit, offset int) ([]*domainbooking.Booking, int, error) {
	return r.list(ctx, bson.M{"guest_id": guestID}, status, limit, offset)
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string, status domainbooking.Status, limit, offset int) ([]*domainbooking.Booking, int, error) {
	return r.list(ctx, bson.M{"host_id": hostID}, status, limit, offset)
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M, status domainbooking.Status, limit, offset int) ([]*domainbooking.Booking, int, error) {
	if status != "" {
		filter["status"] = string(status)
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

type bookingDocument struct {
	ID              string                `bson:"_id"`
	ListingID       string                `bson:"listing_id"`
	GuestID         string                `bson:"guest_id"`
	HostID          string                `bson:"host_id"`
	Range           rangeDocument         `bson:"range"`
	Nights          int                   `bson:"nights"`
	Guests          guestsDocument        `bson:"guests"`
	Price           quoteDocument         `bson:"price"`
	Payment         paymentDocument       `bson:"payment"`
	Status          string                `bson:"status"`
	Policy          string                `bson:"policy"`
	SpecialRequests string                `bson:"special_requests,omitempty"`
	Cancellation    *cancellationDocument `bson:"cancellation,omitempty"`
	Communication   []messageDocument     `bson:"communication,omitempty"`
	CreatedAt       int64                 `bson:"created_at"`
	UpdatedAt       int64                 `bson:"updated_at"`
	Version         int64                 `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type guestsDocument struct {
	Adults   int `bson:"adults"`
	Children int `bson:"children"`
	Infants  int `bson:"infants"`
	Pets     int `bson:"pets"`
	Total    int `bson:"total"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type quoteDocument struct {
	BasePrice   moneyDocument `bson:"base_price"`
	Nights      int           `bson:"nights"`
	Subtotal    moneyDocument `bson:"subtotal"`
	CleaningFee moneyDocument `bson:"cleaning_fee"`
	ServiceFee  moneyDocument `bson:"service_fee"`
	Taxes       moneyDocument `bson:"taxes"`
	Total       moneyDocument `bson:"total"`
}

type paymentDocument struct {
	Method        string        `bson:"method"`
	Status        string        `bson:"status"`
	TransactionID string        `bson:"transaction_id,omitempty"`
	PaidAt        int64         `bson:"paid_at,omitempty"`
	RefundedAt    int64         `bson:"refunded_at,omitempty"`
	RefundAmount  moneyDocument `bson:"refund_amount"`
	RefundReason  string        `bson:"refund_reason,omitempty"`
}

type cancellationDocument struct {
	CancelledBy  string        `bson:"cancelled_by"`
	CancelledAt  int64         `bson:"cancelled_at"`
	Reason       string        `bson:"reason,omitempty"`
	Policy       string        `bson:"policy"`
	RefundAmount moneyDocument `bson:"refund_amount"`
}

type messageDocument struct {
	Sender string `bson:"sender"`
	Body   string `bson:"body"`
	SentAt int64  `bson:"sent_at"`
	Read   bool   `bson:"read"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Range:     rangeDocument{CheckIn: timeToTimestamp(b.Range.CheckIn), CheckOut: timeToTimestamp(b.Range.CheckOut)},
		Nights:    b.Nights,
		Guests: guestsDocument{
			Adults:   b.Guests.Adults,
			Children: b.Guests.Children,
			Infants:  b.Guests.Infants,
			Pets:     b.Guests.Pets,
			Total:    b.Guests.Total,
		},
		Price: quoteDocument{
			BasePrice:   toMoneyDocument(b.Price.BasePrice),
			Nights:      b.Price.Nights,
			Subtotal:    toMoneyDocument(b.Price.Subtotal),
			CleaningFee: toMoneyDocument(b.Price.CleaningFee),
			ServiceFee:  toMoneyDocument(b.Price.ServiceFee),
			Taxes:       toMoneyDocument(b.Price.Taxes),
			Total:       toMoneyDocument(b.Price.Total),
		},
		Payment: paymentDocument{
			Method:        string(b.Payment.Method),
			Status:        string(b.Payment.Status),
			TransactionID: b.Payment.TransactionID,
			PaidAt:        timeToTimestamp(b.Payment.PaidAt),
			RefundedAt:    timeToTimestamp(b.Payment.RefundedAt),
			RefundAmount:  toMoneyDocument(b.Payment.RefundAmount),
			RefundReason:  b.Payment.RefundReason,
		},
		Status:          string(b.Status),
		Policy:          string(b.Policy),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       timeToTimestamp(b.CreatedAt),
		UpdatedAt:       timeToTimestamp(b.UpdatedAt),
		Version:         b.Version,
	}
	if b.Cancellation != nil {
		doc.Cancellation = &cancellationDocument{
			CancelledBy:  b.Cancellation.CancelledBy,
			CancelledAt:  timeToTimestamp(b.Cancellation.CancelledAt),
			Reason:       b.Cancellation.Reason,
			Policy:       string(b.Cancellation.Policy),
			RefundAmount: toMoneyDocument(b.Cancellation.RefundAmount),
		}
	}
	for _, msg := range b.Communication {
		doc.Communication = append(doc.Communication, messageDocument{
			Sender: msg.Sender,
			Body:   msg.Body,
			SentAt: timeToTimestamp(msg.SentAt),
			Read:   msg.Read,
		})
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		GuestID:   d.GuestID,
		HostID:    d.HostID,
		Range: daterange.DateRange{
			CheckIn:  timestampToTime(d.Range.CheckIn),
			CheckOut: timestampToTime(d.Range.CheckOut),
		},
		Nights: d.Nights,
		Guests: domainbooking.GuestCounts{
			Adults:   d.Guests.Adults,
			Children: d.Guests.Children,
			Infants:  d.Guests.Infants,
			Pets:     d.Guests.Pets,
			Total:    d.Guests.Total,
		},
		Price: pricing.Quote{
			BasePrice:   d.Price.BasePrice.toMoney(),
			Nights:      d.Price.Nights,
			Subtotal:    d.Price.Subtotal.toMoney(),
			CleaningFee: d.Price.CleaningFee.toMoney(),
			ServiceFee:  d.Price.ServiceFee.toMoney(),
			Taxes:       d.Price.Taxes.toMoney(),
			Total:       d.Price.Total.toMoney(),
		},
		Payment: domainbooking.Payment{
			Method:        domainbooking.PaymentMethod(d.Payment.Method),
			Status:        domainbooking.PaymentStatus(d.Payment.Status),
			TransactionID: d.Payment.TransactionID,
			PaidAt:        timestampToTime(d.Payment.PaidAt),
			RefundedAt:    timestampToTime(d.Payment.RefundedAt),
			RefundAmount:  d.Payment.RefundAmount.toMoney(),
			RefundReason:  d.Payment.RefundReason,
		},
		Status:          domainbooking.Status(d.Status),
		Policy:          domainbooking.RefundPolicy(d.Policy),
		SpecialRequests: d.SpecialRequests,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
	if d.Cancellation != nil {
		b.Cancellation = &domainbooking.Cancellation{
			CancelledBy:  d.Cancellation.CancelledBy,
			CancelledAt:  timestampToTime(d.Cancellation.CancelledAt),
			Reason:       d.Cancellation.Reason,
			Policy:       domainbooking.RefundPolicy(d.Cancellation.Policy),
			RefundAmount: d.Cancellation.RefundAmount.toMoney(),
		}
	}
	for _, msg := range d.Communication {
		b.Communication = append(b.Communication, domainbooking.Message{
			Sender: msg.Sender,
			Body:   msg.Body,
			SentAt: timestampToTime(msg.SentAt),
			Read:   msg.Read,
		})
	}
	return b
}
