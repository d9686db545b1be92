package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayloop/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	col := db.Collection("users")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &UserRepository{col: col}
}

func (r *UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"email": lower(email)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	doc := newUserDocument(u)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	if mongo.IsDuplicateKeyError(err) {
		return user.ErrEmailAlreadyUsed
	}
	return err
}

type userDocument struct {
	ID           string          `bson:"_id"`
	Email        string          `bson:"email"`
	FirstName    string          `bson:"first_name"`
	LastName     string          `bson:"last_name"`
	Phone        string          `bson:"phone,omitempty"`
	AvatarURL    string          `bson:"avatar_url,omitempty"`
	Bio          string          `bson:"bio,omitempty"`
	PasswordHash string          `bson:"password_hash"`
	Role         string          `bson:"role"`
	Host         *hostProfileDoc `bson:"host,omitempty"`
	Favorites    []string        `bson:"favorites,omitempty"`
	Verified     bool            `bson:"verified"`
	CreatedAt    int64           `bson:"created_at"`
	UpdatedAt    int64           `bson:"updated_at"`
}

type hostProfileDoc struct {
	HostSince    int64  `bson:"host_since"`
	ResponseRate int    `bson:"response_rate,omitempty"`
	ResponseTime string `bson:"response_time,omitempty"`
	Superhost    bool   `bson:"superhost"`
}

func newUserDocument(u *user.User) userDocument {
	doc := userDocument{
		ID:           string(u.ID),
		Email:        u.Email,
		FirstName:    u.Profile.FirstName,
		LastName:     u.Profile.LastName,
		Phone:        u.Profile.Phone,
		AvatarURL:    u.Profile.AvatarURL,
		Bio:          u.Profile.Bio,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Favorites:    u.Favorites,
		Verified:     u.Verified,
		CreatedAt:    timeToTimestamp(u.CreatedAt),
		UpdatedAt:    timeToTimestamp(u.UpdatedAt),
	}
	if u.Host != nil {
		doc.Host = &hostProfileDoc{
			HostSince:    timeToTimestamp(u.Host.HostSince),
			ResponseRate: u.Host.ResponseRate,
			ResponseTime: u.Host.ResponseTime,
			Superhost:    u.Host.Superhost,
		}
	}
	return doc
}

func (d userDocument) toAggregate() *user.User {
	u := &user.User{
		ID:    user.ID(d.ID),
		Email: d.Email,
		Profile: user.Profile{
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Phone:     d.Phone,
			AvatarURL: d.AvatarURL,
			Bio:       d.Bio,
		},
		PasswordHash: d.PasswordHash,
		Role:         user.Role(d.Role),
		Favorites:    d.Favorites,
		Verified:     d.Verified,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}
	if d.Host != nil {
		u.Host = &user.HostProfile{
			HostSince:    timestampToTime(d.Host.HostSince),
			ResponseRate: d.Host.ResponseRate,
			ResponseTime: d.Host.ResponseTime,
			Superhost:    d.Host.Superhost,
		}
	}
	return u
}
