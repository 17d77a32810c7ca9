package repository

import (
	"context"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, userID string) (*entity.User, error)

	// CheckAndSettle performs the single atomic debit of a sale: balance is
	// reduced by the sale price and the win is recorded. It returns
	// gorm.ErrRecordNotFound if the user cannot cover the price anymore,
	// which callers must treat as an integrity failure.
	CheckAndSettle(ctx context.Context, userID string, price int64) error

	IncreaseBidCount(ctx context.Context, userID string, delta int) error
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "id=?", userID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) CheckAndSettle(ctx context.Context, userID string, price int64) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=? AND is_active=? AND balance>=?", userID, true, price).
		Updates(map[string]any{
			"balance":  gorm.Expr("balance-?", price),
			"lots_won": gorm.Expr("lots_won+?", 1),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) IncreaseBidCount(ctx context.Context, userID string, delta int) error {
	return xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", userID).
		Update("bid_count", gorm.Expr("bid_count+?", delta)).Error
}
