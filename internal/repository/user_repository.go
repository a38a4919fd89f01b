// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"mental-care-go/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound 表示记录不存在，各后端统一返回该错误。
var ErrNotFound = errors.New("record not found")

// ErrDuplicate 表示唯一键冲突。
var ErrDuplicate = errors.New("record already exists")

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录。
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByUsername 根据用户名从数据库中查找一个用户。
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// jsonUserRepository 把所有用户保存在一个以用户名为键的 JSON 对象中。
type jsonUserRepository struct {
	path string
	mu   sync.Mutex
}

// NewJSONUserRepository 基于本地 users.json 创建 UserRepository。
func NewJSONUserRepository(path string) UserRepository {
	return &jsonUserRepository{path: path}
}

func (r *jsonUserRepository) load() (map[string]model.User, error) {
	users := make(map[string]model.User)
	if err := readJSONFile(r.path, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = make(map[string]model.User)
	}
	return users, nil
}

func (r *jsonUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := users[user.Username]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	user.ID = uint(len(users) + 1)
	user.CreatedAt, user.UpdatedAt = now, now
	users[user.Username] = *user
	return writeJSONFile(r.path, users)
}

func (r *jsonUserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}
	user, ok := users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
