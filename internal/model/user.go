// Package model 包含了应用的数据模型定义。
package model

import (
	"fmt"
	"time"
)

// 用户角色
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User 对应 users 表，username 即主身份键。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Username  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	Age       int       `json:"age"`
	Gender    string    `gorm:"type:varchar(20)" json:"gender"`
	Password  string    `gorm:"type:varchar(255);not null" json:"password"`
	Role      string    `gorm:"type:varchar(20);not null;default:USER" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Summary 生成注入到 Agent 系统提示中的用户信息串，不包含密码。
func (u *User) Summary() string {
	return fmt.Sprintf("username:%s, email:%s, name:%s, age:%d, gender:%s",
		u.Username, u.Email, u.Name, u.Age, u.Gender)
}
