// Package hash 提供密码哈希与校验。
package hash

import "golang.org/x/crypto/bcrypt"

// HashPassword 使用 bcrypt 对明文密码做哈希。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash 校验明文密码与存储的哈希是否匹配。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
