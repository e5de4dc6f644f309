package pkg

import "golang.org/x/crypto/bcrypt"

// bcrypt cost for account passwords. Raising it invalidates nothing,
// existing hashes keep their original cost.
const passwordHashCost = 14

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return BytesToString(hash), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
