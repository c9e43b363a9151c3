package utils

import (
	"crypto/rand"
	"math/big"
)

const numberBytes = "0123456789"

// GenerateRandomNumericString returns length digits drawn from crypto/rand.
func GenerateRandomNumericString(length int) (string, error) {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, err := rand.Int(rand.Reader, charsetLength)
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}

	return string(result), nil
}
