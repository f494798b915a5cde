package utils

import (
	"crypto/rand"
	"math/big"
)

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateRandomToken(length int) string {
	token := make([]byte, length)
	for i := range token {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenCharset))))
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		token[i] = tokenCharset[n.Int64()]
	}
	return string(token)
}
