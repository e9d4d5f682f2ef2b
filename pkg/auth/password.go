package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("неверный формат хеша пароля")
	ErrIncompatibleVersion = errors.New("несовместимая версия алгоритма хеширования")
)

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

var defaultParams = argon2Params{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	saltLen: 16,
	keyLen:  32,
}

// HashPassword хеширует пароль алгоритмом argon2id и возвращает хеш
// в стандартном PHC-формате $argon2id$v=19$m=...,t=...,p=...$соль$хеш.
func HashPassword(password string) (string, error) {
	p := defaultParams

	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword сравнивает пароль с хешем, используя параметры,
// записанные в самом хеше.
func VerifyPassword(password, encodedHash string) (bool, error) {
	p, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}

func decodeHash(encodedHash string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	vals := strings.Split(encodedHash, "$")
	if len(vals) != 6 || vals[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(vals[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("ошибка при чтении версии: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("ошибка при чтении параметров хеширования: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(vals[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("ошибка декодирования соли: %w", err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(vals[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("ошибка декодирования хеша: %w", err)
	}

	return p, salt, hash, nil
}

// GenerateRandomToken возвращает криптостойкую случайную строку в base64.
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
