package token

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "taskmanager"

// Pair — пара токенов, которую клиент хранит у себя между запусками.
type Pair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *Manager) Issue(userID uuid.UUID, email string) (Pair, error) {
	access, err := m.sign(userID, email, m.accessSecret, m.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("выпуск access-токена: %w", err)
	}
	refresh, err := m.sign(userID, email, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("выпуск refresh-токена: %w", err)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (m *Manager) sign(userID uuid.UUID, email string, secret []byte, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			// уникальный jti: IssuedAt имеет секундную точность, без него две
			// пары, выпущенные в одну секунду, совпадают байт в байт
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) ParseAccess(raw string) (*Claims, error) {
	return parse(raw, m.accessSecret)
}

func (m *Manager) ParseRefresh(raw string) (*Claims, error) {
	return parse(raw, m.refreshSecret)
}

func parse(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("разбор токена: %w", err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("недействительный токен")
	}
	return claims, nil
}

// HashRefresh: sha256 сжимает токен до фиксированной длины, затем bcrypt.
// В базе refresh-токен в открытом виде не хранится.
func HashRefresh(raw string) (string, error) {
	sum := sha256.Sum256([]byte(raw))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("хэширование refresh-токена: %w", err)
	}
	return string(hash), nil
}

func CompareRefresh(hash, raw string) bool {
	sum := sha256.Sum256([]byte(raw))
	return bcrypt.CompareHashAndPassword([]byte(hash), sum[:]) == nil
}
