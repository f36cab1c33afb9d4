// Command dragonballd is the reference character backend the client kit
// talks to: credential login minting HS256 bearer tokens, and a per-user
// favourites collection over a seeded character table.
package main

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	dragonball "github.com/wisslabs/go-dragonball"
)

type serverConfig struct {
	Addr       string        `env:"DRAGONBALLD_ADDR" envDefault:":8080"`
	SigningKey string        `env:"DRAGONBALLD_SIGNING_KEY" envDefault:"dev-signing-key"`
	TokenTTL   time.Duration `env:"DRAGONBALLD_TOKEN_TTL" envDefault:"24h"`
	BcryptCost int           `env:"DRAGONBALLD_BCRYPT_COST" envDefault:"10"`
}

type account struct {
	ID           string
	Username     string
	Role         dragonball.Role
	PasswordHash string
}

type server struct {
	cfg        serverConfig
	accounts   map[string]*account
	characters map[int64]dragonball.CharacterSummary

	mu         sync.Mutex
	favourites map[string]map[int64]struct{}
}

func main() {
	_ = godotenv.Load()

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("invalid environment: %v", err)
	}

	srv, err := newServer(cfg)
	if err != nil {
		log.Fatalf("failed to seed server: %v", err)
	}

	app := fiber.New(fiber.Config{AppName: "dragonballd"})

	app.Post("/api/auth/login", srv.handleLogin)

	users := app.Group("/api/users", srv.requireAuth)
	users.Get("/favourites", srv.handleListFavourites)
	users.Post("/favourites/:characterId", srv.handleAddFavourite)
	users.Delete("/favourites/:characterId", srv.handleRemoveFavourite)

	log.Printf("dragonballd listening on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}

func newServer(cfg serverConfig) (*server, error) {
	srv := &server{
		cfg:        cfg,
		accounts:   map[string]*account{},
		characters: map[int64]dragonball.CharacterSummary{},
		favourites: map[string]map[int64]struct{}{},
	}

	seedUsers := []struct {
		username string
		password string
		role     dragonball.Role
	}{
		{"admin", "admin123", dragonball.RoleAdmin},
		{"player", "player123", dragonball.RolePlayer},
		{"player2", "player222", dragonball.RolePlayer},
		{"player3", "player333", dragonball.RolePlayer},
	}

	for _, seed := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		srv.accounts[seed.username] = &account{
			ID:           uuid.New().String(),
			Username:     seed.username,
			Role:         seed.role,
			PasswordHash: string(hash),
		}
	}

	for _, c := range []dragonball.CharacterSummary{
		{ID: 1, Name: "Goku", Race: "Saiyan", KiPoints: 60_000_000},
		{ID: 2, Name: "Vegeta", Race: "Saiyan", KiPoints: 54_000_000},
		{ID: 3, Name: "Piccolo", Race: "Namekian", KiPoints: 2_000_000},
		{ID: 4, Name: "Bulma", Race: "Human", KiPoints: 1_100},
		{ID: 5, Name: "Freezer", Race: "Frieza Race", KiPoints: 53_000_000},
	} {
		srv.characters[c.ID] = c
	}

	return srv, nil
}

func (s *server) handleLogin(c *fiber.Ctx) error {
	payload := dragonball.LoginPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}
	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	acct, ok := s.accounts[payload.Username]
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "bad credentials"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(payload.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "bad credentials"})
	}

	token, err := s.mintToken(acct)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to issue token"})
	}

	return c.JSON(dragonball.AuthResult{
		Token:    token,
		Username: acct.Username,
		Role:     string(acct.Role),
		UserID:   acct.ID,
	})
}

func (s *server) mintToken(acct *account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    acct.Username,
		"roles":  "ROLE_" + string(acct.Role),
		"userId": acct.ID,
		"iat":    now.Unix(),
		"exp":    now.Add(s.cfg.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SigningKey))
}

// requireAuth validates the bearer token and stashes the account's user
// record in the request context for the handlers downstream.
func (s *server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing bearer token"})
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.cfg.SigningKey), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid token"})
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid token"})
	}

	acct, ok := s.accounts[subject]
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unknown account"})
	}

	c.SetUserContext(dragonball.WithUserContext(c.UserContext(), &dragonball.User{
		Username: acct.Username,
		Role:     acct.Role,
		UserID:   acct.ID,
	}))
	return c.Next()
}

func (s *server) currentAccount(ctx context.Context) (*account, bool) {
	user, ok := dragonball.UserFromContext(ctx)
	if !ok {
		return nil, false
	}
	acct, ok := s.accounts[user.Username]
	return acct, ok
}

func (s *server) handleListFavourites(c *fiber.Ctx) error {
	acct, ok := s.currentAccount(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unknown account"})
	}

	s.mu.Lock()
	ids := make([]int64, 0, len(s.favourites[acct.ID]))
	for id := range s.favourites[acct.ID] {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	summaries := make([]dragonball.CharacterSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, s.characters[id])
	}
	return c.JSON(summaries)
}

func (s *server) handleAddFavourite(c *fiber.Ctx) error {
	return s.mutateFavourite(c, true)
}

func (s *server) handleRemoveFavourite(c *fiber.Ctx) error {
	return s.mutateFavourite(c, false)
}

func (s *server) mutateFavourite(c *fiber.Ctx, add bool) error {
	acct, ok := s.currentAccount(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unknown account"})
	}

	id, err := strconv.ParseInt(c.Params("characterId"), 10, 64)
	if err != nil || id < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid character id"})
	}
	if _, ok := s.characters[id]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "character not found"})
	}

	s.mu.Lock()
	set, ok := s.favourites[acct.ID]
	if !ok {
		set = map[int64]struct{}{}
		s.favourites[acct.ID] = set
	}
	if add {
		set[id] = struct{}{}
	} else {
		delete(set, id)
	}
	s.mu.Unlock()

	return c.SendStatus(fiber.StatusNoContent)
}
