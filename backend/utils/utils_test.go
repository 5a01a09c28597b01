package utils

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"quizapp/backend/config"
	"quizapp/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		claims, err := ExtractClaims(c, cfg)
		if err != nil {
			return HandleError(c, err)
		}
		return c.JSON(claims)
	})
	return app
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret", JWTTTL: time.Hour}
	app := claimsApp(cfg)

	token, err := GenerateJWTToken(7, models.RoleExperimenter, cfg)
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + token, token} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got Claims
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, uint(7), got.UserID)
		assert.Equal(t, models.RoleExperimenter, got.Role)
	}
}

func TestJWTRejectsBadTokens(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret", JWTTTL: time.Hour}
	app := claimsApp(cfg)

	expired, err := GenerateJWTToken(1, models.RoleParticipant, &config.Config{JWTSecret: "testsecret", JWTTTL: -time.Hour})
	require.NoError(t, err)
	otherKey, err := GenerateJWTToken(1, models.RoleParticipant, &config.Config{JWTSecret: "other", JWTTTL: time.Hour})
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"expired":   "Bearer " + expired,
		"other key": "Bearer " + otherKey,
		"no user":   "Bearer " + noUser,
	} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestHandleErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.Validationf("bad"), fiber.StatusBadRequest},
		{models.NotFoundf("experiment %d", 1), fiber.StatusNotFound},
		{models.Forbiddenf("not yours"), fiber.StatusForbidden},
		{models.Configurationf("no templates"), fiber.StatusServiceUnavailable},
		{fiber.NewError(fiber.StatusConflict, "conflict"), fiber.StatusConflict},
		{errors.New("disk on fire"), fiber.StatusInternalServerError},
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return HandleError(c, tc.err) })

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, tc.err.Error())

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.Success)
		if tc.want == fiber.StatusInternalServerError {
			assert.NotContains(t, body.Message, "disk", "internal errors are not leaked")
		}
	}
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Name  string `validate:"required,max=5"`
		Email string `validate:"omitempty,email"`
	}

	assert.Nil(t, ValidateStruct(input{Name: "ok"}))

	errs := ValidateStruct(input{Name: "too long", Email: "nope"})
	assert.Equal(t, "failed on max=5", errs["name"])
	assert.Equal(t, "failed on email", errs["email"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
