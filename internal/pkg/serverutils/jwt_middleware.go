package serverutils

import (
	"os"

	"exam-grading-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware authenticates bearer tokens and stores the caller's
// user id in ctx.Locals("user_id").
func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return apperror.New(apperror.CodeAuth, "missing bearer token")
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.New(apperror.CodeAuth, "unexpected signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return apperror.New(apperror.CodeAuth, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return apperror.New(apperror.CodeAuth, "invalid token claims")
	}
	userId, ok := claims["user_id"].(string)
	if !ok || userId == "" {
		return apperror.New(apperror.CodeAuth, "token missing user_id")
	}

	ctx.Locals("user_id", userId)
	return ctx.Next()
}
