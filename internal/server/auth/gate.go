package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

// AdminLookup is the subset of the admins repository the gate needs.
type AdminLookup interface {
	GetByID(ctx context.Context, id string) (*models.Admin, error)
}

// AdminGate decides whether a request may mutate the catalog.
type AdminGate struct {
	admins    AdminLookup
	secretKey []byte
}

func NewAdminGate(admins AdminLookup, secretKey string) *AdminGate {
	return &AdminGate{admins: admins, secretKey: []byte(secretKey)}
}

// Resolve maps an Authorization header value to an admin id.
//
// A blank header yields common.ErrMissingCredential. A bad token or an unknown
// admin yields common.ErrInvalidCredential. A known account without the admin
// role yields common.ErrNotAuthorized.
func (g *AdminGate) Resolve(ctx context.Context, header string) (string, error) {
	token := strings.TrimSpace(header)
	scheme := strings.TrimSpace(common.BearerPrefix)
	if len(token) >= len(scheme) && strings.EqualFold(token[:len(scheme)], scheme) &&
		(len(token) == len(scheme) || token[len(scheme)] == ' ' || token[len(scheme)] == '\t') {
		token = strings.TrimSpace(token[len(scheme):])
	}
	if token == "" {
		return "", common.ErrMissingCredential
	}

	adminID, err := GetAdminIDFromToken(token, g.secretKey)
	if err != nil {
		return "", err
	}

	admin, err := g.admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredential
		}
		return "", common.Dependency("lookup admin", err)
	}
	if admin.Role != models.RoleAdmin {
		return "", common.ErrNotAuthorized
	}
	return admin.ID, nil
}

type ctxKey string

const adminIDKey ctxKey = "adminID"

// WithAdminID stores a resolved admin id on the context.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

// AdminIDFromContext returns the id stored by WithAdminID.
func AdminIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(adminIDKey).(string)
	return id, ok && id != ""
}
