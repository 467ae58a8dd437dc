// Package identity works out which account's following list to export.
package identity

import (
	"context"
	"strconv"
	"strings"

	"bilifollow/pkg/bilibili"
	errs "bilifollow/pkg/errors"
	"bilifollow/pkg/logger"
)

// Resolver yields the mid of the logged-in user. A zero mid with a nil
// error means the source had nothing to offer.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context) (int64, error)
}

// NavAPI is the part of the API client the nav resolver needs
type NavAPI interface {
	Nav(ctx context.Context) (*bilibili.NavInfo, error)
}

// NavResolver asks the nav endpoint for the session's login state
type NavResolver struct {
	API NavAPI
}

func (r NavResolver) Name() string { return "nav" }

func (r NavResolver) Resolve(ctx context.Context) (int64, error) {
	info, err := r.API.Nav(ctx)
	if err != nil {
		return 0, err
	}
	if info == nil || !info.IsLogin {
		return 0, nil
	}
	return info.Mid, nil
}

// CookieResolver reads the DedeUserID cookie of the configured session
type CookieResolver struct {
	DedeUserID string
}

func (r CookieResolver) Name() string { return "cookie" }

func (r CookieResolver) Resolve(ctx context.Context) (int64, error) {
	return parseMid(r.DedeUserID), nil
}

// AccountResolver uses the mid recorded with a stored account
type AccountResolver struct {
	Lookup func() (string, error)
}

func (r AccountResolver) Name() string { return "account" }

func (r AccountResolver) Resolve(ctx context.Context) (int64, error) {
	if r.Lookup == nil {
		return 0, nil
	}
	raw, err := r.Lookup()
	if err != nil {
		return 0, err
	}
	return parseMid(raw), nil
}

func parseMid(raw string) int64 {
	mid, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || mid <= 0 {
		return 0
	}
	return mid
}

// Chain tries each resolver in order and returns the first mid found.
// Failures of one resolver are logged and the next one is tried; when none
// yields a mid the identity error is returned.
type Chain struct {
	resolvers []Resolver
	logger    logger.Logger
}

// NewChain creates a resolver chain
func NewChain(log logger.Logger, resolvers ...Resolver) *Chain {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Chain{resolvers: resolvers, logger: log}
}

// Resolve returns the mid of the logged-in user
func (c *Chain) Resolve(ctx context.Context) (int64, error) {
	for _, r := range c.resolvers {
		mid, err := r.Resolve(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			c.logger.WithError(err).WarnWithFields("Identity source failed, trying next", map[string]interface{}{
				"source": r.Name(),
			})
			continue
		}
		if mid > 0 {
			c.logger.DebugWithFields("Resolved user", map[string]interface{}{
				"source": r.Name(),
				"mid":    mid,
			})
			return mid, nil
		}
	}
	return 0, errs.IdentityError()
}
