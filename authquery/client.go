// Package authquery layers the caching discipline on top of the authapi call
// layer: each remote operation becomes a cached query or an invalidating
// mutation with a deterministic key, ready to be plugged into a host
// application.
package authquery

import (
	"fmt"

	"github.com/a-novel/connector-authentication-go/authapi"
	"github.com/a-novel/connector-authentication-go/pkg/query"
)

// Operation names. They seed cache keys and metric labels, so changing one
// orphans previously cached entries.
const (
	opCreateUser     = "credentials.create"
	opEmailExists    = "credentials.email-exists"
	opUpdateEmail    = "credentials.update-email"
	opUpdatePassword = "credentials.update-password"
	opUpdateRole     = "credentials.update-role"
	opResetPassword  = "credentials.reset-password"

	opCheckSession    = "session.check"
	opCreateSession   = "session.create"
	opCreateAnonymous = "session.create-anonymous"
	opRefreshSession  = "session.refresh"
	opNewRefreshToken = "session.new-refresh-token"

	opRequestRegistration  = "short-code.register"
	opRequestEmailUpdate   = "short-code.update-email"
	opRequestPasswordReset = "short-code.update-password"

	opListUsers = "users.list"
	opGetUser   = "users.get"
)

// Config wires a Client.
type Config struct {
	// API is the call layer the queries and mutations delegate to. Required.
	API *authapi.Client
	// Engine holds the cache state. Optional; a fresh in-memory engine is
	// created when absent.
	Engine *query.Engine
}

// Client exposes every operation of the authentication service as a cached
// query or an invalidating mutation sharing one cache engine.
type Client struct {
	api    *authapi.Client
	engine *query.Engine

	credentials credentialsOps
	session     sessionOps
	shortCode   shortCodeOps
	users       usersOps
}

// New builds a Client from an explicit Config.
func New(cfg Config) (*Client, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("authquery: API client is not set")
	}

	engine := cfg.Engine
	if engine == nil {
		engine = query.NewEngine(query.EngineConfig{})
	}

	c := &Client{api: cfg.API, engine: engine}
	c.credentials = newCredentialsOps(c)
	c.session = newSessionOps(c)
	c.shortCode = newShortCodeOps(c)
	c.users = newUsersOps(c)

	return c, nil
}

// Engine returns the cache engine shared by every operation of the client.
func (c *Client) Engine() *query.Engine { return c.engine }
