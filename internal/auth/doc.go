// Package auth implements the authentication core of the user service.
//
// Two flows share one credential store:
//   - Browser clients post forms to /signup, /login and /logout and are
//     tracked with a server-side session (scs) referenced by a cookie.
//   - API clients exchange credentials for a JWT access/refresh pair at
//     /api/v1/auth/login and send "Authorization: Bearer <access token>".
//
// /api/v1/auth/session-to-jwt bridges the two: a browser holding a session
// receives a fresh token pair without re-entering credentials.
//
// Both flows re-resolve the subject on every request, so deleting a user
// invalidates their sessions and tokens on next use.
//
// # Configuration
//
//	SESSION_SECRET=<random>          # keys the CSRF token
//	SESSION_LIFETIME=24h             # session duration
//	BCRYPT_COST=10                   # bcrypt cost factor
//	SECURE_COOKIES=true              # HTTPS-only cookies
//	JWT_SECRET=<random>              # generated per process if empty
//	JWT_EXPIRES_IN=24h               # access token lifetime
//	JWT_REFRESH_EXPIRES_IN=7d        # refresh token lifetime
//	ALLOWED_REDIRECT_HOSTS=a.com,b.io  # callback hosts besides localhost
//
// # Usage
//
//	store := auth.NewService(users.NewRepository(db), cfg.Auth)
//	verifier := auth.NewLocalPasswordStrategy(store)
//	sessions := auth.NewSessionAuthenticator(sessionManager, store, verifier)
//	jwtAuth := auth.NewJWTAuthenticator(tokens, store, verifier, sessions)
//
//	router.GET("/api/v1/profile", jwtAuth.AuthenticateJWT(auth.GateHard), auth.RequireJWT(), handler)
package auth
