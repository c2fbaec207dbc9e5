// Package oidc implements the OpenID Connect login flow: the redirect to the
// identity provider, the CSRF state handshake and the callback that exchanges
// the authorization code for a verified identity and a pinned session.
package oidc
