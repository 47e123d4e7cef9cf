// Package azuread acquires access tokens from Azure AD (Microsoft Entra ID)
// using the OAuth2 client credentials grant with certificate credentials: a
// signed client assertion JWT takes the place of a client secret.
//
// Primary types provided by the package
//
// * Config: the identity of one confidential client (tenant ID, client ID,
// certificate and private key PEM, requested scopes).
//
// * Provider: performs the token exchange. Every AcquireToken call builds a
// fresh assertion and issues a single POST to the tenant's token endpoint;
// nothing is cached or retried.
//
// * TokenResponse: the decoded token endpoint response, convertible to an
// oauth2.Token for use with golang.org/x/oauth2 consumers.
package azuread
