// confcred (confidential client credentials) provides packages for
// authenticating confidential OAuth2 clients to an identity provider with
// certificate credentials instead of shared secrets.
//
// See README.md
package confcred
