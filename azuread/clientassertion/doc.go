// Package clientassertion builds the signed JWTs a confidential client
// presents to the Azure AD token endpoint in place of a client secret,
// A.K.A. certificate credentials.
// reference: https://learn.microsoft.com/en-us/entra/identity-platform/certificate-credentials
//
// Example usage:
//
//	j, err := clientassertion.NewJWT(clientID, tokenEndpoint, certPEM, keyPEM)
//	assertion, err := j.Serialize()
package clientassertion
