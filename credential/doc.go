// Package credential supplies the bearer token a streaming session
// authenticates with.
//
// Providers are small and composable. Chain consults providers in order and
// returns the first token found; FileStore keeps a token sealed on disk;
// ExpiryGuard hides JWTs whose exp claim has passed so the chain moves on to
// the next source, and the caller sees "token expired" rather than a
// rejected handshake when no source is left.
//
//	creds := credential.Chain{
//	    credential.ExpiryGuard{Inner: credential.Static(flagToken)},
//	    credential.ExpiryGuard{Inner: fileStore},
//	    credential.ExpiryGuard{Inner: credential.Env("NUTRISTREAM_TOKEN")},
//	}
package credential
