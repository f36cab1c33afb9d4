// Package dragonball keeps a browser-style client session for the character
// backend: restore-on-start, credential login, role derivation from bearer
// tokens, route gating, and favourite-set synchronization.
//
// Session lifecycle:
//   - SessionManager is the single writer of the Session record. Construct
//     it with a KeyValueStore backend (see the store subpackage) and an
//     Authenticator (APIClient in production), call Restore once at startup,
//     and read snapshots through Current.
//   - Decide evaluates a snapshot against a required Role and yields one of
//     suspend, render, redirect-to-login, or redirect-to-forbidden. While
//     restoration is in flight it always suspends.
//
// Tokens are never verified on this side. DecodeToken reads the payload
// segment purely as advisory input for UI gating; the server remains the
// only authorization boundary.
//
// Favourites:
//   - FavouriteSync re-derives membership from the server per view instance
//     and mutates remotely before flipping any local flag, so failures never
//     leave display state partially applied.
//   - Any authenticated call that returns 401 clears the persisted session
//     globally and notifies the teardown collaborator.
package dragonball
