// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package auth validates login credentials.
//
// # Domain Types
//
// Credentials and Account should be created with their constructors:
//   - NewCredentials - trims the identifier and bounds the password length
//   - NewAccount - normalizes the email and assigns a user id
//
// Direct struct initialization bypasses validation and may create invalid state.
//
// # Services
//
//   - Argon2idHasher - hashes and verifies passwords (argon2id PHC strings,
//     plus legacy crypt(3) hashes for verification only)
//   - Validator - maps a credential lookup and password check to an Outcome
//   - Rehasher - upgrades outdated hashes after a successful login
//
// Every failed login, whatever the cause, is shown to the client as
// GenericFailureMessage.
package auth
