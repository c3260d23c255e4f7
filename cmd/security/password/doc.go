// Package password hashes and verifies ScribeAssist user secrets with argon2id.
//
// Hashes use the PHC string format
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt>$<key>
//
// and are treated as untrusted input on Verify: parameters far above the
// configured cost are refused instead of computed.
package password
