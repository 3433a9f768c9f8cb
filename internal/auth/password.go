package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// legacyHashLen is the hex length of the unsalted SHA-256 digests produced
// by the previous system. Verification falls back to them during migration.
const legacyHashLen = 64

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored digest. It
// never returns an error: malformed digests simply fail to match. The second
// return value reports a legacy SHA-256 match, signalling the caller that the
// row should be re-hashed.
func VerifyPassword(digest, password string) (ok, legacy bool) {
	if digest == "" || password == "" {
		return false, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)); err == nil {
		return true, false
	}
	if len(digest) == legacyHashLen && isHex(digest) {
		sum := sha256.Sum256([]byte(password))
		candidate := hex.EncodeToString(sum[:])
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(strings.ToLower(digest))) == 1 {
			return true, true
		}
	}
	return false, false
}

func isHex(s string) bool {
	_, err := hex.DecodeString(strings.ToLower(s))
	return err == nil
}

// StrengthResult reports the outcome of a password strength check.
type StrengthResult struct {
	Valid  bool     `json:"valid"`
	Score  int      `json:"score"`
	Errors []string `json:"errors"`
}

var bannedPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"p@ssword":    {},
	"p@ssw0rd":    {},
	"letmein":     {},
	"welcome1":    {},
	"admin123":    {},
	"iloveyou":    {},
	"sunshine1":   {},
}

var keyboardRuns = []string{
	"qwerty", "asdfgh", "zxcvbn", "qazwsx", "1qaz2wsx",
}

// ValidateStrength enforces the password policy: at least 8 characters with
// upper, lower, digit and special, no banned passwords and no obvious
// keyboard or sequential runs.
func ValidateStrength(password string) StrengthResult {
	var res StrengthResult
	fail := func(msg string) { res.Errors = append(res.Errors, msg) }

	if len(password) < 8 {
		fail("must be at least 8 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper {
		fail("must contain an uppercase letter")
	}
	if !lower {
		fail("must contain a lowercase letter")
	}
	if !digit {
		fail("must contain a digit")
	}
	if !special {
		fail("must contain a special character")
	}

	folded := strings.ToLower(password)
	if _, banned := bannedPasswords[folded]; banned {
		fail("password is too common")
	}
	for _, run := range keyboardRuns {
		if strings.Contains(folded, run) {
			fail("contains a keyboard pattern")
			break
		}
	}
	if hasSequentialRun(folded, 4) {
		fail("contains a sequential pattern")
	}

	res.Valid = len(res.Errors) == 0
	res.Score = strengthScore(password, res.Valid)
	return res
}

// hasSequentialRun detects n consecutive ascending or descending characters
// ("abcd", "4321").
func hasSequentialRun(s string, n int) bool {
	if len(s) < n {
		return false
	}
	asc, desc := 1, 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1]+1 {
			asc++
		} else {
			asc = 1
		}
		if s[i] == s[i-1]-1 {
			desc++
		} else {
			desc = 1
		}
		if asc >= n || desc >= n {
			return true
		}
	}
	return false
}

func strengthScore(password string, valid bool) int {
	if !valid {
		return 0
	}
	score := 1
	if len(password) >= 12 {
		score++
	}
	if len(password) >= 16 {
		score++
	}
	seen := make(map[rune]struct{}, len(password))
	for _, r := range password {
		seen[r] = struct{}{}
	}
	if len(seen) >= 10 {
		score++
	}
	return score
}
