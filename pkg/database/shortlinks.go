package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"radiography-shield/pkg/handoff"
)

// =========================
// Summary share links
// =========================

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
const defaultShortCodeLength = 8

// SaveSummaryLink stores an encoded summary parameter set and returns its
// code. The same parameters always map onto the same code.
func (db *Database) SaveSummaryLink(ctx context.Context, params string, now time.Time) (string, error) {
	cleaned := strings.TrimSpace(params)
	if cleaned == "" {
		return "", errors.New("empty summary parameters")
	}
	if len(cleaned) > 4096 {
		return "", errors.New("summary parameters too long")
	}

	if existing, err := db.lookupLinkByParams(ctx, cleaned); err != nil || existing != "" {
		return existing, err
	}

	const maxAttempts = 64
	insert := db.X.Rebind(`INSERT INTO summary_links (code, params, created_at) VALUES (?, ?, ?)`)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := randomBase62String(defaultShortCodeLength)
		if err != nil {
			return "", err
		}
		_, err = db.X.ExecContext(ctx, insert, code, cleaned, now.Unix())
		if err == nil {
			return code, nil
		}
		if !isUniqueConstraintError(err) {
			return "", fmt.Errorf("save summary link: %w", err)
		}
	}
	return "", fmt.Errorf("save summary link: exhausted %d attempts", maxAttempts)
}

// ResolveSummaryLink expands a code into the stored parameter string.
func (db *Database) ResolveSummaryLink(ctx context.Context, code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if !isBase62(trimmed) {
		return "", handoff.ErrLinkNotFound
	}
	var params string
	err := db.X.GetContext(ctx, &params, db.X.Rebind(`SELECT params FROM summary_links WHERE code = ?`), trimmed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", handoff.ErrLinkNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve summary link: %w", err)
	}
	return params, nil
}

func (db *Database) lookupLinkByParams(ctx context.Context, params string) (string, error) {
	var code string
	err := db.X.GetContext(ctx, &code, db.X.Rebind(`SELECT code FROM summary_links WHERE params = ? LIMIT 1`), params)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup summary link: %w", err)
	}
	return code, nil
}

// randomBase62String maps crypto/rand bytes onto the alphabet with rejection
// sampling so every character is equally likely.
func randomBase62String(length int) (string, error) {
	if length <= 0 {
		length = defaultShortCodeLength
	}
	buf := make([]byte, length)
	for i := 0; i < length; i++ {
		var b [1]byte
		for {
			if _, err := rand.Read(b[:]); err != nil {
				return "", err
			}
			if v := int(b[0]); v < 62*4 {
				buf[i] = base62Alphabet[v%62]
				break
			}
		}
	}
	return string(buf), nil
}

func isBase62(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}

// isUniqueConstraintError normalizes driver-specific duplicate errors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "unique violation")
}
