// internal/storage/sqlite/users.go
//
// User accounts and game statistics.
//
// Responsibilities:
//   - Signup validation, bcrypt password hashing, user lookup.
//   - RecordResult: games played, wins, streaks, longest chain.
//   - Leaderboard query ordered by wins.

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken is returned by CreateUser when the name exists (case-insensitive).
	ErrUsernameTaken = errors.New("username taken")
	// ErrUserNotFound is returned by the Find helpers.
	ErrUserNotFound = errors.New("user not found")
)

// User is an account with its running game statistics.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Streak       int       `json:"streak"`
	BestStreak   int       `json:"bestStreak"`
	LongestChain int       `json:"longestChain"`
}

// Result is the outcome of one finished game, from the player's side.
type Result struct {
	Won         bool
	ChainLength int
}

// LeaderboardRow is one line of the wins leaderboard.
type LeaderboardRow struct {
	Username     string `json:"username"`
	Wins         int    `json:"wins"`
	GamesPlayed  int    `json:"gamesPlayed"`
	BestStreak   int    `json:"bestStreak"`
	LongestChain int    `json:"longestChain"`
}

// ValidateSignup checks username and password shape.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

// CreateUser validates, hashes the password (bcrypt) and inserts the account.
func (d *DB) CreateUser(ctx context.Context, username, pw string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = d.SQL.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC(),
	}
	_, err = d.SQL.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// CheckPassword reports whether pw matches the stored hash.
func (u *User) CheckPassword(pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) == nil
}

const userColumns = `id, username, password_hash, created_at, games_played, wins, streak, best_streak, longest_chain`

func (d *DB) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	row := d.SQL.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username)=lower(?)`, strings.TrimSpace(username))
	return scanUser(row)
}

func (d *DB) FindUserByID(ctx context.Context, id string) (*User, error) {
	row := d.SQL.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created,
		&u.GamesPlayed, &u.Wins, &u.Streak, &u.BestStreak, &u.LongestChain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// RecordResult folds one finished game into the user's totals.
// A loss resets the current streak; best_streak and longest_chain only grow.
func (d *DB) RecordResult(ctx context.Context, userID string, r Result) error {
	win := 0
	if r.Won {
		win = 1
	}
	res, err := d.SQL.ExecContext(ctx, `
        UPDATE users SET
            games_played  = games_played + 1,
            wins          = wins + ?1,
            streak        = CASE WHEN ?1 = 1 THEN streak + 1 ELSE 0 END,
            best_streak   = MAX(best_streak, CASE WHEN ?1 = 1 THEN streak + 1 ELSE 0 END),
            longest_chain = MAX(longest_chain, ?2)
        WHERE id = ?3`, win, r.ChainLength, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Leaderboard lists the players with the most wins. Default limit is 20.
func (d *DB) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.SQL.QueryContext(ctx, `
        SELECT username, wins, games_played, best_streak, longest_chain
        FROM users
        WHERE games_played > 0
        ORDER BY wins DESC, best_streak DESC, longest_chain DESC, username ASC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Username, &r.Wins, &r.GamesPlayed, &r.BestStreak, &r.LongestChain); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
