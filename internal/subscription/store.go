package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed subscription repository. All statements are
// prepared at connection setup (see internal/db).
type Store struct {
	pool *pgxpool.Pool
	tz   *time.Location
}

// NewStore creates a Store. tz anchors stored calendar dates (venue timezone).
func NewStore(pool *pgxpool.Pool, tz *time.Location) *Store {
	return &Store{pool: pool, tz: tz}
}

// EnsureUser registers or refreshes a user row. Called on every interaction
// so chat ids stay current.
func (s *Store) EnsureUser(ctx context.Context, userID, chatID int64, username, firstName string) error {
	_, err := s.pool.Exec(ctx, "upsert_user", userID, chatID, username, firstName)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// Add creates a subscription. Duplicates (same user, location, hour, court
// set, predicate) are a no-op, not an error: the canonical JSON encodings
// make the UNIQUE constraint match logical duplicates.
func (s *Store) Add(ctx context.Context, userID int64, location string, hour int, courtTypes []string, pred DatePredicate) error {
	if len(courtTypes) == 0 {
		return fmt.Errorf("court types must not be empty")
	}

	courtsJSON, err := json.Marshal(SortedCourtTypes(courtTypes))
	if err != nil {
		return fmt.Errorf("encode court types: %w", err)
	}
	predJSON, err := MarshalPredicate(pred)
	if err != nil {
		return fmt.Errorf("encode predicate: %w", err)
	}

	if _, err := s.pool.Exec(ctx, "insert_subscription", userID, location, hour, courtsJSON, predJSON); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// ListByUser returns one user's subscriptions in display order.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]Subscription, error) {
	rows, err := s.pool.Query(ctx, "subscriptions_by_user", userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		sub, err := s.scanSubscription(rows, nil)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetAllWithChatIDs returns every subscription grouped by user, joined with
// the user's chat id. This is the monitoring loop's collection query.
func (s *Store) GetAllWithChatIDs(ctx context.Context) (map[int64]UserRecord, error) {
	rows, err := s.pool.Query(ctx, "all_monitored")
	if err != nil {
		return nil, fmt.Errorf("collect subscriptions: %w", err)
	}
	defer rows.Close()

	users := make(map[int64]UserRecord)
	for rows.Next() {
		var chatID int64
		sub, err := s.scanSubscription(rows, &chatID)
		if err != nil {
			return nil, err
		}
		rec := users[sub.UserID]
		rec.ChatID = chatID
		rec.Subscriptions = append(rec.Subscriptions, sub)
		users[sub.UserID] = rec
	}
	return users, rows.Err()
}

// Remove deletes one subscription by id.
func (s *Store) Remove(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, "delete_subscription", id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// RemoveAll deletes every subscription belonging to a user.
func (s *Store) RemoveAll(ctx context.Context, userID int64) error {
	if _, err := s.pool.Exec(ctx, "delete_user_subscriptions", userID); err != nil {
		return fmt.Errorf("delete user subscriptions: %w", err)
	}
	return nil
}

// scanSubscription decodes one row. chatID is scanned when the query joins
// users (the all_monitored statement), and skipped otherwise.
func (s *Store) scanSubscription(rows pgx.Rows, chatID *int64) (Subscription, error) {
	var (
		sub        Subscription
		courtsJSON []byte
		predJSON   []byte
	)

	var err error
	if chatID != nil {
		err = rows.Scan(&sub.ID, &sub.UserID, chatID, &sub.Location, &sub.Hour, &courtsJSON, &predJSON, &sub.CreatedAt)
	} else {
		err = rows.Scan(&sub.ID, &sub.UserID, &sub.Location, &sub.Hour, &courtsJSON, &predJSON, &sub.CreatedAt)
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}

	if err := json.Unmarshal(courtsJSON, &sub.CourtTypes); err != nil {
		return Subscription{}, fmt.Errorf("decode court types: %w", err)
	}
	sub.Predicate, err = UnmarshalPredicate(predJSON, s.tz)
	if err != nil {
		return Subscription{}, fmt.Errorf("subscription %d: %w", sub.ID, err)
	}
	return sub, nil
}

// --------------------------------------------------------------------------
// Admin / stats queries
// --------------------------------------------------------------------------

// UserInfo is a user row for admin listings.
type UserInfo struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
}

// CountUsers returns the total registered user count.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "count_users").Scan(&n)
	return n, err
}

// CountSubscriptions returns the total active subscription count.
func (s *Store) CountSubscriptions(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "count_subscriptions").Scan(&n)
	return n, err
}

// IsAdmin reports whether the user is in the admins table. The owner id from
// configuration is always an admin regardless of this table; callers check
// that first.
func (s *Store) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "is_admin", userID).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return true, nil
}

// AddAdmin grants admin rights. Granting twice is a no-op.
func (s *Store) AddAdmin(ctx context.Context, userID, addedBy int64) error {
	_, err := s.pool.Exec(ctx, "add_admin", userID, addedBy)
	return err
}

// RemoveAdmin revokes admin rights.
func (s *Store) RemoveAdmin(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, "remove_admin", userID)
	return err
}

// ListAdmins returns all admin user ids.
func (s *Store) ListAdmins(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, "list_admins")
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]UserInfo, error) {
	rows, err := s.pool.Query(ctx, "list_users")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []UserInfo
	for rows.Next() {
		var (
			u         UserInfo
			username  *string
			firstName *string
		)
		if err := rows.Scan(&u.UserID, &u.ChatID, &username, &firstName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if username != nil {
			u.Username = *username
		}
		if firstName != nil {
			u.FirstName = *firstName
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
