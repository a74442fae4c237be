package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/StackLine-App/pokerbase/internal/app/domain/challenge"
	"github.com/StackLine-App/pokerbase/internal/app/domain/group"
	"github.com/StackLine-App/pokerbase/internal/app/domain/hand"
	"github.com/StackLine-App/pokerbase/internal/app/domain/post"
	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/domain/staking"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.ProfileStore = (*Store)(nil)
var _ storage.FollowStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.GroupStore = (*Store)(nil)
var _ storage.HandStore = (*Store)(nil)
var _ storage.StakeStore = (*Store)(nil)
var _ storage.ChallengeStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- ProfileStore -----------------------------------------------------------

func (s *Store) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, username, display_name, bio, avatar_url, follower_count, following_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Username, p.DisplayName, p.Bio, p.AvatarURL, p.FollowerCount, p.FollowingCount, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	existing, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		return profile.Profile{}, err
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET username = $2, display_name = $3, bio = $4, avatar_url = $5,
		    follower_count = $6, following_count = $7, updated_at = $8
		WHERE id = $1
	`, p.ID, p.Username, p.DisplayName, p.Bio, p.AvatarURL, p.FollowerCount, p.FollowingCount, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, bio, avatar_url, follower_count, following_count, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, id))
}

func (s *Store) GetProfileByUsername(ctx context.Context, username string) (profile.Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, bio, avatar_url, follower_count, following_count, created_at, updated_at
		FROM profiles
		WHERE lower(username) = lower($1)
	`, username))
}

func (s *Store) scanProfile(row *sql.Row) (profile.Profile, error) {
	var p profile.Profile
	err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL,
		&p.FollowerCount, &p.FollowingCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.ErrNotFound
	}
	return nil
}

// --- FollowStore --------------------------------------------------------------

func (s *Store) CreateFollow(ctx context.Context, f profile.Follow) (profile.Follow, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO follows (id, follower_id, followee_id, notify_on_post, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, f.ID, f.FollowerID, f.FolloweeID, f.NotifyOnPost, f.CreatedAt)
	if err != nil {
		return profile.Follow{}, err
	}
	return f, nil
}

func (s *Store) UpdateFollow(ctx context.Context, f profile.Follow) (profile.Follow, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE follows SET notify_on_post = $3
		WHERE follower_id = $1 AND followee_id = $2
	`, f.FollowerID, f.FolloweeID, f.NotifyOnPost)
	if err != nil {
		return profile.Follow{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.Follow{}, sql.ErrNoRows
	}
	return s.GetFollow(ctx, f.FollowerID, f.FolloweeID)
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2
	`, followerID, followeeID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) GetFollow(ctx context.Context, followerID, followeeID string) (profile.Follow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, follower_id, followee_id, notify_on_post, created_at
		FROM follows
		WHERE follower_id = $1 AND followee_id = $2
	`, followerID, followeeID)

	var f profile.Follow
	if err := row.Scan(&f.ID, &f.FollowerID, &f.FolloweeID, &f.NotifyOnPost, &f.CreatedAt); err != nil {
		return profile.Follow{}, err
	}
	return f, nil
}

func (s *Store) ListFollowers(ctx context.Context, userID string) ([]profile.Follow, error) {
	return s.listFollows(ctx, `
		SELECT id, follower_id, followee_id, notify_on_post, created_at
		FROM follows WHERE followee_id = $1 ORDER BY created_at
	`, userID)
}

func (s *Store) ListFollowing(ctx context.Context, userID string) ([]profile.Follow, error) {
	return s.listFollows(ctx, `
		SELECT id, follower_id, followee_id, notify_on_post, created_at
		FROM follows WHERE follower_id = $1 ORDER BY created_at
	`, userID)
}

func (s *Store) listFollows(ctx context.Context, query, arg string) ([]profile.Follow, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []profile.Follow
	for rows.Next() {
		var f profile.Follow
		if err := rows.Scan(&f.ID, &f.FollowerID, &f.FolloweeID, &f.NotifyOnPost, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// --- SessionStore -------------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, game_type, stakes, location, buy_in, cashout, profit,
		                      started_at, ended_at, live, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, sess.ID, sess.UserID, sess.GameType, sess.Stakes, sess.Location, sess.BuyIn, sess.Cashout,
		sess.Profit, sess.StartedAt, nullTime(sess.EndedAt), sess.Live, sess.Notes, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (s *Store) UpdateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	existing, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		return session.Session{}, err
	}

	sess.CreatedAt = existing.CreatedAt
	sess.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET game_type = $2, stakes = $3, location = $4, buy_in = $5, cashout = $6, profit = $7,
		    started_at = $8, ended_at = $9, live = $10, notes = $11, updated_at = $12
		WHERE id = $1
	`, sess.ID, sess.GameType, sess.Stakes, sess.Location, sess.BuyIn, sess.Cashout, sess.Profit,
		sess.StartedAt, nullTime(sess.EndedAt), sess.Live, sess.Notes, sess.UpdatedAt)
	if err != nil {
		return session.Session{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return session.Session{}, sql.ErrNoRows
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (session.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, game_type, stakes, location, buy_in, cashout, profit,
		       started_at, ended_at, live, notes, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`, id)

	sess, err := scanSession(row.Scan)
	if err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, userID string) ([]session.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, game_type, stakes, location, buy_in, cashout, profit,
		       started_at, ended_at, live, notes, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY started_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []session.Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	return result, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanSession(scan func(dest ...any) error) (session.Session, error) {
	var (
		sess    session.Session
		endedAt sql.NullTime
	)
	if err := scan(&sess.ID, &sess.UserID, &sess.GameType, &sess.Stakes, &sess.Location,
		&sess.BuyIn, &sess.Cashout, &sess.Profit, &sess.StartedAt, &endedAt,
		&sess.Live, &sess.Notes, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return session.Session{}, err
	}
	if endedAt.Valid {
		sess.EndedAt = endedAt.Time
	}
	return sess, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// --- PostStore ----------------------------------------------------------------

func (s *Store) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, body, image_url, session_id, hand_id, like_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.UserID, p.Body, p.ImageURL, p.SessionID, p.HandID, p.LikeCount, p.CreatedAt)
	if err != nil {
		return post.Post{}, err
	}
	return p, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (post.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, body, image_url, session_id, hand_id, like_count, created_at
		FROM posts WHERE id = $1
	`, id)

	var p post.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Body, &p.ImageURL, &p.SessionID, &p.HandID, &p.LikeCount, &p.CreatedAt); err != nil {
		return post.Post{}, err
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context, userID string) ([]post.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, body, image_url, session_id, hand_id, like_count, created_at
		FROM posts WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []post.Post
	for rows.Next() {
		var p post.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Body, &p.ImageURL, &p.SessionID, &p.HandID, &p.LikeCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- GroupStore ---------------------------------------------------------------

func (s *Store) CreateGame(ctx context.Context, g group.HomeGame) (group.HomeGame, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO home_games (id, owner_id, name, location, member_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, g.ID, g.OwnerID, g.Name, g.Location, pq.Array(g.MemberIDs), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return group.HomeGame{}, err
	}
	return g, nil
}

func (s *Store) UpdateGame(ctx context.Context, g group.HomeGame) (group.HomeGame, error) {
	existing, err := s.GetGame(ctx, g.ID)
	if err != nil {
		return group.HomeGame{}, err
	}

	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE home_games
		SET name = $2, location = $3, member_ids = $4, updated_at = $5
		WHERE id = $1
	`, g.ID, g.Name, g.Location, pq.Array(g.MemberIDs), g.UpdatedAt)
	if err != nil {
		return group.HomeGame{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return group.HomeGame{}, sql.ErrNoRows
	}
	return g, nil
}

func (s *Store) GetGame(ctx context.Context, id string) (group.HomeGame, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, location, member_ids, created_at, updated_at
		FROM home_games WHERE id = $1
	`, id)

	var g group.HomeGame
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Location, pq.Array(&g.MemberIDs), &g.CreatedAt, &g.UpdatedAt); err != nil {
		return group.HomeGame{}, err
	}
	return g, nil
}

func (s *Store) ListGames(ctx context.Context, memberID string) ([]group.HomeGame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, location, member_ids, created_at, updated_at
		FROM home_games
		WHERE owner_id = $1 OR $1 = ANY(member_ids)
		ORDER BY created_at
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []group.HomeGame
	for rows.Next() {
		var g group.HomeGame
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Location, pq.Array(&g.MemberIDs), &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (s *Store) DeleteGame(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM group_messages WHERE group_id = $1`, id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM home_games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, m group.Message) (group.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_messages (id, group_id, sender_id, body, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.GroupID, m.SenderID, m.Body, m.ImageURL, m.CreatedAt)
	if err != nil {
		return group.Message{}, err
	}
	return m, nil
}

func (s *Store) ListMessages(ctx context.Context, groupID string) ([]group.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, sender_id, body, image_url, created_at
		FROM group_messages WHERE group_id = $1 ORDER BY created_at
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []group.Message
	for rows.Next() {
		var m group.Message
		if err := rows.Scan(&m.ID, &m.GroupID, &m.SenderID, &m.Body, &m.ImageURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// --- HandStore ----------------------------------------------------------------

func (s *Store) CreateHand(ctx context.Context, h hand.SavedHand) (hand.SavedHand, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_hands (id, user_id, game_type, stakes, hero_cards, board_cards, pot_size, result, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, h.ID, h.UserID, h.GameType, h.Stakes, pq.Array(h.HeroCards), pq.Array(h.BoardCards),
		h.PotSize, h.Result, h.Summary, h.CreatedAt)
	if err != nil {
		return hand.SavedHand{}, err
	}
	return h, nil
}

func (s *Store) GetHand(ctx context.Context, id string) (hand.SavedHand, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, game_type, stakes, hero_cards, board_cards, pot_size, result, summary, created_at
		FROM saved_hands WHERE id = $1
	`, id)

	var h hand.SavedHand
	if err := row.Scan(&h.ID, &h.UserID, &h.GameType, &h.Stakes, pq.Array(&h.HeroCards),
		pq.Array(&h.BoardCards), &h.PotSize, &h.Result, &h.Summary, &h.CreatedAt); err != nil {
		return hand.SavedHand{}, err
	}
	return h, nil
}

func (s *Store) ListHands(ctx context.Context, userID string) ([]hand.SavedHand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, game_type, stakes, hero_cards, board_cards, pot_size, result, summary, created_at
		FROM saved_hands WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hand.SavedHand
	for rows.Next() {
		var h hand.SavedHand
		if err := rows.Scan(&h.ID, &h.UserID, &h.GameType, &h.Stakes, pq.Array(&h.HeroCards),
			pq.Array(&h.BoardCards), &h.PotSize, &h.Result, &h.Summary, &h.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (s *Store) DeleteHand(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_hands WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- StakeStore ---------------------------------------------------------------

func (s *Store) CreateStake(ctx context.Context, st staking.Stake) (staking.Stake, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stakes (id, player_id, backer_id, session_id, percentage, markup, status,
		                    amount_owed, settled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, st.ID, st.PlayerID, st.BackerID, st.SessionID, st.Percentage, st.Markup, st.Status,
		st.AmountOwed, nullTime(st.SettledAt), st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return staking.Stake{}, err
	}
	return st, nil
}

func (s *Store) UpdateStake(ctx context.Context, st staking.Stake) (staking.Stake, error) {
	existing, err := s.GetStake(ctx, st.ID)
	if err != nil {
		return staking.Stake{}, err
	}

	st.CreatedAt = existing.CreatedAt
	st.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE stakes
		SET percentage = $2, markup = $3, status = $4, amount_owed = $5, settled_at = $6, updated_at = $7
		WHERE id = $1
	`, st.ID, st.Percentage, st.Markup, st.Status, st.AmountOwed, nullTime(st.SettledAt), st.UpdatedAt)
	if err != nil {
		return staking.Stake{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return staking.Stake{}, sql.ErrNoRows
	}
	return st, nil
}

func (s *Store) GetStake(ctx context.Context, id string) (staking.Stake, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, player_id, backer_id, session_id, percentage, markup, status, amount_owed, settled_at, created_at, updated_at
		FROM stakes WHERE id = $1
	`, id)

	st, err := scanStake(row.Scan)
	if err != nil {
		return staking.Stake{}, err
	}
	return st, nil
}

func (s *Store) ListStakesByPlayer(ctx context.Context, playerID string) ([]staking.Stake, error) {
	return s.listStakes(ctx, `
		SELECT id, player_id, backer_id, session_id, percentage, markup, status, amount_owed, settled_at, created_at, updated_at
		FROM stakes WHERE player_id = $1 ORDER BY created_at
	`, playerID)
}

func (s *Store) ListStakesByBacker(ctx context.Context, backerID string) ([]staking.Stake, error) {
	return s.listStakes(ctx, `
		SELECT id, player_id, backer_id, session_id, percentage, markup, status, amount_owed, settled_at, created_at, updated_at
		FROM stakes WHERE backer_id = $1 ORDER BY created_at
	`, backerID)
}

func (s *Store) listStakes(ctx context.Context, query, arg string) ([]staking.Stake, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []staking.Stake
	for rows.Next() {
		st, err := scanStake(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func scanStake(scan func(dest ...any) error) (staking.Stake, error) {
	var (
		st        staking.Stake
		settledAt sql.NullTime
	)
	if err := scan(&st.ID, &st.PlayerID, &st.BackerID, &st.SessionID, &st.Percentage,
		&st.Markup, &st.Status, &st.AmountOwed, &settledAt, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return staking.Stake{}, err
	}
	if settledAt.Valid {
		st.SettledAt = settledAt.Time
	}
	return st, nil
}

// --- ChallengeStore -------------------------------------------------------------

func (s *Store) CreateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges (id, user_id, kind, title, target, progress, status, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.UserID, c.Kind, c.Title, c.Target, c.Progress, c.Status, c.Deadline, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return challenge.Challenge{}, err
	}
	return c, nil
}

func (s *Store) UpdateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	existing, err := s.GetChallenge(ctx, c.ID)
	if err != nil {
		return challenge.Challenge{}, err
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE challenges
		SET title = $2, target = $3, progress = $4, status = $5, deadline = $6, updated_at = $7
		WHERE id = $1
	`, c.ID, c.Title, c.Target, c.Progress, c.Status, c.Deadline, c.UpdatedAt)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return challenge.Challenge{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (challenge.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, title, target, progress, status, deadline, created_at, updated_at
		FROM challenges WHERE id = $1
	`, id)

	var c challenge.Challenge
	if err := row.Scan(&c.ID, &c.UserID, &c.Kind, &c.Title, &c.Target, &c.Progress,
		&c.Status, &c.Deadline, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return challenge.Challenge{}, err
	}
	return c, nil
}

func (s *Store) ListChallenges(ctx context.Context, userID string) ([]challenge.Challenge, error) {
	return s.listChallenges(ctx, `
		SELECT id, user_id, kind, title, target, progress, status, deadline, created_at, updated_at
		FROM challenges WHERE user_id = $1 ORDER BY created_at
	`, userID)
}

func (s *Store) ListActiveChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	return s.listChallenges(ctx, `
		SELECT id, user_id, kind, title, target, progress, status, deadline, created_at, updated_at
		FROM challenges WHERE status = $1 ORDER BY created_at
	`, string(challenge.StatusActive))
}

func (s *Store) listChallenges(ctx context.Context, query, arg string) ([]challenge.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []challenge.Challenge
	for rows.Next() {
		var c challenge.Challenge
		if err := rows.Scan(&c.ID, &c.UserID, &c.Kind, &c.Title, &c.Target, &c.Progress,
			&c.Status, &c.Deadline, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
