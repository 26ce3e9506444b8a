// internal/chat/postgres.go

package chat

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const chatColumns = `id, user_one_id, user_two_id, last_message_id, created_at, updated_at`

// CreateChat inserts a chat for a normalized participant pair
func (r *postgresRepository) CreateChat(ctx context.Context, userA, userB int64) (*Chat, error) {
	one, two := NormalizePair(userA, userB)

	query := `
        INSERT INTO chats (user_one_id, user_two_id, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
        RETURNING ` + chatColumns

	var c Chat
	if err := r.db.GetContext(ctx, &c, query, one, two); err != nil {
		return nil, err
	}

	if err := r.loadChatRelations(ctx, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// FindChatByParticipants looks up the chat for a pair in either order
func (r *postgresRepository) FindChatByParticipants(ctx context.Context, userA, userB int64) (*Chat, error) {
	one, two := NormalizePair(userA, userB)

	query := `SELECT ` + chatColumns + ` FROM chats WHERE user_one_id = $1 AND user_two_id = $2`

	var c Chat
	err := r.db.GetContext(ctx, &c, query, one, two)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadChatRelations(ctx, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *postgresRepository) FindChatByID(ctx context.Context, id int64) (*Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`

	var c Chat
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadChatRelations(ctx, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// ListChatsForUser returns the user's chats, newest activity first,
// excluding chats the user has soft-deleted
func (r *postgresRepository) ListChatsForUser(ctx context.Context, userID int64) ([]*Chat, error) {
	query := `
        SELECT ` + chatColumns + `
        FROM chats c
        WHERE (c.user_one_id = $1 OR c.user_two_id = $1)
          AND NOT EXISTS (
              SELECT 1 FROM chat_deletions d
              WHERE d.chat_id = c.id AND d.user_id = $1
          )
        ORDER BY c.updated_at DESC`

	var chats []*Chat
	if err := r.db.SelectContext(ctx, &chats, query, userID); err != nil {
		return nil, err
	}

	for _, c := range chats {
		if err := r.loadChatRelations(ctx, c); err != nil {
			return nil, err
		}
	}

	return chats, nil
}

func (r *postgresRepository) SetLastMessage(ctx context.Context, chatID, messageID int64) error {
	query := `
        UPDATE chats
        SET last_message_id = $1, updated_at = NOW()
        WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, messageID, chatID)
	return err
}

func (r *postgresRepository) AddChatDeletion(ctx context.Context, chatID, userID int64, deletedAt time.Time) error {
	query := `
        INSERT INTO chat_deletions (chat_id, user_id, deleted_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (chat_id, user_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, chatID, userID, deletedAt)
	return err
}

// RemoveChatDeletion clears a participant's deletion marker and reports
// whether one existed
func (r *postgresRepository) RemoveChatDeletion(ctx context.Context, chatID, userID int64) (bool, error) {
	query := `DELETE FROM chat_deletions WHERE chat_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, chatID, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// loadChatRelations populates participants, deletion markers and the last
// message projection
func (r *postgresRepository) loadChatRelations(ctx context.Context, c *Chat) error {
	participants := make([]*UserInfo, 0, 2)
	query := `
        SELECT id, username, full_name, profile_picture, is_online, last_seen
        FROM users
        WHERE id IN ($1, $2)
        ORDER BY id`
	if err := r.db.SelectContext(ctx, &participants, query, c.UserOneID, c.UserTwoID); err != nil {
		return err
	}
	c.Participants = participants

	deletions := []ChatDeletion{}
	query = `SELECT user_id, deleted_at FROM chat_deletions WHERE chat_id = $1`
	if err := r.db.SelectContext(ctx, &deletions, query, c.ID); err != nil {
		return err
	}
	c.DeletedBy = deletions

	if c.LastMessageID != nil {
		last, err := r.FindMessageByID(ctx, *c.LastMessageID)
		if err != nil {
			return err
		}
		c.LastMessage = last
	}

	return nil
}

// messageRow flattens the joined sender columns for scanning
type messageRow struct {
	ID                 int64         `db:"id"`
	ChatID             int64         `db:"chat_id"`
	SenderID           int64         `db:"sender_id"`
	ReplyToID          *int64        `db:"reply_to_id"`
	Content            string        `db:"content"`
	MediaType          string        `db:"media_type"`
	MediaURL           string        `db:"media_url"`
	Status             MessageStatus `db:"status"`
	DeletedForEveryone bool          `db:"deleted_for_everyone"`
	CreatedAt          time.Time     `db:"created_at"`

	SenderUsername string     `db:"sender_username"`
	SenderFullName string     `db:"sender_full_name"`
	SenderPicture  *string    `db:"sender_picture"`
	SenderOnline   bool       `db:"sender_online"`
	SenderLastSeen *time.Time `db:"sender_last_seen"`
}

func (row *messageRow) toMessage() *Message {
	return &Message{
		ID:                 row.ID,
		ChatID:             row.ChatID,
		SenderID:           row.SenderID,
		ReplyToID:          row.ReplyToID,
		Content:            row.Content,
		Media:              Media{Type: MediaType(row.MediaType), URL: row.MediaURL},
		Status:             row.Status,
		DeletedForEveryone: row.DeletedForEveryone,
		CreatedAt:          row.CreatedAt,
		Sender: &UserInfo{
			ID:             row.SenderID,
			Username:       row.SenderUsername,
			FullName:       row.SenderFullName,
			ProfilePicture: row.SenderPicture,
			IsOnline:       row.SenderOnline,
			LastSeen:       row.SenderLastSeen,
		},
	}
}

const messageSelect = `
    SELECT m.id, m.chat_id, m.sender_id, m.reply_to_id, m.content,
           m.media_type, m.media_url, m.status, m.deleted_for_everyone,
           m.created_at,
           u.username AS sender_username, u.full_name AS sender_full_name,
           u.profile_picture AS sender_picture, u.is_online AS sender_online,
           u.last_seen AS sender_last_seen
    FROM messages m
    JOIN users u ON u.id = m.sender_id`

func (r *postgresRepository) CreateMessage(ctx context.Context, message *Message) error {
	query := `
        INSERT INTO messages (
            chat_id, sender_id, reply_to_id, content,
            media_type, media_url, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, created_at`

	return r.db.QueryRowContext(
		ctx, query,
		message.ChatID, message.SenderID, message.ReplyToID, message.Content,
		string(message.Media.Type), message.Media.URL, string(message.Status),
	).Scan(&message.ID, &message.CreatedAt)
}

func (r *postgresRepository) FindMessageByID(ctx context.Context, id int64) (*Message, error) {
	query := messageSelect + ` WHERE m.id = $1`

	var row messageRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	msg := row.toMessage()
	if err := r.loadReplies(ctx, []*Message{msg}); err != nil {
		return nil, err
	}

	return msg, nil
}

// ListMessages returns a page of messages visible to the viewer, oldest
// first within the page, plus the total visible count for pagination
func (r *postgresRepository) ListMessages(ctx context.Context, chatID, viewerID int64, limit, offset int) ([]*Message, int, error) {
	visible := `
        m.chat_id = $1
        AND m.deleted_for_everyone = false
        AND NOT EXISTS (
            SELECT 1 FROM message_deletions d
            WHERE d.message_id = m.id AND d.user_id = $2
        )`

	query := messageSelect + `
    WHERE ` + visible + `
    ORDER BY m.created_at DESC
    LIMIT $3 OFFSET $4`

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, chatID, viewerID, limit, offset); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM messages m WHERE ` + visible
	if err := r.db.GetContext(ctx, &total, countQuery, chatID, viewerID); err != nil {
		return nil, 0, err
	}

	// Reverse so the page reads oldest to newest
	messages := make([]*Message, len(rows))
	for i := range rows {
		messages[len(rows)-1-i] = rows[i].toMessage()
	}

	if err := r.loadReplies(ctx, messages); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// loadReplies attaches the referenced message summary for inline display
func (r *postgresRepository) loadReplies(ctx context.Context, messages []*Message) error {
	ids := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, m := range messages {
		if m.ReplyToID == nil {
			continue
		}
		if _, ok := seen[*m.ReplyToID]; ok {
			continue
		}
		seen[*m.ReplyToID] = struct{}{}
		ids = append(ids, *m.ReplyToID)
	}
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(messageSelect+` WHERE m.id IN (?)`, ids)
	if err != nil {
		return err
	}
	query = r.db.Rebind(query)

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return err
	}

	byID := make(map[int64]*Message, len(rows))
	for i := range rows {
		byID[rows[i].ID] = rows[i].toMessage()
	}

	for _, m := range messages {
		if m.ReplyToID != nil {
			m.ReplyTo = byID[*m.ReplyToID]
		}
	}

	return nil
}

func (r *postgresRepository) SetMessageStatus(ctx context.Context, id int64, status MessageStatus) error {
	query := `UPDATE messages SET status = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, string(status), id)
	return err
}

// MarkChatMessagesRead sets every message not sent by the reader to read
func (r *postgresRepository) MarkChatMessagesRead(ctx context.Context, chatID, excludeSenderID int64) error {
	query := `
        UPDATE messages
        SET status = 'read'
        WHERE chat_id = $1 AND sender_id <> $2`

	_, err := r.db.ExecContext(ctx, query, chatID, excludeSenderID)
	return err
}

func (r *postgresRepository) SetDeletedForEveryone(ctx context.Context, id int64) error {
	query := `UPDATE messages SET deleted_for_everyone = true WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *postgresRepository) AddMessageDeletion(ctx context.Context, messageID, userID int64) error {
	query := `
        INSERT INTO message_deletions (message_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (message_id, user_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, messageID, userID)
	return err
}

// AddChatMessagesDeletion hides all current messages of a chat from one
// user; used when that user soft-deletes the chat
func (r *postgresRepository) AddChatMessagesDeletion(ctx context.Context, chatID, userID int64) error {
	query := `
        INSERT INTO message_deletions (message_id, user_id)
        SELECT id, $2 FROM messages WHERE chat_id = $1
        ON CONFLICT (message_id, user_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, chatID, userID)
	return err
}

func (r *postgresRepository) GetUserInfo(ctx context.Context, userID int64) (*UserInfo, error) {
	query := `
        SELECT id, username, full_name, profile_picture, is_online, last_seen
        FROM users
        WHERE id = $1`

	var info UserInfo
	err := r.db.GetContext(ctx, &info, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &info, nil
}

func (r *postgresRepository) UpdateUserPresence(ctx context.Context, userID int64, isOnline bool, lastSeen time.Time) error {
	query := `
        UPDATE users
        SET is_online = $1, last_seen = $2, updated_at = NOW()
        WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, isOnline, lastSeen, userID)
	return err
}
