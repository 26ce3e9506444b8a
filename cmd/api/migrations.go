// cmd/api/migrations.go
// Schema creation run at startup. All statements are idempotent.

package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
)

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            email VARCHAR(255) UNIQUE NOT NULL,
            username VARCHAR(100) UNIQUE NOT NULL,
            full_name VARCHAR(255) NOT NULL,
            password_hash VARCHAR(255) NOT NULL,
            profile_picture TEXT,
            bio TEXT,
            is_verified BOOLEAN DEFAULT FALSE,
            is_online BOOLEAN DEFAULT FALSE,
            last_seen TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS otps (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            code VARCHAR(10) NOT NULL,
            type VARCHAR(30) NOT NULL,
            attempts INTEGER DEFAULT 0,
            expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		// Direct chats. The participant pair is stored normalized
		// (user_one_id < user_two_id) so one row per pair is enforced.
		`CREATE TABLE IF NOT EXISTS chats (
            id BIGSERIAL PRIMARY KEY,
            user_one_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user_two_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            last_message_id BIGINT,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT chats_pair_order CHECK (user_one_id < user_two_id),
            CONSTRAINT chats_pair_unique UNIQUE (user_one_id, user_two_id)
        )`,

		// Per-user chat hiding. A row means the chat is invisible to
		// that user until it is restored.
		`CREATE TABLE IF NOT EXISTS chat_deletions (
            chat_id BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            deleted_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (chat_id, user_id)
        )`,

		`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            chat_id BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            reply_to_id BIGINT REFERENCES messages(id) ON DELETE SET NULL,
            content TEXT NOT NULL DEFAULT '',
            media_type VARCHAR(20),
            media_url TEXT,
            status VARCHAR(20) NOT NULL DEFAULT 'sent',
            deleted_for_everyone BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		// Per-user message hiding, used for "delete for me" and for
		// hiding history when a chat is deleted.
		`CREATE TABLE IF NOT EXISTS message_deletions (
            message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            deleted_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (message_id, user_id)
        )`,

		`CREATE TABLE IF NOT EXISTS notifications (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type VARCHAR(30) NOT NULL,
            title VARCHAR(200) NOT NULL,
            message TEXT NOT NULL,
            data JSONB DEFAULT '{}',
            is_read BOOLEAN DEFAULT FALSE,
            read_at TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		`ALTER TABLE chats DROP CONSTRAINT IF EXISTS chats_last_message_fk`,
		`ALTER TABLE chats ADD CONSTRAINT chats_last_message_fk
            FOREIGN KEY (last_message_id) REFERENCES messages(id) ON DELETE SET NULL`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_otps_user_type ON otps(user_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_one ON chats(user_one_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_two ON chats(user_two_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_updated ON chats(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id)`,
		`CREATE INDEX IF NOT EXISTS idx_message_deletions_user ON message_deletions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(user_id) WHERE is_read = FALSE`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("Ran %d migrations", len(migrations))
	return nil
}
