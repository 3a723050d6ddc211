package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
// The SQL must stay valid for both SQLite and PostgreSQL.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	identity    TEXT NOT NULL,
	sender      TEXT NOT NULL DEFAULT '',
	recipient   TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	received_at TIMESTAMP NOT NULL,
	category    TEXT NOT NULL DEFAULT 'Inbox',
	processed   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	UNIQUE (user_id, identity)
);

CREATE TABLE IF NOT EXISTS summaries (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	message_identity TEXT NOT NULL,
	text             TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL,
	UNIQUE (user_id, message_identity),
	FOREIGN KEY (user_id, message_identity)
		REFERENCES messages (user_id, identity) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS reply_drafts (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	message_identity TEXT NOT NULL,
	user_prompt      TEXT NOT NULL DEFAULT '',
	generated_text   TEXT NOT NULL DEFAULT '',
	final_text       TEXT NOT NULL DEFAULT '',
	was_sent         BOOLEAN NOT NULL DEFAULT FALSE,
	sent_at          TIMESTAMP,
	created_at       TIMESTAMP NOT NULL,
	FOREIGN KEY (user_id, message_identity)
		REFERENCES messages (user_id, identity) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS user_preferences (
	user_id    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, key)
);

CREATE INDEX IF NOT EXISTS idx_messages_user_category_received
	ON messages(user_id, category, received_at);
CREATE INDEX IF NOT EXISTS idx_messages_user_received
	ON messages(user_id, received_at);
CREATE INDEX IF NOT EXISTS idx_reply_drafts_message
	ON reply_drafts(user_id, message_identity);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_messages_user_processed
	ON messages(user_id, processed);

CREATE INDEX IF NOT EXISTS idx_reply_drafts_sent
	ON reply_drafts(user_id, was_sent);
`,
	},
}
