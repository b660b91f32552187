package sqlite

// Schema creates the relay tables. Rooms are not persisted; room_id is a plain key.
const Schema = `
CREATE TABLE IF NOT EXISTS messages (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	content           TEXT NOT NULL,
	content_type      TEXT NOT NULL DEFAULT 'text',
	author_id         INTEGER NOT NULL,
	room_id           INTEGER NOT NULL,
	parent_message_id INTEGER,
	sent_at           DATETIME NOT NULL,
	FOREIGN KEY (parent_message_id) REFERENCES messages(id)
);

CREATE TABLE IF NOT EXISTS tags (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS message_tags (
	message_id INTEGER NOT NULL,
	tag_id     INTEGER NOT NULL,
	PRIMARY KEY (message_id, tag_id),
	FOREIGN KEY (message_id) REFERENCES messages(id),
	FOREIGN KEY (tag_id) REFERENCES tags(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, sent_at DESC);
CREATE INDEX IF NOT EXISTS idx_message_tags_tag ON message_tags(tag_id);
`
