package store

import (
	"context"
	"database/sql"
	"time"
)

type Chat struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Engine    string    `json:"engine,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatRepo struct{ DB *sql.DB }

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{DB: db} }

func (r *ChatRepo) Insert(ctx context.Context, user, bot, engine string) (Chat, error) {
	const q = `insert into chats (user_text, bot_text, engine) values ($1, $2, $3) returning id, created_at`
	c := Chat{User: user, Bot: bot, Engine: engine}
	if err := r.DB.QueryRowContext(ctx, q, user, bot, engine).Scan(&c.ID, &c.Timestamp); err != nil {
		return Chat{}, err
	}
	return c, nil
}

// Recent returns up to limit chats, newest first.
func (r *ChatRepo) Recent(ctx context.Context, limit int) ([]Chat, error) {
	const q = `select id, user_text, bot_text, engine, created_at
from chats
order by created_at desc, id desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Chat, 0, limit)
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.User, &c.Bot, &c.Engine, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
