// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"storefront-go/internal/model"
)

// DBTX is the subset of *sql.DB / *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance that runs against the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ---- Users ----

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

const createUser = `
INSERT INTO users (username, password_hash, created_at)
VALUES (?, ?, ?)
RETURNING id, username, password_hash, created_at, last_login_at
`

// CreateUser inserts a new user and returns the created row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Username, arg.PasswordHash, arg.CreatedAt)
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

const getUserByUsername = `
SELECT id, username, password_hash, created_at, last_login_at
FROM users WHERE username = ?
`

// GetUserByUsername looks up a user by username.
// Returns sql.ErrNoRows if no such user exists.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

const getUserByID = `
SELECT id, username, password_hash, created_at, last_login_at
FROM users WHERE id = ?
`

// GetUserByID looks up a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

const updateUserLastLogin = `
UPDATE users SET last_login_at = ? WHERE id = ?
`

// UpdateUserLastLogin records the time of a successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, at, id)
	return err
}

const updateUserPassword = `
UPDATE users SET password_hash = ? WHERE id = ?
`

// UpdateUserPassword replaces a user's password hash. Used when hash
// parameters change and a rehash is required.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, id)
	return err
}

// ---- Items ----

// CreateItemParams holds parameters for CreateItem.
type CreateItemParams struct {
	Name        string
	Description string
	Price       int64
	Category    int64
	Photo       sql.NullString
	CreatedAt   time.Time
}

const createItem = `
INSERT INTO items (name, description, price, category, photo, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, name, description, price, category, photo, created_at
`

// CreateItem inserts a new catalog item and returns the created row.
func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (model.Item, error) {
	row := q.db.QueryRowContext(ctx, createItem,
		arg.Name, arg.Description, arg.Price, arg.Category, arg.Photo, arg.CreatedAt)
	var it model.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Photo, &it.CreatedAt)
	return it, err
}

const getItem = `
SELECT id, name, description, price, category, photo, created_at
FROM items WHERE id = ?
`

// GetItem looks up a catalog item by primary key.
func (q *Queries) GetItem(ctx context.Context, id int64) (model.Item, error) {
	row := q.db.QueryRowContext(ctx, getItem, id)
	var it model.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Photo, &it.CreatedAt)
	return it, err
}

// ListItemsParams holds parameters for ListItems. Category filters the
// listing when Valid; limit/offset implement pagination.
type ListItemsParams struct {
	Category sql.NullInt64
	Limit    int64
	Offset   int64
}

const listItems = `
SELECT id, name, description, price, category, photo, created_at
FROM items
WHERE (?1 IS NULL OR category = ?1)
ORDER BY id DESC
LIMIT ?2 OFFSET ?3
`

// ListItems returns a page of catalog items, newest first.
func (q *Queries) ListItems(ctx context.Context, arg ListItemsParams) ([]model.Item, error) {
	rows, err := q.db.QueryContext(ctx, listItems, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Photo, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const countItems = `
SELECT COUNT(*) FROM items WHERE (?1 IS NULL OR category = ?1)
`

// CountItems returns the number of catalog items matching the category
// filter (all items when category is not Valid).
func (q *Queries) CountItems(ctx context.Context, category sql.NullInt64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countItems, category).Scan(&n)
	return n, err
}

const deleteItem = `
DELETE FROM items WHERE id = ?
`

// DeleteItem removes a catalog item. Returns the number of rows
// affected; 0 means the item did not exist.
func (q *Queries) DeleteItem(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteItem, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- Articles ----

// CreateArticleParams holds parameters for CreateArticle.
type CreateArticleParams struct {
	Name        string
	Body        string
	Photo       sql.NullString
	PublishedAt time.Time
	CreatedAt   time.Time
}

const createArticle = `
INSERT INTO articles (name, body, photo, published_at, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, name, body, photo, published_at, created_at
`

// CreateArticle inserts a new news article and returns the created row.
func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (model.Article, error) {
	row := q.db.QueryRowContext(ctx, createArticle,
		arg.Name, arg.Body, arg.Photo, arg.PublishedAt, arg.CreatedAt)
	var a model.Article
	err := row.Scan(&a.ID, &a.Name, &a.Body, &a.Photo, &a.PublishedAt, &a.CreatedAt)
	return a, err
}

const getArticle = `
SELECT id, name, body, photo, published_at, created_at
FROM articles WHERE id = ?
`

// GetArticle looks up a news article by primary key.
func (q *Queries) GetArticle(ctx context.Context, id int64) (model.Article, error) {
	row := q.db.QueryRowContext(ctx, getArticle, id)
	var a model.Article
	err := row.Scan(&a.ID, &a.Name, &a.Body, &a.Photo, &a.PublishedAt, &a.CreatedAt)
	return a, err
}

// ListArticlesParams holds parameters for ListArticles.
type ListArticlesParams struct {
	Limit  int64
	Offset int64
}

const listArticles = `
SELECT id, name, body, photo, published_at, created_at
FROM articles
ORDER BY published_at DESC, id DESC
LIMIT ? OFFSET ?
`

// ListArticles returns a page of news articles, newest first.
func (q *Queries) ListArticles(ctx context.Context, arg ListArticlesParams) ([]model.Article, error) {
	rows, err := q.db.QueryContext(ctx, listArticles, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Name, &a.Body, &a.Photo, &a.PublishedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

const countArticles = `
SELECT COUNT(*) FROM articles
`

// CountArticles returns the total number of news articles.
func (q *Queries) CountArticles(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countArticles).Scan(&n)
	return n, err
}

const deleteArticle = `
DELETE FROM articles WHERE id = ?
`

// DeleteArticle removes a news article. Returns the number of rows
// affected; 0 means the article did not exist.
func (q *Queries) DeleteArticle(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteArticle, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listPhotoFilenames = `
SELECT photo FROM items WHERE photo IS NOT NULL AND photo != ''
UNION
SELECT photo FROM articles WHERE photo IS NOT NULL AND photo != ''
`

// ListPhotoFilenames returns every photo filename referenced by items
// or articles. Used by the maintenance job to find orphaned uploads.
func (q *Queries) ListPhotoFilenames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPhotoFilenames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ---- Events ----

// CreateEventParams holds parameters for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string
	CreatedAt time.Time
}

const createEvent = `
INSERT INTO events (level, category, message, user_id, ip_address, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

// CreateEvent inserts a new event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.IPAddress, arg.Metadata, arg.CreatedAt)
	return err
}

// ListEventsParams holds parameters for ListEvents.
type ListEventsParams struct {
	Limit  int64
	Offset int64
}

const listEvents = `
SELECT id, level, category, message, user_id, ip_address, metadata, created_at
FROM events
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`

// ListEvents returns a page of event log entries, newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.IPAddress, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const countEvents = `
SELECT COUNT(*) FROM events
`

// CountEvents returns the total number of event log entries.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEvents).Scan(&n)
	return n, err
}

const deleteEventsBefore = `
DELETE FROM events WHERE created_at < ?
`

// DeleteEventsBefore removes event log entries older than the cutoff.
// Returns the number of rows removed.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
