package admin

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// Message はお知らせメッセージ。
type Message struct {
	ID             string    `json:"_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	SentBy         string    `json:"sentBy"`
	TargetAudience string    `json:"targetAudience"`
	SentAt         time.Time `json:"sentAt"`
	SerialNo       int       `json:"-"`
}

// MessageInput はメッセージの作成・更新の入力値。
type MessageInput struct {
	Title          string `json:"title" validate:"required"`
	Content        string `json:"content" validate:"required"`
	SentBy         string `json:"sentBy" validate:"required"`
	TargetAudience string `json:"targetAudience" validate:"required"`
}

// ListMessages はメッセージを送信日時の新しい順で返す。
func (c *Client) ListMessages(ctx context.Context) ([]Message, error) {
	body, err := fetchList[Message](ctx, c, "messages", "messages")
	if err != nil {
		return nil, err
	}
	items := body.Data
	sort.SliceStable(items, func(i, j int) bool { return items[i].SentAt.After(items[j].SentAt) })
	for i := range items {
		items[i].SerialNo = i + 1
	}
	return items, nil
}

// CreateMessage はメッセージを作成する。
func (c *Client) CreateMessage(ctx context.Context, in MessageInput) (*Message, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, c.invalid("All fields are required.", err)
	}
	var m Message
	if err := c.send(ctx, http.MethodPost, "messages", in, "Message created successfully!", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMessage はメッセージを更新する。
func (c *Client) UpdateMessage(ctx context.Context, id string, in MessageInput) (*Message, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, c.invalid("All fields are required.", err)
	}
	var m Message
	if err := c.send(ctx, http.MethodPut, "messages/"+url.PathEscape(id), in, "Message updated successfully!", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessage はメッセージを削除する。
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "messages/"+url.PathEscape(id), nil, "Message deleted successfully!", nil)
}
