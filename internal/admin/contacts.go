package admin

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Contact は問い合わせフォームの送信内容。
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	SerialNo  int       `json:"-"`
}

// ListContacts は問い合わせをサーバーが返した順で返す。
func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	body, err := fetchList[Contact](ctx, c, "contact", "contacts")
	if err != nil {
		return nil, err
	}
	for i := range body.Data {
		body.Data[i].SerialNo = i + 1
	}
	return body.Data, nil
}

// DeleteContact は問い合わせを削除する。
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "contact/"+url.PathEscape(id), nil, "Contact deleted successfully!", nil)
}
