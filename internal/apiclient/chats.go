package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"ragdash/internal/model"
)

func (c *Client) ListChatRooms(ctx context.Context, userID string) ([]model.ChatSession, error) {
	const op = "list_chat_rooms"
	var query url.Values
	if userID != "" {
		query = url.Values{"user_id": {userID}}
	}
	resp, err := c.Do(ctx, Request{Op: op, Method: http.MethodGet, Path: pathChatRooms, Query: query})
	if err != nil {
		return nil, err
	}
	var dtos []chatRoomDTO
	if err := DecodeData(op, resp, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.ChatSession, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

type CreateChatRoomInput struct {
	Name     string
	Contexts []string
	Provider model.Provider
	UserID   string
}

func (c *Client) CreateChatRoom(ctx context.Context, in CreateChatRoomInput) (*model.ChatSession, error) {
	const op = "create_chat_room"
	contexts := in.Contexts
	if contexts == nil {
		contexts = []string{}
	}
	resp, err := c.Do(ctx, Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   pathChatRoomCreate,
		Body: createChatRoomBody{
			Name:     in.Name,
			Contexts: contexts,
			Provider: string(in.Provider),
			UserID:   in.UserID,
		},
	})
	if err != nil {
		return nil, err
	}
	var dto chatRoomDTO
	if err := DecodeData(op, resp, &dto); err != nil {
		return nil, err
	}
	session := dto.toModel()
	if session.ID == "" {
		return nil, malformedError(op, resp.Status, errMissingID)
	}
	return &session, nil
}

func (c *Client) DeleteChatRoom(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Op: "delete_chat_room", Method: http.MethodDelete, Path: chatRoomPath(id)})
	return err
}

func (c *Client) ListMessages(ctx context.Context, roomID string) ([]model.ChatMessage, error) {
	const op = "list_messages"
	resp, err := c.Do(ctx, Request{Op: op, Method: http.MethodGet, Path: chatMessagesPath(roomID)})
	if err != nil {
		return nil, err
	}
	var dtos []messageDTO
	if err := DecodeData(op, resp, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.ChatMessage, 0, len(dtos))
	for _, d := range dtos {
		m := d.toModel()
		if m.SessionID == "" {
			m.SessionID = roomID
		}
		out = append(out, m)
	}
	return out, nil
}

// Query asks the backend a question against the indexed documents.
func (c *Client) Query(ctx context.Context, q model.QueryRequest) (*model.QueryAnswer, error) {
	const op = "query_documents"
	resp, err := c.Do(ctx, Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   pathQuery,
		Body: queryBody{
			Query:       q.Question,
			TopK:        q.TopK,
			ChatRoomID:  q.SessionID,
			DocumentIDs: q.DocumentIDs,
			UserID:      q.UserID,
		},
	})
	if err != nil {
		return nil, err
	}
	var dto queryResultDTO
	if err := DecodeData(op, resp, &dto); err != nil {
		return nil, err
	}
	return &model.QueryAnswer{Text: dto.Results, Sources: citations(dto.Sources)}, nil
}
