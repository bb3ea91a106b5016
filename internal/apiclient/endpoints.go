package apiclient

import "net/url"

// Backend routes. Trailing slashes are significant to the backend router.
const (
	pathDocumentList   = "/doc/list/"
	pathDocumentUpload = "/doc/embeddings"
	pathQuery          = "/doc/query-docs"
	pathChatRooms      = "/chat/rooms/"
	pathChatRoomCreate = "/chat/room/"
)

// Multipart field carrying the uploaded file.
const uploadFileField = "file"

func documentPath(id string) string {
	return "/doc/document/" + url.PathEscape(id)
}

func documentDeletePath(id string) string {
	return "/doc/delete-asset/" + url.PathEscape(id)
}

func chatRoomPath(id string) string {
	return "/chat/room/" + url.PathEscape(id) + "/"
}

func chatMessagesPath(id string) string {
	return "/chat/room/" + url.PathEscape(id) + "/messages/"
}
