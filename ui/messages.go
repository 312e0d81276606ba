package ui

import (
	"nailchat/assistant"
	"nailchat/attachment"
	"nailchat/storage"
)

type connectedMsg struct {
	err error
}

type sendDoneMsg struct {
	answer *storage.Message
	err    error
}

type remoteForgottenMsg struct {
	conversationID string
}

type imageLoadedMsg struct {
	image *attachment.Image
	err   error
}

type clipboardMsg struct {
	err error
}

type healthMsg struct {
	health *assistant.Health
	err    error
}
