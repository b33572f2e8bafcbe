package testutil

import (
	"errors"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// FakeThreadAPI records thread creations and message sends instead of calling Discord.
type FakeThreadAPI struct {
	mu sync.Mutex

	// StartErr, when set, is returned by MessageThreadStartComplex.
	StartErr error
	// SendErrAt makes the n-th send (1-based) fail; 0 disables.
	SendErrAt int

	Started []discordgo.ThreadStart
	Sent    []SentMessage
}

// SentMessage is one recorded ChannelMessageSend call.
type SentMessage struct {
	ChannelID string
	Content   string
}

// MessageThreadStartComplex implements threads.ThreadAPI.
func (f *FakeThreadAPI) MessageThreadStartComplex(channelID, messageID string, data *discordgo.ThreadStart, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Started = append(f.Started, *data)
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	return &discordgo.Channel{ID: "thread-" + messageID, ParentID: channelID, Name: data.Name}, nil
}

// ChannelMessageSend implements threads.ThreadAPI.
func (f *FakeThreadAPI) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErrAt > 0 && len(f.Sent)+1 == f.SendErrAt {
		return nil, errors.New("send failed")
	}
	f.Sent = append(f.Sent, SentMessage{ChannelID: channelID, Content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

// StartCount returns the number of thread creation attempts.
func (f *FakeThreadAPI) StartCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Started)
}

// SentCount returns the number of successful sends.
func (f *FakeThreadAPI) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// ThreadExistsError builds the REST error Discord returns when a message already has a thread.
func ThreadExistsError() error {
	return &discordgo.RESTError{
		Response:     &http.Response{Status: "400 Bad Request", StatusCode: http.StatusBadRequest},
		ResponseBody: []byte(`{"message": "A thread has already been created for this message", "code": 160004}`),
		Message:      &discordgo.APIErrorMessage{Code: 160004, Message: "A thread has already been created for this message"},
	}
}
