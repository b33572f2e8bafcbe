package threads

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/qqqqqqq1/discord-thread-bot/testutil"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"trim", "  Artist - Demo \n", "Artist - Demo", nil},
		{"empty", "", "", ErrEmptyTitle},
		{"whitespace only", " \t\n", "", ErrEmptyTitle},
		{"exactly 100", strings.Repeat("a", 100), strings.Repeat("a", 100), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTitle(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleTruncation(t *testing.T) {
	for _, l := range []int{101, 150, 1000} {
		in := strings.Repeat("word ", l/5+1)[:l]
		got, err := NormalizeTitle(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		trimmed := strings.TrimSpace(in)
		if got != trimmed[:100] {
			t.Errorf("length %d: got %q, want first 100 chars of input", l, got)
		}
	}
}

func TestNormalizeTitleMultibyte(t *testing.T) {
	in := strings.Repeat("é", 120)
	got, err := NormalizeTitle(in)
	if err != nil {
		t.Fatal(err)
	}
	if got != strings.Repeat("é", 100) {
		t.Errorf("expected 100 characters, got %d bytes", len(got))
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	for _, in := range []string{"Artist - Demo", strings.Repeat("x", 250), "  padded  "} {
		once, err := NormalizeTitle(in)
		if err != nil {
			t.Fatal(err)
		}
		twice, err := NormalizeTitle(once)
		if err != nil {
			t.Fatal(err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q vs %q", once, twice)
		}
	}
}

func TestProvisionerCreate(t *testing.T) {
	api := &testutil.FakeThreadAPI{}
	p := &Provisioner{API: api}
	h, err := p.Create(context.Background(), "chan-1", "msg-1", NewRequest("Artist - Demo"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if h.ID != "thread-msg-1" || h.Name != "Artist - Demo" {
		t.Errorf("unexpected handle %+v", h)
	}
	if len(api.Started) != 1 {
		t.Fatalf("expected 1 start, got %d", len(api.Started))
	}
	got := api.Started[0]
	if got.AutoArchiveDuration != 10080 {
		t.Errorf("AutoArchiveDuration = %d, want 10080", got.AutoArchiveDuration)
	}
	if got.Type != discordgo.ChannelTypeGuildPublicThread {
		t.Errorf("Type = %v, want public thread", got.Type)
	}
}

func TestProvisionerConflict(t *testing.T) {
	api := &testutil.FakeThreadAPI{StartErr: testutil.ThreadExistsError()}
	p := &Provisioner{API: api}
	_, err := p.Create(context.Background(), "chan-1", "msg-1", NewRequest("x"))
	if !errors.Is(err, ErrThreadExists) {
		t.Fatalf("err = %v, want ErrThreadExists", err)
	}
}

func TestProvisionerOtherFailure(t *testing.T) {
	api := &testutil.FakeThreadAPI{StartErr: errors.New("missing permissions")}
	p := &Provisioner{API: api}
	_, err := p.Create(context.Background(), "chan-1", "msg-1", NewRequest("x"))
	if err == nil || errors.Is(err, ErrThreadExists) {
		t.Fatalf("err = %v, want wrapped non-conflict error", err)
	}
}

func TestIsThreadExistsOtherCode(t *testing.T) {
	err := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: 50013}}
	if IsThreadExists(err) {
		t.Error("50013 must not be treated as a conflict")
	}
	if IsThreadExists(&discordgo.RESTError{}) {
		t.Error("nil message must not be treated as a conflict")
	}
}

func TestBody(t *testing.T) {
	if got := Body("desc", ""); got != "desc" {
		t.Errorf("Body without credits = %q", got)
	}
	if got := Body("desc", "Album Credits:\nme"); got != "desc\n\nAlbum Credits:\nme" {
		t.Errorf("Body with credits = %q", got)
	}
}

func TestChunks(t *testing.T) {
	got := Chunks(strings.Repeat("a", 4500), MaxMessageLength)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for i, want := range []int{2000, 2000, 500} {
		if len(got[i]) != want {
			t.Errorf("chunk %d len = %d, want %d", i, len(got[i]), want)
		}
	}
	if Chunks("", MaxMessageLength) != nil {
		t.Error("empty body must produce no chunks")
	}
	if got := Chunks(strings.Repeat("b", 2000), MaxMessageLength); len(got) != 1 {
		t.Errorf("2000 chars should be one chunk, got %d", len(got))
	}
}

func TestDeliverOrder(t *testing.T) {
	api := &testutil.FakeThreadAPI{}
	body := strings.Repeat("a", 2000) + strings.Repeat("b", 2000) + strings.Repeat("c", 500)
	n, err := Deliver(context.Background(), api, "thread-1", body)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if n != 3 || len(api.Sent) != 3 {
		t.Fatalf("sent %d chunks, want 3", n)
	}
	for i, c := range []byte{'a', 'b', 'c'} {
		if api.Sent[i].Content[0] != c || api.Sent[i].ChannelID != "thread-1" {
			t.Errorf("chunk %d out of order: %+v", i, api.Sent[i].Content[:1])
		}
	}
}

func TestDeliverEmpty(t *testing.T) {
	api := &testutil.FakeThreadAPI{}
	n, err := Deliver(context.Background(), api, "thread-1", "")
	if err != nil || n != 0 || len(api.Sent) != 0 {
		t.Errorf("empty body: n=%d err=%v sent=%d", n, err, len(api.Sent))
	}
}

func TestDeliverStopsOnError(t *testing.T) {
	api := &testutil.FakeThreadAPI{SendErrAt: 2}
	n, err := Deliver(context.Background(), api, "thread-1", strings.Repeat("a", 4500))
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 || len(api.Sent) != 1 {
		t.Errorf("expected 1 chunk before failure, got %d", n)
	}
}
