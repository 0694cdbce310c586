package gmail

import (
	"encoding/base64"
	"testing"
)

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("Subject: hi\r\n\r\nbody??>")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString(raw))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(raw) {
			t.Fatalf("got %q", got)
		}
	}
	if _, err := decodeBase64URL("%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFromRaw(t *testing.T) {
	raw := "Message-ID: <abc@example.com>\r\n" +
		"From: =?UTF-8?B?4KSw4KS+4KSu?= <ram@example.com>\r\n" +
		"Subject: =?UTF-8?Q?No_water?=\r\n" +
		"Date: Fri, 01 Mar 2024 10:00:00 +0530\r\n" +
		"\r\n" +
		"body\r\n"

	got := fromRaw("g-1", 0, []byte(raw))
	if got.MessageID != "<abc@example.com>" {
		t.Fatalf("messageID=%q", got.MessageID)
	}
	if got.Subject != "No water" {
		t.Fatalf("subject=%q", got.Subject)
	}
	if got.From != "राम <ram@example.com>" {
		t.Fatalf("from=%q", got.From)
	}
	if got.ReceivedAt != "2024-03-01T04:30:00Z" {
		t.Fatalf("receivedAt=%q", got.ReceivedAt)
	}

	got = fromRaw("g-2", 1709267400000, []byte("not a message"))
	if got.MessageID != "g-2" || got.ReceivedAt != "2024-03-01T04:30:00Z" {
		t.Fatalf("fallback=%+v", got)
	}
}
