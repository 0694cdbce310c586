package pipeline

import (
	"strings"
	"testing"
)

const plainComplaint = `From: Sita Patil <Sita@Example.com>
To: grievance@example.gov.in
Subject: Complaint about water
Message-ID: <c1@example.com>
Date: Fri, 01 Mar 2024 10:00:00 +0530
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain; charset=utf-8

Village: Shirur
Pincode: 412 210
Mobile: 98765-43210

No water supply in our ward
for 3 days.

Regards,
Sita
--BOUNDARY
Content-Type: image/png
Content-Disposition: attachment; filename="letter.png"
Content-Transfer-Encoding: base64

iVBORw0KGgo=
--BOUNDARY--
`

func TestExtractPlainComplaint(t *testing.T) {
	mc, err := ExtractComplaintFromEmailRaw([]byte(plainComplaint))
	if err != nil {
		t.Fatal(err)
	}
	if mc.Text != "No water supply in our ward for 3 days." {
		t.Fatalf("text=%q", mc.Text)
	}
	if mc.Village != "Shirur" || mc.Pincode != "412210" || mc.Mobile != "9876543210" {
		t.Fatalf("fields village=%q pincode=%q mobile=%q", mc.Village, mc.Pincode, mc.Mobile)
	}
	if mc.FromAddress != "sita@example.com" || mc.FullName != "Sita Patil" {
		t.Fatalf("from=%q name=%q", mc.FromAddress, mc.FullName)
	}
	if mc.Image == nil || mc.Image.Name != "letter.png" || len(mc.Image.Data) == 0 {
		t.Fatalf("image=%+v", mc.Image)
	}
	if mc.Audio != nil {
		t.Fatal("unexpected audio")
	}
}

func TestExtractHTMLComplaint(t *testing.T) {
	raw := `From: gram@example.com
Subject: तक्रार
MIME-Version: 1.0
Content-Type: text/html; charset=utf-8

<html><head><style>p{color:red}</style></head><body>
<p>नाव: राम जाधव</p>
<p>गाव: वडगाव</p>
<div>रस्त्यावर खड्डे<br>मोठे आहेत</div>
<p>धन्यवाद</p><p>राम</p>
</body></html>
`
	mc, err := ExtractComplaintFromEmailRaw([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if mc.FullName != "राम जाधव" || mc.Village != "वडगाव" {
		t.Fatalf("name=%q village=%q", mc.FullName, mc.Village)
	}
	if mc.Text != "रस्त्यावर खड्डे मोठे आहेत" {
		t.Fatalf("text=%q", mc.Text)
	}
	if strings.Contains(mc.Text, "color") {
		t.Fatal("style leaked into text")
	}
}

func TestExtractFallsBackToSubject(t *testing.T) {
	raw := "From: a@example.com\nSubject: Streetlights are not working\nContent-Type: text/plain\n\n\n"
	mc, err := ExtractComplaintFromEmailRaw([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if mc.Text != "Streetlights are not working" {
		t.Fatalf("text=%q", mc.Text)
	}
}

func TestExtractAudioAttachment(t *testing.T) {
	raw := `From: a@example.com
Subject: voice complaint
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="B"

--B
Content-Type: audio/ogg
Content-Disposition: attachment; filename="voice.ogg"
Content-Transfer-Encoding: base64

T2dnUw==
--B--
`
	mc, err := ExtractComplaintFromEmailRaw([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if mc.Audio == nil || mc.Audio.Name != "voice.ogg" || string(mc.Audio.Data) != "OggS" {
		t.Fatalf("audio=%+v", mc.Audio)
	}
	if mc.Text != "" {
		t.Fatalf("text=%q", mc.Text)
	}
}

func TestDetectComplaint(t *testing.T) {
	auto, err := ExtractComplaintFromEmailRaw([]byte("From: a@example.com\nSubject: Out of office\nContent-Type: text/plain\n\nI am away.\n"))
	if err != nil {
		t.Fatal(err)
	}
	if d := DetectComplaint(auto); d.IsComplaint || d.Reason != "auto_reply" {
		t.Fatalf("auto reply detect=%+v", d)
	}

	if d := DetectComplaint(MailComplaint{}); d.IsComplaint || d.Reason != "empty" {
		t.Fatalf("empty detect=%+v", d)
	}

	d := DetectComplaint(MailComplaint{Text: "No water supply since Monday", Village: "Shirur"})
	if !d.IsComplaint || d.Reason != "rules_positive" {
		t.Fatalf("water detect=%+v", d)
	}

	d = DetectComplaint(MailComplaint{Text: "Please call me"})
	if !d.IsComplaint || d.Reason != "rules_weak" {
		t.Fatalf("weak detect=%+v", d)
	}
}
