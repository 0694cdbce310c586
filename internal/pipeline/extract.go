package pipeline

import (
	"bytes"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"

	"grievance/internal/intake"
	"grievance/internal/util"
)

// MailComplaint is everything a complaint email carries that intake can use.
type MailComplaint struct {
	Subject     string
	FromName    string
	FromAddress string
	// AutoReply is set for vacation responders and bounces.
	AutoReply bool

	FullName string
	Mobile   string
	Village  string
	Pincode  string
	Aadhar   string
	Text     string

	Image           *intake.Attachment
	Audio           *intake.Attachment
	AttachmentNames []string
}

type field int

const (
	fieldName field = iota
	fieldMobile
	fieldVillage
	fieldPincode
	fieldAadhar
)

var fieldPatterns = []struct {
	field field
	re    *regexp.Regexp
}{
	{fieldName, regexp.MustCompile(`(?i)^(?:full\s*name|name|नाव)\s*[:：-]\s*(.+)$`)},
	{fieldMobile, regexp.MustCompile(`(?i)^(?:mobile|phone|mob\.?|मोबाईल|मोबाइल)\s*[:：-]\s*(.+)$`)},
	{fieldVillage, regexp.MustCompile(`(?i)^(?:village|गाव|गांव)\s*[:：-]\s*(.+)$`)},
	{fieldPincode, regexp.MustCompile(`(?i)^(?:pin\s*code|pincode|pin|पिनकोड|पिन कोड)\s*[:：-]\s*(.+)$`)},
	{fieldAadhar, regexp.MustCompile(`(?i)^(?:aadhaar|aadhar|आधार)(?:\s*(?:no\.?|number|क्रमांक))?\s*[:：-]\s*(.+)$`)},
}

// Lines that open a signature or quoted reply; nothing after them is complaint text.
var closingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^--+\s*$`),
	regexp.MustCompile(`^_{3,}$`),
	regexp.MustCompile(`(?i)^(?:regards|best regards|thanks|thank you|yours (?:faithfully|sincerely|truly))\b`),
	regexp.MustCompile(`^(?:धन्यवाद|आपला|आपली|आपले)`),
	regexp.MustCompile(`(?i)^on .+ wrote:$`),
	regexp.MustCompile(`^>`),
}

var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^sent from my`),
	regexp.MustCompile(`(?i)^(?:to|subject|date|from)\s*:`),
	regexp.MustCompile(`(?i)^https?://`),
}

var autoReplySubject = regexp.MustCompile(`(?i)^(?:auto(?:matic)?[ -]?reply|out of (?:the )?office|delivery status notification|undeliverable|mail delivery failed)`)

// ExtractComplaintFromEmailRaw parses a raw RFC 822 message into a MailComplaint.
func ExtractComplaintFromEmailRaw(raw []byte) (MailComplaint, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MailComplaint{}, err
	}

	mc := MailComplaint{Subject: strings.TrimSpace(env.GetHeader("Subject"))}
	if from, err := env.AddressList("From"); err == nil && len(from) > 0 {
		mc.FromName = strings.TrimSpace(from[0].Name)
		mc.FromAddress = strings.ToLower(strings.TrimSpace(from[0].Address))
	}
	mc.AutoReply = autoReplySubject.MatchString(mc.Subject) ||
		(env.GetHeader("Auto-Submitted") != "" && !strings.EqualFold(env.GetHeader("Auto-Submitted"), "no"))

	body := env.Text
	if env.HTML != "" && !hasPlainPart(env.Root) {
		body = htmlToText(env.HTML)
	}
	parts := []string{}
	if text := mc.absorbBody(body); text != "" {
		parts = append(parts, text)
	}

	attachments := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, att := range attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment" + extensionFor(att.ContentType)
		}
		mc.AttachmentNames = append(mc.AttachmentNames, filename)

		switch kindOf(att.ContentType, filename) {
		case "image":
			if mc.Image == nil {
				mc.Image = &intake.Attachment{Name: filename, Data: att.Content}
			}
		case "audio":
			if mc.Audio == nil {
				mc.Audio = &intake.Attachment{Name: filename, Data: att.Content}
			}
		case "pdf":
			text, err := pdfText(att.Content)
			if err == nil {
				if text = mc.absorbBody(text); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}

	mc.Text = util.NormalizeSpaces(strings.Join(parts, " "))
	if mc.Text == "" && mc.Image == nil && mc.Audio == nil && !mc.AutoReply {
		mc.Text = mc.Subject
	}
	if mc.FullName == "" {
		mc.FullName = mc.FromName
	}
	return mc, nil
}

// absorbBody moves labelled field lines into mc and returns the remaining text.
func (mc *MailComplaint) absorbBody(body string) string {
	kept := []string{}
	for _, line := range util.SplitLines(body) {
		if isClosing(line) {
			break
		}
		if isIgnored(line) {
			continue
		}
		if mc.absorbField(line) {
			continue
		}
		kept = append(kept, line)
	}
	return util.NormalizeSpaces(strings.Join(kept, " "))
}

func (mc *MailComplaint) absorbField(line string) bool {
	for _, p := range fieldPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := util.NormalizeSpaces(m[1])
		switch p.field {
		case fieldName:
			setOnce(&mc.FullName, value)
		case fieldMobile:
			setOnce(&mc.Mobile, util.Digits(value))
		case fieldVillage:
			setOnce(&mc.Village, value)
		case fieldPincode:
			setOnce(&mc.Pincode, util.Digits(value))
		case fieldAadhar:
			setOnce(&mc.Aadhar, util.Digits(value))
		}
		return true
	}
	return false
}

func setOnce(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

func isClosing(line string) bool {
	for _, re := range closingPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func isIgnored(line string) bool {
	for _, re := range ignorePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// hasPlainPart reports whether the sender supplied a text/plain body, as
// opposed to one derived from the HTML part.
func hasPlainPart(root *enmime.Part) bool {
	if root == nil {
		return false
	}
	return root.BreadthMatchFirst(func(p *enmime.Part) bool {
		return p.ContentType == "text/plain" && p.Disposition != "attachment"
	}) != nil
}

// htmlToText flattens an HTML body to one line per block element.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script,style,head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p,div,li,tr,h1,h2,h3,h4,h5,h6,blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("td,th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return doc.Text()
}

func pdfText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func kindOf(contentType, filename string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return "image"
	case strings.HasPrefix(mediaType, "audio/"):
		return "audio"
	case mediaType == "application/pdf":
		return "pdf"
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return "image"
	case ".wav", ".mp3", ".m4a", ".ogg", ".oga", ".opus", ".webm", ".flac", ".amr":
		return "audio"
	case ".pdf":
		return "pdf"
	}
	return ""
}

func extensionFor(contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
