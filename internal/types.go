package internal

type ComplaintSource string

const (
	SourceWebText  ComplaintSource = "web_text"
	SourceWebImage ComplaintSource = "web_image"
	SourceWebAudio ComplaintSource = "web_audio"
	SourceEmail    ComplaintSource = "email"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID     int64
	Name   string
	Mobile string
	Email  string
	Role   Role
}

type Complaint struct {
	ID            int64
	UserID        *int64
	EmailID       *int
	FullName      string
	Village       string
	Pincode       string
	Aadhar        string
	ComplaintText string
	Department    string
	Standardized  string
	Source        ComplaintSource
	CreatedAt     string
}

// ComplaintListing is a complaint joined with the user that filed it.
type ComplaintListing struct {
	UserName      string `json:"userName"`
	UserMobile    string `json:"userMobile"`
	FullName      string `json:"fullName"`
	Village       string `json:"village"`
	Pincode       string `json:"pincode"`
	Aadhar        string `json:"aadhar"`
	ComplaintText string `json:"complaintText"`
	Department    string `json:"department"`
	Standardized  string `json:"standardized"`
	CreatedAt     string `json:"createdAt"`
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
