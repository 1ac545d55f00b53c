package dto

// Inbound field aliases. The first key of each list wins when several are present.
var (
	FirstNameKeys    = []string{"nombre", "name", "firstName"}
	LastNameKeys     = []string{"apellido", "surname", "lastName"}
	EmailKeys        = []string{"email"}
	PhoneKeys        = []string{"telefono", "phone"}
	DisciplineKeys   = []string{"disciplina", "discipline"}
	MessageKeys      = []string{"mensaje", "message"}
	CaptchaTokenKeys = []string{"captchaToken", "captcha_token", "recaptchaToken", "recaptcha_token", "g-recaptcha-response", "token"}
)

// ContactPayload is the normalized submission forwarded to both delivery channels.
type ContactPayload struct {
	Nombre     string `json:"nombre"`
	Apellido   string `json:"apellido"`
	Email      string `json:"email"`
	Telefono   string `json:"telefono"`
	Disciplina string `json:"disciplina"`
	Mensaje    string `json:"mensaje"`
}

// ContactSubmission is one inbound submission after normalization.
type ContactSubmission struct {
	Payload      ContactPayload
	CaptchaToken string
	RemoteIP     string
}

// ChannelStatus is the per-channel outcome label.
type ChannelStatus string

const (
	ChannelSuccess ChannelStatus = "success"
	ChannelFailed  ChannelStatus = "failed"
)

// StatusFrom maps a delivery result to its label.
func StatusFrom(ok bool) ChannelStatus {
	if ok {
		return ChannelSuccess
	}
	return ChannelFailed
}

// RelayStatus summarises both delivery attempts.
type RelayStatus struct {
	Primary   ChannelStatus `json:"primary"`
	Secondary ChannelStatus `json:"secondary"`
	Errors    []string      `json:"errors"`
}

// RelayResponse is the body returned by the contact relay.
type RelayResponse struct {
	OK      bool                   `json:"ok"`
	Echo    map[string]interface{} `json:"echo"`
	Message string                 `json:"message"`
	Status  *RelayStatus           `json:"status,omitempty"`
}

// DisciplineResponse describes a discipline offered by the school.
type DisciplineResponse struct {
	Slug        string `json:"slug"`
	Label       string `json:"label"`
	Description string `json:"description"`
}
