package core

// ReviewRequest is the payload accepted by the review endpoint.
type ReviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ReviewResponse is the payload returned by the review endpoint. Exactly one of
// Review or Error is set.
type ReviewResponse struct {
	Review string `json:"review,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Prompt is the rendered system/user pair handed to every provider.
type Prompt struct {
	System string
	User   string
}

// Combined joins the system and user prompt for backends that accept a single
// block of text, such as a model run from the command line.
func (p Prompt) Combined() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}
