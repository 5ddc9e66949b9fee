package dto

type SearchStartResponse struct {
	Status    string   `json:"status"`
	SessionID string   `json:"session_id,omitempty"`
	PartnerID int64    `json:"partner_id,omitempty"`
	Score     float64  `json:"score,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
}

type SearchStatusResponse struct {
	Status     string `json:"status"`
	SessionID  string `json:"session_id,omitempty"`
	PartnerID  int64  `json:"partner_id,omitempty"`
	RelaxLevel int    `json:"relax_level"`
	Waiting    int    `json:"waiting"`
}

type SearchCancelResponse struct {
	Stopped bool `json:"stopped"`
}
